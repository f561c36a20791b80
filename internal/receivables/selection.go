// =============================================================================
// AR Export - Receivables Selection Criteria
// =============================================================================
//
// Selection is a tagged variant describing which customer accounts an
// operation works on: one account, an explicit account list, or a named
// host-side worklist. Exactly one variant is active, and every constraint
// is checked before the remote screen is touched.
//
// =============================================================================

package receivables

import (
	"fmt"
	"time"
)

// Status selects which accounting items an operation considers.
type Status string

const (
	// StatusOpen selects open items.
	StatusOpen Status = "open"
	// StatusCleared selects cleared items.
	StatusCleared Status = "cleared"
	// StatusAll selects open and cleared items.
	StatusAll Status = "all"
)

// accountDigits is the fixed width of a customer account number.
const accountDigits = 7

type selectionKind int

const (
	selectNone selectionKind = iota
	selectAccount
	selectAccounts
	selectWorklist
)

// Selection identifies the customer accounts to operate on.
type Selection struct {
	kind     selectionKind
	account  int
	accounts []int
	worklist string
}

// SingleAccount selects one customer account.
func SingleAccount(account int) Selection {
	return Selection{kind: selectAccount, account: account}
}

// AccountList selects an explicit list of customer accounts.
func AccountList(accounts []int) Selection {
	cp := make([]int, len(accounts))
	copy(cp, accounts)
	return Selection{kind: selectAccounts, accounts: cp}
}

// Worklist selects the accounts of a named host-side worklist.
func Worklist(name string) Selection {
	return Selection{kind: selectWorklist, worklist: name}
}

func (s Selection) validate() error {
	switch s.kind {
	case selectAccount:
		return validateAccount(s.account)

	case selectAccounts:
		if len(s.accounts) == 0 {
			return fmt.Errorf("account list is empty")
		}
		for _, a := range s.accounts {
			if err := validateAccount(a); err != nil {
				return err
			}
		}
		return nil

	case selectWorklist:
		if s.worklist == "" {
			return fmt.Errorf("worklist name is empty")
		}
		return nil

	default:
		return fmt.Errorf("no selection criteria provided")
	}
}

func validateAccount(account int) error {
	if account < 1_000_000 || account > 9_999_999 {
		return fmt.Errorf("invalid account number: %d (expected %d digits)", account, accountDigits)
	}
	return nil
}

// validateCompanyCode accepts an empty company code or exactly four
// numeric characters.
func validateCompanyCode(code string) error {
	if code == "" {
		return nil
	}
	if len(code) != 4 {
		return fmt.Errorf("company code has incorrect value: %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("company code has incorrect value: %q", code)
		}
	}
	return nil
}

func validateStatus(status Status) error {
	switch status {
	case StatusOpen, StatusCleared, StatusAll:
		return nil
	default:
		return fmt.Errorf("unrecognized item status: %q", status)
	}
}

func validateDateRange(from, to time.Time) error {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return fmt.Errorf("lower posting date is greater than upper posting date")
	}
	return nil
}
