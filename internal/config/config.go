// =============================================================================
// AR Export - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration
// files. It handles both the main application configuration and the
// per-entity processing rules.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): global application settings
//   2. Entity Rules (rules/*.yaml): per-legal-entity processing rules
//
// The engines never read configuration files themselves; they receive
// already-parsed values from here via the CLI.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the global application configuration.
type Config struct {
	// System is the name of the automation host system to connect to.
	System string `yaml:"system"`

	// TempDir is the directory for transient export artifacts. Files in
	// here are deleted after each export is read back.
	// Default: "./tmp"
	TempDir string `yaml:"temp_dir"`

	// DataDir is the directory where converted record tables are written.
	// Default: "./data"
	DataDir string `yaml:"data_dir"`

	// ReportDir is the directory where XLSX reports are written.
	// Default: "./reports"
	ReportDir string `yaml:"report_dir"`

	// RulesDir is the directory containing per-entity rule files.
	// Default: "./rules"
	RulesDir string `yaml:"rules_dir"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// =============================================================================
// ENTITY RULES STRUCTURE
// =============================================================================

// Classification values accepted in entity rule files.
const (
	ClassifyByCompanyCode = "company_code"
	ClassifyByWorklist    = "worklist"
)

// EntityRules holds the processing rules for one legal entity: how its
// accounts are selected on the item-listing screen, how case identifiers
// are recognized in item texts, and which display layouts the exports use.
type EntityRules struct {
	// EntityName is the human-readable name of the legal entity.
	// Used in logs and report headers.
	EntityName string `yaml:"entity_name"`

	// EntityCode is a short code for the entity. Rule files are keyed by
	// it; it also appears in output file names.
	EntityCode string `yaml:"entity_code"`

	// Classification selects how the entity's accounts are identified:
	// by a company code or by a named host-side worklist.
	Classification string `yaml:"classification"`

	// CompanyCode is the four-digit company code. Required when
	// classification is "company_code".
	CompanyCode string `yaml:"company_code"`

	// Worklist is the host-side worklist name. Required when
	// classification is "worklist".
	Worklist string `yaml:"worklist"`

	// Accounts lists the entity's customer account numbers. Required when
	// classification is "company_code": the item-listing screen always
	// selects by account, the company code only narrows the result.
	Accounts []int `yaml:"accounts"`

	// CaseIDPattern is the entity-specific regular expression fragment
	// matching the digits of a case identifier, e.g. `2\d{6}`.
	CaseIDPattern string `yaml:"case_id_pattern"`

	// ReceivablesLayout is the display layout applied to the item-listing
	// export. Empty keeps the host default.
	ReceivablesLayout string `yaml:"receivables_layout"`

	// DisputesLayout is the display layout applied to the dispute-case
	// export. Empty keeps the host default.
	DisputesLayout string `yaml:"disputes_layout"`

	// ItemStatus selects which items the receivables export considers:
	// "open", "cleared", or "all".
	// Default: "open"
	ItemStatus string `yaml:"item_status"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the main configuration from a YAML file, applies defaults,
// and ensures the working directories exist.
//
// PARAMETERS:
//   - path: the path to the main configuration file.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.TempDir == "" {
		cfg.TempDir = "./tmp"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = "./reports"
	}
	if cfg.RulesDir == "" {
		cfg.RulesDir = "./rules"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// validate checks the main configuration and creates missing directories.
func validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", cfg.LogLevel)
	}

	dirs := []string{cfg.TempDir, cfg.DataDir, cfg.ReportDir, cfg.RulesDir}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// LoadEntityRules loads all entity rule files from a directory.
//
// PARAMETERS:
//   - rulesDir: the path to the directory containing entity rule files.
//
// RETURNS:
//   - A map of entity rules, keyed by entity code.
//   - An error if the directory cannot be read or any file is invalid.
func LoadEntityRules(rulesDir string) (map[string]*EntityRules, error) {
	rules := make(map[string]*EntityRules)

	files, err := filepath.Glob(filepath.Join(rulesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list rule files: %w", err)
	}

	// Also check for the .yml extension.
	ymlFiles, err := filepath.Glob(filepath.Join(rulesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list rule files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		r, err := loadEntityRules(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		key := r.EntityCode
		if key == "" {
			key = filepath.Base(file)
		}
		rules[key] = r
	}

	return rules, nil
}

// loadEntityRules loads and validates a single entity rule file.
func loadEntityRules(path string) (*EntityRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var r EntityRules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	if r.ItemStatus == "" {
		r.ItemStatus = "open"
	}

	if err := validateEntityRules(&r); err != nil {
		return nil, err
	}

	return &r, nil
}

// validateEntityRules checks one entity rule set for consistency.
func validateEntityRules(r *EntityRules) error {
	switch r.Classification {
	case ClassifyByCompanyCode:
		if r.CompanyCode == "" {
			return fmt.Errorf("entity %q: company_code classification requires a company code", r.EntityCode)
		}
		if len(r.Accounts) == 0 {
			return fmt.Errorf("entity %q: company_code classification requires at least one account", r.EntityCode)
		}
	case ClassifyByWorklist:
		if r.Worklist == "" {
			return fmt.Errorf("entity %q: worklist classification requires a worklist name", r.EntityCode)
		}
	default:
		return fmt.Errorf("entity %q: unknown classification: %q", r.EntityCode, r.Classification)
	}

	switch r.ItemStatus {
	case "open", "cleared", "all":
	default:
		return fmt.Errorf("entity %q: unknown item status: %q", r.EntityCode, r.ItemStatus)
	}

	if r.CaseIDPattern != "" {
		if _, err := regexp.Compile(r.CaseIDPattern); err != nil {
			return fmt.Errorf("entity %q: invalid case-id pattern: %w", r.EntityCode, err)
		}
	}

	return nil
}
