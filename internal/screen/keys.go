package screen

// virtualKeys maps key names to the virtual-key codes understood by the
// automation host. The table is fixed; pressing an unmapped name is a
// programming error surfaced as UnknownKeyError.
var virtualKeys = map[string]int{
	"Enter":       0,
	"F2":          2,
	"F3":          3,
	"F4":          4,
	"F6":          6,
	"F8":          8,
	"F9":          9,
	"CtrlS":       11,
	"F12":         12,
	"ShiftF1":     13,
	"ShiftF2":     14,
	"ShiftF4":     16,
	"ShiftF12":    24,
	"CtrlF1":      25,
	"CtrlF8":      32,
	"CtrlShiftF2": 38,
	"CtrlShiftF6": 42,
}
