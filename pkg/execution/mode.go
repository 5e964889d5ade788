package execution

import (
	"fmt"
	"strings"
)

// Mode selects how data errors are treated for one execution.
type Mode int

const (
	// Permissive turns recoverable errors into MISSING.
	Permissive Mode = iota
	// Strict aborts the statement on the first error.
	Strict
)

func (m Mode) String() string {
	switch m {
	case Permissive:
		return "PERMISSIVE"
	case Strict:
		return "STRICT"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "permissive" or "strict" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PERMISSIVE":
		return Permissive, nil
	case "STRICT":
		return Strict, nil
	default:
		return Permissive, fmt.Errorf("unknown typing mode %q", s)
	}
}
