package choice

import (
	"fmt"
	"strings"
)

// Mode selects how a raw value is normalized before the second lookup.
type Mode string

const (
	// ModeExact performs no second lookup.
	ModeExact Mode = "exact"
	// ModeCasefold trims surrounding whitespace and lowercases.
	ModeCasefold Mode = "casefold"
	// ModeIdent applies NormalizeIdent: lowercase, separators stripped.
	ModeIdent Mode = "ident"
)

// Modes lists the accepted modes in documentation order.
var Modes = []Mode{ModeExact, ModeCasefold, ModeIdent}

// ParseMode resolves a mode name. The empty string is ModeExact.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeExact, nil
	case ModeExact, ModeCasefold, ModeIdent:
		return m, nil
	default:
		return "", fmt.Errorf("unknown normalization mode %q (expected exact, casefold or ident)", s)
	}
}

// Normalize returns the lookup key of s under the mode. ModeExact returns
// s unchanged.
func (m Mode) Normalize(s string) string {
	switch m {
	case ModeCasefold:
		return strings.ToLower(strings.TrimSpace(s))
	case ModeIdent:
		return NormalizeIdent(s)
	default:
		return s
	}
}

// Retries reports whether the mode performs a second, normalized lookup.
func (m Mode) Retries() bool {
	return m == ModeCasefold || m == ModeIdent
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == "" {
		return string(ModeExact)
	}

	return string(m)
}
