package engine

import "formmap/internal/common"

// State is a step of a single transform run.
type State int

const (
	StateLoaded State = iota
	StateValidating
	StateExtracting
	StateAssembling
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLoaded:
		return "Loaded"
	case StateValidating:
		return "Validating"
	case StateExtracting:
		return "Extracting"
	case StateAssembling:
		return "Assembling"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return common.UnknownStr
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
