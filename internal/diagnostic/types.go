package diagnostic

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"formmap/internal/common"
)

// Kind classifies a diagnostic by the stage and blast radius of the problem.
type Kind int

const (
	KindMalformedMap Kind = iota
	KindSchemaMismatch
	KindMissingRequiredField
	KindUnknownChoiceValue
	KindAssertionFailed
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMalformedMap:
		return "MalformedMap"
	case KindSchemaMismatch:
		return "SchemaMismatch"
	case KindMissingRequiredField:
		return "MissingRequiredField"
	case KindUnknownChoiceValue:
		return "UnknownChoiceValue"
	case KindAssertionFailed:
		return "AssertionFailed"
	default:
		return common.UnknownStr
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Fatal reports whether a diagnostic of this kind stops processing
// (of the engine for MalformedMap, of the document for SchemaMismatch).
func (k Kind) Fatal() bool {
	return k == KindMalformedMap || k == KindSchemaMismatch
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// MarshalText renders the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic represents a single reported problem.
type Diagnostic struct {
	// Kind is the taxonomy class.
	Kind Kind `json:"kind"`
	// Severity of the diagnostic.
	Severity Severity `json:"severity"`
	// Code is a finer-grained machine identifier (e.g. "unknown_key").
	Code string `json:"code,omitempty"`
	// LeafID is the source leaf address responsible, if any.
	LeafID string `json:"leafId,omitempty"`
	// LinkID is the target linkid responsible, if any.
	LinkID string `json:"linkid,omitempty"`
	// Value is the offending raw value, if any.
	Value string `json:"value,omitempty"`
	// Message is the human-readable description.
	Message string `json:"detail"`
}

// Subject returns the id the diagnostic is about: the linkid for target-side
// problems, otherwise the leaf id.
func (d Diagnostic) Subject() string {
	switch {
	case d.Kind == KindMissingRequiredField && d.LinkID != "":
		return d.LinkID
	case d.LeafID != "":
		return d.LeafID
	default:
		return d.LinkID
	}
}

// String returns a one-line rendering: "<Kind> <subject>: [code] message".
func (d Diagnostic) String() string {
	var b strings.Builder

	b.WriteString(d.Kind.String())

	if s := d.Subject(); s != "" {
		b.WriteString(" ")
		b.WriteString(s)
	}

	b.WriteString(": ")

	if d.Code != "" {
		fmt.Fprintf(&b, "[%s] ", d.Code)
	}

	b.WriteString(d.Message)

	return b.String()
}

// List is an ordered collection of diagnostics. It implements error so a
// fatal list can be returned and recovered with errors.As.
type List []Diagnostic

// Add appends a diagnostic.
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// AddError adds an error-severity diagnostic.
func (l *List) AddError(kind Kind, code, leafID, linkID, message string) {
	l.Add(Diagnostic{
		Kind:     kind,
		Severity: SeverityError,
		Code:     code,
		LeafID:   leafID,
		LinkID:   linkID,
		Message:  message,
	})
}

// AddWarning adds a warning-severity diagnostic.
func (l *List) AddWarning(kind Kind, code, leafID, linkID, message string) {
	l.Add(Diagnostic{
		Kind:     kind,
		Severity: SeverityWarning,
		Code:     code,
		LeafID:   leafID,
		LinkID:   linkID,
		Message:  message,
	})
}

// Malformed adds a MalformedMap error.
func (l *List) Malformed(code, subject, format string, args ...any) {
	l.AddError(KindMalformedMap, code, "", subject, fmt.Sprintf(format, args...))
}

// Merge appends every diagnostic of other.
func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

// HasErrors returns true if there are any error diagnostics.
func (l List) HasErrors() bool {
	return slices.ContainsFunc(l, func(d Diagnostic) bool { return d.Severity == SeverityError })
}

// HasKind returns true if any diagnostic is of the given kind.
func (l List) HasKind(kind Kind) bool {
	return slices.ContainsFunc(l, func(d Diagnostic) bool { return d.Kind == kind })
}

// Errors returns the error-severity diagnostics.
func (l List) Errors() List {
	return l.filter(func(d Diagnostic) bool { return d.Severity == SeverityError })
}

// Warnings returns the warning-severity diagnostics.
func (l List) Warnings() List {
	return l.filter(func(d Diagnostic) bool { return d.Severity == SeverityWarning })
}

// OfKind returns the diagnostics of the given kind.
func (l List) OfKind(kind Kind) List {
	return l.filter(func(d Diagnostic) bool { return d.Kind == kind })
}

func (l List) filter(keep func(Diagnostic) bool) List {
	var out List

	for _, d := range l {
		if keep(d) {
			out = append(out, d)
		}
	}

	return out
}

// Sorted returns a copy ordered by kind, then subject. Diagnostics that
// compare equal keep their relative order.
func (l List) Sorted() List {
	out := slices.Clone(l)
	slices.SortStableFunc(out, func(a, b Diagnostic) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}

		return strings.Compare(a.Subject(), b.Subject())
	})

	return out
}

// Lines renders one diagnostic per line.
func (l List) Lines() []string {
	out := make([]string, len(l))
	for i, d := range l {
		out[i] = d.String()
	}

	return out
}

// Error joins the diagnostics with "; ".
func (l List) Error() string {
	return strings.Join(l.Lines(), "; ")
}

// Err returns the list as an error when it holds errors, nil otherwise.
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}

	return l
}

// AsList extracts a List from an error chain.
func AsList(err error) (List, bool) {
	if err == nil {
		return nil, false
	}

	var l List
	if errors.As(err, &l) {
		return l, true
	}

	return nil, false
}
