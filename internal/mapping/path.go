package mapping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseAddress parses a leaf id into its key sequence.
// Supports: "patient", "patient.person", "names[0]", "names[0].value", "grid[0][1]".
func ParseAddress(id string) (HeaderPath, error) {
	if id == "" {
		return nil, errors.New("empty address")
	}

	var keys HeaderPath

	for part := range strings.SplitSeq(id, ".") {
		if part == "" {
			return nil, fmt.Errorf("invalid address %q: empty segment", id)
		}

		name, rest, hasIndex := strings.Cut(part, "[")
		if name == "" {
			return nil, fmt.Errorf("invalid address %q: index without member name", id)
		}

		keys = append(keys, NameKey(name))

		if !hasIndex {
			continue
		}

		// rest is "0]" or "0][1]" after the first cut.
		for idx := range strings.SplitSeq(strings.TrimSuffix(rest, "]"), "][") {
			i, err := strconv.Atoi(idx)
			if err != nil || i < 0 {
				return nil, fmt.Errorf("invalid address %q: bad index %q", id, idx)
			}

			keys = append(keys, IndexKey(i))
		}

		if !strings.HasSuffix(part, "]") {
			return nil, fmt.Errorf("invalid address %q: unterminated index", id)
		}
	}

	return keys, nil
}

// FormatAddress renders a key sequence in id syntax.
func FormatAddress(keys []SchemaKey) string {
	var b strings.Builder

	for i, k := range keys {
		if k.IsIndex {
			fmt.Fprintf(&b, "[%d]", k.Index)
			continue
		}

		if i > 0 {
			b.WriteByte('.')
		}

		b.WriteString(k.Name)
	}

	return b.String()
}

// ChildAddress returns the address of key under parent ("" is the root).
func ChildAddress(parent string, key SchemaKey) string {
	switch {
	case key.IsIndex:
		return fmt.Sprintf("%s[%d]", parent, key.Index)
	case parent == "":
		return key.Name
	default:
		return parent + "." + key.Name
	}
}

// IsValidMemberName reports whether a member name can be written in an
// address without ambiguity.
func IsValidMemberName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ".[]")
}

// Equal reports whether two header paths address the same value.
func (p HeaderPath) Equal(other HeaderPath) bool {
	if len(p) != len(other) {
		return false
	}

	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}

	return true
}
