package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"formmap/internal/diagnostic"
	"formmap/internal/mapping"
)

// Issue codes reported by Validate.
const (
	CodeInvalidType = "invalid_type"
	CodeUnknownKey  = "unknown_key"
	CodeTruncated   = "truncated"
)

// Snapshot is a validated source document addressable by leaf id.
type Snapshot struct {
	tree *Tree
	root map[string]any
}

// Validate checks that doc conforms to the declared shape. All structural
// mismatches are collected, up to maxIssues when it is positive; the
// snapshot is nil when any were found.
//
// Accepted values: objects as map[string]any, arrays as []any, leaves as
// strings, numbers, booleans or null. Missing members and missing array
// elements are absent values, not mismatches. Elements past the declared
// length of an array are ignored.
func (t *Tree) Validate(doc any, maxIssues int) (*Snapshot, diagnostic.List) {
	v := &validator{max: maxIssues}

	root, ok := doc.(map[string]any)
	if !ok {
		v.mismatch(CodeInvalidType, "", "document must be an object, got %s", describe(doc))
		return nil, v.diags
	}

	v.object(t.root, root)

	if len(v.diags) > 0 {
		return nil, v.diags
	}

	return &Snapshot{tree: t, root: root}, nil
}

type validator struct {
	diags diagnostic.List
	max   int
	full  bool
}

func (v *validator) mismatch(code, id, format string, args ...any) {
	if v.full {
		return
	}

	if v.max > 0 && len(v.diags) == v.max {
		v.diags.AddError(diagnostic.KindSchemaMismatch, CodeTruncated, "", "",
			fmt.Sprintf("stopped after %d structural issues", v.max))
		v.full = true

		return
	}

	v.diags.AddError(diagnostic.KindSchemaMismatch, code, id, "", fmt.Sprintf(format, args...))
}

func (v *validator) node(n Node, value any) {
	if value == nil {
		return
	}

	switch n := n.(type) {
	case *Object:
		m, ok := value.(map[string]any)
		if !ok {
			v.mismatch(CodeInvalidType, n.id, "expected object, got %s", describe(value))
			return
		}

		v.object(n, m)

	case *Array:
		s, ok := value.([]any)
		if !ok {
			v.mismatch(CodeInvalidType, n.id, "expected array, got %s", describe(value))
			return
		}

		for i, el := range n.Elements {
			if i >= len(s) {
				break
			}

			v.node(el, s[i])
		}

	case *Leaf:
		if _, ok := scalarText(value); !ok {
			v.mismatch(CodeInvalidType, n.id, "expected scalar, got %s", describe(value))
		}
	}
}

func (v *validator) object(o *Object, m map[string]any) {
	// Sorted so the issue order does not depend on map iteration.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		child, ok := o.byName[k]
		if !ok {
			v.mismatch(CodeUnknownKey, mapping.ChildAddress(o.id, mapping.NameKey(k)),
				"undeclared key %q", k)

			continue
		}

		v.node(child, m[k])
	}
}

// Lookup returns the scalar at a leaf address. It reports false when the
// id is not a leaf, when the path is missing, or when the value is null or
// blank.
func (s *Snapshot) Lookup(id string) (string, bool) {
	leaf, ok := s.tree.Leaf(id)
	if !ok {
		return "", false
	}

	return s.Extract(leaf)
}

// Extract follows a leaf's compiled path through the document.
func (s *Snapshot) Extract(leaf *Leaf) (string, bool) {
	var cur any = s.root

	for _, k := range leaf.Path {
		switch c := cur.(type) {
		case map[string]any:
			if k.IsIndex {
				return "", false
			}

			cur = c[k.Name]
		case []any:
			if !k.IsIndex || k.Index >= len(c) {
				return "", false
			}

			cur = c[k.Index]
		default:
			return "", false
		}
	}

	text, ok := scalarText(cur)
	if !ok || strings.TrimSpace(text) == "" {
		return "", false
	}

	return text, true
}

// scalarText renders a leaf value. Numbers keep their JSON text when the
// decoder preserved it.
func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case map[string]any, []any:
		return "", false
	case fmt.Stringer:
		// json.Number from either encoding/json or go-json
		return v.String(), true
	default:
		return "", false
	}
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		if _, ok := scalarText(value); ok {
			return "number"
		}

		return fmt.Sprintf("%T", value)
	}
}
