// Package assemble merges resolved attributes into a nested target document.
//
// A Layout is compiled once per map: every targetPath is declared, which
// fixes the parent and the rank of each linkid. Ranks follow first
// declaration, so siblings are ordered the same way in every document no
// matter which fields turned out absent. A per-document Assembler then
// collects attributes and Build produces the pruned Document.
package assemble

import (
	"formmap/internal/diagnostic"
	"formmap/internal/mapping"
)

// Codes reported by Declare.
const (
	CodeConflictingParent   = "conflicting_parent"
	CodeConflictingText     = "conflicting_text"
	CodeConflictingRequired = "conflicting_required"
	CodeDuplicateTarget     = "duplicate_target"
	CodeTerminalInterior    = "terminal_and_interior"
)

type slot struct {
	linkID   string
	text     string
	required bool
	parent   string
	owner    string   // first declarer
	terminal string   // declarer of the terminal attribute, if any
	children []string // in declaration order
}

// Layout is the compiled shape of every target path of a map.
type Layout struct {
	slots map[string]*slot
	roots []string
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{slots: map[string]*slot{}}
}

// Declare registers a target path on behalf of owner (a leaf id or a
// constant name). Conflicts with earlier declarations are MalformedMap.
// A path that fails is not registered past its first conflicting segment.
func (l *Layout) Declare(owner string, path mapping.TargetPath) diagnostic.List {
	var diags diagnostic.List

	if len(path) == 0 {
		diags.Malformed("missing_target_path", owner, "%s declares an empty targetPath", owner)
		return diags
	}

	parent := ""

	for i, seg := range path {
		last := i == len(path)-1

		s, ok := l.slots[seg.LinkID]
		if !ok {
			s = &slot{
				linkID:   seg.LinkID,
				text:     seg.Text,
				required: seg.Required,
				parent:   parent,
				owner:    owner,
			}
			l.slots[seg.LinkID] = s

			if parent == "" {
				l.roots = append(l.roots, seg.LinkID)
			} else {
				p := l.slots[parent]
				p.children = append(p.children, seg.LinkID)
			}
		} else if !l.merge(&diags, owner, s, seg, parent) {
			return diags
		}

		switch {
		case last && s.terminal != "":
			diags.Malformed(CodeDuplicateTarget, seg.LinkID,
				"linkid %q is the target of both %s and %s", seg.LinkID, s.terminal, owner)

			return diags
		case last && len(s.children) > 0:
			diags.Malformed(CodeTerminalInterior, seg.LinkID,
				"%s targets linkid %q, which already has child nodes", owner, seg.LinkID)

			return diags
		case last:
			s.terminal = owner
		case s.terminal != "":
			diags.Malformed(CodeTerminalInterior, seg.LinkID,
				"%s nests under linkid %q, which is the target of %s", owner, seg.LinkID, s.terminal)

			return diags
		}

		parent = seg.LinkID
	}

	return diags
}

// merge checks a repeated segment against its first declaration.
func (l *Layout) merge(diags *diagnostic.List, owner string, s *slot, seg mapping.PathNode, parent string) bool {
	switch {
	case s.parent != parent:
		diags.Malformed(CodeConflictingParent, seg.LinkID,
			"linkid %q is under %q for %s but under %q for %s",
			seg.LinkID, s.parent, s.owner, parent, owner)
	case s.required != seg.Required:
		diags.Malformed(CodeConflictingRequired, seg.LinkID,
			"linkid %q is required=%t for %s but required=%t for %s",
			seg.LinkID, s.required, s.owner, seg.Required, owner)
	case seg.Text != "" && s.text != "" && seg.Text != s.text:
		diags.Malformed(CodeConflictingText, seg.LinkID,
			"linkid %q has text %q for %s but %q for %s",
			seg.LinkID, s.text, s.owner, seg.Text, owner)
	default:
		if s.text == "" {
			s.text = seg.Text
		}

		return true
	}

	return false
}

// Len returns the number of declared linkids.
func (l *Layout) Len() int {
	return len(l.slots)
}

// Has reports whether linkID was declared.
func (l *Layout) Has(linkID string) bool {
	_, ok := l.slots[linkID]
	return ok
}

// Text returns the label declared for linkID.
func (l *Layout) Text(linkID string) string {
	if s, ok := l.slots[linkID]; ok {
		return s.text
	}

	return ""
}

// Order returns every declared linkid, depth first with siblings by rank.
func (l *Layout) Order() []string {
	out := make([]string, 0, len(l.slots))

	var walk func(ids []string)
	walk = func(ids []string) {
		for _, id := range ids {
			out = append(out, id)
			walk(l.slots[id].children)
		}
	}

	walk(l.roots)

	return out
}

// NewAssembler returns an empty per-document assembler over the layout.
func (l *Layout) NewAssembler() *Assembler {
	return &Assembler{layout: l, values: map[string]Attribute{}}
}
