package assemble

import (
	"fmt"

	"formmap/internal/mapping"
)

// Qualifier is metadata from a discriminator leaf, such as the "type" of a
// name entry, attached to the attributes of its mapped siblings.
type Qualifier struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attribute is one resolved target value.
type Attribute struct {
	Type    mapping.AnswerType
	Value   string // code for codings
	Display string
	System  string

	Qualifiers []Qualifier
}

// Assembler collects the attributes of one document. It is not safe for
// concurrent use; the Layout it was created from is.
type Assembler struct {
	layout *Layout
	values map[string]Attribute
}

// Set attaches an attribute to the terminal linkid of a declared path.
func (a *Assembler) Set(linkID string, attr Attribute) error {
	s, ok := a.layout.slots[linkID]
	if !ok {
		return fmt.Errorf("linkid %q was not declared", linkID)
	}

	if s.terminal == "" {
		return fmt.Errorf("linkid %q is not a terminal node", linkID)
	}

	if _, dup := a.values[linkID]; dup {
		return fmt.Errorf("linkid %q already has a value", linkID)
	}

	a.values[linkID] = attr

	return nil
}

// Len returns the number of attributes set so far.
func (a *Assembler) Len() int {
	return len(a.values)
}

// Build returns the document. Branches holding no attribute are pruned and
// siblings follow layout rank.
func (a *Assembler) Build() *Document {
	doc := &Document{
		Status: StatusCompleted,
		index:  map[string]*Node{},
	}

	doc.Items = a.build(a.layout.roots, doc.index)

	return doc
}

func (a *Assembler) build(ids []string, index map[string]*Node) []*Node {
	var out []*Node

	for _, id := range ids {
		s := a.layout.slots[id]
		n := &Node{LinkID: id, Text: s.text, Required: s.required}

		if attr, ok := a.values[id]; ok {
			n.Answer = &attr
		} else {
			n.Items = a.build(s.children, index)
			if len(n.Items) == 0 {
				continue
			}
		}

		index[id] = n
		out = append(out, n)
	}

	return out
}
