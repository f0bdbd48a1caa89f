package assemble

import (
	"github.com/goccy/go-json"
	"github.com/gofhir/fhir/r4"

	"formmap/internal/mapping"
)

// ResourceType is the resource type of emitted documents.
const ResourceType = "QuestionnaireResponse"

// Document statuses.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in-progress"
)

// Node is one linkid in an assembled document. Exactly one of Answer and
// Items is set.
type Node struct {
	LinkID string
	// Text and Required are labels from the layout; they never appear in
	// the value.
	Text     string
	Required bool

	Answer *Attribute
	Items  []*Node
}

// Document is an assembled target document.
type Document struct {
	Status string
	Items  []*Node

	index map[string]*Node
}

// Entry is one attribute of a flattened document.
type Entry struct {
	LinkID string
	Type   mapping.AnswerType
	Value  string
}

// Get returns the node with the given linkid.
func (d *Document) Get(linkID string) (*Node, bool) {
	n, ok := d.index[linkID]
	return n, ok
}

// Flatten lists the attributes in document order.
func (d *Document) Flatten() []Entry {
	var out []Entry

	d.Walk(func(n *Node) {
		if n.Answer != nil {
			out = append(out, Entry{LinkID: n.LinkID, Type: n.Answer.Type, Value: n.Answer.Value})
		}
	})

	return out
}

// Walk visits every node depth first in document order.
func (d *Document) Walk(fn func(*Node)) {
	var walk func([]*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			fn(n)
			walk(n.Items)
		}
	}

	walk(d.Items)
}

// Len returns the number of attributes in the document.
func (d *Document) Len() int {
	count := 0

	d.Walk(func(n *Node) {
		if n.Answer != nil {
			count++
		}
	})

	return count
}

type responseJSON struct {
	ResourceType string     `json:"resourceType"`
	Status       string     `json:"status"`
	Item         []itemJSON `json:"item,omitempty"`
}

type itemJSON struct {
	LinkID     string       `json:"linkId"`
	Text       string       `json:"text,omitempty"`
	Answer     []answerJSON `json:"answer,omitempty"`
	Qualifiers []Qualifier  `json:"qualifiers,omitempty"`
	Item       []itemJSON   `json:"item,omitempty"`
}

type answerJSON struct {
	ValueString *string    `json:"valueString,omitempty"`
	ValueDate   *string    `json:"valueDate,omitempty"`
	ValueCoding *r4.Coding `json:"valueCoding,omitempty"`
}

// MarshalJSON renders the document as a QuestionnaireResponse.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(responseJSON{
		ResourceType: ResourceType,
		Status:       d.Status,
		Item:         itemsJSON(d.Items),
	})
}

func itemsJSON(nodes []*Node) []itemJSON {
	if len(nodes) == 0 {
		return nil
	}

	out := make([]itemJSON, len(nodes))

	for i, n := range nodes {
		out[i] = itemJSON{
			LinkID: n.LinkID,
			Text:   n.Text,
			Item:   itemsJSON(n.Items),
		}

		if n.Answer != nil {
			out[i].Answer = []answerJSON{answerOf(n.Answer)}
			out[i].Qualifiers = n.Answer.Qualifiers
		}
	}

	return out
}

func answerOf(a *Attribute) answerJSON {
	value := a.Value

	switch a.Type {
	case mapping.AnswerDate:
		return answerJSON{ValueDate: &value}
	case mapping.AnswerCoding:
		return answerJSON{ValueCoding: Coding(a)}
	default:
		return answerJSON{ValueString: &value}
	}
}

// Coding converts a coded attribute to its FHIR form.
func Coding(a *Attribute) *r4.Coding {
	c := &r4.Coding{Code: ptr(a.Value)}

	if a.System != "" {
		c.System = ptr(a.System)
	}

	if a.Display != "" {
		c.Display = ptr(a.Display)
	}

	return c
}

func ptr(s string) *string {
	return &s
}
