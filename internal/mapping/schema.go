package mapping

import (
	"strconv"
	"strings"

	"formmap/internal/common"
)

// File represents the root of a map document.
type File struct {
	// Version of the document format (for future compatibility).
	Version string `yaml:"version,omitempty"`

	// Name is an optional label used in logs and reports.
	Name string `yaml:"name,omitempty"`

	// Structure declares the shape of the source answer tree. The nodes are
	// the members of an implicit root object.
	Structure []SchemaNode `yaml:"headersStructure"`

	// Map binds source leaves and constants to the target schema.
	Map MapSection `yaml:"map"`
}

// MapSection holds the projection part of the document.
type MapSection struct {
	// Headers maps leaf ids to field mappings, in declaration order.
	Headers Headers `yaml:"headers"`

	// Constants are fixed target attributes applied to every document.
	Constants Constants `yaml:"constants,omitempty"`

	// Assertions are FHIRPath invariants checked against every emitted document.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// NodeKind is the structural kind of a schema node.
type NodeKind string

const (
	NodeObject NodeKind = "object"
	NodeArray  NodeKind = "array"
	NodeLeaf   NodeKind = "leaf"
)

// IsValid returns true if the kind is a recognized value.
func (k NodeKind) IsValid() bool {
	return k == NodeObject || k == NodeArray || k == NodeLeaf
}

// SchemaNode is one declared node of the source shape.
type SchemaNode struct {
	// Key is the member name (object child) or position (array child).
	Key SchemaKey `yaml:"key"`

	// Type is the structural kind. Kind is accepted as an alias.
	Type NodeKind `yaml:"type,omitempty"`
	Kind NodeKind `yaml:"kind,omitempty"`

	// ID is the flattened address of the node, unique across the tree.
	ID string `yaml:"id"`

	// Children are the declared members or elements, in order.
	Children []SchemaNode `yaml:"children,omitempty"`
}

// NodeKind returns the effective kind, honoring the "kind" alias.
func (n *SchemaNode) NodeKind() NodeKind {
	if n.Type != "" {
		return n.Type
	}

	return n.Kind
}

// SchemaKey is either an object member name or an array index.
// YAML formats supported:
//   - Member name: key: names
//   - Array index: key: 0
type SchemaKey struct {
	Name    string
	Index   int
	IsIndex bool
}

// NameKey returns a member-name key.
func NameKey(name string) SchemaKey {
	return SchemaKey{Name: name}
}

// IndexKey returns an array-index key.
func IndexKey(i int) SchemaKey {
	return SchemaKey{Index: i, IsIndex: true}
}

// String returns the key as written in an address segment.
func (k SchemaKey) String() string {
	if k.IsIndex {
		return strconv.Itoa(k.Index)
	}

	return k.Name
}

// IsZero returns true when the key was not set.
func (k SchemaKey) IsZero() bool {
	return !k.IsIndex && k.Name == ""
}

// HeaderPath is a source address written as a sequence of keys.
type HeaderPath []SchemaKey

// String renders the path in id syntax ("a.b[0].c").
func (p HeaderPath) String() string {
	return FormatAddress(p)
}

// ValueType is the value kind of a mapped source leaf.
type ValueType string

const (
	ValueString ValueType = "string"
	ValueDate   ValueType = "date"
	ValueChoice ValueType = "choice"
)

// IsValid returns true if the value type is a recognized value.
func (v ValueType) IsValid() bool {
	return v == ValueString || v == ValueDate || v == ValueChoice
}

// AnswerType is the shape of an emitted answer.
type AnswerType string

const (
	AnswerString AnswerType = "string"
	AnswerDate   AnswerType = "date"
	AnswerCoding AnswerType = "coding"
)

// ParseAnswerType resolves an answer type name, accepting the FHIR
// "value[x]" spellings and "code" as an alias for coding.
func ParseAnswerType(s string) (AnswerType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "valuestring", "text":
		return AnswerString, true
	case "date", "valuedate":
		return AnswerDate, true
	case "coding", "code", "valuecoding":
		return AnswerCoding, true
	default:
		return "", false
	}
}

// PathNode is one segment of a target path.
type PathNode struct {
	// LinkID identifies the node in the target question/answer chain.
	LinkID string `yaml:"linkid"`
	// Text is the display label, carried for diagnostics only.
	Text string `yaml:"text,omitempty"`
	// Required marks that the final value must be present.
	Required bool `yaml:"required,omitempty"`
}

// TargetPath is the ordered linkid chain from a root resource down to one
// target attribute.
type TargetPath []PathNode

// LinkIDs returns the linkid of every segment.
func (p TargetPath) LinkIDs() []string {
	ids := make([]string, len(p))
	for i, n := range p {
		ids[i] = n.LinkID
	}

	return ids
}

// Terminal returns the linkid of the last segment, or "" for an empty path.
func (p TargetPath) Terminal() string {
	last, _ := common.Last(p)
	return last.LinkID
}

// DeepestRequired returns the linkid of the required segment closest to the
// attribute, and false when no segment is required.
func (p TargetPath) DeepestRequired() (string, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Required {
			return p[i].LinkID, true
		}
	}

	return "", false
}

// String joins the linkids with " > ".
func (p TargetPath) String() string {
	return strings.Join(p.LinkIDs(), " > ")
}

// FieldMapping binds one source leaf to a target attribute.
type FieldMapping struct {
	// HeaderPath mirrors the leaf id. Derived from the id when omitted.
	HeaderPath HeaderPath `yaml:"headerPath,omitempty"`

	// TargetPath is empty for discriminator leaves that are never emitted
	// on their own.
	TargetPath TargetPath `yaml:"targetPath,omitempty"`

	// ValueType selects pass-through (string, date) or translation (choice).
	ValueType ValueType `yaml:"valueType"`

	// ChoiceMap is the vocabulary for choice fields, in declaration order.
	ChoiceMap ChoiceMap `yaml:"choiceMap,omitempty"`
}

// IsEmitted returns true if the mapping produces a target attribute.
func (fm *FieldMapping) IsEmitted() bool {
	return len(fm.TargetPath) > 0
}

// HeaderEntry is one field mapping with its leaf id.
type HeaderEntry struct {
	ID      string
	Mapping FieldMapping
}

// Headers is the ordered set of field mappings keyed by leaf id.
type Headers []HeaderEntry

// Get returns the mapping for a leaf id.
func (h Headers) Get(id string) (*FieldMapping, bool) {
	for i := range h {
		if h[i].ID == id {
			return &h[i].Mapping, true
		}
	}

	return nil, false
}

// ChoiceEntry translates one source code.
type ChoiceEntry struct {
	// Source is the raw code as it appears in source data.
	Source string `yaml:"-"`
	// Code is the target code.
	Code string `yaml:"code"`
	// ValueType is the answer shape of the translated value.
	ValueType string `yaml:"valueType,omitempty"`
	// Display is an optional label for coded answers.
	Display string `yaml:"display,omitempty"`
}

// ChoiceMap is a vocabulary in declaration order.
type ChoiceMap []ChoiceEntry

// ConstantField is a fixed target attribute with no source extraction.
type ConstantField struct {
	Display    string     `yaml:"display,omitempty"`
	Code       string     `yaml:"code"`
	ValueType  string     `yaml:"valueType,omitempty"`
	TargetPath TargetPath `yaml:"targetPath"`
}

// ConstantEntry is one constant with its declared name.
type ConstantEntry struct {
	Name  string
	Field ConstantField
}

// Constants is the ordered set of constants.
type Constants []ConstantEntry

// Assertion is a FHIRPath invariant evaluated against the emitted document.
type Assertion struct {
	Key        string `yaml:"key"`
	Expression string `yaml:"expression"`
	Human      string `yaml:"human,omitempty"`
	// Severity is "error" (default) or "warning".
	Severity string `yaml:"severity,omitempty"`
}

// IsWarning returns true if a failed assertion should only warn.
func (a *Assertion) IsWarning() bool {
	return strings.EqualFold(a.Severity, "warning")
}
