package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"formmap/internal/assemble"
	"formmap/internal/assertion"
	"formmap/internal/choice"
	"formmap/internal/diagnostic"
	"formmap/internal/mapping"
	"formmap/internal/schema"
)

// Load-time codes reported by New, in addition to those of the mapping,
// schema, choice, assemble and assertion packages.
const (
	CodeDanglingHeader = "dangling_header"
	CodeHeaderNotLeaf  = "header_not_leaf"
	CodeUnmappedLeaf   = "unmapped_leaf"
)

// field is the compiled plan of one header.
type field struct {
	id       string
	leaf     *schema.Leaf
	kind     mapping.ValueType
	answer   mapping.AnswerType // for string and date fields
	target   mapping.TargetPath
	terminal string
	required string // deepest required linkid, "" when none
	vocab    *choice.Vocabulary

	// qualifiers are the discriminators sharing this leaf's parent.
	qualifiers []*field
}

func (f *field) emitted() bool {
	return len(f.target) > 0
}

// Engine is a compiled map. It is immutable and safe for concurrent use.
type Engine struct {
	name      string
	tree      *schema.Tree
	fields    []*field
	constants []constant
	layout    *assemble.Layout
	checks    *assertion.Set
	warnings  diagnostic.List

	opts options
	log  zerolog.Logger
}

// New compiles mf. Every MalformedMap problem found is returned at once as
// a diagnostic.List wrapped in the error; no engine is produced then.
func New(mf *mapping.File, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	mode, err := choice.ParseMode(string(o.mode))
	if err != nil {
		return nil, fmt.Errorf("compile map: %w", err)
	}

	o.mode = mode

	diags := mapping.Validate(mf)
	if diags.HasErrors() {
		return nil, fmt.Errorf("compile map %s: %w", nameOf(mf), diags.Err())
	}

	e := &Engine{
		name:   nameOf(mf),
		layout: assemble.NewLayout(),
		opts:   o,
	}
	e.log = o.logger.With().Str("map", e.name).Logger()

	tree, treeDiags := schema.Build(mf.Structure)
	diags.Merge(treeDiags)

	if tree == nil {
		return nil, fmt.Errorf("compile map %s: %w", e.name, diags.Err())
	}

	e.tree = tree

	e.compileFields(mf.Map.Headers, &diags)
	e.compileConstants(mf.Map.Constants, &diags)

	if o.assertions && len(mf.Map.Assertions) > 0 {
		checks, checkDiags := assertion.Compile(mf.Map.Assertions)
		diags.Merge(checkDiags)
		e.checks = checks
	}

	if diags.HasErrors() {
		return nil, fmt.Errorf("compile map %s: %w", e.name, diags.Errors())
	}

	e.warnings = diags.Warnings()

	e.log.Debug().
		Int("leaves", len(tree.Leaves())).
		Int("fields", len(e.fields)).
		Int("constants", len(e.constants)).
		Int("linkids", e.layout.Len()).
		Int("assertions", e.checks.Len()).
		Str("normalization", o.mode.String()).
		Bool("strict", o.strict).
		Msg("map compiled")

	return e, nil
}

func nameOf(mf *mapping.File) string {
	if mf == nil || mf.Name == "" {
		return "map"
	}

	return mf.Name
}

// compileFields binds every header to its leaf, declares emitted targets in
// header order and links discriminators to their siblings.
func (e *Engine) compileFields(headers mapping.Headers, diags *diagnostic.List) {
	mapped := map[string]struct{}{}
	discriminators := map[string][]*field{} // by parent id

	for i := range headers {
		h := &headers[i]
		fm := &h.Mapping

		leaf, ok := e.tree.Leaf(h.ID)
		if !ok {
			if _, isNode := e.tree.Node(h.ID); isNode {
				diags.AddError(diagnostic.KindMalformedMap, CodeHeaderNotLeaf, h.ID, "",
					fmt.Sprintf("header %q addresses an object or array, not a leaf", h.ID))
			} else {
				diags.AddError(diagnostic.KindMalformedMap, CodeDanglingHeader, h.ID, "",
					fmt.Sprintf("header %q names no leaf of headersStructure", h.ID))
			}

			continue
		}

		mapped[h.ID] = struct{}{}

		f := &field{
			id:       h.ID,
			leaf:     leaf,
			kind:     fm.ValueType,
			target:   fm.TargetPath,
			terminal: fm.TargetPath.Terminal(),
		}
		f.required, _ = fm.TargetPath.DeepestRequired()

		switch fm.ValueType {
		case mapping.ValueChoice:
			vocab, vocabDiags := choice.Compile(h.ID, fm.ChoiceMap, e.opts.mode)
			diags.Merge(vocabDiags)
			f.vocab = vocab
		case mapping.ValueDate:
			f.answer = mapping.AnswerDate
		default:
			f.answer = mapping.AnswerString
		}

		if f.emitted() {
			diags.Merge(e.layout.Declare(h.ID, f.target))
		} else {
			discriminators[leaf.Parent()] = append(discriminators[leaf.Parent()], f)
		}

		e.fields = append(e.fields, f)
	}

	for _, f := range e.fields {
		if f.emitted() {
			f.qualifiers = discriminators[f.leaf.Parent()]
		}
	}

	for _, leaf := range e.tree.Leaves() {
		if _, ok := mapped[leaf.ID()]; !ok {
			diags.AddWarning(diagnostic.KindMalformedMap, CodeUnmappedLeaf, leaf.ID(), "",
				"leaf has no header mapping; its values are validated but never used")
		}
	}
}

// Name returns the map name.
func (e *Engine) Name() string {
	return e.name
}

// Tree returns the compiled source shape.
func (e *Engine) Tree() *schema.Tree {
	return e.tree
}

// Layout returns the compiled target layout.
func (e *Engine) Layout() *assemble.Layout {
	return e.layout
}

// Warnings returns the non-fatal findings of compilation.
func (e *Engine) Warnings() diagnostic.List {
	return e.warnings
}
