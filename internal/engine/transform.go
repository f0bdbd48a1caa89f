package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"formmap/internal/assemble"
	"formmap/internal/diagnostic"
)

// CodeParseError is the SchemaMismatch code of source bytes that are not JSON.
const CodeParseError = "parse_error"

// Result is the outcome of one transform run.
type Result struct {
	// Document is nil when the run failed.
	Document *assemble.Document
	Errors   diagnostic.List
	Warnings diagnostic.List
	// State is terminal: StateDone or StateFailed.
	State State
	// Trace lists every state the run entered, starting with StateLoaded.
	Trace []State
	// LeafCount is the number of mapped leaves that held a value.
	LeafCount int
	// Emitted is the number of attributes in Document, constants included.
	Emitted int
}

func newResult() *Result {
	return &Result{State: StateLoaded, Trace: []State{StateLoaded}}
}

func (r *Result) enter(s State) {
	r.State = s
	r.Trace = append(r.Trace, s)
}

// Exit codes of a run.
const (
	ExitOK         = 0
	ExitFieldError = 1
	ExitFatal      = 2
)

// ExitCode classifies the run: ExitFatal for structural or map problems,
// ExitFieldError for any other error, ExitOK otherwise.
func (r *Result) ExitCode() int {
	switch {
	case r.Errors.HasKind(diagnostic.KindSchemaMismatch), r.Errors.HasKind(diagnostic.KindMalformedMap):
		return ExitFatal
	case r.Errors.HasErrors():
		return ExitFieldError
	default:
		return ExitOK
	}
}

type resultJSON struct {
	State    State              `json:"state"`
	Document *assemble.Document `json:"document"`
	Errors   diagnostic.List    `json:"errors"`
	Warnings diagnostic.List    `json:"warnings,omitempty"`
}

// MarshalJSON renders the document with its error report.
func (r *Result) MarshalJSON() ([]byte, error) {
	errs := r.Errors
	if errs == nil {
		errs = diagnostic.List{}
	}

	return json.Marshal(resultJSON{
		State:    r.State,
		Document: r.Document,
		Errors:   errs,
		Warnings: r.Warnings,
	})
}

// Transform runs one decoded source document through the engine. Objects
// must be map[string]any and arrays []any, as produced by JSON decoding.
func (e *Engine) Transform(doc any) *Result {
	res := newResult()
	e.run(res, doc)

	e.log.Debug().
		Stringer("state", res.State).
		Int("errors", len(res.Errors)).
		Int("warnings", len(res.Warnings)).
		Int("leaves", res.LeafCount).
		Int("emitted", res.Emitted).
		Msg("document transformed")

	return res
}

// TransformJSON decodes data and transforms it. Numbers keep their JSON
// text. Bytes that are not a single JSON value fail as SchemaMismatch.
func (e *Engine) TransformJSON(data []byte) *Result {
	doc, err := decodeJSON(data)
	if err != nil {
		res := newResult()
		res.enter(StateValidating)
		res.Errors.AddError(diagnostic.KindSchemaMismatch, CodeParseError, "", "", err.Error())
		res.enter(StateFailed)

		e.log.Debug().Err(err).Msg("source document is not JSON")

		return res
	}

	return e.Transform(doc)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode source document: %w", err)
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode source document: unexpected data after the top-level value")
	}

	return doc, nil
}

func (e *Engine) run(res *Result, doc any) {
	res.enter(StateValidating)

	snap, mismatches := e.tree.Validate(doc, e.opts.maxIssues)
	if len(mismatches) > 0 {
		res.Errors = mismatches
		res.enter(StateFailed)

		return
	}

	res.enter(StateExtracting)

	values := e.extract(snap, &res.Errors)

	if e.opts.strict && res.Errors.HasErrors() {
		res.enter(StateFailed)
		return
	}

	res.enter(StateAssembling)

	asm := e.layout.NewAssembler()

	for _, v := range values {
		if !v.ok {
			continue
		}

		res.LeafCount++

		if !v.field.emitted() {
			continue
		}

		if err := asm.Set(v.field.terminal, v.attr); err != nil {
			res.Errors.AddError(diagnostic.KindMalformedMap, "assemble", v.field.id, v.field.terminal, err.Error())
		}
	}

	e.applyConstants(asm, &res.Errors)

	document := asm.Build()
	if res.Errors.HasErrors() {
		document.Status = assemble.StatusInProgress
	}

	e.assert(document, res)

	if res.Errors.HasErrors() {
		if e.opts.strict {
			res.enter(StateFailed)
			return
		}

		document.Status = assemble.StatusInProgress
	}

	res.Document = document
	res.Emitted = document.Len()
	res.enter(StateDone)
}

// assert evaluates the map's assertions against the rendered document.
func (e *Engine) assert(document *assemble.Document, res *Result) {
	if e.checks.Len() == 0 {
		return
	}

	data, err := json.Marshal(document)
	if err != nil {
		res.Errors.AddError(diagnostic.KindAssertionFailed, "render", "", "", err.Error())
		return
	}

	checks := e.checks.Evaluate(data)
	res.Errors.Merge(checks.Errors())
	res.Warnings.Merge(checks.Warnings())
}
