package engine

import (
	"fmt"
	"strings"

	"formmap/internal/assemble"
	"formmap/internal/diagnostic"
	"formmap/internal/schema"
)

// Field-level codes.
const (
	CodeRequired      = "required"
	CodeUnknownChoice = "unknown_choice"
)

// resolved is the outcome of one field for one document.
type resolved struct {
	field *field
	attr  assemble.Attribute
	ok    bool
}

// extract resolves every field in header order. Problems are appended to
// diags and never stop the loop.
func (e *Engine) extract(snap *schema.Snapshot, diags *diagnostic.List) []resolved {
	out := make([]resolved, len(e.fields))
	byField := make(map[*field]*resolved, len(e.fields))

	for i, f := range e.fields {
		raw, present := snap.Extract(f.leaf)

		out[i] = resolved{field: f}
		out[i].attr, out[i].ok = e.resolve(f, raw, present, diags)
		byField[f] = &out[i]
	}

	// Qualifiers come from discriminators that may be declared after the
	// fields they qualify.
	for i := range out {
		r := &out[i]
		if !r.ok || !r.field.emitted() {
			continue
		}

		for _, q := range r.field.qualifiers {
			if d := byField[q]; d.ok {
				r.attr.Qualifiers = append(r.attr.Qualifiers, assemble.Qualifier{
					Key:   qualifierKey(q),
					Value: d.attr.Value,
				})
			}
		}
	}

	return out
}

// resolve turns one extracted value into an attribute.
func (e *Engine) resolve(f *field, raw string, present bool, diags *diagnostic.List) (assemble.Attribute, bool) {
	if !present {
		if f.required != "" {
			diags.Add(diagnostic.Diagnostic{
				Kind:     diagnostic.KindMissingRequiredField,
				Severity: diagnostic.SeverityError,
				Code:     CodeRequired,
				LeafID:   f.id,
				LinkID:   f.required,
				Message:  fmt.Sprintf("required value is absent (source leaf %s)", f.id),
			})
		}

		return assemble.Attribute{}, false
	}

	if f.vocab == nil {
		return assemble.Attribute{Type: f.answer, Value: raw}, true
	}

	t, ok := f.vocab.Translate(raw)
	if !ok {
		diags.Add(diagnostic.Diagnostic{
			Kind:     diagnostic.KindUnknownChoiceValue,
			Severity: diagnostic.SeverityError,
			Code:     CodeUnknownChoice,
			LeafID:   f.id,
			LinkID:   f.terminal,
			Value:    raw,
			Message:  e.unknownChoiceMessage(f, raw),
		})

		return assemble.Attribute{}, false
	}

	return assemble.Attribute{Type: t.Answer, Value: t.Code, Display: t.Display}, true
}

func (e *Engine) unknownChoiceMessage(f *field, raw string) string {
	msg := fmt.Sprintf("no vocabulary entry for %q (normalization %s)", raw, f.vocab.Mode())

	suggestions := f.vocab.Suggest(raw, e.opts.suggestions)
	if len(suggestions) == 0 {
		return msg
	}

	quoted := make([]string, len(suggestions))
	for i, s := range suggestions {
		quoted[i] = fmt.Sprintf("%q", s.Source)
	}

	return msg + "; closest: " + strings.Join(quoted, ", ")
}

// qualifierKey names a discriminator by its member key.
func qualifierKey(f *field) string {
	if k := f.leaf.Key(); !k.IsIndex {
		return k.Name
	}

	return f.id
}
