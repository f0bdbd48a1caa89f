package engine

import (
	"formmap/internal/choice"
)

// Plan is a read-only description of a compiled engine, for debugging.
type Plan struct {
	Name       string
	Strict     bool
	Mode       choice.Mode
	Fields     []FieldPlan
	Constants  []ConstantPlan
	Layout     []string
	Assertions []string
	Warnings   []string
}

// FieldPlan describes one compiled header.
type FieldPlan struct {
	LeafID     string
	ValueType  string
	Target     string
	Required   string
	Choices    []string
	Qualifiers []string
}

// ConstantPlan describes one compiled constant.
type ConstantPlan struct {
	Name   string
	Target string
	Value  string
}

// Plan describes the engine.
func (e *Engine) Plan() Plan {
	p := Plan{
		Name:     e.name,
		Strict:   e.opts.strict,
		Mode:     e.opts.mode,
		Layout:   e.layout.Order(),
		Warnings: e.warnings.Lines(),
	}

	for _, f := range e.fields {
		fp := FieldPlan{
			LeafID:    f.id,
			ValueType: string(f.kind),
			Target:    f.target.String(),
			Required:  f.required,
		}

		if f.vocab != nil {
			fp.Choices = f.vocab.Sources()
		}

		for _, q := range f.qualifiers {
			fp.Qualifiers = append(fp.Qualifiers, q.id)
		}

		p.Fields = append(p.Fields, fp)
	}

	for _, c := range e.constants {
		p.Constants = append(p.Constants, ConstantPlan{Name: c.name, Target: c.terminal, Value: c.attr.Value})
	}

	for _, c := range e.checks.Checks() {
		p.Assertions = append(p.Assertions, c.Key+": "+c.Expression)
	}

	return p
}
