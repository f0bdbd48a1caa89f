package engine

import (
	"formmap/internal/assemble"
	"formmap/internal/diagnostic"
	"formmap/internal/mapping"
)

// constant is a compiled ConstantField.
type constant struct {
	name     string
	terminal string
	attr     assemble.Attribute
}

func (e *Engine) compileConstants(constants mapping.Constants, diags *diagnostic.List) {
	for i := range constants {
		c := &constants[i]

		// Answer types were checked by mapping.Validate.
		answer, _ := mapping.ParseAnswerType(c.Field.ValueType)

		diags.Merge(e.layout.Declare(c.Name, c.Field.TargetPath))

		e.constants = append(e.constants, constant{
			name:     c.Name,
			terminal: c.Field.TargetPath.Terminal(),
			attr: assemble.Attribute{
				Type:    answer,
				Value:   c.Field.Code,
				Display: c.Field.Display,
			},
		})
	}
}

// applyConstants feeds every constant into asm. It never consults source
// data.
func (e *Engine) applyConstants(asm *assemble.Assembler, diags *diagnostic.List) {
	for _, c := range e.constants {
		if err := asm.Set(c.terminal, c.attr); err != nil {
			diags.AddError(diagnostic.KindMalformedMap, "assemble", "", c.terminal, err.Error())
		}
	}
}
