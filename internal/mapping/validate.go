package mapping

import (
	"fmt"

	"formmap/internal/diagnostic"
)

// Validate runs the document-local checks of a map: everything that can be
// decided without compiling the schema tree or the target layout. Every
// finding is a MalformedMap error.
func Validate(mf *File) diagnostic.List {
	var res diagnostic.List
	if mf == nil {
		res.Malformed("map_is_nil", "", "map document is nil")
		return res
	}

	if len(mf.Structure) == 0 {
		res.Malformed("empty_structure", "", "headersStructure declares no nodes")
	}

	seenHeaders := map[string]struct{}{}

	for i := range mf.Map.Headers {
		h := &mf.Map.Headers[i]

		if _, ok := seenHeaders[h.ID]; ok {
			res.Malformed("duplicate_header", h.ID, "header %q is declared more than once", h.ID)
			continue
		}

		seenHeaders[h.ID] = struct{}{}

		validateHeader(&res, h)
	}

	seenConstants := map[string]struct{}{}

	for i := range mf.Map.Constants {
		c := &mf.Map.Constants[i]

		if _, ok := seenConstants[c.Name]; ok {
			res.Malformed("duplicate_constant", c.Name, "constant %q is declared more than once", c.Name)
			continue
		}

		seenConstants[c.Name] = struct{}{}

		validateConstant(&res, c)
	}

	validateAssertions(&res, mf.Map.Assertions)

	return res
}

// validateHeader checks one field mapping in isolation.
func validateHeader(res *diagnostic.List, h *HeaderEntry) {
	fm := &h.Mapping

	keys, err := ParseAddress(h.ID)
	if err != nil {
		res.Malformed("invalid_leaf_id", h.ID, "%v", err)
	} else if !keys.Equal(fm.HeaderPath) {
		res.Malformed("dangling_header_path", h.ID,
			"headerPath %s does not address leaf %q", fm.HeaderPath, h.ID)
	}

	if !fm.ValueType.IsValid() {
		res.Malformed("invalid_value_type", h.ID,
			"valueType %q (expected string, date or choice)", fm.ValueType)
	}

	switch {
	case fm.ValueType == ValueChoice && len(fm.ChoiceMap) == 0:
		res.Malformed("empty_vocabulary", h.ID, "choice field declares no choiceMap entries")
	case fm.ValueType != ValueChoice && len(fm.ChoiceMap) > 0:
		res.Malformed("vocabulary_on_non_choice", h.ID,
			"choiceMap declared on a %q field", fm.ValueType)
	}

	seenCodes := map[string]struct{}{}

	for _, e := range fm.ChoiceMap {
		if _, ok := seenCodes[e.Source]; ok {
			res.Malformed("duplicate_choice", h.ID, "source code %q is declared more than once", e.Source)
		}

		seenCodes[e.Source] = struct{}{}

		if e.Code == "" {
			res.Malformed("empty_choice_code", h.ID, "source code %q maps to no target code", e.Source)
		}

		if _, ok := ParseAnswerType(e.ValueType); !ok {
			res.Malformed("invalid_answer_type", h.ID,
				"source code %q has unknown valueType %q", e.Source, e.ValueType)
		}
	}

	validateTargetPath(res, h.ID, fm.TargetPath)
}

// validateConstant checks one constant in isolation.
func validateConstant(res *diagnostic.List, c *ConstantEntry) {
	if c.Field.Code == "" {
		res.Malformed("empty_constant_code", c.Name, "constant has no code")
	}

	if _, ok := ParseAnswerType(c.Field.ValueType); !ok {
		res.Malformed("invalid_answer_type", c.Name, "unknown valueType %q", c.Field.ValueType)
	}

	if len(c.Field.TargetPath) == 0 {
		res.Malformed("missing_target_path", c.Name, "constant has no targetPath")
		return
	}

	validateTargetPath(res, c.Name, c.Field.TargetPath)
}

// validateTargetPath checks that a chain has non-empty, non-repeating linkids.
func validateTargetPath(res *diagnostic.List, owner string, path TargetPath) {
	seen := map[string]struct{}{}

	for i, n := range path {
		if n.LinkID == "" {
			res.Malformed("empty_linkid", owner, "targetPath segment %d has no linkid", i)
			continue
		}

		if _, ok := seen[n.LinkID]; ok {
			res.Malformed("repeated_linkid", owner, "linkid %q appears twice in one targetPath", n.LinkID)
		}

		seen[n.LinkID] = struct{}{}
	}
}

func validateAssertions(res *diagnostic.List, assertions []Assertion) {
	seen := map[string]struct{}{}

	for i, a := range assertions {
		key := a.Key
		if key == "" {
			key = fmt.Sprintf("assertions[%d]", i)
			res.Malformed("missing_assertion_key", key, "assertion has no key")
		}

		if _, ok := seen[a.Key]; ok && a.Key != "" {
			res.Malformed("duplicate_assertion", key, "assertion %q is declared more than once", a.Key)
		}

		seen[a.Key] = struct{}{}

		if a.Expression == "" {
			res.Malformed("missing_assertion_expression", key, "assertion has no expression")
		}

		if a.Severity != "" && a.Severity != "error" && !a.IsWarning() {
			res.Malformed("invalid_assertion_severity", key,
				"severity %q (expected error or warning)", a.Severity)
		}
	}
}
