package choice

import (
	"fmt"

	"formmap/internal/diagnostic"
	"formmap/internal/mapping"
)

// CodeAmbiguous is reported when normalization merges codes with different targets.
const CodeAmbiguous = "ambiguous_vocabulary"

// Target is the translation of one source code.
type Target struct {
	Code    string
	Display string
	Answer  mapping.AnswerType
}

// Vocabulary is a compiled choice map for one leaf. It is immutable.
type Vocabulary struct {
	leafID  string
	mode    Mode
	sources []string
	exact   map[string]Target
	folded  map[string]Target
}

// Compile builds the vocabulary of a choice leaf. Entries with an unknown
// answer type and vocabularies that are ambiguous under mode are reported
// as MalformedMap against leafID; the vocabulary is nil when there are any.
//
// A source code declared twice keeps its first entry; duplicates are
// reported by mapping.Validate.
func Compile(leafID string, cm mapping.ChoiceMap, mode Mode) (*Vocabulary, diagnostic.List) {
	var diags diagnostic.List

	v := &Vocabulary{
		leafID: leafID,
		mode:   mode,
		exact:  make(map[string]Target, len(cm)),
	}

	if mode.Retries() {
		v.folded = make(map[string]Target, len(cm))
	}

	// Source code that first claimed each normalized key.
	claimedBy := map[string]string{}

	for _, e := range cm {
		answer, ok := mapping.ParseAnswerType(e.ValueType)
		if !ok {
			diags.AddError(diagnostic.KindMalformedMap, "invalid_answer_type", leafID, "",
				fmt.Sprintf("choice %q has unknown valueType %q", e.Source, e.ValueType))

			continue
		}

		if _, dup := v.exact[e.Source]; dup {
			continue
		}

		t := Target{Code: e.Code, Display: e.Display, Answer: answer}
		v.exact[e.Source] = t
		v.sources = append(v.sources, e.Source)

		if v.folded == nil {
			continue
		}

		key := mode.Normalize(e.Source)

		prev, seen := v.folded[key]
		if !seen {
			v.folded[key] = t
			claimedBy[key] = e.Source

			continue
		}

		if prev.Code != t.Code || prev.Answer != t.Answer {
			diags.Add(diagnostic.Diagnostic{
				Kind:     diagnostic.KindMalformedMap,
				Severity: diagnostic.SeverityError,
				Code:     CodeAmbiguous,
				LeafID:   leafID,
				Value:    e.Source,
				Message: fmt.Sprintf("choices %q and %q both normalize to %q under %s but map to %q and %q",
					claimedBy[key], e.Source, key, mode, prev.Code, t.Code),
			})
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}

	return v, nil
}

// Translate resolves raw. Exact lookup comes first; on a miss the
// normalized value is looked up once when the mode allows it.
func (v *Vocabulary) Translate(raw string) (Target, bool) {
	if t, ok := v.exact[raw]; ok {
		return t, true
	}

	if v.folded == nil {
		return Target{}, false
	}

	t, ok := v.folded[v.mode.Normalize(raw)]

	return t, ok
}

// LeafID returns the leaf the vocabulary belongs to.
func (v *Vocabulary) LeafID() string { return v.leafID }

// Mode returns the normalization mode the vocabulary was compiled with.
func (v *Vocabulary) Mode() Mode { return v.mode }

// Sources returns the declared source codes in declaration order.
func (v *Vocabulary) Sources() []string { return v.sources }

// Len returns the number of distinct source codes.
func (v *Vocabulary) Len() int { return len(v.sources) }
