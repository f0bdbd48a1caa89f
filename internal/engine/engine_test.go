package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formmap/internal/assemble"
	"formmap/internal/choice"
	"formmap/internal/diagnostic"
	"formmap/internal/mapping"
)

const exampleDir = "../../examples/patient-intake"

func loadExample(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	mf, err := mapping.LoadFile(filepath.Join(exampleDir, "map.yaml"))
	require.NoError(t, err)

	e, err := New(mf, opts...)
	require.NoError(t, err)

	return e
}

func readScenario(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(exampleDir, name))
	require.NoError(t, err)

	return data
}

func entries(doc *assemble.Document) map[string]string {
	out := map[string]string{}
	for _, e := range doc.Flatten() {
		out[e.LinkID] = e.Value
	}

	return out
}

func TestNew_Example(t *testing.T) {
	e := loadExample(t)

	assert.Equal(t, "patient-intake", e.Name())
	assert.Empty(t, e.Warnings())
	assert.Len(t, e.Tree().Leaves(), 11)
	assert.Equal(t, 16, e.Layout().Len())

	plan := e.Plan()
	require.Len(t, plan.Fields, 11)
	assert.Len(t, plan.Constants, 2)
	assert.Equal(t, []string{"patient-emitted: item.where(linkId = 'Patient').exists()"}, plan.Assertions)

	family := plan.Fields[2]
	assert.Equal(t, "patient.person.names[0].value", family.LeafID)
	assert.Equal(t, "Patient.name[0].family", family.Required)
	assert.Equal(t, []string{"patient.person.names[0].type"}, family.Qualifiers)
	assert.Equal(t, "Patient > Patient.name[0] > Patient.name[0].family", family.Target)
}

func TestTransform_ScenarioA(t *testing.T) {
	e := loadExample(t)

	res := e.TransformJSON(readScenario(t, "scenario-a.json"))
	require.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, []State{StateLoaded, StateValidating, StateExtracting, StateAssembling, StateDone}, res.Trace)
	assert.Equal(t, ExitOK, res.ExitCode())
	require.NotNil(t, res.Document)
	assert.Equal(t, assemble.StatusCompleted, res.Document.Status)

	assert.Equal(t, []assemble.Entry{
		{LinkID: "Patient.name[0].use", Type: mapping.AnswerCoding, Value: "official"},
		{LinkID: "Patient.name[0].family", Type: mapping.AnswerString, Value: "Smith"},
		{LinkID: "Patient.name[0].given[0]", Type: mapping.AnswerString, Value: "John"},
		{LinkID: "Patient.birthDate", Type: mapping.AnswerDate, Value: "1990-01-01"},
		{LinkID: "Patient.gender", Type: mapping.AnswerCoding, Value: "male"},
		{LinkID: "Patient.address[0].use", Type: mapping.AnswerCoding, Value: "home"},
		{LinkID: "Patient.address[0].text", Type: mapping.AnswerString, Value: "1 Main St"},
		{LinkID: "Patient.identifier[1].system", Type: mapping.AnswerString, Value: "EHR1"},
		{LinkID: "Patient.identifier[1].value", Type: mapping.AnswerString, Value: "123"},
		{LinkID: "Patient.identifier[0].system", Type: mapping.AnswerString, Value: "System 123"},
		{LinkID: "Patient.identifier[0].value", Type: mapping.AnswerString, Value: "S1234"},
	}, res.Document.Flatten())

	assert.Equal(t, 11, res.Emitted)
	assert.Equal(t, 11, res.LeafCount)

	// Both names merge under one Patient.name[0] node.
	name, ok := res.Document.Get("Patient.name[0]")
	require.True(t, ok)
	assert.Len(t, name.Items, 3)

	family, ok := res.Document.Get("Patient.name[0].family")
	require.True(t, ok)
	assert.Equal(t, []assemble.Qualifier{{Key: "type", Value: "legal"}}, family.Answer.Qualifiers)
	assert.Equal(t, "Family name", family.Text)

	gender, ok := res.Document.Get("Patient.gender")
	require.True(t, ok)
	assert.Equal(t, "Male", gender.Answer.Display)
}

func TestTransform_ScenarioB_UnknownChoice(t *testing.T) {
	e := loadExample(t)

	res := e.TransformJSON(readScenario(t, "scenario-b.json"))
	require.Len(t, res.Errors, 1)

	d := res.Errors[0]
	assert.Equal(t, diagnostic.KindUnknownChoiceValue, d.Kind)
	assert.Equal(t, "patient.person.gender", d.LeafID)
	assert.Equal(t, "Bob", d.Value)
	assert.Contains(t, d.Message, `"Bob"`)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, ExitFieldError, res.ExitCode())
	require.NotNil(t, res.Document)
	assert.Equal(t, assemble.StatusInProgress, res.Document.Status)

	got := entries(res.Document)
	assert.NotContains(t, got, "Patient.gender")
	assert.Equal(t, "Smith", got["Patient.name[0].family"])
	assert.Len(t, got, 10)
}

func TestTransform_ScenarioC_MissingRequired(t *testing.T) {
	e := loadExample(t)

	res := e.TransformJSON(readScenario(t, "scenario-c.json"))
	require.Len(t, res.Errors, 1)

	d := res.Errors[0]
	assert.Equal(t, diagnostic.KindMissingRequiredField, d.Kind)
	assert.Equal(t, "Patient.name[0].family", d.LinkID)
	assert.Equal(t, "patient.person.names[0].value", d.LeafID)
	assert.Equal(t, "MissingRequiredField Patient.name[0].family: [required] required value is absent (source leaf patient.person.names[0].value)", d.String())

	got := entries(res.Document)
	assert.NotContains(t, got, "Patient.name[0].family")
	assert.Equal(t, "John", got["Patient.name[0].given[0]"])
	assert.Equal(t, ExitFieldError, res.ExitCode())
}

func TestTransform_ScenarioD_OptionalAbsent(t *testing.T) {
	e := loadExample(t)

	res := e.TransformJSON(readScenario(t, "scenario-d.json"))
	require.Empty(t, res.Errors)

	got := entries(res.Document)
	assert.NotContains(t, got, "Patient.address[0].text")
	assert.Equal(t, "home", got["Patient.address[0].use"])
	assert.Equal(t, 10, res.Emitted)
	assert.Equal(t, ExitOK, res.ExitCode())
}

func TestTransform_SchemaMismatch(t *testing.T) {
	e := loadExample(t)

	res := e.TransformJSON(readScenario(t, "scenario-mismatch.json"))
	assert.Nil(t, res.Document)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, []State{StateLoaded, StateValidating, StateFailed}, res.Trace)
	assert.Equal(t, ExitFatal, res.ExitCode())

	require.Len(t, res.Errors, 2)
	assert.Equal(t, "patient.person.gender", res.Errors[0].LeafID)
	assert.Equal(t, "invalid_type", res.Errors[0].Code)
	assert.Equal(t, "patient.person.nickname", res.Errors[1].LeafID)
	assert.Equal(t, "unknown_key", res.Errors[1].Code)
}

func TestTransformJSON_ParseErrors(t *testing.T) {
	e := loadExample(t)

	for _, input := range []string{`{`, `{} {}`, ``, `not json`} {
		t.Run(input, func(t *testing.T) {
			res := e.TransformJSON([]byte(input))
			require.Len(t, res.Errors, 1)
			assert.Equal(t, diagnostic.KindSchemaMismatch, res.Errors[0].Kind)
			assert.Equal(t, CodeParseError, res.Errors[0].Code)
			assert.Equal(t, StateFailed, res.State)
			assert.Equal(t, ExitFatal, res.ExitCode())
		})
	}
}

func TestTransform_Strict(t *testing.T) {
	e := loadExample(t, WithStrict(true))

	res := e.TransformJSON(readScenario(t, "scenario-b.json"))
	assert.Nil(t, res.Document)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, []State{StateLoaded, StateValidating, StateExtracting, StateFailed}, res.Trace)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ExitFieldError, res.ExitCode())

	res = e.TransformJSON(readScenario(t, "scenario-a.json"))
	require.Empty(t, res.Errors)
	assert.NotNil(t, res.Document)
}

func TestTransform_Normalization(t *testing.T) {
	source := func(gender, usage string) map[string]any {
		return map[string]any{
			"patient": map[string]any{
				"person":  map[string]any{"gender": gender, "names": []any{map[string]any{"value": "Smith"}}},
				"address": map[string]any{"usage": usage},
			},
		}
	}

	exact := loadExample(t)

	res := exact.Transform(source("MALE", "Home"))
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "patient.person.gender", res.Errors[0].LeafID)
	assert.Contains(t, res.Errors[0].Message, `closest: "male", "Male"`)
	assert.Equal(t, "patient.address.usage", res.Errors[1].LeafID)

	for _, mode := range []choice.Mode{choice.ModeCasefold, choice.ModeIdent} {
		t.Run(string(mode), func(t *testing.T) {
			e := loadExample(t, WithNormalization(mode))

			res := e.Transform(source("MALE", " Home "))
			require.Empty(t, res.Errors)

			got := entries(res.Document)
			assert.Equal(t, "male", got["Patient.gender"])
			assert.Equal(t, "home", got["Patient.address[0].use"])
		})
	}
}

func TestTransform_NumbersAndBooleans(t *testing.T) {
	e := loadExample(t)

	res := e.TransformJSON([]byte(`{"patient": {"person": {"names": [{"value": "Smith"}]}}, "source": {"system": true, "id": 12.50}}`))
	require.Empty(t, res.Errors)

	got := entries(res.Document)
	assert.Equal(t, "true", got["Patient.identifier[1].system"])
	assert.Equal(t, "12.50", got["Patient.identifier[1].value"], "numbers keep their JSON text")
}

func TestTransform_Idempotent(t *testing.T) {
	e := loadExample(t)

	for _, name := range []string{"scenario-a.json", "scenario-b.json", "scenario-c.json", "scenario-mismatch.json"} {
		t.Run(name, func(t *testing.T) {
			data := readScenario(t, name)

			first, err := e.TransformJSON(data).MarshalJSON()
			require.NoError(t, err)

			second, err := e.TransformJSON(data).MarshalJSON()
			require.NoError(t, err)

			assert.Equal(t, string(first), string(second))
		})
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	e := loadExample(t)

	data, err := e.TransformJSON(readScenario(t, "scenario-b.json")).MarshalJSON()
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.HasPrefix(s, `{"state":"Done","document":{"resourceType":"QuestionnaireResponse","status":"in-progress"`), s)
	assert.Contains(t, s, `"kind":"UnknownChoiceValue"`)
	assert.Contains(t, s, `"leafId":"patient.person.gender"`)
	assert.Contains(t, s, `"value":"Bob"`)

	data, err = e.TransformJSON(readScenario(t, "scenario-a.json")).MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"errors":[]`)
	assert.Contains(t, string(data), `"code":"male"`)
}

func TestTransform_Concurrent(t *testing.T) {
	e := loadExample(t)
	data := readScenario(t, "scenario-a.json")

	want, err := e.TransformJSON(data).MarshalJSON()
	require.NoError(t, err)

	const n = 16

	results := make(chan []byte, n)

	for range n {
		go func() {
			got, err := e.TransformJSON(data).MarshalJSON()
			if err != nil {
				got = nil
			}

			results <- got
		}()
	}

	for range n {
		assert.Equal(t, string(want), string(<-results))
	}
}
