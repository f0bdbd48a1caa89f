package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formmap/internal/diagnostic"
	"formmap/internal/mapping"
)

func path(ids ...string) mapping.TargetPath {
	p := make(mapping.TargetPath, len(ids))
	for i, id := range ids {
		p[i] = mapping.PathNode{LinkID: id}
	}

	return p
}

func TestLayout_Order(t *testing.T) {
	l := NewLayout()

	require.Empty(t, l.Declare("gender", path("Patient", "Patient.gender")))
	require.Empty(t, l.Declare("family", path("Patient", "Patient.name[0]", "Patient.name[0].family")))
	require.Empty(t, l.Declare("given", path("Patient", "Patient.name[0]", "Patient.name[0].given[0]")))
	require.Empty(t, l.Declare("org", path("Organization", "Organization.name")))

	assert.Equal(t, []string{
		"Patient",
		"Patient.gender",
		"Patient.name[0]",
		"Patient.name[0].family",
		"Patient.name[0].given[0]",
		"Organization",
		"Organization.name",
	}, l.Order())

	assert.Equal(t, 7, l.Len())
	assert.True(t, l.Has("Patient.name[0]"))
	assert.False(t, l.Has("Patient.name[1]"))
}

func TestLayout_TextAdoptedFromLaterDeclaration(t *testing.T) {
	l := NewLayout()

	require.Empty(t, l.Declare("a", path("Patient", "Patient.gender")))
	require.Empty(t, l.Declare("b", mapping.TargetPath{
		{LinkID: "Patient", Text: "Patient"},
		{LinkID: "Patient.birthDate", Text: "Birth date"},
	}))

	assert.Equal(t, "Patient", l.Text("Patient"))
	assert.Equal(t, "Birth date", l.Text("Patient.birthDate"))
	assert.Empty(t, l.Text("nope"))
}

func TestLayout_Conflicts(t *testing.T) {
	tests := []struct {
		name   string
		first  mapping.TargetPath
		second mapping.TargetPath
		code   string
		linkID string
	}{
		{
			name:   "duplicate terminal",
			first:  path("Patient", "Patient.gender"),
			second: path("Patient", "Patient.gender"),
			code:   CodeDuplicateTarget,
			linkID: "Patient.gender",
		},
		{
			name:   "terminal reused as interior",
			first:  path("Patient", "Patient.name"),
			second: path("Patient", "Patient.name", "Patient.name.family"),
			code:   CodeTerminalInterior,
			linkID: "Patient.name",
		},
		{
			name:   "interior reused as terminal",
			first:  path("Patient", "Patient.name", "Patient.name.family"),
			second: path("Patient", "Patient.name"),
			code:   CodeTerminalInterior,
			linkID: "Patient.name",
		},
		{
			name:   "different parent",
			first:  path("Patient", "Patient.name", "name.text"),
			second: path("Patient", "name.text"),
			code:   CodeConflictingParent,
			linkID: "name.text",
		},
		{
			name:   "different required",
			first:  path("Patient", "Patient.gender"),
			second: mapping.TargetPath{{LinkID: "Patient", Required: true}, {LinkID: "Patient.birthDate"}},
			code:   CodeConflictingRequired,
			linkID: "Patient",
		},
		{
			name:   "different text",
			first:  mapping.TargetPath{{LinkID: "Patient", Text: "Patient"}, {LinkID: "Patient.gender"}},
			second: mapping.TargetPath{{LinkID: "Patient", Text: "Person"}, {LinkID: "Patient.birthDate"}},
			code:   CodeConflictingText,
			linkID: "Patient",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLayout()
			require.Empty(t, l.Declare("first", tt.first))

			diags := l.Declare("second", tt.second)
			require.Len(t, diags, 1)
			assert.Equal(t, diagnostic.KindMalformedMap, diags[0].Kind)
			assert.Equal(t, tt.code, diags[0].Code)
			assert.Equal(t, tt.linkID, diags[0].LinkID)
			assert.Contains(t, diags[0].Message, "second")
		})
	}
}

func TestLayout_EmptyPath(t *testing.T) {
	diags := NewLayout().Declare("patient.person.gender", nil)
	require.Len(t, diags, 1)
	assert.Equal(t, "missing_target_path", diags[0].Code)
}
