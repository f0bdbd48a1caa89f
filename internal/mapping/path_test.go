package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input string
		want  HeaderPath
	}{
		{"patient", HeaderPath{NameKey("patient")}},
		{"patient.person", HeaderPath{NameKey("patient"), NameKey("person")}},
		{"names[0]", HeaderPath{NameKey("names"), IndexKey(0)}},
		{
			"patient.person.names[1].value",
			HeaderPath{NameKey("patient"), NameKey("person"), NameKey("names"), IndexKey(1), NameKey("value")},
		},
		{"grid[0][12]", HeaderPath{NameKey("grid"), IndexKey(0), IndexKey(12)}},
		{"date_of_birth", HeaderPath{NameKey("date_of_birth")}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Formatting is the inverse of parsing.
			assert.Equal(t, tt.input, FormatAddress(got))
		})
	}
}

func TestParseAddress_Errors(t *testing.T) {
	tests := []string{
		"",
		"a..b",
		".a",
		"a.",
		"[0]",
		"a[",
		"a[]",
		"a[x]",
		"a[-1]",
		"a[0]b",
		"a[0",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseAddress(input)
			assert.Error(t, err)
		})
	}
}

func TestChildAddress(t *testing.T) {
	assert.Equal(t, "patient", ChildAddress("", NameKey("patient")))
	assert.Equal(t, "patient.person", ChildAddress("patient", NameKey("person")))
	assert.Equal(t, "patient.names[2]", ChildAddress("patient.names", IndexKey(2)))
}

func TestIsValidMemberName(t *testing.T) {
	assert.True(t, IsValidMemberName("date_of_birth"))
	assert.False(t, IsValidMemberName(""))
	assert.False(t, IsValidMemberName("a.b"))
	assert.False(t, IsValidMemberName("a[0]"))
}

func TestHeaderPath_Equal(t *testing.T) {
	a := HeaderPath{NameKey("a"), IndexKey(0)}

	assert.True(t, a.Equal(HeaderPath{NameKey("a"), IndexKey(0)}))
	assert.False(t, a.Equal(HeaderPath{NameKey("a"), IndexKey(1)}))
	assert.False(t, a.Equal(HeaderPath{NameKey("a")}))
	assert.False(t, a.Equal(HeaderPath{NameKey("a"), NameKey("0")}))
}

func TestParseAnswerType(t *testing.T) {
	tests := []struct {
		input string
		want  AnswerType
		ok    bool
	}{
		{"string", AnswerString, true},
		{"valueString", AnswerString, true},
		{"date", AnswerDate, true},
		{"coding", AnswerCoding, true},
		{"code", AnswerCoding, true},
		{"valueCoding", AnswerCoding, true},
		{"quantity", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAnswerType(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
