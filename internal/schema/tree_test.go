package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formmap/internal/diagnostic"
	"formmap/internal/mapping"
)

const intakeStructure = `
headersStructure:
  - key: patient
    type: object
    id: patient
    children:
      - key: person
        type: object
        id: patient.person
        children:
          - {key: usage, type: leaf, id: patient.person.usage}
          - key: names
            type: array
            id: patient.person.names
            children:
              - key: 0
                type: object
                id: "patient.person.names[0]"
                children:
                  - {key: type, type: leaf, id: "patient.person.names[0].type"}
                  - {key: value, type: leaf, id: "patient.person.names[0].value"}
              - key: 1
                type: object
                id: "patient.person.names[1]"
                children:
                  - {key: type, type: leaf, id: "patient.person.names[1].type"}
                  - {key: value, type: leaf, id: "patient.person.names[1].value"}
          - {key: date_of_birth, type: leaf, id: patient.person.date_of_birth}
          - {key: gender, type: leaf, id: patient.person.gender}
      - key: address
        type: object
        id: patient.address
        children:
          - {key: usage, type: leaf, id: patient.address.usage}
          - {key: location, type: leaf, id: patient.address.location}
  - key: source
    type: object
    id: source
    children:
      - {key: system, type: leaf, id: source.system}
      - {key: id, type: leaf, id: source.id}
`

func buildTree(t *testing.T, doc string) (*Tree, diagnostic.List) {
	t.Helper()

	mf, err := mapping.Parse([]byte(doc))
	require.NoError(t, err)

	return Build(mf.Structure)
}

func TestBuild(t *testing.T) {
	tree, diags := buildTree(t, intakeStructure)
	require.Empty(t, diags)
	require.NotNil(t, tree)

	require.Len(t, tree.Roots(), 2)
	assert.Equal(t, "patient", tree.Roots()[0].ID())
	assert.Equal(t, "source", tree.Roots()[1].ID())

	leafIDs := make([]string, 0, len(tree.Leaves()))
	for _, l := range tree.Leaves() {
		leafIDs = append(leafIDs, l.ID())
	}

	assert.Equal(t, []string{
		"patient.person.usage",
		"patient.person.names[0].type",
		"patient.person.names[0].value",
		"patient.person.names[1].type",
		"patient.person.names[1].value",
		"patient.person.date_of_birth",
		"patient.person.gender",
		"patient.address.usage",
		"patient.address.location",
		"source.system",
		"source.id",
	}, leafIDs)

	leaf, ok := tree.Leaf("patient.person.names[1].value")
	require.True(t, ok)
	assert.Equal(t, "patient.person.names[1]", leaf.Parent())
	assert.Equal(t, "patient.person.names[1].value", leaf.Path.String())
	assert.Equal(t, mapping.NodeLeaf, leaf.Kind())

	parent, ok := tree.Parent("patient.person.names")
	require.True(t, ok)
	assert.Equal(t, "patient.person", parent)

	parent, ok = tree.Parent("source")
	require.True(t, ok)
	assert.Empty(t, parent)

	_, ok = tree.Parent("nope")
	assert.False(t, ok)

	_, ok = tree.Leaf("patient.person")
	assert.False(t, ok, "objects are not leaves")

	n, ok := tree.Node("patient.person.names")
	require.True(t, ok)
	arr, ok := n.(*Array)
	require.True(t, ok)
	assert.Len(t, arr.Elements, 2)

	obj, ok := tree.Roots()[0].(*Object)
	require.True(t, ok)
	person, ok := obj.Member("person")
	require.True(t, ok)
	assert.Equal(t, mapping.NodeObject, person.Kind())

	assert.Equal(t, 18, tree.Len())
}

func TestBuild_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
		id   string
	}{
		{
			name: "id mismatch",
			doc:  "headersStructure: [{key: a, type: leaf, id: b}]",
			code: "id_mismatch",
			id:   "b",
		},
		{
			name: "duplicate id",
			doc:  "headersStructure: [{key: a, type: leaf, id: a}, {key: a, type: leaf, id: a}]",
			code: "duplicate_id",
			id:   "a",
		},
		{
			name: "leaf with children",
			doc:  "headersStructure: [{key: a, type: leaf, id: a, children: [{key: b, type: leaf, id: a.b}]}]",
			code: "leaf_with_children",
			id:   "a",
		},
		{
			name: "empty object",
			doc:  "headersStructure: [{key: a, type: object, id: a}]",
			code: "empty_container",
			id:   "a",
		},
		{
			name: "array keys out of order",
			doc:  `headersStructure: [{key: a, type: array, id: a, children: [{key: 1, type: leaf, id: "a[1]"}]}]`,
			code: "array_key_order",
			id:   "a[1]",
		},
		{
			name: "array element with member key",
			doc:  `headersStructure: [{key: a, type: array, id: a, children: [{key: x, type: leaf, id: a.x}]}]`,
			code: "array_key_order",
			id:   "a.x",
		},
		{
			name: "object member with index key",
			doc:  `headersStructure: [{key: a, type: object, id: a, children: [{key: 0, type: leaf, id: "a[0]"}]}]`,
			code: "object_key_is_index",
			id:   "a[0]",
		},
		{
			name: "dotted key",
			doc:  `headersStructure: [{key: a.b, type: leaf, id: a.b}]`,
			code: "invalid_key",
			id:   "a.b",
		},
		{
			name: "unknown kind",
			doc:  "headersStructure: [{key: a, type: map, id: a}]",
			code: "invalid_node_kind",
			id:   "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, diags := buildTree(t, tt.doc)
			assert.Nil(t, tree)
			require.NotEmpty(t, diags)

			d := diags[0]
			assert.Equal(t, diagnostic.KindMalformedMap, d.Kind)
			assert.Equal(t, tt.code, d.Code)
			assert.Equal(t, tt.id, d.LeafID)
		})
	}
}
