// Package schema compiles the declared source shape of a map document and
// checks answer documents against it.
//
// Nodes are a closed tagged variant: *Object, *Array and *Leaf. Every node
// is also reachable by its flattened id, so nothing downstream needs to walk
// the tree to find a leaf.
package schema

import (
	"fmt"

	"formmap/internal/diagnostic"
	"formmap/internal/mapping"
)

// Node is one compiled schema node.
type Node interface {
	ID() string
	Key() mapping.SchemaKey
	Kind() mapping.NodeKind

	sealed()
}

type base struct {
	id     string
	key    mapping.SchemaKey
	parent string
}

func (b *base) ID() string             { return b.id }
func (b *base) Key() mapping.SchemaKey { return b.key }
func (b *base) sealed()                {}

// Parent returns the id of the enclosing node ("" for top-level nodes).
func (b *base) Parent() string { return b.parent }

// Object is a node whose value is a mapping of declared members.
type Object struct {
	base

	Members []Node
	byName  map[string]Node
}

// Kind implements Node.
func (*Object) Kind() mapping.NodeKind { return mapping.NodeObject }

// Member returns the declared member with the given name.
func (o *Object) Member(name string) (Node, bool) {
	n, ok := o.byName[name]
	return n, ok
}

// Array is a node whose value is a sequence of positionally declared elements.
type Array struct {
	base

	Elements []Node
}

// Kind implements Node.
func (*Array) Kind() mapping.NodeKind { return mapping.NodeArray }

// Leaf is a node whose value is a scalar.
type Leaf struct {
	base

	// Path is the key sequence from the root, used as the compiled extractor.
	Path mapping.HeaderPath
}

// Kind implements Node.
func (*Leaf) Kind() mapping.NodeKind { return mapping.NodeLeaf }

// Tree is a compiled source shape. It is immutable once built.
type Tree struct {
	root   *Object
	nodes  map[string]Node
	leaves []*Leaf
}

// Build compiles the declared nodes into a Tree. Structural defects of the
// declaration are reported as MalformedMap diagnostics; the tree is nil when
// there are any.
func Build(nodes []mapping.SchemaNode) (*Tree, diagnostic.List) {
	b := &builder{
		tree: &Tree{
			root:  &Object{byName: map[string]Node{}},
			nodes: map[string]Node{},
		},
	}

	for i := range nodes {
		b.addMember(b.tree.root, nil, &nodes[i])
	}

	if b.diags.HasErrors() {
		return nil, b.diags
	}

	return b.tree, nil
}

type builder struct {
	tree  *Tree
	diags diagnostic.List
}

func (b *builder) malformed(code, id, format string, args ...any) {
	b.diags.AddError(diagnostic.KindMalformedMap, code, id, "", fmt.Sprintf(format, args...))
}

// addMember attaches an object member.
func (b *builder) addMember(parent *Object, prefix mapping.HeaderPath, sn *mapping.SchemaNode) {
	if sn.Key.IsIndex {
		b.malformed("object_key_is_index", sn.ID, "object member %q has an integer key %d", sn.ID, sn.Key.Index)
		return
	}

	if !mapping.IsValidMemberName(sn.Key.Name) {
		b.malformed("invalid_key", sn.ID, "member key %q is empty or contains '.', '[' or ']'", sn.Key.Name)
		return
	}

	// A repeated member name has a repeated id and is rejected by build.
	n := b.build(parent.id, prefix, sn)
	if n == nil {
		return
	}

	parent.byName[sn.Key.Name] = n
	parent.Members = append(parent.Members, n)
}

// addElement attaches an array element at position pos.
func (b *builder) addElement(parent *Array, prefix mapping.HeaderPath, pos int, sn *mapping.SchemaNode) {
	if !sn.Key.IsIndex || sn.Key.Index != pos {
		b.malformed("array_key_order", sn.ID,
			"element %d of %q must have key %d, got %q", pos, parent.id, pos, sn.Key.String())

		return
	}

	if n := b.build(parent.id, prefix, sn); n != nil {
		parent.Elements = append(parent.Elements, n)
	}
}

func (b *builder) build(parentID string, prefix mapping.HeaderPath, sn *mapping.SchemaNode) Node {
	want := mapping.ChildAddress(parentID, sn.Key)
	if sn.ID != want {
		b.malformed("id_mismatch", sn.ID, "id %q does not match its position (expected %q)", sn.ID, want)
		return nil
	}

	if _, dup := b.tree.nodes[sn.ID]; dup {
		b.malformed("duplicate_id", sn.ID, "id %q is declared more than once", sn.ID)
		return nil
	}

	path := append(append(mapping.HeaderPath{}, prefix...), sn.Key)
	common := base{id: sn.ID, key: sn.Key, parent: parentID}

	var n Node

	switch kind := sn.NodeKind(); kind {
	case mapping.NodeLeaf:
		if len(sn.Children) > 0 {
			b.malformed("leaf_with_children", sn.ID, "leaf %q declares %d children", sn.ID, len(sn.Children))
			return nil
		}

		leaf := &Leaf{base: common, Path: path}
		b.tree.leaves = append(b.tree.leaves, leaf)
		n = leaf

	case mapping.NodeObject:
		if len(sn.Children) == 0 {
			b.malformed("empty_container", sn.ID, "object %q declares no members", sn.ID)
			return nil
		}

		obj := &Object{base: common, byName: map[string]Node{}}
		b.tree.nodes[sn.ID] = obj

		for i := range sn.Children {
			b.addMember(obj, path, &sn.Children[i])
		}

		return obj

	case mapping.NodeArray:
		if len(sn.Children) == 0 {
			b.malformed("empty_container", sn.ID, "array %q declares no elements", sn.ID)
			return nil
		}

		arr := &Array{base: common}
		b.tree.nodes[sn.ID] = arr

		for i := range sn.Children {
			b.addElement(arr, path, i, &sn.Children[i])
		}

		return arr

	default:
		b.malformed("invalid_node_kind", sn.ID, "node kind %q (expected object, array or leaf)", kind)
		return nil
	}

	b.tree.nodes[sn.ID] = n

	return n
}

// Node returns the node with the given id.
func (t *Tree) Node(id string) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Leaf returns the leaf with the given id.
func (t *Tree) Leaf(id string) (*Leaf, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, false
	}

	leaf, ok := n.(*Leaf)

	return leaf, ok
}

// Parent returns the id of the node enclosing id ("" for top-level nodes).
func (t *Tree) Parent(id string) (string, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return "", false
	}

	switch n := n.(type) {
	case *Object:
		return n.parent, true
	case *Array:
		return n.parent, true
	case *Leaf:
		return n.parent, true
	}

	return "", false
}

// Leaves returns every leaf in declaration order.
func (t *Tree) Leaves() []*Leaf {
	return t.leaves
}

// Roots returns the top-level nodes in declaration order.
func (t *Tree) Roots() []Node {
	return t.root.Members
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}
