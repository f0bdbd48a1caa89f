package mapping

import (
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// --- SchemaKey YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for SchemaKey.
// Integer scalars become array indices, every other scalar a member name.
func (k *SchemaKey) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: key must be a scalar, got %v", node.Line, kindName(node.Kind))
	}

	if node.Tag == "!!int" {
		i, err := strconv.Atoi(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: invalid index %q: %w", node.Line, node.Value, err)
		}

		if i < 0 {
			return fmt.Errorf("line %d: negative index %d", node.Line, i)
		}

		*k = IndexKey(i)

		return nil
	}

	*k = NameKey(node.Value)

	return nil
}

// MarshalYAML implements custom YAML marshaling for SchemaKey.
func (k SchemaKey) MarshalYAML() (any, error) {
	if k.IsIndex {
		return k.Index, nil
	}

	return k.Name, nil
}

// --- Headers YAML methods ---

// UnmarshalYAML decodes the headers mapping keeping declaration order.
// Repeated ids are kept so that validation can report them.
func (h *Headers) UnmarshalYAML(node *yaml.Node) error {
	entries, err := decodeOrdered(node, func(key string, value *yaml.Node) (HeaderEntry, error) {
		var fm FieldMapping
		if err := value.Decode(&fm); err != nil {
			return HeaderEntry{}, fmt.Errorf("header %q: %w", key, err)
		}

		return HeaderEntry{ID: key, Mapping: fm}, nil
	})
	if err != nil {
		return err
	}

	*h = entries

	return nil
}

// MarshalYAML renders the headers as an ordered mapping.
func (h Headers) MarshalYAML() (any, error) {
	return encodeOrdered(h, func(e HeaderEntry) (string, any) { return e.ID, e.Mapping })
}

// --- Constants YAML methods ---

// UnmarshalYAML decodes the constants mapping keeping declaration order.
func (c *Constants) UnmarshalYAML(node *yaml.Node) error {
	entries, err := decodeOrdered(node, func(key string, value *yaml.Node) (ConstantEntry, error) {
		var cf ConstantField
		if err := value.Decode(&cf); err != nil {
			return ConstantEntry{}, fmt.Errorf("constant %q: %w", key, err)
		}

		return ConstantEntry{Name: key, Field: cf}, nil
	})
	if err != nil {
		return err
	}

	*c = entries

	return nil
}

// MarshalYAML renders the constants as an ordered mapping.
func (c Constants) MarshalYAML() (any, error) {
	return encodeOrdered(c, func(e ConstantEntry) (string, any) { return e.Name, e.Field })
}

// --- ChoiceMap YAML methods ---

// UnmarshalYAML decodes a vocabulary keeping declaration order.
// Accepts:
//   - Full entries: {male: {code: male, valueType: coding}}
//   - Shorthand:    {male: male}
func (c *ChoiceMap) UnmarshalYAML(node *yaml.Node) error {
	entries, err := decodeOrdered(node, func(key string, value *yaml.Node) (ChoiceEntry, error) {
		var entry ChoiceEntry

		switch value.Kind {
		case yaml.ScalarNode:
			entry.Code = value.Value
		case yaml.MappingNode:
			if err := value.Decode(&entry); err != nil {
				return ChoiceEntry{}, fmt.Errorf("choice %q: %w", key, err)
			}
		default:
			return ChoiceEntry{}, fmt.Errorf("choice %q: expected string or mapping, got %v", key, kindName(value.Kind))
		}

		entry.Source = key

		return entry, nil
	})
	if err != nil {
		return err
	}

	*c = entries

	return nil
}

// MarshalYAML renders the vocabulary as an ordered mapping.
func (c ChoiceMap) MarshalYAML() (any, error) {
	return encodeOrdered(c, func(e ChoiceEntry) (string, any) { return e.Source, e })
}

// decodeOrdered walks a mapping node pair by pair.
func decodeOrdered[E any](node *yaml.Node, decode func(key string, value *yaml.Node) (E, error)) ([]E, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}

	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected mapping, got %v", node.Line, kindName(node.Kind))
	}

	if len(node.Content)%2 != 0 {
		return nil, errors.New("malformed mapping node")
	}

	out := make([]E, 0, len(node.Content)/2)

	for i := 0; i < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping key must be a scalar", keyNode.Line)
		}

		e, err := decode(keyNode.Value, valueNode)
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, nil
}

// encodeOrdered builds a mapping node that keeps slice order on output.
func encodeOrdered[E any](entries []E, split func(E) (string, any)) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, e := range entries {
		key, value := split(e)

		var valueNode yaml.Node
		if err := valueNode.Encode(value); err != nil {
			return nil, fmt.Errorf("encode %q: %w", key, err)
		}

		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&valueNode,
		)
	}

	return node, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
