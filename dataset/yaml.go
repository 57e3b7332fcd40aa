package dataset

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dapsql/dapsql/dap"
)

// Parse decodes a config document. The yaml node tree is walked directly
// so variable declaration order survives; decoding through a Go map would
// lose it.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("config is empty")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config must be a mapping")
	}

	cfg := &Config{byName: make(map[string]*Variable)}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		val := doc.Content[i+1]

		switch key {
		case "database":
			if err := val.Decode(&cfg.Database); err != nil {
				return nil, fmt.Errorf("database: %w", err)
			}
		case "requires":
			if err := val.Decode(&cfg.Requires); err != nil {
				return nil, fmt.Errorf("requires: %w", err)
			}
		case "dataset":
			attrs, err := decodeAttributes(val)
			if err != nil {
				return nil, fmt.Errorf("dataset: %w", err)
			}
			cfg.Dataset = attrs
		case "sequence":
			attrs, err := decodeAttributes(val)
			if err != nil {
				return nil, fmt.Errorf("sequence: %w", err)
			}
			cfg.Sequence = attrs
		default:
			if val.Kind != yaml.MappingNode || !hasKey(val, "col") {
				continue
			}
			attrs, err := decodeAttributes(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			col, ok := attrs["col"].(string)
			if !ok || col == "" {
				return nil, fmt.Errorf("%s: col must be a non-empty string", key)
			}
			delete(attrs, "col")
			if _, dup := cfg.byName[key]; dup {
				return nil, fmt.Errorf("variable %q declared twice", key)
			}
			v := &Variable{Name: key, Col: col, Attributes: attrs}
			cfg.vars = append(cfg.vars, v)
			cfg.byName[key] = v
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

func decodeAttributes(node *yaml.Node) (dap.Attributes, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	attrs := make(dap.Attributes, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		v, err := decodeValue(node.Content[i+1])
		if err != nil {
			return nil, err
		}
		attrs[node.Content[i].Value] = v
	}
	return attrs, nil
}

func decodeValue(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.MappingNode:
		attrs, err := decodeAttributes(node)
		if err != nil {
			return nil, err
		}
		return attrs, nil
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := decodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.AliasNode:
		return decodeValue(node.Alias)
	case yaml.ScalarNode:
		if node.Tag == queryTag {
			return Query{SQL: node.Value}, nil
		}
		// Unknown application tags pass through as plain strings.
		if strings.HasPrefix(node.Tag, "!") && !strings.HasPrefix(node.Tag, "!!") {
			return node.Value, nil
		}
		var v interface{}
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		if n, ok := v.(int); ok {
			return int64(n), nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node", node.Line)
	}
}
