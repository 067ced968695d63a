package searchguard

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Document is an ordered mapping. It marshals to a YAML mapping whose keys
// appear in insertion order.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{values: map[string]any{}}
}

// Set stores value under key. An existing key keeps its position.
func (d *Document) Set(key string, value any) *Document {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}

	d.values[key] = value

	return d
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.values[key]

	return v, ok
}

// Has returns true if key is set.
func (d *Document) Has(key string) bool {
	_, ok := d.values[key]

	return ok
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of keys.
func (d *Document) Len() int {
	return len(d.keys)
}

// Interface converts the document into plain maps and slices. Nested
// documents are converted as well.
func (d *Document) Interface() map[string]any {
	out := make(map[string]any, len(d.keys))

	for _, k := range d.keys {
		out[k] = plain(d.values[k])
	}

	return out
}

func plain(v any) any {
	switch val := v.(type) {
	case *Document:
		return val.Interface()
	case []*Document:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = item.Interface()
		}

		return items
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = plain(item)
		}

		return items
	default:
		return v
	}
}

// MarshalYAML renders the document as a YAML mapping node.
func (d *Document) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, k := range d.keys {
		var value yaml.Node
		if err := value.Encode(d.values[k]); err != nil {
			return nil, errors.Wrapf(err, "failed to encode %q", k)
		}

		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&value,
		)
	}

	return node, nil
}
