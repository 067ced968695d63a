package trace

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Kind is the shape of a Node.
type Kind int

const (
	// KindNull is an explicit null or an empty document.
	KindNull Kind = iota
	// KindScalar is a string, number or boolean.
	KindScalar
	// KindList is a sequence.
	KindList
	// KindMap is a mapping with string keys in document order.
	KindMap
)

// Node is the canonical document tree used by Reader. Maps keep document order.
type Node struct {
	kind   Kind
	value  any
	text   string
	items  []*Node
	keys   []string
	fields map[string]*Node
	line   int

	// conflict is set when a shortcut key and a nested key define the same
	// logical attribute; conflictLine is the line of the later definition.
	conflict     bool
	conflictLine int
}

// ParseOption configures Parse.
type ParseOption func(*parseOptions)

type parseOptions struct {
	shortcutKeys bool
}

// WithShortcutKeys expands dotted keys such as "a.b.c: v" into nested maps.
func WithShortcutKeys() ParseOption {
	return func(o *parseOptions) {
		o.shortcutKeys = true
	}
}

// Parse reads a YAML or JSON document into a Node tree. The file name is only
// used for error messages. An empty document yields an empty map.
func Parse(file string, data []byte, opts ...ParseOption) (*Node, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", file)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewMap(), nil
	}

	root, err := build(doc.Content[0], o)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", file)
	}

	if root.kind == KindNull {
		return NewMap(), nil
	}

	return root, nil
}

// NewMap returns an empty map node.
func NewMap() *Node {
	return &Node{kind: KindMap, fields: map[string]*Node{}}
}

// NewScalar returns a scalar node holding value.
func NewScalar(value any) *Node {
	if value == nil {
		return &Node{kind: KindNull}
	}

	text, ok := value.(string)
	if !ok {
		b, _ := json.Marshal(value)
		text = string(b)
	}

	return &Node{kind: KindScalar, value: value, text: text}
}

func build(yn *yaml.Node, o parseOptions) (*Node, error) {
	switch yn.Kind {
	case yaml.DocumentNode:
		if len(yn.Content) == 0 {
			return &Node{kind: KindNull, line: yn.Line}, nil
		}

		return build(yn.Content[0], o)
	case yaml.AliasNode:
		return build(yn.Alias, o)
	case yaml.ScalarNode:
		return buildScalar(yn)
	case yaml.SequenceNode:
		n := &Node{kind: KindList, line: yn.Line}

		for _, c := range yn.Content {
			item, err := build(c, o)
			if err != nil {
				return nil, err
			}

			n.items = append(n.items, item)
		}

		return n, nil
	case yaml.MappingNode:
		n := NewMap()
		n.line = yn.Line

		for i := 0; i+1 < len(yn.Content); i += 2 {
			k, v := yn.Content[i], yn.Content[i+1]
			if k.Tag == "!!merge" {
				continue
			}

			child, err := build(v, o)
			if err != nil {
				return nil, err
			}

			segments := []string{k.Value}
			if o.shortcutKeys {
				segments = strings.Split(k.Value, ".")
			}

			n.insert(segments, child, k.Line)
		}

		return n, nil
	default:
		return nil, errors.Newf("unsupported YAML node kind %d at line %d", yn.Kind, yn.Line)
	}
}

func buildScalar(yn *yaml.Node) (*Node, error) {
	if yn.Tag == "!!null" {
		return &Node{kind: KindNull, line: yn.Line}, nil
	}

	var v any
	if err := yn.Decode(&v); err != nil {
		return nil, errors.Wrapf(err, "invalid scalar at line %d", yn.Line)
	}

	return &Node{kind: KindScalar, value: v, text: yn.Value, line: yn.Line}, nil
}

// insert places child under the dotted path, creating intermediate maps.
// Clashing definitions are recorded as a conflict instead of being merged.
func (n *Node) insert(segments []string, child *Node, line int) {
	cur := n

	for i, seg := range segments {
		existing, ok := cur.fields[seg]
		last := i == len(segments)-1

		switch {
		case !ok && last:
			cur.set(seg, child)

			return
		case !ok:
			next := NewMap()
			next.line = line
			cur.set(seg, next)
			cur = next
		case last:
			if existing.kind == KindMap && child.kind == KindMap {
				existing.mergeFrom(child)

				return
			}

			existing.markConflict(line)

			return
		case existing.kind == KindMap:
			cur = existing
		default:
			existing.markConflict(line)

			return
		}
	}
}

func (n *Node) mergeFrom(other *Node) {
	if other.conflict {
		n.markConflict(other.conflictLine)
	}

	for _, k := range other.keys {
		n.insert([]string{k}, other.fields[k], other.fields[k].line)
	}
}

func (n *Node) set(key string, child *Node) {
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}

	n.fields[key] = child
}

func (n *Node) markConflict(line int) {
	if !n.conflict {
		n.conflict = true
		n.conflictLine = line
	}
}

// Kind returns the node shape.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}

	return n.kind
}

// IsNull returns true for a missing or null node.
func (n *Node) IsNull() bool {
	return n.Kind() == KindNull
}

// Line returns the 1-based source line, or 0 when unknown.
func (n *Node) Line() int {
	return n.line
}

// Scalar returns the decoded scalar value.
func (n *Node) Scalar() any {
	return n.value
}

// Text returns the literal text of a scalar.
func (n *Node) Text() string {
	return n.text
}

// Items returns the elements of a list node.
func (n *Node) Items() []*Node {
	return n.items
}

// Keys returns map keys in document order.
func (n *Node) Keys() []string {
	return n.keys
}

// Field returns the child stored under the literal key.
func (n *Node) Field(key string) (*Node, bool) {
	if n.Kind() != KindMap {
		return nil, false
	}

	c, ok := n.fields[key]

	return c, ok
}

// HasConflict reports whether this node was defined by clashing keys.
func (n *Node) HasConflict() bool {
	return n.conflict
}

// Interface converts the tree into plain Go values: map[string]any, []any and scalars.
func (n *Node) Interface() any {
	switch n.Kind() {
	case KindScalar:
		return n.value
	case KindList:
		out := make([]any, 0, len(n.items))
		for _, it := range n.items {
			out = append(out, it.Interface())
		}

		return out
	case KindMap:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.fields[k].Interface()
		}

		return out
	default:
		return nil
	}
}

// JSON renders the subtree as compact JSON, keeping map key order.
func (n *Node) JSON() string {
	var buf bytes.Buffer
	n.writeJSON(&buf)

	return buf.String()
}

// MarshalJSON implements json.Marshaler with document key order.
func (n *Node) MarshalJSON() ([]byte, error) {
	return []byte(n.JSON()), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer) {
	switch n.Kind() {
	case KindScalar:
		b, err := json.Marshal(n.value)
		if err != nil {
			b, _ = json.Marshal(n.text)
		}

		buf.Write(b)
	case KindList:
		buf.WriteByte('[')

		for i, it := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}

			it.writeJSON(buf)
		}

		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')

		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}

			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			n.fields[k].writeJSON(buf)
		}

		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
}
