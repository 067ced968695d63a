package trace

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Reader gives typed, validating access to one map node. Errors are not
// returned by the accessors; they are collected in a sink that is shared with
// every child reader and checked once with Err.
type Reader struct {
	node   *Node
	source Source
	errs   *ValidationErrors
	used   map[string]struct{}
}

// NewReader returns a reader with its own error sink.
func NewReader(node *Node, source Source) *Reader {
	if node == nil {
		node = NewMap()
	}

	return &Reader{node: node, source: orNone(source), errs: &ValidationErrors{}, used: map[string]struct{}{}}
}

// Source returns the path of the record being read.
func (r *Reader) Source() Source {
	return r.source
}

// Node returns the underlying map node.
func (r *Reader) Node() *Node {
	return r.node
}

// Errors returns the shared sink.
func (r *Reader) Errors() *ValidationErrors {
	return r.errs
}

// Err finalizes the record. It returns every error recorded so far, or nil.
func (r *Reader) Err() error {
	return r.errs.Err()
}

// Report records an additional validation error.
func (r *Reader) Report(err error) {
	r.errs.Add(err)
}

// Keys returns the map keys in document order.
func (r *Reader) Keys() []string {
	return r.node.Keys()
}

// Entry returns the attribute stored under the literal key, without dotted
// path resolution. Use it for keys that are names, such as role names.
func (r *Reader) Entry(key string) *Attribute {
	r.used[key] = struct{}{}

	a := &Attribute{reader: r, source: NewAttribute(r.source, key)}

	if n, ok := r.node.Field(key); ok {
		a.node = n
		a.conflict = n.conflict
		a.conflictLine = n.conflictLine
	}

	return a
}

// Get resolves a possibly dotted attribute name. A literal key wins over the
// nested walk; when both exist the attribute is flagged as a conflict.
func (r *Reader) Get(name string) *Attribute {
	a := r.Entry(name)

	if !strings.Contains(name, ".") {
		return a
	}

	nested, conflicted, found := r.walk(strings.Split(name, "."))
	if !found {
		return a
	}

	if a.node != nil {
		a.conflict = true
		a.conflictLine = max(nested.line, a.node.line)

		return a
	}

	a.node = nested

	if conflicted != nil {
		a.conflict = true
		a.conflictLine = conflicted.conflictLine
	}

	return a
}

// walk follows segments through nested maps. It also returns the first node on
// the way that carries a conflict.
func (r *Reader) walk(segments []string) (*Node, *Node, bool) {
	cur := r.node

	var conflicted *Node

	for _, seg := range segments {
		next, ok := cur.Field(seg)
		if !ok {
			return nil, nil, false
		}

		if next.conflict && conflicted == nil {
			conflicted = next
		}

		cur = next
	}

	return cur, conflicted, true
}

// Unused returns the leaf attributes of the record that no Get or Entry call
// asked for, in document order. Reading a map marks its whole subtree as used.
func (r *Reader) Unused() []*Attribute {
	var out []*Attribute

	r.collectUnused(r.node, r.source, "", &out)

	return out
}

func (r *Reader) collectUnused(n *Node, parent Source, prefix string, out *[]*Attribute) {
	for _, k := range n.keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}

		if r.isUsed(name) {
			continue
		}

		child := n.fields[k]
		src := NewAttribute(parent, k)

		if child.kind == KindMap && len(child.keys) > 0 {
			r.collectUnused(child, src, name, out)

			continue
		}

		*out = append(*out, &Attribute{reader: r, source: src, node: child})
	}
}

// isUsed reports whether name or one of its ancestors was read.
func (r *Reader) isUsed(name string) bool {
	for {
		if _, ok := r.used[name]; ok {
			return true
		}

		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return false
		}

		name = name[:i]
	}
}

// Child returns a reader over a nested record that shares this reader's sink.
func (r *Reader) Child(node *Node, source Source) *Reader {
	return &Reader{node: node, source: orNone(source), errs: r.errs, used: map[string]struct{}{}}
}

// Attribute is a resolved, not yet parsed attribute.
type Attribute struct {
	reader       *Reader
	source       Source
	node         *Node
	conflict     bool
	conflictLine int
	secret       bool
}

// Source returns the attribute path.
func (a *Attribute) Source() Source {
	return a.source
}

// Node returns the raw node, or nil when absent.
func (a *Attribute) Node() *Node {
	return a.node
}

// Exists returns true if the attribute is present and not null.
func (a *Attribute) Exists() bool {
	return a.node != nil && !a.node.IsNull()
}

// Secret returns a copy whose parsed values are secret and whose errors omit the value.
func (a *Attribute) Secret() *Attribute {
	c := *a
	c.secret = true

	return &c
}

// checkConflict records the tree structure error, if any, and reports whether
// parsing may continue.
func (a *Attribute) checkConflict() bool {
	if !a.conflict {
		return true
	}

	a.reader.Report(&InvalidTreeStructureError{At: a.source, Line: a.conflictLine})

	return false
}

func (a *Attribute) fail(err error) error {
	var ive *InvalidValueError
	if errors.As(err, &ive) {
		ive.At = a.source
		ive.Secret = a.secret
		a.reader.Report(ive)

		return ive
	}

	wrapped := &InvalidValueError{At: a.source, Expected: err.Error(), Secret: a.secret}
	a.reader.Report(wrapped)

	return wrapped
}

func (a *Attribute) treeError() error {
	return &InvalidTreeStructureError{At: a.source, Line: a.conflictLine}
}

func secretIf[T any](t Traceable[T], secret bool) Traceable[T] {
	if secret {
		return t.Secret()
	}

	return t
}

// Required parses a mandatory attribute. An absent or null value records a
// MissingAttributeError and yields the error variant.
func Required[T any](a *Attribute, parse Parser[T]) Traceable[T] {
	if !a.checkConflict() {
		return secretIf(Invalid[T](a.source, a.treeError()), a.secret)
	}

	if !a.Exists() {
		err := &MissingAttributeError{At: a.source}
		a.reader.Report(err)

		return secretIf(Invalid[T](a.source, err), a.secret)
	}

	v, err := parse(a.node)
	if err != nil {
		return secretIf(Invalid[T](a.source, a.fail(err)), a.secret)
	}

	return secretIf(Of(a.source, v), a.secret)
}

// Optional parses an attribute that may be absent.
func Optional[T any](a *Attribute, parse Parser[T]) OptTraceable[T] {
	if !a.conflict && !a.Exists() {
		o := Absent[T](a.source)
		if a.secret {
			o = o.Secret()
		}

		return o
	}

	return Present(Required(a, parse))
}

// WithDefault parses an optional attribute and falls back to def at the same path.
func WithDefault[T any](a *Attribute, parse Parser[T], def T) Traceable[T] {
	return Optional(a, parse).OrElse(def)
}

// RequiredList parses a mandatory list. A single scalar is accepted as a
// one-element list. Each element carries its ListEntry source.
func RequiredList[T any](a *Attribute, parse Parser[T]) Traceable[List[T]] {
	if !a.checkConflict() {
		return secretIf(Invalid[List[T]](a.source, a.treeError()), a.secret)
	}

	if !a.Exists() {
		err := &MissingAttributeError{At: a.source}
		a.reader.Report(err)

		return secretIf(Invalid[List[T]](a.source, err), a.secret)
	}

	return secretIf(parseList(a, parse), a.secret)
}

// OptionalList is RequiredList for an attribute that may be absent.
func OptionalList[T any](a *Attribute, parse Parser[T]) OptTraceable[List[T]] {
	if !a.conflict && !a.Exists() {
		return Absent[List[T]](a.source)
	}

	return Present(RequiredList(a, parse))
}

func parseList[T any](a *Attribute, parse Parser[T]) Traceable[List[T]] {
	if a.node.Kind() == KindScalar {
		v, err := parse(a.node)
		if err != nil {
			return Invalid[List[T]](a.source, a.fail(err))
		}

		return Of(a.source, List[T]{secretIf(Of[T](NewListEntry(a.source, 0), v), a.secret)})
	}

	if a.node.Kind() != KindList {
		return Invalid[List[T]](a.source, a.fail(&InvalidValueError{Expected: "a list", Actual: a.node.JSON()}))
	}

	out := make(List[T], 0, len(a.node.items))

	var errs []error

	for i, item := range a.node.items {
		elem := &Attribute{reader: a.reader, source: NewListEntry(a.source, i), node: item, secret: a.secret}

		v, err := parse(item)
		if err != nil {
			errs = append(errs, elem.fail(err))

			continue
		}

		out = append(out, secretIf(Of(elem.source, v), a.secret))
	}

	if len(errs) > 0 {
		return Invalid[List[T]](a.source, errs...)
	}

	return Of(a.source, out)
}

// RequiredRecord builds a nested object through a child reader that shares the sink.
func RequiredRecord[T any](a *Attribute, build func(*Reader) T) Traceable[T] {
	if !a.checkConflict() {
		return Invalid[T](a.source, a.treeError())
	}

	if !a.Exists() {
		err := &MissingAttributeError{At: a.source}
		a.reader.Report(err)

		return Invalid[T](a.source, err)
	}

	if a.node.Kind() != KindMap {
		return Invalid[T](a.source, a.fail(&InvalidValueError{Expected: "an object", Actual: a.node.JSON()}))
	}

	before := a.reader.errs.Len()
	v := build(a.reader.Child(a.node, a.source))

	if a.reader.errs.Len() > before {
		return Invalid[T](a.source, a.reader.errs.errs[before:]...)
	}

	return Of(a.source, v)
}

// OptionalRecord is RequiredRecord for an object that may be absent.
func OptionalRecord[T any](a *Attribute, build func(*Reader) T) OptTraceable[T] {
	if !a.conflict && !a.Exists() {
		return Absent[T](a.source)
	}

	return Present(RequiredRecord(a, build))
}

// OptionalNode returns the raw subtree.
func OptionalNode(a *Attribute) OptTraceable[*Node] {
	if !a.conflict && !a.Exists() {
		return Absent[*Node](a.source)
	}

	if !a.checkConflict() {
		return Present(Invalid[*Node](a.source, a.treeError()))
	}

	return Present(secretIf(Of(a.source, a.node), a.secret))
}

// RecordReader opens a named entry as a standalone record with its own sink.
// It returns an error when the entry is not an object.
func RecordReader(a *Attribute) (*Reader, error) {
	if a.conflict {
		return nil, a.treeError()
	}

	if !a.Exists() {
		return nil, &MissingAttributeError{At: a.source}
	}

	if a.node.Kind() != KindMap {
		return nil, &InvalidValueError{At: a.source, Expected: "an object", Actual: a.node.JSON(), Secret: a.secret}
	}

	return NewReader(a.node, a.source), nil
}

// OptionalRecordList parses a list of objects. Each element is built through a
// child reader sharing the sink and carries its ListEntry source.
func OptionalRecordList[T any](a *Attribute, build func(*Reader) T) OptTraceable[List[T]] {
	if !a.conflict && !a.Exists() {
		return Absent[List[T]](a.source)
	}

	if !a.checkConflict() {
		return Present(Invalid[List[T]](a.source, a.treeError()))
	}

	if a.node.Kind() != KindList {
		return Present(Invalid[List[T]](a.source, a.fail(&InvalidValueError{Expected: "a list of objects", Actual: a.node.JSON()})))
	}

	before := a.reader.errs.Len()
	out := make(List[T], 0, len(a.node.items))

	for i, item := range a.node.items {
		src := NewListEntry(a.source, i)

		if item.Kind() != KindMap {
			elem := &Attribute{reader: a.reader, source: src, node: item}
			elem.fail(&InvalidValueError{Expected: "an object", Actual: item.JSON()})

			continue
		}

		out = append(out, Of(Source(src), build(a.reader.Child(item, src))))
	}

	if a.reader.errs.Len() > before {
		return Present(Invalid[List[T]](a.source, a.reader.errs.errs[before:]...))
	}

	return Present(Of(a.source, out))
}
