package xpack

import (
	"strings"

	"github.com/cockroachdb/errors"

	"xpack-migrator/internal/trace"
)

// Setting is a raw setting kept for reporting, such as an unknown key.
type Setting = trace.Traceable[*trace.Node]

// Rejected is an entity that could not be parsed. The rest of the document is
// still migrated.
type Rejected struct {
	// Kind is the entity kind, e.g. "realm" or "role".
	Kind string
	// Name identifies the entity within its document.
	Name string
	// Source is the entity path.
	Source trace.Source
	// Err lists the structural errors.
	Err error
}

// readNamed opens a JSON or YAML document keyed by entity name and calls parse
// for every entry in document order. Entries that fail become Rejected.
func readNamed(file string, data []byte, kind string, parse func(name string, r *trace.Reader) error) ([]Rejected, error) {
	node, err := trace.Parse(file, data)
	if err != nil {
		return nil, err
	}

	if node.Kind() != trace.KindMap {
		return nil, errors.Newf("%s: expected an object keyed by %s name", file, kind)
	}

	root := trace.NewReader(node, trace.NewConfig(file))

	var rejected []Rejected

	for _, name := range root.Keys() {
		entry := root.Entry(name)

		r, err := trace.RecordReader(entry)
		if err == nil {
			err = parse(name, r)
		}

		if err != nil {
			rejected = append(rejected, Rejected{Kind: kind, Name: name, Source: entry.Source(), Err: err})
		}
	}

	return rejected, nil
}

func optString(r *trace.Reader, name string) trace.OptTraceable[string] {
	return trace.Optional(r.Get(name), trace.String)
}

func optSecret(r *trace.Reader, name string) trace.OptTraceable[string] {
	return trace.Optional(r.Get(name).Secret(), trace.String)
}

func optStrings(r *trace.Reader, name string) trace.OptTraceable[trace.List[string]] {
	return trace.OptionalList(r.Get(name), trace.String)
}

func optBool(r *trace.Reader, name string) trace.OptTraceable[bool] {
	return trace.Optional(r.Get(name), trace.Bool)
}

func optInt(r *trace.Reader, name string) trace.OptTraceable[int] {
	return trace.Optional(r.Get(name), trace.Int)
}

func optNode(r *trace.Reader, name string) trace.OptTraceable[*trace.Node] {
	return trace.OptionalNode(r.Get(name))
}

// settings returns the present values of keys, in the given order.
func settings(r *trace.Reader, keys ...string) []Setting {
	var out []Setting

	for _, k := range keys {
		a := r.Get(k)
		if looksSecret(k) {
			a = a.Secret()
		}

		if v, ok := trace.OptionalNode(a).Traceable(); ok && v.IsValid() {
			out = append(out, v)
		}
	}

	return out
}

// unknown returns every setting of r that was not read.
func unknown(r *trace.Reader) []Setting {
	var out []Setting

	for _, a := range r.Unused() {
		v := trace.Of(a.Source(), a.Node())
		if looksSecret(trace.RelativePath(a.Source())) {
			v = v.Secret()
		}

		out = append(out, v)
	}

	return out
}

func looksSecret(name string) bool {
	name = strings.ToLower(name)

	for _, marker := range []string{"password", "secret", "passphrase", "hmac", "encryption_key", "encryptionkey"} {
		if strings.Contains(name, marker) {
			return true
		}
	}

	return false
}

// isReserved reports metadata._reserved: true.
func isReserved(metadata trace.OptTraceable[*trace.Node]) bool {
	n, ok := metadata.Get()
	if !ok {
		return false
	}

	flag, ok := n.Field("_reserved")
	if !ok {
		return false
	}

	v, err := trace.Bool(flag)

	return err == nil && v
}
