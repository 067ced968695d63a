package realm

import (
	"fmt"

	"xpack-migrator/internal/common"
	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/searchguard"
	"xpack-migrator/internal/trace"
)

// configBuilder collects the dotted config keys of one auth domain.
type configBuilder struct {
	doc *searchguard.Document
	rep *diagnostic.Reporter
}

func newConfigBuilder(rep *diagnostic.Reporter) *configBuilder {
	return &configBuilder{doc: searchguard.NewDocument(), rep: rep}
}

// set stores value unless it carries no information. It reports whether the
// value was stored.
func (b *configBuilder) set(key string, value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		if common.IsBlank(v) {
			return false
		}
	case []string:
		if len(v) == 0 {
			return false
		}
	case *searchguard.Document:
		if v == nil || v.Len() == 0 {
			return false
		}
	}

	b.doc.Set(key, value)

	return true
}

// domain returns the finished auth domain.
func (b *configBuilder) domain(typ string) searchguard.AuthDomain {
	return searchguard.AuthDomain{Type: typ, Config: b.doc}
}

// put stores a present value under key and reports whether it did.
func put[T any](b *configBuilder, key string, v trace.OptTraceable[T]) bool {
	val, ok := v.Get()
	if !ok {
		return false
	}

	return b.set(key, plain(val))
}

// putDefault stores v, or def when v is absent.
func putDefault[T any](b *configBuilder, key string, v trace.OptTraceable[T], def T) {
	b.set(key, plain(orDefault(b, v, def)))
}

// orDefault returns the value of v, or def when v is absent. Applying the
// default is reported on the source path.
func orDefault[T any](b *configBuilder, v trace.OptTraceable[T], def T) T {
	if val, ok := v.Get(); ok {
		return val
	}

	b.rep.Preset(diagnostic.DefaultApplied, v, fmt.Sprintf("'%v'", plain(def)))

	return def
}

// putFirst stores the first element of a list. Every further element is
// reported as dropped.
func putFirst(b *configBuilder, key string, v trace.OptTraceable[trace.List[string]]) {
	first, ok := firstOf(b.rep, v)
	if ok {
		b.set(key, first)
	}
}

func firstOf(rep *diagnostic.Reporter, v trace.OptTraceable[trace.List[string]]) (string, bool) {
	list, _ := v.Get()

	head, ok := common.First(list)
	if !ok {
		return "", false
	}

	first := head.Get()

	for _, e := range list[1:] {
		rep.Problem(e, fmt.Sprintf("Search Guard accepts a single value; only '%s' was migrated", first))
	}

	return first, true
}

// plain unwraps traceable lists into plain values.
func plain(v any) any {
	switch val := v.(type) {
	case trace.List[string]:
		return val.Values()
	default:
		return v
	}
}

// fileRef renders a path as a Search Guard file variable.
func fileRef(path string) string {
	return "#{file:" + path + "}"
}

func fileRefs(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, fileRef(p))
	}

	return out
}

// optional is a setting that may be absent.
type optional interface {
	trace.Subject
	IsPresent() bool
}

// ignored reports each present setting as deliberately not migrated.
func ignored(rep *diagnostic.Reporter, settings ...optional) {
	for _, s := range settings {
		if s.IsPresent() {
			rep.Preset(diagnostic.IgnoredKey, s)
		}
	}
}

// inconvertible reports each present setting with message.
func inconvertible(rep *diagnostic.Reporter, message string, settings ...optional) {
	for _, s := range settings {
		if s.IsPresent() {
			rep.Inconvertible(s, message)
		}
	}
}

// inconvertibleSecret is inconvertible for settings holding secrets.
func inconvertibleSecret(rep *diagnostic.Reporter, message string, settings ...optional) {
	for _, s := range settings {
		if s.IsPresent() {
			rep.InconvertibleSecret(s, message)
		}
	}
}
