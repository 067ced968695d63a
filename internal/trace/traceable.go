package trace

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Mask replaces secret values in rendered output.
const Mask = "******"

// Subject is anything the diagnostic reporter can attach a message to.
type Subject interface {
	// Source returns where the subject was read from.
	Source() Source
	// IsSecret reports whether the value must be masked in any output.
	IsSecret() bool
	// DisplayValue renders the value. The boolean is false when there is no value to show.
	DisplayValue() (string, bool)
}

// Traceable pairs a parsed value with its Source. It either holds a value or
// at least one validation error, never neither.
type Traceable[T any] struct {
	source Source
	value  T
	errs   []error
	secret bool
}

// Of returns a valid Traceable.
func Of[T any](source Source, value T) Traceable[T] {
	return Traceable[T]{source: orNone(source), value: value}
}

// Invalid returns the error variant. It panics when no error is given.
func Invalid[T any](source Source, errs ...error) Traceable[T] {
	if len(errs) == 0 {
		panic("trace: Invalid requires at least one error")
	}

	return Traceable[T]{source: orNone(source), errs: errs}
}

// Source returns where the value was read from.
func (t Traceable[T]) Source() Source {
	return orNone(t.source)
}

// IsSecret reports whether the value must be masked.
func (t Traceable[T]) IsSecret() bool {
	return t.secret
}

// Secret returns a copy marked as secret.
func (t Traceable[T]) Secret() Traceable[T] {
	t.secret = true

	return t
}

// IsValid returns true if a value is held.
func (t Traceable[T]) IsValid() bool {
	return len(t.errs) == 0
}

// Errors returns the validation errors of the error variant.
func (t Traceable[T]) Errors() []error {
	return t.errs
}

// Get returns the value. It panics on the error variant; use Value when the
// Traceable might be invalid.
func (t Traceable[T]) Get() T {
	if !t.IsValid() {
		panic(fmt.Sprintf("trace: Get on invalid value at %s: %v", t.Source().FullPath(), t.errs[0]))
	}

	return t.value
}

// Value returns the value, or ErrInvalidTraceable wrapping the first error.
func (t Traceable[T]) Value() (T, error) {
	if !t.IsValid() {
		var zero T

		return zero, errors.Wrapf(ErrInvalidTraceable, "%s: %v", t.Source().FullPath(), t.errs[0])
	}

	return t.value, nil
}

// DisplayValue renders the held value.
func (t Traceable[T]) DisplayValue() (string, bool) {
	if !t.IsValid() {
		return "", false
	}

	return formatValue(t.value), true
}

// String renders the value for debug output. Secret values are masked.
func (t Traceable[T]) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("<invalid: %v>", t.errs[0])
	}

	if t.secret {
		return Mask
	}

	return formatValue(t.value)
}

// Map transforms the value and keeps source and secrecy.
func Map[T, U any](t Traceable[T], fn func(T) U) Traceable[U] {
	if !t.IsValid() {
		return Traceable[U]{source: t.source, errs: t.errs, secret: t.secret}
	}

	return Traceable[U]{source: t.source, value: fn(t.value), secret: t.secret}
}

// FlatMap transforms the value with a fallible function. A returned error turns
// the result into the error variant at the same source.
func FlatMap[T, U any](t Traceable[T], fn func(T) (U, error)) Traceable[U] {
	if !t.IsValid() {
		return Traceable[U]{source: t.source, errs: t.errs, secret: t.secret}
	}

	v, err := fn(t.value)
	if err != nil {
		return Traceable[U]{source: t.source, errs: []error{err}, secret: t.secret}
	}

	return Traceable[U]{source: t.source, value: v, secret: t.secret}
}

// OptTraceable is a Traceable that may also be absent. An absent value still
// knows the path it would have come from.
type OptTraceable[T any] struct {
	source  Source
	present bool
	inner   Traceable[T]
}

// Absent returns an empty OptTraceable for source.
func Absent[T any](source Source) OptTraceable[T] {
	return OptTraceable[T]{source: orNone(source)}
}

// Present wraps a Traceable.
func Present[T any](t Traceable[T]) OptTraceable[T] {
	return OptTraceable[T]{source: t.Source(), present: true, inner: t}
}

// OptOf returns a present, valid OptTraceable.
func OptOf[T any](source Source, value T) OptTraceable[T] {
	return Present(Of(source, value))
}

// Source returns the attribute path, whether or not a value is present.
func (o OptTraceable[T]) Source() Source {
	return orNone(o.source)
}

// IsSecret reports whether the value must be masked.
func (o OptTraceable[T]) IsSecret() bool {
	return o.inner.secret
}

// Secret returns a copy marked as secret.
func (o OptTraceable[T]) Secret() OptTraceable[T] {
	o.inner.secret = true

	return o
}

// IsPresent returns true if the attribute was set, valid or not.
func (o OptTraceable[T]) IsPresent() bool {
	return o.present
}

// IsValid returns true unless a present value carries errors.
func (o OptTraceable[T]) IsValid() bool {
	return !o.present || o.inner.IsValid()
}

// Get returns the value when present and valid.
func (o OptTraceable[T]) Get() (T, bool) {
	if !o.present || !o.inner.IsValid() {
		var zero T

		return zero, false
	}

	return o.inner.value, true
}

// Traceable returns the wrapped Traceable when present.
func (o OptTraceable[T]) Traceable() (Traceable[T], bool) {
	return o.inner, o.present
}

// OrElse returns the wrapped Traceable, or def at the attribute path when absent.
func (o OptTraceable[T]) OrElse(def T) Traceable[T] {
	if o.present {
		return o.inner
	}

	return Traceable[T]{source: o.source, value: def, secret: o.inner.secret}
}

// DisplayValue renders the held value.
func (o OptTraceable[T]) DisplayValue() (string, bool) {
	if !o.present {
		return "", false
	}

	return o.inner.DisplayValue()
}

// String renders the value for debug output. Secret values are masked.
func (o OptTraceable[T]) String() string {
	if !o.present {
		return "<absent>"
	}

	return o.inner.String()
}

// MapOpt transforms a present value and keeps source and secrecy.
func MapOpt[T, U any](o OptTraceable[T], fn func(T) U) OptTraceable[U] {
	if !o.present {
		return OptTraceable[U]{source: o.source, inner: Traceable[U]{secret: o.inner.secret}}
	}

	return Present(Map(o.inner, fn))
}

// List is a list whose elements carry their own ListEntry sources.
type List[T any] []Traceable[T]

// Values returns the plain element values. Invalid elements are skipped.
func (l List[T]) Values() []T {
	out := make([]T, 0, len(l))

	for _, e := range l {
		if e.IsValid() {
			out = append(out, e.value)
		}
	}

	return out
}

// String renders the list as "[a, b]".
func (l List[T]) String() string {
	parts := make([]string, 0, len(l))

	for _, e := range l {
		if e.IsValid() && e.secret {
			parts = append(parts, Mask)

			continue
		}

		if s, ok := e.DisplayValue(); ok {
			parts = append(parts, s)
		}
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

type location struct {
	source Source
	secret bool
}

// At returns a value-less subject for reporting on a path.
func At(source Source) Subject {
	return location{source: orNone(source)}
}

// SecretAt is At for a path whose value is secret.
func SecretAt(source Source) Subject {
	return location{source: orNone(source), secret: true}
}

func (l location) Source() Source               { return l.source }
func (l location) IsSecret() bool               { return l.secret }
func (l location) DisplayValue() (string, bool) { return "", false }

func orNone(s Source) Source {
	if s == nil {
		return none
	}

	return s
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	case fmt.Stringer:
		return val.String()
	case *Node:
		if val == nil {
			return ""
		}

		return val.JSON()
	default:
		return fmt.Sprint(val)
	}
}
