package trace

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
)

// ErrInvalidTraceable is returned by Traceable.Value for the error variant.
var ErrInvalidTraceable = errors.New("traceable carries validation errors instead of a value")

// InvalidTreeStructureMessage is the fixed description of a shortcut/nested key clash.
const InvalidTreeStructureMessage = "A shortcut-style node (like 'a.b: value') conflicts with a nested-style node " +
	"(like 'a: { b: { c: value } }'), resulting in an invalid tree structure."

// ValidationError is a structural problem tied to a source location.
type ValidationError interface {
	error
	// Source returns the location the error refers to.
	Source() Source
}

// MissingAttributeError reports a required attribute that is absent or null.
type MissingAttributeError struct {
	At Source
}

func (e *MissingAttributeError) Error() string {
	return e.At.FullPath() + ": Required attribute is missing"
}

// Source returns the location of the missing attribute.
func (e *MissingAttributeError) Source() Source {
	return e.At
}

// InvalidValueError reports a value whose shape does not match the expected one.
type InvalidValueError struct {
	At       Source
	Expected string
	// Actual is the offending value. It is never rendered when Secret is set.
	Actual string
	Secret bool
}

func (e *InvalidValueError) Error() string {
	if e.Secret || e.Actual == "" {
		return fmt.Sprintf("%s: Invalid value; expected: %s", e.At.FullPath(), e.Expected)
	}

	return fmt.Sprintf("%s: Invalid value '%s'; expected: %s", e.At.FullPath(), e.Actual, e.Expected)
}

// Source returns the location of the invalid value.
func (e *InvalidValueError) Source() Source {
	return e.At
}

// InvalidTreeStructureError reports a conflict between a shortcut key and a nested key.
type InvalidTreeStructureError struct {
	At Source
	// Line is the line of the second, conflicting definition (0 if unknown).
	Line int
}

func (e *InvalidTreeStructureError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.At.FullPath(), e.Line, InvalidTreeStructureMessage)
	}

	return e.At.FullPath() + ": " + InvalidTreeStructureMessage
}

// Source returns the location of the conflicting attribute.
func (e *InvalidTreeStructureError) Source() Source {
	return e.At
}

// ValidationErrors accumulates structural errors for one record. It is shared by
// a Reader and all attributes and child readers obtained from it.
type ValidationErrors struct {
	errs []error
}

// Add records an error. Nil errors are ignored.
func (v *ValidationErrors) Add(err error) {
	if err == nil {
		return
	}

	v.errs = append(v.errs, err)
}

// HasErrors returns true if at least one error was recorded.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.errs) > 0
}

// Len returns the number of recorded errors.
func (v *ValidationErrors) Len() int {
	return len(v.errs)
}

// All returns a copy of the recorded errors.
func (v *ValidationErrors) All() []error {
	return append([]error(nil), v.errs...)
}

// Err converts the accumulated errors into a single error, or nil if there are none.
func (v *ValidationErrors) Err() error {
	if !v.HasErrors() {
		return nil
	}

	return &multierror.Error{
		Errors:      v.All(),
		ErrorFormat: formatValidationErrors,
	}
}

// Errors flattens an error produced by ValidationErrors.Err back into its parts.
func Errors(err error) []error {
	if err == nil {
		return nil
	}

	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.WrappedErrors()
	}

	return []error{err}
}

func formatValidationErrors(errs []error) string {
	if len(errs) == 1 {
		return "invalid configuration: " + errs[0].Error()
	}

	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, "  * "+err.Error())
	}

	return fmt.Sprintf("invalid configuration: %d errors occurred:\n%s", len(errs), strings.Join(lines, "\n"))
}
