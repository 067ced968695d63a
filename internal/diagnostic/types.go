package diagnostic

import (
	"fmt"

	"xpack-migrator/internal/common"
	"xpack-migrator/internal/trace"
)

//go:generate go tool stringer -type=Severity -linecomment -output=severity_string.go

// Severity is the bucket an issue is reported in.
type Severity int

const (
	// Critical issues may weaken the security posture of the migrated cluster.
	Critical Severity = iota // critical
	// Inconvertible issues are settings without an equivalent concept in the target.
	Inconvertible // inconvertible
	// Problem is everything else that needs attention.
	Problem // problem
)

// Preset is a templated issue category. Presets render before free-form
// entries of the same severity, in declaration order.
type Preset int

const (
	// NoPreset marks a free-form issue.
	NoPreset Preset = iota
	// UnknownKey is a setting the migrator does not know.
	UnknownKey
	// InvalidType is a value of an unexpected type.
	InvalidType
	// MissingParameter is a value required by the target that has no source.
	MissingParameter
	// IgnoredKey is a known setting that is deliberately not migrated.
	IgnoredKey
	// DefaultApplied is a target default injected for an absent source value.
	DefaultApplied
)

type presetInfo struct {
	severity Severity
	template string
}

var presets = map[Preset]presetInfo{
	UnknownKey:       {Problem, "Unknown setting; it was not migrated"},
	InvalidType:      {Problem, "Invalid type; expected %s"},
	MissingParameter: {Problem, "Missing parameter %s; it must be set manually"},
	IgnoredKey:       {Problem, "Setting is ignored by the migration"},
	DefaultApplied:   {Problem, "Value not set; using default %s"},
}

// String returns the preset name.
func (p Preset) String() string {
	switch p {
	case NoPreset:
		return "none"
	case UnknownKey:
		return "unknown key"
	case InvalidType:
		return "invalid type"
	case MissingParameter:
		return "missing parameter"
	case IgnoredKey:
		return "ignored key"
	case DefaultApplied:
		return "default applied"
	default:
		return common.UnknownStr
	}
}

// Severity returns the bucket the preset is reported in.
func (p Preset) Severity() Severity {
	return presets[p].severity
}

// Format renders the preset message with args.
func (p Preset) Format(args ...any) string {
	info, ok := presets[p]
	if !ok {
		return fmt.Sprint(args...)
	}

	if len(args) == 0 {
		return info.template
	}

	return fmt.Sprintf(info.template, args...)
}

// Issue is a single reported finding.
type Issue struct {
	// Severity of the issue.
	Severity Severity
	// Subject is the value or path the issue refers to; nil for free-form messages.
	Subject trace.Subject
	// Message is the human-readable description.
	Message string
	// Preset is the templated category, or NoPreset.
	Preset Preset
	// Secret masks the subject value in any rendering.
	Secret bool
}

// Path returns the full path of the subject, or "" for free-form issues.
func (i Issue) Path() string {
	if i.Subject == nil {
		return ""
	}

	return i.Subject.Source().FullPath()
}

// Value renders the subject value, masked when secret.
func (i Issue) Value() (string, bool) {
	if i.Subject == nil {
		return "", false
	}

	if i.Secret {
		return Mask, true
	}

	return i.Subject.DisplayValue()
}

// String returns a one-line description.
func (i Issue) String() string {
	msg := fmt.Sprintf("[%s] %s", i.Severity, i.Message)

	path := i.Path()
	if path == "" {
		return msg
	}

	if v, ok := i.Value(); ok {
		return fmt.Sprintf("%s: %s (%s)", path, msg, v)
	}

	return path + ": " + msg
}

// Counts is the number of issues per severity.
type Counts struct {
	Critical      int
	Inconvertible int
	Problem       int
}

// Total returns the number of all issues.
func (c Counts) Total() int {
	return c.Critical + c.Inconvertible + c.Problem
}
