package diagnostic

import (
	"fmt"
	"io"
	"strings"

	"xpack-migrator/internal/trace"
)

// Mask replaces secret values in rendered output.
const Mask = trace.Mask

// Reporter accumulates issues found while migrating. It is not safe for
// concurrent use; pass one instance explicitly through all translators.
type Reporter struct {
	title  string
	target string
	issues []Issue
}

// New returns an empty reporter. target names the destination product in headers.
func New(title, target string) *Reporter {
	return &Reporter{title: title, target: target}
}

// NewSearchGuard returns a reporter for a Search Guard migration.
func NewSearchGuard() *Reporter {
	return New("Search Guard migration report", "Search Guard")
}

// Critical reports a setting whose conversion could weaken security.
func (r *Reporter) Critical(subject trace.Subject, message string) {
	r.add(Critical, subject, message, NoPreset, false)
}

// Inconvertible reports a setting without an equivalent concept.
func (r *Reporter) Inconvertible(subject trace.Subject, message string) {
	r.add(Inconvertible, subject, message, NoPreset, false)
}

// Problem reports any other issue tied to a setting.
func (r *Reporter) Problem(subject trace.Subject, message string) {
	r.add(Problem, subject, message, NoPreset, false)
}

// CriticalSecret is Critical with the value always masked.
func (r *Reporter) CriticalSecret(subject trace.Subject, message string) {
	r.add(Critical, subject, message, NoPreset, true)
}

// InconvertibleSecret is Inconvertible with the value always masked.
func (r *Reporter) InconvertibleSecret(subject trace.Subject, message string) {
	r.add(Inconvertible, subject, message, NoPreset, true)
}

// ProblemSecret is Problem with the value always masked.
func (r *Reporter) ProblemSecret(subject trace.Subject, message string) {
	r.add(Problem, subject, message, NoPreset, true)
}

// CriticalMessage reports a critical issue not tied to a setting.
func (r *Reporter) CriticalMessage(message string) {
	r.add(Critical, nil, message, NoPreset, false)
}

// ProblemMessage reports a problem not tied to a setting.
func (r *Reporter) ProblemMessage(message string) {
	r.add(Problem, nil, message, NoPreset, false)
}

// Preset reports a templated issue. args fill the preset template.
func (r *Reporter) Preset(p Preset, subject trace.Subject, args ...any) {
	r.add(p.Severity(), subject, p.Format(args...), p, false)
}

func (r *Reporter) add(sev Severity, subject trace.Subject, message string, p Preset, secret bool) {
	if subject != nil && subject.IsSecret() {
		secret = true
	}

	r.issues = append(r.issues, Issue{
		Severity: sev,
		Subject:  subject,
		Message:  message,
		Preset:   p,
		Secret:   secret,
	})
}

// Issues returns a copy of all reported issues in insertion order.
func (r *Reporter) Issues() []Issue {
	return append([]Issue(nil), r.issues...)
}

// Counts returns the number of issues per severity.
func (r *Reporter) Counts() Counts {
	var c Counts

	for _, i := range r.issues {
		switch i.Severity {
		case Critical:
			c.Critical++
		case Inconvertible:
			c.Inconvertible++
		case Problem:
			c.Problem++
		}
	}

	return c
}

// HasCritical returns true if at least one critical issue was reported.
func (r *Reporter) HasCritical() bool {
	return r.Counts().Critical > 0
}

// IsEmpty returns true if nothing was reported.
func (r *Reporter) IsEmpty() bool {
	return len(r.issues) == 0
}

// Summary returns the per-severity counts as one line.
func (r *Reporter) Summary() string {
	c := r.Counts()
	if c.Total() == 0 {
		return "No issues were found."
	}

	var parts []string

	if c.Critical > 0 {
		parts = append(parts, fmt.Sprintf("%d critical issue(s)", c.Critical))
	}

	if c.Inconvertible > 0 {
		parts = append(parts, fmt.Sprintf("%d inconvertible setting(s)", c.Inconvertible))
	}

	if c.Problem > 0 {
		parts = append(parts, fmt.Sprintf("%d other problem(s)", c.Problem))
	}

	return strings.Join(parts, ", ")
}

// Render returns the full report text.
func (r *Reporter) Render() string {
	var b strings.Builder

	_, _ = r.WriteTo(&b)

	return b.String()
}

// WriteTo writes the rendered report to w.
func (r *Reporter) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	b.WriteString("# " + r.title + "\n\n")

	if r.IsEmpty() {
		b.WriteString("No issues were found.\n")
	}

	sections := []struct {
		severity Severity
		header   string
	}{
		{Critical, "%d setting(s) caused critical problem(s):"},
		{Inconvertible, "%d setting(s) cannot be converted because no equivalent concept exists in " + r.target + ":"},
		{Problem, "%d setting(s) caused other problem(s):"},
	}

	for _, s := range sections {
		writeSection(&b, s.header, r.subjectGroups(s.severity))
	}

	writeMessages(&b, "%d other critical problem(s):", r.freeForm(Critical))
	writeMessages(&b, "%d other inconvertible setting(s):", r.freeForm(Inconvertible))
	writeMessages(&b, "%d other problem(s):", r.freeForm(Problem))

	n, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")

	return int64(n), err
}

// group is all messages of one severity for one subject path.
type group struct {
	path     string
	value    string
	hasValue bool
	messages []string
}

// subjectGroups orders subject issues of one severity: preset entries by preset
// order first, then free-form entries. Within each part, subjects keep their
// first-seen order and collect all their messages.
func (r *Reporter) subjectGroups(sev Severity) []*group {
	var out []*group

	for p := UnknownKey; p <= DefaultApplied; p++ {
		out = append(out, r.collect(sev, p)...)
	}

	return append(out, r.collect(sev, NoPreset)...)
}

func (r *Reporter) collect(sev Severity, p Preset) []*group {
	var (
		order []*group
		byKey = map[string]*group{}
	)

	for _, i := range r.issues {
		if i.Severity != sev || i.Preset != p || i.Subject == nil {
			continue
		}

		value, hasValue := i.Value()
		key := i.Path() + "\x00" + value

		g, ok := byKey[key]
		if !ok {
			g = &group{path: i.Path(), value: value, hasValue: hasValue}
			byKey[key] = g
			order = append(order, g)
		}

		g.messages = append(g.messages, i.Message)
	}

	return order
}

func (r *Reporter) freeForm(sev Severity) []string {
	var out []string

	for _, i := range r.issues {
		if i.Severity == sev && i.Subject == nil {
			out = append(out, i.Message)
		}
	}

	return out
}

func writeSection(b *strings.Builder, header string, groups []*group) {
	if len(groups) == 0 {
		return
	}

	fmt.Fprintf(b, header+"\n", len(groups))

	for _, g := range groups {
		if g.hasValue {
			fmt.Fprintf(b, "* %s: %s\n", g.path, g.value)
		} else {
			fmt.Fprintf(b, "* %s\n", g.path)
		}

		for _, m := range g.messages {
			b.WriteString("  * " + m + "\n")
		}
	}

	b.WriteString("\n")
}

func writeMessages(b *strings.Builder, header string, messages []string) {
	if len(messages) == 0 {
		return
	}

	fmt.Fprintf(b, header+"\n", len(messages))

	for _, m := range messages {
		b.WriteString("* " + m + "\n")
	}

	b.WriteString("\n")
}
