package diagnostic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpack-migrator/internal/trace"
)

func value(path, v string) trace.Traceable[string] {
	return trace.Of[string](trace.NewAttribute(trace.NewConfig("elasticsearch.yml"), path), v)
}

func TestEmptyReport(t *testing.T) {
	r := NewSearchGuard()

	assert.Equal(t, "# Search Guard migration report\n\nNo issues were found.\n", r.Render())
	assert.Equal(t, "No issues were found.", r.Summary())
	assert.False(t, r.HasCritical())
}

func TestRenderSections(t *testing.T) {
	r := NewSearchGuard()

	r.ProblemMessage("free problem")
	r.Problem(value("a", "1"), "first")
	r.Inconvertible(value("b", "2"), "no equivalent")
	r.Critical(value("c", "3"), "dangerous")
	r.Problem(value("a", "1"), "second")
	r.CriticalMessage("free critical")

	expected := `# Search Guard migration report

1 setting(s) caused critical problem(s):
* elasticsearch.yml: c: 3
  * dangerous

1 setting(s) cannot be converted because no equivalent concept exists in Search Guard:
* elasticsearch.yml: b: 2
  * no equivalent

1 setting(s) caused other problem(s):
* elasticsearch.yml: a: 1
  * first
  * second

1 other critical problem(s):
* free critical

1 other problem(s):
* free problem
`
	assert.Equal(t, expected, r.Render())
	assert.Equal(t, Counts{Critical: 2, Inconvertible: 1, Problem: 3}, r.Counts())
	assert.True(t, r.HasCritical())
	assert.Equal(t, "2 critical issue(s), 1 inconvertible setting(s), 3 other problem(s)", r.Summary())
}

func TestEmptyBucketsAreOmitted(t *testing.T) {
	r := NewSearchGuard()
	r.Inconvertible(value("x", "y"), "n/a")

	out := r.Render()
	assert.NotContains(t, out, "critical")
	assert.NotContains(t, out, "other problem")
	assert.NotContains(t, out, "0 ")
}

func TestPresetOrdering(t *testing.T) {
	r := NewSearchGuard()

	r.Problem(value("free", "f"), "free-form")
	r.Preset(IgnoredKey, value("k", "v"))
	r.Preset(DefaultApplied, value("d", "v"), "x")
	r.Preset(UnknownKey, value("u", "v"))
	r.Preset(InvalidType, value("i", "v"), "a string")

	out := r.Render()
	posUnknown := strings.Index(out, "elasticsearch.yml: u")
	posInvalid := strings.Index(out, "elasticsearch.yml: i")
	posIgnored := strings.Index(out, "elasticsearch.yml: k")
	posDefault := strings.Index(out, "elasticsearch.yml: d")
	posFree := strings.Index(out, "elasticsearch.yml: free")

	require.True(t, posUnknown >= 0 && posInvalid >= 0 && posIgnored >= 0 && posDefault >= 0 && posFree >= 0)
	assert.Less(t, posUnknown, posInvalid)
	assert.Less(t, posInvalid, posIgnored)
	assert.Less(t, posIgnored, posDefault)
	assert.Less(t, posDefault, posFree)
	assert.Equal(t, Problem, IgnoredKey.Severity())
	assert.Contains(t, out, "Invalid type; expected a string")
}

func TestSecretsAreMasked(t *testing.T) {
	r := NewSearchGuard()

	r.Problem(value("password", "hunter2").Secret(), "secret by subject")
	r.InconvertibleSecret(value("key_passphrase", "s3cr3t"), "forced secret")

	out := r.Render()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "s3cr3t")
	assert.Contains(t, out, "elasticsearch.yml: password: "+Mask)
	assert.Contains(t, out, "elasticsearch.yml: key_passphrase: "+Mask)

	for _, i := range r.Issues() {
		assert.True(t, i.Secret)
		assert.NotContains(t, i.String(), "hunter2")
	}
}

func TestPathOnlySubject(t *testing.T) {
	r := NewSearchGuard()
	r.Problem(trace.At(trace.NewAttribute(trace.NewConfig("sg_authc.yml"), "acceptor_principal")), "set manually")

	assert.Contains(t, r.Render(), "* sg_authc.yml: acceptor_principal\n  * set manually\n")
}

func TestRenderIsDeterministic(t *testing.T) {
	build := func() string {
		r := New("Report", "Target")
		r.Problem(value("a", "1"), "m1")
		r.Preset(IgnoredKey, value("b", "2"))
		r.CriticalMessage("c")

		return r.Render()
	}

	assert.Equal(t, build(), build())
	assert.Contains(t, build(), "exists in Target:")
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "critical", Critical.String())
	assert.Equal(t, "inconvertible", Inconvertible.String())
	assert.Equal(t, "problem", Problem.String())
	assert.Equal(t, "Severity(9)", Severity(9).String())
	assert.Equal(t, "unknown", Preset(42).String())
}
