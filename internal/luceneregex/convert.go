package luceneregex

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrComplement is returned for the complement operator, which has no safe rewrite.
	ErrComplement = errors.New("the complement operator '~' cannot be converted to a standard regular expression")
	// ErrNestedIntersection is returned for '&' inside a group.
	ErrNestedIntersection = errors.New("the intersection operator '&' is only supported at the top level")
	// ErrMalformed is returned for patterns that are not valid Lucene regular expressions.
	ErrMalformed = errors.New("malformed Lucene regular expression")
)

// maxRangeDigits keeps interval bounds and their powers of ten within uint64.
const maxRangeDigits = 19

// IsRegex reports whether s is delimited as a Lucene regular expression.
func IsRegex(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/")
}

// Convert rewrites a /-delimited Lucene regular expression into a standard
// one, keeping the delimiters. Anything else is returned unchanged.
func Convert(pattern string) (string, error) {
	if !IsRegex(pattern) {
		return pattern, nil
	}

	c := &converter{in: []rune(pattern[1 : len(pattern)-1])}

	parts, err := c.intersection()
	if err != nil {
		return "", err
	}

	if len(parts) == 1 {
		return "/" + parts[0] + "/", nil
	}

	var b strings.Builder

	b.WriteString("/")

	for _, p := range parts[:len(parts)-1] {
		b.WriteString("(?=(?:" + p + ")$)")
	}

	b.WriteString("(?:" + parts[len(parts)-1] + ")/")

	return b.String(), nil
}

type converter struct {
	in    []rune
	pos   int
	depth int
}

func (c *converter) eof() bool {
	return c.pos >= len(c.in)
}

func (c *converter) malformed(format string, args ...any) error {
	return errors.Wrapf(ErrMalformed, "at position %d: "+format, append([]any{c.pos}, args...)...)
}

// intersection splits the top level at '&'.
func (c *converter) intersection() ([]string, error) {
	var parts []string

	for {
		s, err := c.sequence()
		if err != nil {
			return nil, err
		}

		if !c.eof() && c.in[c.pos] == ')' {
			return nil, c.malformed("unbalanced ')'")
		}

		if s == "" && (len(parts) > 0 || !c.eof()) {
			return nil, c.malformed("empty operand")
		}

		parts = append(parts, s)

		if c.eof() {
			return parts, nil
		}

		c.pos++ // '&'
	}
}

// sequence converts until the end of input, a closing ')' or a top-level '&'.
func (c *converter) sequence() (string, error) {
	var b strings.Builder

	for !c.eof() {
		r := c.in[c.pos]

		switch r {
		case '&':
			if c.depth > 0 {
				return "", errors.Wrapf(ErrNestedIntersection, "at position %d", c.pos)
			}

			return b.String(), nil
		case ')':
			return b.String(), nil
		case '~':
			return "", errors.Wrapf(ErrComplement, "at position %d", c.pos)
		case '@':
			b.WriteString(".*")
			c.pos++
		case '#':
			b.WriteString("(?!)")
			c.pos++
		case '^', '$':
			b.WriteString(`\` + string(r))
			c.pos++
		case '\\':
			if c.pos+1 >= len(c.in) {
				return "", c.malformed("dangling escape")
			}

			b.WriteString(string(c.in[c.pos : c.pos+2]))
			c.pos += 2
		case '"':
			lit, err := c.quoted()
			if err != nil {
				return "", err
			}

			b.WriteString(lit)
		case '<':
			rng, err := c.interval()
			if err != nil {
				return "", err
			}

			b.WriteString(rng)
		case '[':
			class, err := c.class()
			if err != nil {
				return "", err
			}

			b.WriteString(class)
		case '(':
			group, err := c.group()
			if err != nil {
				return "", err
			}

			b.WriteString(group)
		default:
			b.WriteRune(r)
			c.pos++
		}
	}

	return b.String(), nil
}

func (c *converter) group() (string, error) {
	start := c.pos
	c.pos++
	c.depth++

	inner, err := c.sequence()
	if err != nil {
		return "", err
	}

	if c.eof() {
		c.pos = start

		return "", c.malformed("unclosed '('")
	}

	c.pos++
	c.depth--

	return "(" + inner + ")", nil
}

func (c *converter) quoted() (string, error) {
	start := c.pos
	c.pos++

	for !c.eof() {
		if c.in[c.pos] == '"' {
			lit := string(c.in[start+1 : c.pos])
			c.pos++

			return regexp.QuoteMeta(lit), nil
		}

		c.pos++
	}

	c.pos = start

	return "", c.malformed("unterminated string literal")
}

func (c *converter) class() (string, error) {
	start := c.pos
	c.pos++

	for !c.eof() {
		switch c.in[c.pos] {
		case '\\':
			c.pos += 2
		case ']':
			c.pos++

			return string(c.in[start:c.pos]), nil
		default:
			c.pos++
		}
	}

	c.pos = start

	return "", c.malformed("unterminated character class")
}

func (c *converter) interval() (string, error) {
	start := c.pos

	end := start + 1
	for end < len(c.in) && c.in[end] != '>' {
		end++
	}

	if end >= len(c.in) {
		return "", c.malformed("unterminated interval")
	}

	lo, hi, ok := strings.Cut(string(c.in[start+1:end]), "-")
	if !ok {
		return "", c.malformed("interval must have the form <n-m>")
	}

	out, err := NumericRange(lo, hi)
	if err != nil {
		return "", c.malformed("%v", err)
	}

	c.pos = end + 1

	return out, nil
}

// NumericRange returns a standard regex group matching the decimal numbers
// between lo and hi, in either order. When the bounds differ in length, shorter numbers may carry
// leading zeros up to the width of hi, as Lucene intervals allow.
func NumericRange(lo, hi string) (string, error) {
	if !isDigits(lo) || !isDigits(hi) || len(lo) > maxRangeDigits || len(hi) > maxRangeDigits {
		return "", errors.Newf("invalid interval bounds %q and %q", lo, hi)
	}

	minV, _ := strconv.ParseUint(lo, 10, 64)
	maxV, _ := strconv.ParseUint(hi, 10, 64)

	// Reversed bounds are swapped, as Lucene does.
	if minV > maxV {
		lo, hi = hi, lo
		minV, maxV = maxV, minV
	}

	// Same-width bounds are matched with a fixed number of digits.
	if len(lo) == len(hi) && strings.HasPrefix(lo, "0") {
		return "(" + strings.Join(sameLength(lo, hi), "|") + ")", nil
	}

	width := len(strconv.FormatUint(maxV, 10))

	var alts []string

	for l := len(strconv.FormatUint(minV, 10)); l <= width; l++ {
		from := max(minV, pow10(l-1))
		if l == 1 {
			from = minV
		}

		to := min(maxV, pow10(l)-1)

		pad := ""
		if width > l {
			pad = "0{0," + strconv.Itoa(width-l) + "}"
		}

		for _, alt := range sameLength(strconv.FormatUint(from, 10), strconv.FormatUint(to, 10)) {
			alts = append(alts, pad+alt)
		}
	}

	return "(" + strings.Join(alts, "|") + ")", nil
}

// sameLength splits [lo, hi], both of the same width, into digit-class runs.
func sameLength(lo, hi string) []string {
	if lo == hi {
		return []string{lo}
	}

	if len(lo) == 1 {
		return []string{digitRange(lo[0], hi[0])}
	}

	if lo[0] == hi[0] {
		var out []string
		for _, s := range sameLength(lo[1:], hi[1:]) {
			out = append(out, lo[:1]+s)
		}

		return out
	}

	rest := len(lo) - 1
	first, last := lo[0], hi[0]

	var out []string

	if lo[1:] != strings.Repeat("0", rest) {
		for _, s := range sameLength(lo[1:], strings.Repeat("9", rest)) {
			out = append(out, lo[:1]+s)
		}

		first++
	}

	highFull := hi[1:] == strings.Repeat("9", rest)
	if !highFull {
		last--
	}

	if first <= last {
		out = append(out, digitRange(first, last)+strings.Repeat("[0-9]", rest))
	}

	if !highFull {
		for _, s := range sameLength(strings.Repeat("0", rest), hi[1:]) {
			out = append(out, hi[:1]+s)
		}
	}

	return out
}

func digitRange(a, b byte) string {
	if a == b {
		return string(a)
	}

	return "[" + string(a) + "-" + string(b) + "]"
}

func pow10(n int) uint64 {
	p := uint64(1)
	for range n {
		p *= 10
	}

	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
