package luceneregex

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"not a regex", "logs-*", "logs-*"},
		{"single slash", "/", "/"},
		{"empty regex", "//", "//"},
		{"plain", "/logs-.*/", "/logs-.*/"},
		{"any string", "/logs-@/", "/logs-.*/"},
		{"empty language", "/#/", "/(?!)/"},
		{"anchors are literal", "/^a$/", `/\^a\$/`},
		{"escaped operator", `/a\@b/`, `/a\@b/`},
		{"escaped complement", `/a\~b/`, `/a\~b/`},
		{"quoted literal", `/"a.b"c/`, `/a\.bc/`},
		{"character class", "/[a-c~&]x/", "/[a-c~&]x/"},
		{"group and union", "/(abc|def)+/", "/(abc|def)+/"},
		{"range", "/idx-<1-10>/", "/idx-(0{0,1}[1-9]|10)/"},
		{"reversed range", "/<9-1>/", "/([1-9])/"},
		{"intersection", "/a.*&.*b/", "/(?=(?:a.*)$)(?:.*b)/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected error
	}{
		{"/~abc/", ErrComplement},
		{"/a(~b)/", ErrComplement},
		{"/(a&b)/", ErrNestedIntersection},
		{"/(ab/", ErrMalformed},
		{"/ab)/", ErrMalformed},
		{`/"abc/`, ErrMalformed},
		{"/[abc/", ErrMalformed},
		{"/<1-/", ErrMalformed},
		{"/<a-b>/", ErrMalformed},
		{`/abc\/`, ErrMalformed},
		{"/a&/", ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Convert(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
}

func TestNumericRange(t *testing.T) {
	tests := []struct {
		lo, hi   string
		expected string
	}{
		{"0", "5", "([0-5])"},
		{"3", "3", "(3)"},
		{"1", "10", "(0{0,1}[1-9]|10)"},
		{"1", "100", "(0{0,2}[1-9]|0{0,1}[1-9][0-9]|100)"},
		{"5", "13", "(0{0,1}[5-9]|1[0-3])"},
		{"10", "99", "([1-9][0-9])"},
		{"01", "10", "(0[1-9]|10)"},
		{"13", "5", "(0{0,1}[5-9]|1[0-3])"},
	}

	for _, tt := range tests {
		t.Run(tt.lo+"-"+tt.hi, func(t *testing.T) {
			got, err := NumericRange(tt.lo, tt.hi)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNumericRangeMatchesExactly(t *testing.T) {
	bounds := [][2]int{{0, 5}, {1, 10}, {7, 123}, {15, 1042}, {0, 999}, {250, 399}}

	for _, bnd := range bounds {
		lo, hi := bnd[0], bnd[1]

		expr, err := NumericRange(strconv.Itoa(lo), strconv.Itoa(hi))
		require.NoError(t, err)

		re := regexp.MustCompile("^" + expr + "$")

		for n := 0; n <= hi+50; n++ {
			s := strconv.Itoa(n)
			assert.Equal(t, n >= lo && n <= hi, re.MatchString(s), "range %d-%d, value %s", lo, hi, s)
		}

		width := len(strconv.Itoa(hi))
		if width > 1 && lo <= 1 {
			padded := strings.Repeat("0", width-1) + "1"
			assert.True(t, re.MatchString(padded), "leading zeros in %s", padded)
		}
	}
}
