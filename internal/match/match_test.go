package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a        string
		b        string
		expected int
	}{
		{"", "", 0},
		{"monitor", "monitor", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"a", "b", 1},
		{"kitten", "sitting", 3},
		{"manage", "manag", 1},
		{"über", "uber", 1}, // one rune, not two bytes
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.expected, Levenshtein(tt.b, tt.a))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("", ""), 0.001)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 0.001)
	assert.InDelta(t, 1.0-3.0/7.0, Similarity("kitten", "sitting"), 0.001)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"manage_security", "managesecurity"},
		{"manageSecurity", "managesecurity"},
		{"MANAGE-SECURITY", "managesecurity"},
		{"realm.name", "realmname"},
		{"loginAssistanceMessage", "loginassistancemessage"},
		{"HTTPProxy", "httpproxy"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"HTTP", "Proxy", "host"}, Tokenize("HTTPProxy.host"))
	assert.Equal(t, []string{"manage", "ilm"}, Tokenize("manage_ilm"))
	assert.Nil(t, Tokenize(""))
}

func TestSuggest(t *testing.T) {
	known := []string{"monitor", "manage", "manage_security", "manage_ilm", "read"}

	assert.Equal(t, []string{"manage_security"}, Suggest("manage_securty", known, 3))
	assert.Equal(t, []string{"monitor"}, Suggest("MONITOR", known, 3))
	assert.Empty(t, Suggest("zzz", known, 3))

	ranked := Rank("manag", known)
	assert.Equal(t, "manage", ranked[0].Name)
}

func TestDidYouMean(t *testing.T) {
	known := []string{"username", "dn", "groups", "realm.name"}

	assert.Equal(t, " Did you mean 'username'?", DidYouMean("user_name", known))
	assert.Equal(t, "", DidYouMean("foo", known))
}
