package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceSize(t *testing.T) {
	tests := []struct {
		name                    string
		in                      []string
		empty, single, multiple bool
	}{
		{name: "nil", in: nil, empty: true},
		{name: "one", in: []string{"a"}, single: true},
		{name: "two", in: []string{"a", "b"}, multiple: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, IsEmpty(tt.in))
			assert.Equal(t, tt.single, IsSingle(tt.in))
			assert.Equal(t, tt.multiple, IsMultiple(tt.in))
		})
	}
}

func TestFirst(t *testing.T) {
	v, ok := First([]int{3, 4})
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = First([]int(nil))
	assert.False(t, ok)
}

func TestAppendUnique(t *testing.T) {
	out := AppendUnique([]string{"a"}, "b", "a", "b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestStrings(t *testing.T) {
	assert.True(t, IsBlank(" \t"))
	assert.False(t, IsBlank(" x "))
	assert.Equal(t, []string{"'a'", "'b'"}, Quote([]string{"a", "b"}))
}
