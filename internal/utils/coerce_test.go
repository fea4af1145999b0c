package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsInt64(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		def      int64
		expected int64
	}{
		{"numeric string", "42", 0, 42},
		{"native int", 42, 0, 42},
		{"native float", 42.9, 0, 42},
		{"json number", json.Number("42"), 0, 42},
		{"json float number", json.Number("42.5"), 0, 42},
		{"nil", nil, 0, 0},
		{"empty string", "", 0, 0},
		{"whitespace string", "  ", 0, 0},
		{"garbage string", "abc", 0, 0},
		{"garbage string with default", "abc", 7, 7},
		{"float string", "42.7", 0, 42},
		{"bool true", true, 0, 1},
		{"negative string", "-5", 0, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AsInt64(tt.value, tt.def))
		})
	}
}

func TestAsBool(t *testing.T) {
	assert.True(t, AsBool("1"))
	assert.True(t, AsBool("true"))
	assert.True(t, AsBool("TRUE"))
	assert.True(t, AsBool(1))
	assert.True(t, AsBool(1.0))
	assert.True(t, AsBool(true))
	assert.True(t, AsBool(json.Number("1")))

	assert.False(t, AsBool("0"))
	assert.False(t, AsBool(""))
	assert.False(t, AsBool(nil))
	assert.False(t, AsBool(0))
	assert.False(t, AsBool("yes"))
	assert.False(t, AsBool(json.Number("0")))
}

func TestAsString(t *testing.T) {
	assert.Equal(t, "hello", AsString("hello"))
	assert.Equal(t, "42", AsString(json.Number("42")))
	assert.Equal(t, "", AsString(nil))
	assert.Equal(t, "", AsString(42))
}
