package integrity

import (
	"errors"
	"math"
	"testing"

	"coinsync/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 1, "a": "x", "c": true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":true}`, string(got))
}

func TestMarshalCanonicalNested(t *testing.T) {
	v := map[string]any{
		"z": []any{map[string]any{"y": 2, "x": 1}},
		"a": nil,
	}
	got, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":null,"z":[{"x":1,"y":2}]}`, string(got))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(got))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "é" precomposed vs "e" + combining acute
	composed, err := MarshalCanonical("caf\u00e9")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalNumbers(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float", 16.0, "16"},
		{"float fraction", 0.25, "0.25"},
		{"decimal", decimal.RequireFromString("16.50"), "16.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalRejectsUnsupported(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"channel", make(chan int)},
		{"func", func() {}},
		{"nan", math.NaN()},
		{"nested inf", map[string]any{"x": math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.in)
			require.Error(t, err)
			var se *domain.SerializationError
			assert.True(t, errors.As(err, &se), "expected SerializationError, got %T", err)
		})
	}
}
