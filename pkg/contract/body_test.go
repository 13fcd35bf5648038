package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        any
		want        string
		wantJSON    bool
	}{
		{"object", "", map[string]any{"id": 1.0}, `{"id":1}`, true},
		{"plain text", "text/plain", "hello", "hello", false},
		{"string without content type", "", "hello", "hello", false},
		{"json string is quoted", "application/json", "hello", `"hello"`, true},
		{"json string with vendor type", "application/problem+json; charset=utf-8", `say "hi"`, `"say \"hi\""`, true},
		{"pre-encoded json document", "application/json", `{"id":1}`, `{"id":1}`, true},
		{"raw bytes", "application/json", []byte("abc"), "abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, isJSON, err := EncodeBody(tt.contentType, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}

func TestDecodeBody_JSONStringSurvivesEncode(t *testing.T) {
	body := DecodeBody("application/json", []byte(`"hello"`))
	assert.Equal(t, "hello", body)

	data, isJSON, err := EncodeBody("application/json", body)
	require.NoError(t, err)
	assert.True(t, isJSON)
	assert.Equal(t, `"hello"`, string(data))
	assert.Equal(t, body, DecodeBody("application/json", data))
}

func TestDecodeBody(t *testing.T) {
	assert.Nil(t, DecodeBody("application/json", []byte("  ")))
	assert.Equal(t, map[string]any{"a": 1.0}, DecodeBody("", []byte(`{"a":1}`)))
	assert.Equal(t, "not json", DecodeBody("", []byte("not json")))
	assert.Equal(t, "{broken", DecodeBody("application/json", []byte("{broken")))
	assert.Equal(t, `{"a":1}`, DecodeBody("text/plain", []byte(`{"a":1}`)))
}
