package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with correct content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusOK, map[string]string{"foo": "bar"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var result map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "bar", result["foo"])
	})

	t.Run("handles nil data", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteError(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()

	WriteError(rec, http.StatusNotFound, "not_found", "no operation matches GET /nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, "no operation matches GET /nope", body["message"])
}

func TestWriteResponse(t *testing.T) {
	t.Parallel()

	t.Run("json body gets content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		err := WriteResponse(rec, &contract.Response{
			Status:  201,
			Headers: map[string]string{"X-Trace": "abc"},
			Body:    map[string]any{"id": 1.0},
		})
		require.NoError(t, err)

		assert.Equal(t, 201, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "abc", rec.Header().Get("X-Trace"))
		assert.JSONEq(t, `{"id":1}`, rec.Body.String())
	})

	t.Run("recorded content type is preserved", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		err := WriteResponse(rec, &contract.Response{
			Status:  200,
			Headers: map[string]string{"Content-Type": "text/plain"},
			Body:    "hello",
		})
		require.NoError(t, err)

		assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
		assert.Equal(t, "hello", rec.Body.String())
	})

	t.Run("json string body round-trips", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		body := contract.DecodeBody("application/json", []byte(`"hello"`))
		require.Equal(t, "hello", body)

		err := WriteResponse(rec, &contract.Response{
			Status:  200,
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    body,
		})
		require.NoError(t, err)
		assert.Equal(t, `"hello"`, rec.Body.String())
		assert.True(t, json.Valid(rec.Body.Bytes()))
	})

	t.Run("zero status defaults to 200", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		require.NoError(t, WriteResponse(rec, &contract.Response{}))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("nil response is 204", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		require.NoError(t, WriteResponse(rec, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
