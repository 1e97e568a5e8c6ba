package httpx

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOKWrapsDataInEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, 201, map[string]any{"id": 7})

	require.Equal(t, 201, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.Equal(t, float64(7), envelope.Data["id"])
}

func TestFailCarriesErrorMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	Fail(rr, 404, "record not found")

	require.Equal(t, 404, rr.Code)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.False(t, envelope.Success)
	require.Equal(t, "record not found", envelope.Error)
	require.NotContains(t, rr.Body.String(), `"data"`)
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))

	var target struct{ Name string }
	require.Error(t, DecodeJSON(req, &target))
}
