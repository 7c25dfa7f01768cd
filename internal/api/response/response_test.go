package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nmoreno/careerhub/internal/api/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_WrapsInDataEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "world", data["hello"])
}

func TestAccepted_Returns202(t *testing.T) {
	w := httptest.NewRecorder()
	response.Accepted(w, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestCollection_IncludesMeta(t *testing.T) {
	w := httptest.NewRecorder()
	response.Collection(w, []string{"a", "b"}, response.CollectionMeta{Total: 2})

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["total"])
}

func TestError_Shape(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusNotFound, "NOT_FOUND", "Missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
	assert.Equal(t, "Missing", errObj["message"])
	_, hasDetails := errObj["details"]
	assert.False(t, hasDetails, "empty details must be omitted")
}

func TestError_WithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusServiceUnavailable, "DEGRADED", "Dependency down",
		map[string]string{"redis": "unreachable"})

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "unreachable", details["redis"])
}
