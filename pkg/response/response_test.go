package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessAndError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "rid-1")
	Success[any](c, 0, nil, "verified", nil)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "verified", body["message"])
	assert.Equal(t, "rid-1", body["request_id"])
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "error")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Error[any](c, 0, "invalid email", map[string]string{"email": "invalid email"})

	body = map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, map[string]any{"email": "invalid email"}, body["error"])
}
