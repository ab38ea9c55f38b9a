package prompts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/backend/internal/coaching"
)

func newTestRouter() (*gin.Engine, *coaching.PromptStore) {
	gin.SetMode(gin.TestMode)
	store := coaching.NewPromptStore()
	h := NewHandler(store)

	router := gin.New()
	router.GET("/api/prompt-config", h.Get)
	router.PUT("/api/prompt-config", h.Update)
	router.DELETE("/api/prompt-config", h.Reset)
	return router, store
}

func do(router *gin.Engine, method, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/api/prompt-config", nil)
	} else {
		req = httptest.NewRequest(method, "/api/prompt-config", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) coaching.PromptConfig {
	t.Helper()
	var resp struct {
		Data coaching.PromptConfig `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestGet_DefaultsUntilOverridden(t *testing.T) {
	router, _ := newTestRouter()

	w := do(router, http.MethodGet, "")
	require.Equal(t, http.StatusOK, w.Code)
	cfg := decode(t, w)
	assert.Equal(t, coaching.DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Equal(t, coaching.DefaultUserPromptTemplate, cfg.UserPromptTemplate)
}

func TestUpdateAndReset(t *testing.T) {
	router, store := newTestRouter()

	w := do(router, http.MethodPut, `{"system_prompt":"be brief","user_prompt_template":"{{TRANSCRIPT}}"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "be brief", store.Get().SystemPrompt)
	assert.Equal(t, "{{TRANSCRIPT}}", store.Get().UserPromptTemplate)

	w = do(router, http.MethodDelete, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, coaching.DefaultSystemPrompt, store.Get().SystemPrompt)
}

func TestUpdate_RequiresBothFields(t *testing.T) {
	router, store := newTestRouter()

	w := do(router, http.MethodPut, `{"system_prompt":"only one half"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, coaching.DefaultSystemPrompt, store.Get().SystemPrompt, "failed update must not partially apply")
}
