package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"qdrt_backend/internal/config"
	"qdrt_backend/internal/util"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T, aiURL, apiKey string) *App {
	t.Helper()
	cfg := &config.Config{
		AI:      config.AIConfig{BaseURL: aiURL, APIKey: apiKey, Model: "gpt-test", TimeoutSeconds: 5},
		State:   config.StateConfig{Backend: config.StateBackendMemory},
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
	}
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func do(t *testing.T, a *App, method, path string, body []byte, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHealthAndSchema(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1", "")

	w, env := do(t, a, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, string(env.Data), `"persistence":{"answers":"durable","corpus":"durable"}`)

	w, env = do(t, a, http.MethodGet, "/api/qdrt/schema", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var schema struct {
		Columns   []string                 `json:"columns"`
		Options   map[string][]string      `json:"options"`
		Questions []map[string]interface{} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &schema))
	assert.Len(t, schema.Columns, 8)
	assert.Len(t, schema.Questions, 24)
	assert.Equal(t, []string{"TBD", "Yes", "Mostly Yes", "Mostly No", "No"}, schema.Options["original_finding"])
}

func TestManualEditFlow(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1", "")

	w, _ := do(t, a, http.MethodPatch, "/api/qdrt/answers/3", []byte(`{"final_risk":"SEVERE"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, a, http.MethodPatch, "/api/qdrt/answers/3", []byte(`{"nope":"x"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, a, http.MethodPatch, "/api/qdrt/answers/99", []byte(`{"comments":"x"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, a, http.MethodPatch, "/api/qdrt/answers/abc", []byte(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, a, http.MethodPatch, "/api/qdrt/answers/3", []byte(`{"final_risk":"HIGH"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"final_risk":"HIGH"`)

	w, env = do(t, a, http.MethodGet, "/api/qdrt/answers", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"3":{"final_risk":"HIGH"}}`, string(env.Data))

	w, _ = do(t, a, http.MethodDelete, "/api/qdrt/answers/3", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, a, http.MethodGet, "/api/qdrt/answers", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"3":{}}`, string(env.Data))
}

func TestGenerate_MissingKeyIsServiceUnavailable(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1", "")

	w, _ := do(t, a, http.MethodPost, "/api/qdrt/questions/3/generate", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/qdrt/generate-all", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGenerate_WithFakeCompletionService(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message": map[string]string{"role": "assistant", "content": `{"original_finding":"mostly yes","final_finding":"Yes","itemized_concerns":"- none","original_risk":"low","final_risk":"LOW","comments":"ok"}`},
			}},
		})
	}))
	defer srv.Close()

	a := newTestApp(t, srv.URL, "test-key")

	w, env := do(t, a, http.MethodPost, "/api/qdrt/questions/4/generate", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"original_finding":"Mostly Yes"`)
	assert.Contains(t, string(env.Data), `"original_risk":"LOW"`)

	status.Store(http.StatusBadGateway)
	w, _ = do(t, a, http.MethodPost, "/api/qdrt/questions/5/generate", nil, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCorpusUploadAndEdit(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1", "")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	fw.Write([]byte("hello"))
	fw, err = mw.CreateFormFile("files", "design.pdf")
	require.NoError(t, err)
	fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	w, _ := do(t, a, http.MethodPost, "/api/qdrt/corpus/upload", body.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, a, http.MethodGet, "/api/qdrt/corpus", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var corpus struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &corpus))
	assert.Equal(t, "hello\n\n[PDF file: design.pdf - please convert to text manually]", corpus.Text)

	w, _ = do(t, a, http.MethodPut, "/api/qdrt/corpus", []byte(`{"text":"rewritten"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	w, env = do(t, a, http.MethodGet, "/api/qdrt/corpus", nil, "")
	require.NoError(t, json.Unmarshal(env.Data, &corpus))
	assert.Equal(t, "rewritten", corpus.Text)

	w, _ = do(t, a, http.MethodDelete, "/api/qdrt/corpus", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	_, env = do(t, a, http.MethodGet, "/api/qdrt/corpus", nil, "")
	require.NoError(t, json.Unmarshal(env.Data, &corpus))
	assert.Equal(t, "", corpus.Text)

	w, _ = do(t, a, http.MethodPost, "/api/qdrt/corpus/upload", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportAndImport(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1", "")

	w, _ := do(t, a, http.MethodGet, "/api/qdrt/export/csv", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="SAD_QDRT_Completed.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "#,Question,Original Finding,Final Finding,Itemized Concerns,Original Risk,Final Risk,Comments/Notes\n"))

	w, _ = do(t, a, http.MethodGet, "/api/qdrt/export/xlsx", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, util.MimeXLSX, w.Header().Get("Content-Type"))

	w, _ = do(t, a, http.MethodGet, "/api/qdrt/export/docx", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/qdrt/import", []byte(`{"abc": {}}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, a, http.MethodPost, "/api/qdrt/import", []byte(`{"3": {"final_risk": "high"}}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"imported":1}`, string(env.Data))

	w, _ = do(t, a, http.MethodGet, "/api/qdrt/export/json", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"3":{"final_risk":"HIGH"}}`, w.Body.String())

	w, env = do(t, a, http.MethodPost, "/api/qdrt/export/json/publish", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, string(env.Data), `"fileName":"qdrt_answers.json"`)
}

func TestQuestionFilter(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1", "")

	w, env := do(t, a, http.MethodGet, "/api/qdrt/questions?q=cutover", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var views []struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, 25, views[0].ID)

	w, _ = do(t, a, http.MethodGet, "/api/qdrt/questions/25", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, a, http.MethodGet, "/api/qdrt/questions/2", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
