package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type stubDurability bool

func (d stubDurability) Durable() bool { return bool(d) }

func serveHealth(t *testing.T, c *HealthController) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", c.HealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.Data
}

func TestHealthCheck_AllDurable(t *testing.T) {
	code, data := serveHealth(t, NewHealthController(stubPinger{}, "redis", map[string]Durability{
		"answers": stubDurability(true),
		"corpus":  stubDurability(true),
	}))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, map[string]interface{}{"answers": "durable", "corpus": "durable"}, data["persistence"])
}

func TestHealthCheck_ReportsSessionOnlyRepository(t *testing.T) {
	code, data := serveHealth(t, NewHealthController(stubPinger{}, "redis", map[string]Durability{
		"answers": stubDurability(false),
		"corpus":  stubDurability(true),
	}))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", data["status"])
	assert.Equal(t, map[string]interface{}{"answers": "session-only", "corpus": "durable"}, data["persistence"])
}

func TestHealthCheck_StoreDown(t *testing.T) {
	code, data := serveHealth(t, NewHealthController(stubPinger{err: errors.New("dial tcp: refused")}, "redis", map[string]Durability{
		"answers": stubDurability(false),
	}))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", data["status"])
	assert.Equal(t, map[string]interface{}{"answers": "session-only"}, data["persistence"])
}
