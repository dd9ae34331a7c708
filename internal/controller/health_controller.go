package controller

import (
	"context"
	"net/http"
	"qdrt_backend/internal/util"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything whose availability the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Durability reports whether a repository's last load or write reached the state store.
type Durability interface {
	Durable() bool
}

type HealthController struct {
	State       Pinger
	Backend     string
	Persistence map[string]Durability
}

func NewHealthController(state Pinger, backend string, persistence map[string]Durability) *HealthController {
	return &HealthController{State: state, Backend: backend, Persistence: persistence}
}

// persistence maps each repository to "durable" or "session-only" and reports whether all are durable.
func (c *HealthController) persistence() (gin.H, bool) {
	names := make([]string, 0, len(c.Persistence))
	for name := range c.Persistence {
		names = append(names, name)
	}
	sort.Strings(names)

	out := gin.H{}
	all := true
	for _, name := range names {
		if c.Persistence[name].Durable() {
			out[name] = "durable"
			continue
		}
		out[name] = "session-only"
		all = false
	}
	return out, all
}

// @Summary Health check
// @Description Reports service status, state store reachability and whether each repository is still persisting
// @Tags system
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	persistence, durable := c.persistence()

	if err := c.State.Ping(pingCtx); err != nil {
		util.ErrorWithData(ctx, http.StatusServiceUnavailable, "State store unavailable", gin.H{
			"status": "degraded",
			"components": gin.H{
				"state": gin.H{"backend": c.Backend, "status": "down", "error": err.Error()},
			},
			"persistence": persistence,
		})
		return
	}

	// Edits still succeed in session-only mode, so the service stays up but says so.
	status := "ok"
	if !durable {
		status = "degraded"
	}
	util.Success(ctx, gin.H{
		"status": status,
		"components": gin.H{
			"state": gin.H{"backend": c.Backend, "status": "up"},
		},
		"persistence": persistence,
	})
}
