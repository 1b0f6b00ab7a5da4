package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Backend string            `json:"backend,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// Pinger is the part of a store the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
	Backend() string
}

// LoadState reports whether the live catalog finished its first load.
type LoadState interface {
	Loading() bool
}

type HealthController struct {
	store   Pinger
	library LoadState
	version string
}

func NewHealthController(store Pinger, library LoadState, version string) *HealthController {
	return &HealthController{
		store:   store,
		library: library,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"
	backend := ""

	if h.store != nil {
		backend = h.store.Backend()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			checks["store"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not configured"
	}

	if h.library != nil {
		if h.library.Loading() {
			checks["library"] = "loading"
		} else {
			checks["library"] = "ok"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Backend: backend,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

// Ping handles GET /ping.
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
