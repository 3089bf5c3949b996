package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/aggrego"
	"github.com/soundprediction/aggrego/pkg/types"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	engine aggrego.Engine
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(engine aggrego.Engine) *HealthHandler {
	return &HealthHandler{engine: engine}
}

// HealthCheck handles GET /health - basic liveness check.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "aggrego",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready. The store check reads a key that
// cannot exist, so it proves connectivity without side effects.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := gin.H{
		"status":    "ready",
		"service":   "aggrego",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    gin.H{},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	if h.engine != nil {
		storeStart := time.Now()
		err := h.engine.Ping(ctx)
		storeDuration := time.Since(storeStart)

		if err != nil {
			checks["store"] = gin.H{
				"status":   "unhealthy",
				"error":    err.Error(),
				"duration": storeDuration.String(),
			}
			allHealthy = false
		} else {
			checks["store"] = gin.H{
				"status":   "healthy",
				"duration": storeDuration.String(),
			}
		}

		// The classifier is pure computation; an unexpected intent here
		// means a broken catalog.
		intent := h.engine.ClassifyQuery("")
		if intent.Kind == types.KindSemantic && intent.Confidence == 0 {
			checks["classifier"] = gin.H{"status": "healthy"}
		} else {
			checks["classifier"] = gin.H{
				"status": "unhealthy",
				"error":  "empty query did not classify as zero-confidence semantic",
			}
			allHealthy = false
		}
	} else {
		checks["engine"] = gin.H{
			"status": "unhealthy",
			"error":  "engine not initialized",
		}
		allHealthy = false
	}

	if !allHealthy {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// LivenessCheck handles GET /live - Kubernetes liveness probe endpoint.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "aggrego",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck handles GET /health/detailed - comprehensive health
// information including runtime metrics.
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	response := gin.H{
		"status":  "healthy",
		"service": "aggrego",
		"version": Version,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": gin.H{
			"go_version": GoVersion,
		},
		"checks": gin.H{},
		"metrics": gin.H{
			"response_time_ms": 0,
		},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	if h.engine != nil {
		storeStart := time.Now()
		err := h.engine.Ping(ctx)
		storeDuration := time.Since(storeStart)

		storeStatus := gin.H{
			"status":      "healthy",
			"duration_ms": storeDuration.Milliseconds(),
			"operation":   "Ping",
		}
		if err != nil {
			storeStatus["status"] = "unhealthy"
			storeStatus["error"] = err.Error()
			allHealthy = false
		}
		checks["store_connectivity"] = storeStatus
	} else {
		checks["engine"] = gin.H{
			"status": "unhealthy",
			"error":  "engine not initialized",
		}
		allHealthy = false
	}

	metrics := h.getSystemMetrics()
	checks["system"] = gin.H{
		"status":       "healthy",
		"memory_usage": metrics.MemoryUsage,
		"goroutines":   metrics.Goroutines,
		"gc_cycles":    metrics.GCCycles,
		"heap_objects": metrics.HeapObjects,
		"stack_usage":  metrics.StackUsage,
	}

	response["metrics"].(gin.H)["response_time_ms"] = time.Since(startTime).Milliseconds()

	if !allHealthy {
		response["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// SystemMetrics holds system runtime metrics.
type SystemMetrics struct {
	MemoryUsage string `json:"memory_usage"`
	Goroutines  int    `json:"goroutines"`
	GCCycles    uint32 `json:"gc_cycles"`
	HeapObjects uint64 `json:"heap_objects"`
	StackUsage  string `json:"stack_usage"`
}

func (h *HealthHandler) getSystemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemMetrics{
		MemoryUsage: fmt.Sprintf("%.2f MB", float64(m.Alloc)/(1024*1024)),
		Goroutines:  runtime.NumGoroutine(),
		GCCycles:    m.NumGC,
		HeapObjects: m.HeapObjects,
		StackUsage:  fmt.Sprintf("%.2f MB", float64(m.StackSys)/(1024*1024)),
	}
}
