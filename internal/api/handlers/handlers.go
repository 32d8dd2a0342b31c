package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/repository"
	"kb-admin-client/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const defaultProgressInterval = 2 * time.Second

type Handlers struct {
	Backend    *services.Backend
	Repository repository.Repository
	// Scheduler and Auditor are optional; their routes answer 503 when unset.
	Scheduler services.SyncSchedulerInterface
	Auditor   services.VectorAuditorInterface
	Logger    zerolog.Logger

	ProgressInterval time.Duration
}

func NewHandlers(
	backend *services.Backend,
	repo repository.Repository,
	scheduler services.SyncSchedulerInterface,
	auditor services.VectorAuditorInterface,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		Backend:          backend,
		Repository:       repo,
		Scheduler:        scheduler,
		Auditor:          auditor,
		Logger:           logger,
		ProgressInterval: defaultProgressInterval,
	}
}

// VerifyCaller checks the forwarded credentials with an admin-only backend
// read.
func (h *Handlers) VerifyCaller(ctx context.Context) error {
	_, err := h.Backend.SiteSettings.List(ctx)
	return err
}

func (h *Handlers) Close() {
	if h.Scheduler != nil {
		h.Scheduler.Close()
	}
	if h.Auditor != nil {
		h.Auditor.Close()
	}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Ready reports whether the backend has finished its bootstrap configuration
// and, when a scheduler is wired, whether Temporal answers.
func (h *Handlers) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := map[string]string{}
	ready := true

	status, err := h.Backend.System.BootstrapStatus(ctx)
	switch {
	case err != nil:
		deps["backend"] = err.Error()
		ready = false
	case !status.Ready():
		deps["backend"] = "bootstrap_incomplete"
		ready = false
	default:
		deps["backend"] = "ok"
	}

	if h.Scheduler != nil {
		if err := h.Scheduler.HealthCheck(ctx); err != nil {
			deps["temporal"] = err.Error()
			ready = false
		} else {
			deps["temporal"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, models.ReadinessResponse{
			Status:       "not_ready",
			Dependencies: deps,
		})
		return
	}

	c.JSON(http.StatusOK, models.ReadinessResponse{
		Status:       "ready",
		Dependencies: deps,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: message,
		},
	})
}

func unavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "SERVICE_UNAVAILABLE",
			Message: message,
		},
	})
}

// paramID parses the :id path parameter, answering 400 when it is not an integer.
func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid id: "+c.Param("id"))
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. Absent means zero.
func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "Invalid "+key+": "+raw)
		return 0, false
	}
	return v, true
}

func listParams(c *gin.Context) (services.ListParams, bool) {
	page, ok := queryInt(c, "page")
	if !ok {
		return services.ListParams{}, false
	}
	size, ok := queryInt(c, "size")
	if !ok {
		return services.ListParams{}, false
	}
	return services.ListParams{Page: page, Size: size}, true
}
