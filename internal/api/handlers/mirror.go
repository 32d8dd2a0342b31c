package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"kb-admin-client/internal/models"
	"kb-admin-client/pkg/sse"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListMirrorDocuments(c *gin.Context) {
	limit := 50
	offset := 0
	statusFilter := c.Query("index_status")

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	documents, total, err := h.Repository.ListDocuments(c.Request.Context(), limit, offset, statusFilter)
	if err != nil {
		h.respondError(c, err, "Failed to list mirrored documents")
		return
	}

	docList := make([]models.Document, len(documents))
	for i, doc := range documents {
		docList[i] = *doc
	}

	c.JSON(http.StatusOK, models.DocumentListResponse{
		Documents: docList,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

func (h *Handlers) GetMirrorDocument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	doc, err := h.Repository.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get mirrored document")
		return
	}

	if doc == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Document not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// StartSync starts a mirror sync workflow. The body is optional.
func (h *Handlers) StartSync(c *gin.Context) {
	if h.Scheduler == nil {
		unavailable(c, "Sync scheduling is not configured")
		return
	}

	var req models.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format")
			return
		}
	}

	workflowID, err := h.Scheduler.StartSyncWorkflow(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to start sync workflow")
		return
	}

	c.JSON(http.StatusAccepted, models.SyncResponse{WorkflowID: workflowID})
}

func (h *Handlers) GetSyncStatus(c *gin.Context) {
	if h.Scheduler == nil {
		unavailable(c, "Sync scheduling is not configured")
		return
	}

	status, err := h.Scheduler.QueryWorkflowStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to query sync workflow")
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handlers) CancelSync(c *gin.Context) {
	if h.Scheduler == nil {
		unavailable(c, "Sync scheduling is not configured")
		return
	}

	if err := h.Scheduler.CancelWorkflow(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to cancel sync workflow")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) DocumentVectors(c *gin.Context) {
	if h.Auditor == nil {
		unavailable(c, "Vector audit is not configured")
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	count, err := h.Auditor.CountDocumentVectors(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to count document vectors")
		return
	}
	c.JSON(http.StatusOK, models.VectorCountResponse{DocumentID: id, Vectors: count})
}

// StreamProgress polls a datasource's overview and streams it as server-sent
// events until indexing settles or the caller disconnects.
func (h *Handlers) StreamProgress(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	eventID := strconv.Itoa(id)

	interval := h.ProgressInterval
	if interval <= 0 {
		interval = defaultProgressInterval
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		overview, err := h.Backend.IndexProgress.Overview(ctx, id)
		if err != nil {
			if !errors.Is(err, ctx.Err()) {
				h.Logger.Error().Err(err).Int("datasource_id", id).Msg("Failed to poll index progress")
				c.SSEvent(sse.EventError, sse.Error(eventID, "UPSTREAM_ERROR", err.Error()))
			}
			return false
		}

		if overview.VectorIndex.Done() && (overview.KGIndex == nil || overview.KGIndex.Done()) {
			c.SSEvent(sse.EventDone, sse.Done(eventID, overview))
			return false
		}
		c.SSEvent(sse.EventProgress, sse.Progress(eventID, overview))

		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
			return true
		}
	})
}
