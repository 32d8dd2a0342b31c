package handlers

import (
	"encoding/json"
	"net/http"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/schema"
	"kb-admin-client/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handlers) ListDocuments(c *gin.Context) {
	page, ok := listParams(c)
	if !ok {
		return
	}
	params := services.ListDocumentsParams{
		ListParams:  page,
		Query:       c.Query("search"),
		IndexStatus: c.Query("index_status"),
		MimeType:    c.Query("mime_type"),
	}
	if c.Query("data_source_id") != "" {
		id, ok := queryInt(c, "data_source_id")
		if !ok {
			return
		}
		params.DataSourceID = &id
	}

	documents, err := h.Backend.Documents.List(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err, "Failed to list documents")
		return
	}
	c.JSON(http.StatusOK, documents)
}

func (h *Handlers) GetDocument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	doc, err := h.Backend.Documents.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get document")
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handlers) DeleteDocument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.Backend.Documents.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete document")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ListDatasources(c *gin.Context) {
	page, ok := listParams(c)
	if !ok {
		return
	}
	datasources, err := h.Backend.Datasources.List(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err, "Failed to list datasources")
		return
	}
	c.JSON(http.StatusOK, datasources)
}

func (h *Handlers) GetDatasource(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ds, err := h.Backend.Datasources.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get datasource")
		return
	}
	c.JSON(http.StatusOK, ds)
}

// CreateDatasource validates the request body with the same schema the
// backend enforces before forwarding it.
func (h *Handlers) CreateDatasource(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	params, err := schema.CreateDatasourceParams(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid datasource",
				Details: validationDetails(err),
			},
		})
		return
	}

	ds, err := h.Backend.Datasources.Create(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err, "Failed to create datasource")
		return
	}
	c.JSON(http.StatusCreated, ds)
}

func (h *Handlers) DeleteDatasource(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.Backend.Datasources.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete datasource")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) DatasourceOverview(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	overview, err := h.Backend.IndexProgress.Overview(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get datasource overview")
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *Handlers) RetryFailedTasks(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.Backend.IndexProgress.RetryFailedTasks(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to retry failed tasks")
		return
	}
	c.Status(http.StatusAccepted)
}

// UploadFiles relays the multipart "files" parts to the backend.
func (h *Handlers) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		badRequest(c, "No files provided")
		return
	}

	headers := form.File["files"]
	files := make([]models.FileHandle, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "Unreadable file: "+fh.Filename)
			return
		}
		defer f.Close()
		files = append(files, models.FileHandle{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	uploads, err := h.Backend.Uploads.UploadFiles(c.Request.Context(), files)
	if err != nil {
		h.respondError(c, err, "Failed to upload files")
		return
	}
	c.JSON(http.StatusOK, uploads)
}

func (h *Handlers) ListChats(c *gin.Context) {
	page, ok := listParams(c)
	if !ok {
		return
	}
	chats, err := h.Backend.Chats.List(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err, "Failed to list chats")
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *Handlers) GetChat(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid chat id: "+c.Param("id"))
		return
	}
	chat, err := h.Backend.Chats.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get chat")
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *Handlers) DeleteChat(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid chat id: "+c.Param("id"))
		return
	}
	if err := h.Backend.Chats.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete chat")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ListLLMs(c *gin.Context) {
	page, ok := listParams(c)
	if !ok {
		return
	}
	llms, err := h.Backend.LLMs.List(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err, "Failed to list LLMs")
		return
	}
	c.JSON(http.StatusOK, llms)
}

func (h *Handlers) GetLLM(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	llm, err := h.Backend.LLMs.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get LLM")
		return
	}
	c.JSON(http.StatusOK, llm)
}

func (h *Handlers) ListSiteSettings(c *gin.Context) {
	settings, err := h.Backend.SiteSettings.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to list site settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

type updateSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

func (h *Handlers) UpdateSiteSetting(c *gin.Context) {
	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Value) == 0 {
		badRequest(c, "Request body must be {\"value\": ...}")
		return
	}
	if err := h.Backend.SiteSettings.Update(c.Request.Context(), c.Param("name"), req.Value); err != nil {
		h.respondError(c, err, "Failed to update site setting")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) BootstrapStatus(c *gin.Context) {
	status, err := h.Backend.System.BootstrapStatus(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to get bootstrap status")
		return
	}
	c.JSON(http.StatusOK, status)
}

func validationDetails(err error) map[string]string {
	if vErr, ok := err.(*schema.ValidationError); ok {
		return issueDetails(vErr)
	}
	return map[string]string{"payload": err.Error()}
}
