package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/streamimport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/dto"
)

// FormFile is the multipart field carrying the CSV export.
const FormFile = "file"

// ImportHandler serves /imports.
type ImportHandler struct {
	*BaseHandler
	pipeline *streamimport.Pipeline
	maxBytes int64
}

// NewImportHandler creates a new import handler accepting files up to maxBytes.
func NewImportHandler(base *BaseHandler, pipeline *streamimport.Pipeline, maxBytes int64) *ImportHandler {
	return &ImportHandler{BaseHandler: base, pipeline: pipeline, maxBytes: maxBytes}
}

// RegisterRoutes mounts the import endpoints on rg.
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/waste-streams", h.Upload)
	rg.GET("/errors", h.ListErrors)
	rg.DELETE("/errors", h.ClearErrors)
}

// Upload handles POST /imports/waste-streams (multipart, field "file").
func (h *ImportHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	header, err := c.FormFile(FormFile)
	if err != nil {
		h.Error(c, apperror.NewValidation("a CSV file is required").
			WithDetail("field", FormFile).
			WithDetail("error", err.Error()))
		return
	}
	f, err := header.Open()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer f.Close()

	result, err := h.pipeline.Import(c.Request.Context(), header.Filename, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	if result.Errors == nil {
		result.Errors = []streamimport.RowError{}
	}
	h.OK(c, result)
}

// ListErrors handles GET /imports/errors.
func (h *ImportHandler) ListErrors(c *gin.Context) {
	var q dto.ImportErrorQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid importId").WithDetail("value", q.ImportID))
		return
	}
	result, err := h.pipeline.ListErrors(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, func(e streamimport.StoredError) streamimport.StoredError { return e }))
}

// ClearErrors handles DELETE /imports/errors.
func (h *ImportHandler) ClearErrors(c *gin.Context) {
	deleted, err := h.pipeline.ClearErrors(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ClearErrorsResponse{Deleted: deleted})
}
