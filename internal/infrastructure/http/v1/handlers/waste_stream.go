package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/dto"
)

// WasteStreamHandler serves /waste-streams.
type WasteStreamHandler struct {
	*BaseHandler
	service *wastestream.Service
}

// NewWasteStreamHandler creates a new waste stream handler.
func NewWasteStreamHandler(base *BaseHandler, service *wastestream.Service) *WasteStreamHandler {
	return &WasteStreamHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the waste stream endpoints on rg.
func (h *WasteStreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:number", h.Get)
	rg.PUT("/:number", h.Update)
	rg.POST("/:number/activate", h.Activate)
	rg.DELETE("/:number", h.Delete)
}

func (h *WasteStreamHandler) respond(c *gin.Context, ws *wastestream.WasteStream) dto.WasteStreamResponse {
	return dto.FromWasteStream(ws, h.service.EffectiveStatus(ws))
}

// List handles GET /waste-streams.
func (h *WasteStreamHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, func(ws *wastestream.WasteStream) dto.WasteStreamResponse {
		return h.respond(c, ws)
	}))
}

// Create handles POST /waste-streams. The number is issued from the
// processor's sequence.
func (h *WasteStreamHandler) Create(c *gin.Context) {
	var req dto.WasteStreamRequest
	if !h.BindJSON(c, &req) {
		return
	}
	details, err := req.ToDetails()
	if err != nil {
		h.Error(c, err)
		return
	}
	ws, err := h.service.Create(c.Request.Context(), details)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, h.respond(c, ws))
}

// Get handles GET /waste-streams/:number.
func (h *WasteStreamHandler) Get(c *gin.Context) {
	number, ok := h.NumberParam(c)
	if !ok {
		return
	}
	ws, err := h.service.Get(c.Request.Context(), number)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.respond(c, ws))
}

// Update handles PUT /waste-streams/:number.
func (h *WasteStreamHandler) Update(c *gin.Context) {
	number, ok := h.NumberParam(c)
	if !ok {
		return
	}
	var req dto.WasteStreamRequest
	if !h.BindJSON(c, &req) {
		return
	}
	details, err := req.ToDetails()
	if err != nil {
		h.Error(c, err)
		return
	}
	ws, err := h.service.Update(c.Request.Context(), number, details)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.respond(c, ws))
}

// Activate handles POST /waste-streams/:number/activate.
func (h *WasteStreamHandler) Activate(c *gin.Context) {
	number, ok := h.NumberParam(c)
	if !ok {
		return
	}
	ws, err := h.service.Activate(c.Request.Context(), number)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.respond(c, ws))
}

// Delete handles DELETE /waste-streams/:number. Streams are deactivated,
// never removed.
func (h *WasteStreamHandler) Delete(c *gin.Context) {
	number, ok := h.NumberParam(c)
	if !ok {
		return
	}
	ws, err := h.service.Delete(c.Request.Context(), number)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.respond(c, ws))
}
