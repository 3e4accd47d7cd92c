package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/dto"
)

// WeightTicketHandler serves /weight-tickets.
type WeightTicketHandler struct {
	*BaseHandler
	service *weightticket.Service
}

// NewWeightTicketHandler creates a new weight ticket handler.
func NewWeightTicketHandler(base *BaseHandler, service *weightticket.Service) *WeightTicketHandler {
	return &WeightTicketHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the weight ticket endpoints on rg.
func (h *WeightTicketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/split", h.Split)
	rg.POST("/:id/copy", h.Copy)
	rg.POST("/:id/invoice", h.CreateInvoice)
	rg.POST("/:id/transport", h.CreateTransport)
}

// List handles GET /weight-tickets.
func (h *WeightTicketHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromWeightTicket))
}

// Create handles POST /weight-tickets.
func (h *WeightTicketHandler) Create(c *gin.Context) {
	var req dto.WeightTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	details, err := req.ToDetails()
	if err != nil {
		h.Error(c, err)
		return
	}
	t, err := h.service.Create(c.Request.Context(), details)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromWeightTicket(t))
}

// Get handles GET /weight-tickets/:id.
func (h *WeightTicketHandler) Get(c *gin.Context) {
	ticketID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWeightTicket(t))
}

// Update handles PUT /weight-tickets/:id.
func (h *WeightTicketHandler) Update(c *gin.Context) {
	ticketID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.WeightTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	details, err := req.ToDetails()
	if err != nil {
		h.Error(c, err)
		return
	}
	t, err := h.service.Update(c.Request.Context(), ticketID, details)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWeightTicket(t))
}

// Complete handles POST /weight-tickets/:id/complete.
func (h *WeightTicketHandler) Complete(c *gin.Context) {
	ticketID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Complete(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWeightTicket(t))
}

// Cancel handles POST /weight-tickets/:id/cancel.
func (h *WeightTicketHandler) Cancel(c *gin.Context) {
	ticketID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Cancel(c.Request.Context(), ticketID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWeightTicket(t))
}

// Split handles POST /weight-tickets/:id/split.
func (h *WeightTicketHandler) Split(c *gin.Context) {
	ticketID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.SplitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	original, split, err := h.service.Split(c.Request.Context(), ticketID, req.OriginalPercentage, req.NewPercentage)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.SplitResponse{
		Original: dto.FromWeightTicket(original),
		New:      dto.FromWeightTicket(split),
	})
}

// Copy handles POST /weight-tickets/:id/copy.
func (h *WeightTicketHandler) Copy(c *gin.Context) {
	ticketID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Copy(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromWeightTicket(t))
}

// CreateInvoice handles POST /weight-tickets/:id/invoice.
func (h *WeightTicketHandler) CreateInvoice(c *gin.Context) {
	ticketID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	invoiceID, err := h.service.CreateInvoice(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.IDResponse{ID: invoiceID})
}

// CreateTransport handles POST /weight-tickets/:id/transport.
func (h *WeightTicketHandler) CreateTransport(c *gin.Context) {
	ticketID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.TransportRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tr, err := h.service.CreateTransport(c.Request.Context(), ticketID, req.PickupDateTime, req.DeliveryDateTime)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromTransport(tr))
}
