package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/invoice"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler serves /invoices.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the invoice endpoints on rg.
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.Get)
	rg.POST("/:id/finalize", h.Finalize)
	rg.POST("/:id/credit", h.Credit)
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	inv, err := h.service.Get(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// Finalize handles POST /invoices/:id/finalize.
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	invoiceID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	inv, err := h.service.Finalize(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// Credit handles POST /invoices/:id/credit and returns the credit note.
func (h *InvoiceHandler) Credit(c *gin.Context) {
	invoiceID, ok := h.Int64Param(c, "id")
	if !ok {
		return
	}
	note, err := h.service.Credit(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromInvoice(note))
}
