package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/dto"
)

// DeclarationHandler serves /declarations.
type DeclarationHandler struct {
	*BaseHandler
	workflow *declaration.Workflow
}

// NewDeclarationHandler creates a new declaration handler.
func NewDeclarationHandler(base *BaseHandler, workflow *declaration.Workflow) *DeclarationHandler {
	return &DeclarationHandler{BaseHandler: base, workflow: workflow}
}

// RegisterRoutes mounts the declaration endpoints on rg.
func (h *DeclarationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/run", h.Run)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/approve", h.Approve)
}

// List handles GET /declarations.
func (h *DeclarationHandler) List(c *gin.Context) {
	var q dto.DeclarationQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	result, err := h.workflow.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromDeclaration))
}

// Run handles POST /declarations/run, declaring a month on demand.
func (h *DeclarationHandler) Run(c *gin.Context) {
	var req dto.RunDeclarationsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	period, err := declaration.ParseYearMonth(req.Period)
	if err != nil {
		h.Error(c, err)
		return
	}
	ctx := c.Request.Context()

	if req.Corrections {
		decls, err := h.workflow.DeclareCorrections(ctx, period)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.FromCorrections(period, decls))
		return
	}

	report, err := h.workflow.DeclareMonth(ctx, period)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReport(report))
}

// Get handles GET /declarations/:id.
func (h *DeclarationHandler) Get(c *gin.Context) {
	declarationID, ok := h.IDParam(c, "id")
	if !ok {
		return
	}
	d, err := h.workflow.Get(c.Request.Context(), declarationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDeclaration(d))
}

// Approve handles POST /declarations/:id/approve: a planner releases a
// pending first-receival declaration to the gateway.
func (h *DeclarationHandler) Approve(c *gin.Context) {
	declarationID, ok := h.IDParam(c, "id")
	if !ok {
		return
	}
	d, err := h.workflow.Approve(c.Request.Context(), declarationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDeclaration(d))
}
