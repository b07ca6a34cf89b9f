package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"palletledger/internal/domain/ledger"
	"palletledger/internal/infrastructure/http/v1/dto"
)

// MovementHandler handles HTTP requests for ledger movements and the summary.
type MovementHandler struct {
	*BaseHandler
	engine *ledger.Engine
}

// NewMovementHandler creates a movement handler.
func NewMovementHandler(base *BaseHandler, engine *ledger.Engine) *MovementHandler {
	return &MovementHandler{BaseHandler: base, engine: engine}
}

// Create handles POST /movements
func (h *MovementHandler) Create(c *gin.Context) {
	var req dto.CreateMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.engine.RecordMovement(c.Request.Context(), req.ToRequest())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, fmt.Sprintf("Moved %d pallets from %s to %s", m.Quantity, m.FromLocation, m.ToLocation), m)
}

// List handles GET /movements
func (h *MovementHandler) List(c *gin.Context) {
	var q dto.MovementListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.engine.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Get handles GET /movements/:id
func (h *MovementHandler) Get(c *gin.Context) {
	movementID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	m, err := h.engine.GetMovement(c.Request.Context(), movementID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Summary handles GET /summary
func (h *MovementHandler) Summary(c *gin.Context) {
	s, err := h.engine.Summary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}
