package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"palletledger/internal/domain/ledger"
	"palletledger/internal/domain/location"
	"palletledger/internal/infrastructure/http/v1/dto"
)

// LocationHandler handles HTTP requests for the location registry.
type LocationHandler struct {
	*BaseHandler
	registry *location.Registry
	ledger   *ledger.Engine
}

// NewLocationHandler creates a location handler.
func NewLocationHandler(base *BaseHandler, registry *location.Registry, engine *ledger.Engine) *LocationHandler {
	return &LocationHandler{BaseHandler: base, registry: registry, ledger: engine}
}

// List handles GET /locations
func (h *LocationHandler) List(c *gin.Context) {
	var q dto.LocationListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	items, err := h.registry.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Create handles POST /locations
func (h *LocationHandler) Create(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc, err := h.registry.Register(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, fmt.Sprintf("Location %s registered", loc.Code), loc)
}

// Get handles GET /locations/:code
func (h *LocationHandler) Get(c *gin.Context) {
	loc, err := h.registry.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, loc)
}

// Update handles PATCH /locations/:code
func (h *LocationHandler) Update(c *gin.Context) {
	var req dto.UpdateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc, err := h.registry.Update(c.Request.Context(), c.Param("code"), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Done(c, fmt.Sprintf("Location %s updated", loc.Code), loc)
}

// Delete handles DELETE /locations/:code
func (h *LocationHandler) Delete(c *gin.Context) {
	code := location.NormalizeCode(c.Param("code"))
	if err := h.registry.Remove(c.Request.Context(), code); err != nil {
		h.Error(c, err)
		return
	}
	h.Done(c, fmt.Sprintf("Location %s removed", code), nil)
}

// Balance handles GET /locations/:code/balance
func (h *LocationHandler) Balance(c *gin.Context) {
	b, err := h.ledger.GetBalance(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}
