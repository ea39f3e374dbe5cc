package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/middleware"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/response"
	"github.com/smpn3pacet/cbt-backend/internal/service"
	"github.com/smpn3pacet/cbt-backend/internal/validator"
)

// PacketHandler handles question packet endpoints for staff. Teacher tokens
// are transparently scoped to their subject category.
type PacketHandler struct {
	packetService *service.PacketService
}

// NewPacketHandler creates a new PacketHandler.
func NewPacketHandler(packetService *service.PacketService) *PacketHandler {
	return &PacketHandler{packetService: packetService}
}

// List godoc
// GET /api/v1/staff/packets
func (h *PacketHandler) List(c *gin.Context) {
	packets, err := h.packetService.List(c.Request.Context(), middleware.CallerCategory(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, packets)
}

// Get godoc
// GET /api/v1/staff/packets/:id
func (h *PacketHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	packet, err := h.packetService.GetByID(c.Request.Context(), id, middleware.CallerCategory(c))
	if err != nil {
		failPacketError(c, err)
		return
	}
	response.Success(c, http.StatusOK, packet)
}

// Create godoc
// POST /api/v1/staff/packets
func (h *PacketHandler) Create(c *gin.Context) {
	var req model.CreatePacketRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	packet, err := h.packetService.Create(c.Request.Context(), &req, middleware.CallerCategory(c))
	if err != nil {
		failPacketError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, packet)
}

// Update godoc
// PUT /api/v1/staff/packets/:id
func (h *PacketHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdatePacketRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	packet, err := h.packetService.Update(c.Request.Context(), id, &req, middleware.CallerCategory(c))
	if err != nil {
		failPacketError(c, err)
		return
	}
	response.Success(c, http.StatusOK, packet)
}

// Delete godoc
// DELETE /api/v1/staff/packets/:id
func (h *PacketHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.packetService.Delete(c.Request.Context(), id, middleware.CallerCategory(c)); err != nil {
		failPacketError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func failPacketError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrCategoryMismatch) {
		response.Fail(c, http.StatusForbidden, response.ErrCategoryMismatch)
		return
	}
	response.Fail(c, http.StatusNotFound, response.ErrNotFound)
}
