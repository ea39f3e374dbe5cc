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

// QuestionHandler handles question bank endpoints for staff.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ListByPacket godoc
// GET /api/v1/staff/packets/:id/questions
func (h *QuestionHandler) ListByPacket(c *gin.Context) {
	packetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.questionService.ListByPacket(c.Request.Context(), packetID, middleware.CallerCategory(c))
	if err != nil {
		failQuestionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// Create godoc
// POST /api/v1/staff/packets/:id/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	packetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), packetID, &req, middleware.CallerCategory(c))
	if err != nil {
		failQuestionError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, question)
}

// Update godoc
// PUT /api/v1/staff/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req, middleware.CallerCategory(c))
	if err != nil {
		failQuestionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, question)
}

// Delete godoc
// DELETE /api/v1/staff/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, middleware.CallerCategory(c)); err != nil {
		failQuestionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func failQuestionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCategoryMismatch):
		response.Fail(c, http.StatusForbidden, response.ErrCategoryMismatch)
	case errors.Is(err, service.ErrBadOptions),
		errors.Is(err, service.ErrBadAnswerKey),
		errors.Is(err, service.ErrBadMatrixSetup),
		errors.Is(err, service.ErrBadMatrixColumn):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"detail": err.Error(),
		})
	default:
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	}
}
