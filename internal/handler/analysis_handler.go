package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/response"
	"github.com/smpn3pacet/cbt-backend/internal/service"
)

// AnalysisHandler serves post-exam reporting to staff.
type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// GetExamSummary godoc
// GET /api/v1/staff/analysis/exams/:id/summary
func (h *AnalysisHandler) GetExamSummary(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	summary, err := h.analysisService.GetExamSummary(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// ListExamResults godoc
// GET /api/v1/staff/analysis/exams/:id/results?page=&per_page=&class_name=
func (h *AnalysisHandler) ListExamResults(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	var className *string
	if v := c.Query("class_name"); v != "" {
		className = &v
	}

	results, pagination, err := h.analysisService.ListExamResults(c.Request.Context(), examID, className, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, results, pagination)
}

// ListStudentResults godoc
// GET /api/v1/staff/analysis/students/:id/results
func (h *AnalysisHandler) ListStudentResults(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	results, err := h.analysisService.ListStudentResults(c.Request.Context(), studentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, results)
}
