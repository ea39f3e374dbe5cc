package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/middleware"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
	"github.com/smpn3pacet/cbt-backend/internal/response"
	"github.com/smpn3pacet/cbt-backend/internal/service"
	"github.com/smpn3pacet/cbt-backend/internal/session"
)

// StudentPortalHandler serves the student-facing exam endpoints: the lobby,
// session start, mid-attempt state, and the finish screen.
type StudentPortalHandler struct {
	studentService *service.StudentService
	sessionService *service.ExamSessionService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(studentService *service.StudentService, sessionService *service.ExamSessionService) *StudentPortalHandler {
	return &StudentPortalHandler{
		studentService: studentService,
		sessionService: sessionService,
	}
}

// GetLobby godoc
// GET /api/v1/student/lobby
// Lists the exams targeting the student's class with per-exam status.
func (h *StudentPortalHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	lobby, err := h.sessionService.GetLobby(c.Request.Context(), student)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": lobby})
}

// StartExam godoc
// POST /api/v1/student/exams/:exam_id/start
// Builds and starts a session for the student, or resumes the running one.
func (h *StudentPortalHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	as, err := h.sessionService.Start(c.Request.Context(), examID, student)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotEligible):
			response.Fail(c, http.StatusForbidden, response.ErrExamNotEligible)
		case errors.Is(err, service.ErrExamNoQuestions):
			response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
		case errors.Is(err, service.ErrOtherSessionActive):
			response.Fail(c, http.StatusConflict, response.ErrSessionInProgress)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"exam_id":   as.ExamID,
		"questions": session.StudentView(as.Session.Questions()),
		"snapshot":  as.Session.Snapshot(),
	})
}

// GetSessionState godoc
// GET /api/v1/student/exams/:exam_id/state
// Returns the running session snapshot for a reloading client.
func (h *StudentPortalHandler) GetSessionState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	as, ok := h.sessionService.Get(claims.UserID)
	if !ok || as.ExamID != examID {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"exam_id":   as.ExamID,
		"questions": session.StudentView(as.Session.Questions()),
		"snapshot":  as.Session.Snapshot(),
	})
}

// GetResult godoc
// GET /api/v1/student/exams/:exam_id/result
// Returns the student's latest result for the exam (finish screen).
func (h *StudentPortalHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.LatestResult(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrResultNotAvailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// A disqualified attempt shows its status, not its score.
	payload := gin.H{
		"exam_id":         result.ExamID,
		"exam_title":      result.ExamTitle,
		"submitted_at":    result.SubmittedAt,
		"violation_count": result.ViolationCount,
		"is_disqualified": result.IsDisqualified,
	}
	if !result.IsDisqualified {
		payload["score"] = result.Score
	}

	response.Success(c, http.StatusOK, payload)
}
