package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smpn3pacet/cbt-backend/internal/middleware"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/response"
	"github.com/smpn3pacet/cbt-backend/internal/service"
	"github.com/smpn3pacet/cbt-backend/internal/validator"
)

// StaffLoginRequest is the payload for role-based staff login.
type StaffLoginRequest struct {
	Role     string `json:"role" binding:"required,oneof=admin teacher_literasi teacher_numerasi"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService    *service.AuthService
	studentService *service.StudentService
	settingService *service.SettingService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	studentService *service.StudentService,
	settingService *service.SettingService,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		studentService: studentService,
		settingService: settingService,
	}
}

// StudentLogin godoc
// POST /api/v1/auth/student/login
// Validates NISN + password, checks for existing session (rejects if active), returns JWT.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req model.StudentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, student, err := h.authService.LoginStudent(c.Request.Context(), req.NISN, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"student": gin.H{
			"id":         student.ID,
			"nisn":       student.NISN,
			"name":       student.Name,
			"class_name": student.ClassName,
		},
	})
}

// StaffLogin godoc
// POST /api/v1/auth/staff/login
// Validates a fixed role password (admin or subject teacher), returns JWT.
func (h *AuthHandler) StaffLogin(c *gin.Context) {
	var req StaffLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, err := h.authService.LoginStaff(c.Request.Context(), req.Role, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrUnknownRole) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"role":  req.Role,
	})
}

// GetStudentProfile godoc
// GET /api/v1/auth/student/me
// Returns the profile of the currently authenticated student.
func (h *AuthHandler) GetStudentProfile(c *gin.Context) {
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

	response.Success(c, http.StatusOK, gin.H{
		"student": gin.H{
			"id":         student.ID,
			"nisn":       student.NISN,
			"name":       student.Name,
			"class_name": student.ClassName,
		},
	})
}

// StudentLogout godoc
// POST /api/v1/auth/student/logout
// Logs out the currently authenticated student.
func (h *AuthHandler) StudentLogout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ResetStudentSession(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetPublicSettings godoc
// GET /api/v1/auth/branding
// Returns the school identity shown on the login screen. Unauthenticated.
func (h *AuthHandler) GetPublicSettings(c *gin.Context) {
	public, err := h.settingService.GetPublic(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, public)
}
