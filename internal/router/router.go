package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/smpn3pacet/cbt-backend/internal/config"
	"github.com/smpn3pacet/cbt-backend/internal/handler"
	"github.com/smpn3pacet/cbt-backend/internal/middleware"
	"github.com/smpn3pacet/cbt-backend/internal/response"
	"github.com/smpn3pacet/cbt-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	StudentMgmt   *handler.StudentManagementHandler
	Packet        *handler.PacketHandler
	Question      *handler.QuestionHandler
	Exam          *handler.ExamHandler
	Analysis      *handler.AnalysisHandler
	Monitor       *handler.MonitorHandler
	Setting       *handler.SettingHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/student/login", authLimiter.Middleware(), handlers.Auth.StudentLogin)
		auth.POST("/staff/login", authLimiter.Middleware(), handlers.Auth.StaffLogin)

		// Login screen branding, no auth required. Safe to cache briefly.
		auth.GET("/branding", middleware.CacheControl(60), handlers.Auth.GetPublicSettings)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		studentAPI.GET("/lobby", handlers.StudentPortal.GetLobby)
		studentAPI.POST("/exams/:exam_id/start", handlers.StudentPortal.StartExam)
		studentAPI.GET("/exams/:exam_id/state", handlers.StudentPortal.GetSessionState)
		studentAPI.GET("/exams/:exam_id/result", handlers.StudentPortal.GetResult)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/exams/:exam_id/stream", handlers.WS.ExamWebSocketStream)
	}

	// ─── 4. Staff Group (Admin or Teacher JWT) ─────────────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(middleware.RequireStaffJWT(authService))
	{
		// Packet management (teachers scoped to their category)
		staffAPI.GET("/packets", handlers.Packet.List)
		staffAPI.POST("/packets", handlers.Packet.Create)
		staffAPI.GET("/packets/:id", handlers.Packet.Get)
		staffAPI.PUT("/packets/:id", handlers.Packet.Update)
		staffAPI.DELETE("/packets/:id", handlers.Packet.Delete)

		// Question management
		staffAPI.GET("/packets/:id/questions", handlers.Question.ListByPacket)
		staffAPI.POST("/packets/:id/questions", handlers.Question.Create)
		staffAPI.PUT("/questions/:id", handlers.Question.Update)
		staffAPI.DELETE("/questions/:id", handlers.Question.Delete)

		// Exam schedule management
		staffAPI.GET("/exams", handlers.Exam.List)
		staffAPI.POST("/exams", handlers.Exam.Create)
		staffAPI.GET("/exams/:id", handlers.Exam.Get)
		staffAPI.PUT("/exams/:id", handlers.Exam.Update)
		staffAPI.PATCH("/exams/:id/active", handlers.Exam.SetActive)
		staffAPI.DELETE("/exams/:id", handlers.Exam.Delete)

		// Live monitor
		staffAPI.GET("/exams/:id/monitor", handlers.Monitor.GetExamOverview)
		staffAPI.GET("/exams/:id/monitor/stream", handlers.Monitor.MonitorExamSSE)

		// Post-exam analysis
		staffAPI.GET("/analysis/exams/:id/summary", handlers.Analysis.GetExamSummary)
		staffAPI.GET("/analysis/exams/:id/results", handlers.Analysis.ListExamResults)
		staffAPI.GET("/analysis/students/:id/results", handlers.Analysis.ListStudentResults)
	}

	// ─── 5. Admin Group (Admin JWT only) ───────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireStaffJWT(authService), middleware.RequireAdmin())
	{
		// Student management
		adminAPI.GET("/students", handlers.StudentMgmt.List)
		adminAPI.GET("/students/classes", handlers.StudentMgmt.ListClasses)
		adminAPI.POST("/students", handlers.StudentMgmt.Create)
		adminAPI.PUT("/students/:id", handlers.StudentMgmt.Update)
		adminAPI.DELETE("/students/:id", handlers.StudentMgmt.Delete)
		adminAPI.POST("/students/:id/reset-session", handlers.StudentMgmt.ResetSession)

		// App settings
		settingsGroup := adminAPI.Group("/settings")
		{
			settingsGroup.GET("", handlers.Setting.GetAll)
			settingsGroup.PUT("", handlers.Setting.UpdateBulk)
		}
	}

	return router
}
