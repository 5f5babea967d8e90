package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/config"
	"github.com/stemsi/exam-portal-backend/internal/handler"
	"github.com/stemsi/exam-portal-backend/internal/middleware"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/response"
	"github.com/stemsi/exam-portal-backend/internal/service"
)

const uploadsMaxAge = 31536000

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Profile   *handler.ProfileHandler
	Subject   *handler.SubjectHandler
	Question  *handler.QuestionHandler
	Exam      *handler.ExamHandler
	Attempt   *handler.AttemptHandler
	Analytics *handler.AnalyticsHandler
	Admin     *handler.AdminHandler
	Monitor   *handler.MonitorHandler
	WS        *handler.WSHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// A nil rdb disables auth rate limiting.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	rdb *redis.Client,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

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
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	compression := middleware.DefaultCompressionConfig
	compression.SkipPrefixes = []string{"/uploads", "/ws/"}
	router.Use(middleware.Compression(cfg.EnableCompression, compression))

	// Profile pictures get a fresh name on every upload, so they can be cached forever.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(uploadsMaxAge))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.System.Health)

	requireAuth := []gin.HandlerFunc{
		middleware.RequireAuth(authService),
		middleware.CheckSingleSession(authService, log),
	}
	staff := middleware.RequireRole(model.RoleTeacher, model.RoleAdmin)
	student := middleware.RequireRole(model.RoleStudent)
	admin := middleware.RequireRole(model.RoleAdmin)

	api := router.Group("/api/v1")

	// ─── 1. Auth (public, rate limited) ────────────────────────────────
	auth := api.Group("/auth")
	if rdb != nil {
		auth.Use(middleware.NewRateLimiter(rdb, "auth", cfg.AuthRateLimit, time.Minute, log).Middleware())
	}
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
	}

	// ─── 2. Authenticated ──────────────────────────────────────────────
	authed := api.Group("")
	authed.Use(requireAuth...)
	{
		authed.POST("/auth/logout", handlers.Auth.Logout)
		authed.GET("/auth/me", handlers.Auth.Me)

		authed.GET("/profile", handlers.Profile.Get)
		authed.PUT("/profile", handlers.Profile.Update)
		authed.PUT("/profile/picture", handlers.Profile.UploadPicture)
		authed.DELETE("/profile/picture", handlers.Profile.DeletePicture)

		authed.GET("/subjects", handlers.Subject.List)
		authed.GET("/subjects/:id", handlers.Subject.Get)
		authed.POST("/subjects", admin, handlers.Subject.Create)
		authed.PUT("/subjects/:id", admin, handlers.Subject.Update)
		authed.DELETE("/subjects/:id", admin, handlers.Subject.Delete)

		authed.GET("/questions", staff, handlers.Question.List)
		authed.POST("/questions", staff, handlers.Question.Create)
		authed.GET("/questions/:id", staff, handlers.Question.Get)

		// Exam catalog
		authed.GET("/exams", handlers.Exam.List)
		authed.GET("/exams/:exam_id", handlers.Exam.Get)
		authed.POST("/exams", staff, handlers.Exam.Create)
		authed.PUT("/exams/:exam_id", staff, handlers.Exam.Update)
		authed.DELETE("/exams/:exam_id", staff, handlers.Exam.Delete)
		authed.POST("/exams/:exam_id/questions", staff, handlers.Exam.LinkQuestions)
		authed.GET("/exams/:exam_id/questions", staff, handlers.Exam.ListQuestions)
		authed.GET("/exams/:exam_id/monitor", staff, handlers.Monitor.MonitorExamSSE)

		// Attempt lifecycle
		authed.POST("/exams/:exam_id/start", student, handlers.Attempt.Start)
		authed.GET("/exams/:exam_id/take", student, middleware.NoStore(), handlers.Attempt.Take)
		authed.POST("/exams/:exam_id/submit", student, handlers.Attempt.Submit)
		authed.POST("/proctoring/violation", student, handlers.Attempt.ReportViolation)
		authed.GET("/results/mine", student, handlers.Attempt.MyResults)

		// Analytics
		authed.GET("/analytics/student/subjects", student, handlers.Analytics.MySubjects)
		authed.GET("/analytics/student/wrong-questions", student, handlers.Analytics.MyWrongQuestions)
		authed.GET("/analytics/teacher/exams/:exam_id", staff, handlers.Analytics.ExamAnalytics)
		authed.GET("/analytics/teacher/results", staff, handlers.Analytics.Results)
		authed.GET("/analytics/teacher/violations", staff, handlers.Analytics.Violations)
		authed.GET("/analytics/teacher/students", staff, handlers.Analytics.TeacherStudents)
		authed.GET("/analytics/teacher/subjects", staff, handlers.Analytics.TeacherSubjects)
		authed.GET("/analytics/teacher/self", staff, handlers.Analytics.TeacherSelf)
	}

	// ─── 3. Admin ──────────────────────────────────────────────────────
	adminAPI := api.Group("/admin")
	adminAPI.Use(requireAuth...)
	adminAPI.Use(admin)
	{
		adminAPI.GET("/dashboard", handlers.Analytics.Dashboard)
		adminAPI.GET("/users", handlers.Admin.ListUsers)
		adminAPI.GET("/analytics/subjects", handlers.Analytics.Subjects)
		adminAPI.GET("/analytics/teachers", handlers.Analytics.TeacherReport)
		adminAPI.GET("/analytics/students", handlers.Analytics.StudentReport)
		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	// ─── 4. WebSocket (token via ?token=) ──────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireAuth...)
	ws.Use(student)
	{
		ws.GET("/exams/:exam_id/stream", handlers.WS.ExamWebSocketStream)
	}

	return router
}
