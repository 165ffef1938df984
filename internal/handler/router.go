package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/middleware"
	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/service"
	"github.com/noah-isme/edu-platform-api/pkg/config"
	"github.com/noah-isme/edu-platform-api/pkg/storage"
	"github.com/noah-isme/edu-platform-api/pkg/upload"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Courses     *CourseHandler
	Videos      *VideoHandler
	Assignments *AssignmentHandler
	Quizzes     *QuizHandler
	LiveStreams *LiveStreamHandler
	Meetings    *MeetingHandler
	AI          *AIHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes mounts the API under cfg.APIPrefix. Role gates mirror the
// access rules enforced again inside the services.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, h Handlers, auth *service.AuthService, users *service.UserService, store *storage.LocalStorage, logger *zap.Logger) {
	authn := middleware.Authenticated(auth, users, logger)
	admins := middleware.RequireRoles(models.RoleAdmin)
	teachers := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)
	students := middleware.RequireRoles(models.RoleStudent)
	parents := middleware.RequireRoles(models.RoleParent, models.RoleAdmin)

	maxUpload := cfg.Uploads.MaxFileSizeBytes

	api := r.Group(cfg.APIPrefix)

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.POST("/refresh", h.Auth.Refresh)
		authRoutes.POST("/forgot-password", h.Auth.ForgotPassword)
		authRoutes.POST("/reset-password", h.Auth.ResetPassword)
		authRoutes.POST("/logout", authn, h.Auth.Logout)
		authRoutes.GET("/me", authn, h.Auth.Me)
	}

	userRoutes := api.Group("/users", authn)
	{
		userRoutes.GET("", admins, h.Users.List)
		userRoutes.GET("/children", parents, h.Users.Children)
		userRoutes.GET("/streak", h.Users.Streak)
		userRoutes.PUT("/profile", h.Users.UpdateProfile)
		userRoutes.POST("/profile/picture", upload.Middleware(upload.ProfilePicture, store, maxUpload, cfg.BaseURL), h.Users.UploadProfilePicture)
		userRoutes.GET("/:id", h.Users.Get)
		userRoutes.PUT("/:id", admins, h.Users.Manage)
		userRoutes.DELETE("/:id", admins, h.Users.Delete)
	}

	courseRoutes := api.Group("/courses", authn)
	{
		courseRoutes.POST("", teachers, h.Courses.Create)
		courseRoutes.GET("", h.Courses.List)
		courseRoutes.GET("/enrolled", students, h.Courses.Enrolled)
		courseRoutes.GET("/recommended", students, h.Courses.Recommended)
		courseRoutes.GET("/progress", students, h.Courses.Progress)
		courseRoutes.GET("/:id", h.Courses.Get)
		courseRoutes.PUT("/:id", teachers, h.Courses.Update)
		courseRoutes.DELETE("/:id", teachers, h.Courses.Delete)
		courseRoutes.POST("/:id/enroll", students, h.Courses.Enroll)
		courseRoutes.POST("/:id/unenroll", students, h.Courses.Unenroll)
		courseRoutes.GET("/:id/students", teachers, h.Courses.Students)
	}

	videoRoutes := api.Group("/videos", authn)
	{
		videoRoutes.POST("/upload", teachers, upload.Middleware(upload.Video, store, maxUpload, cfg.BaseURL), h.Videos.Upload)
		videoRoutes.POST("", teachers, h.Videos.Create)
		videoRoutes.GET("", h.Videos.List)
		videoRoutes.GET("/:id", h.Videos.Get)
		videoRoutes.PUT("/:id", teachers, h.Videos.Update)
		videoRoutes.DELETE("/:id", teachers, h.Videos.Delete)
	}

	assignmentRoutes := api.Group("/assignments", authn)
	{
		assignmentRoutes.POST("", teachers, h.Assignments.Create)
		assignmentRoutes.GET("/course/:courseId", h.Assignments.ListByCourse)
		assignmentRoutes.GET("/:id", h.Assignments.Get)
		assignmentRoutes.PUT("/:id", teachers, h.Assignments.Update)
		assignmentRoutes.DELETE("/:id", teachers, h.Assignments.Delete)
		assignmentRoutes.POST("/:id/submit", students, upload.Middleware(upload.AssignmentFile, store, maxUpload, cfg.BaseURL), h.Assignments.Submit)
		assignmentRoutes.GET("/:id/submissions", teachers, h.Assignments.Submissions)
		assignmentRoutes.PUT("/submissions/:submissionId/grade", teachers, h.Assignments.Grade)
	}

	quizRoutes := api.Group("/quizzes", authn)
	{
		quizRoutes.POST("", teachers, h.Quizzes.Create)
		quizRoutes.GET("/course/:courseId", h.Quizzes.ListByCourse)
		quizRoutes.GET("/:id", h.Quizzes.Get)
		quizRoutes.DELETE("/:id", teachers, h.Quizzes.Delete)
		quizRoutes.POST("/:id/submit", students, h.Quizzes.Submit)
		quizRoutes.GET("/:id/attempts", h.Quizzes.Attempts)
	}

	streamRoutes := api.Group("/live-streams", authn)
	{
		streamRoutes.POST("", teachers, h.LiveStreams.Start)
		streamRoutes.GET("", h.LiveStreams.List)
		streamRoutes.GET("/:id", h.LiveStreams.Get)
		streamRoutes.POST("/:id/join", students, h.LiveStreams.Join)
		streamRoutes.POST("/:id/end", teachers, h.LiveStreams.End)
	}

	meetingRoutes := api.Group("/meetings", authn)
	{
		meetingRoutes.POST("", h.Meetings.Schedule)
		meetingRoutes.GET("", h.Meetings.List)
		meetingRoutes.GET("/:id", h.Meetings.Get)
		meetingRoutes.PUT("/:id", h.Meetings.Update)
		meetingRoutes.DELETE("/:id", h.Meetings.Cancel)
	}

	aiRoutes := api.Group("/ai", authn)
	{
		aiRoutes.POST("/blog", teachers, h.AI.GenerateBlog)
		aiRoutes.POST("/translate", h.AI.Translate)
		aiRoutes.POST("/transcribe", teachers, h.AI.Transcribe)
		aiRoutes.POST("/study-report", middleware.RequireRoles(models.RoleTeacher, models.RoleParent, models.RoleAdmin), h.AI.StudyReport)
		aiRoutes.GET("/reports", h.AI.Reports)
		aiRoutes.GET("/reports/:id/export", h.AI.ExportReport)
	}

	adminRoutes := api.Group("/admin", authn, admins)
	{
		adminRoutes.GET("/metrics", h.Metrics.Snapshot)
	}
}
