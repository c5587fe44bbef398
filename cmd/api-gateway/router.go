package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/handler"
	"github.com/noah-isme/campus-placement-api/internal/middleware"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	"github.com/noah-isme/campus-placement-api/internal/service"
	"github.com/noah-isme/campus-placement-api/pkg/config"
	"github.com/noah-isme/campus-placement-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-placement-api/pkg/middleware/requestid"
)

// routeDeps groups everything the route table needs.
type routeDeps struct {
	Authenticator *service.HybridAuthenticator
	Metrics       *service.MetricsService
	Audit         *service.AuditService
	Internships   *repository.DualInternshipRepository

	Auth          *handler.AuthHandler
	Students      *handler.StudentHandler
	Internship    *handler.InternshipHandler
	Applications  *handler.ApplicationHandler
	IPP           *handler.IPPHandler
	Notifications *handler.NotificationHandler
	Calendar      *handler.CalendarHandler
	Analytics     *handler.AnalyticsHandler
	AuditLogs     *handler.AuditHandler
	Health        *handler.MetricsHandler
}

var (
	admin     = models.RoleAdmin
	student   = models.RoleStudent
	mentor    = models.RoleMentor
	recruiter = models.RoleRecruiter
)

func newRouter(cfg *config.Config, logr *zap.Logger, d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", d.Health.Health)
	r.GET("/ready", d.Health.Ready)
	r.GET("/metrics", d.Health.Prometheus)
	r.GET("/certificates/:token", d.IPP.SignedCertificate)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := middleware.Auth(d.Authenticator)
	optional := middleware.OptionalAuth(d.Authenticator)
	authorize := middleware.Authorize
	audit := func(action string) gin.HandlerFunc { return middleware.AdminAudit(d.Audit, action) }

	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.Auth.Register)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.GET("/profile", auth, d.Auth.Profile)
	authGroup.GET("/me", auth, d.Auth.Profile)
	authGroup.POST("/logout", auth, d.Auth.Logout)
	authGroup.GET("/verify", auth, d.Auth.Verify)

	students := api.Group("/students", auth)
	students.POST("", authorize(admin), d.Students.Create)
	students.GET("", authorize(admin, mentor, recruiter), d.Students.List)
	students.GET("/profile", authorize(student), d.Students.Profile)
	students.PUT("/profile", authorize(student), d.Students.UpdateProfile)
	students.GET("/directory", authorize(admin, recruiter, mentor), d.Students.Directory)
	students.GET("/:id", authorize(admin, recruiter, mentor), d.Students.Get)

	internships := api.Group("/internships")
	internships.GET("", optional, d.Internship.List)
	internships.GET("/my-postings", auth, authorize(recruiter), d.Internship.MyPostings)
	internships.GET("/pending", auth, authorize(admin), d.Internship.Pending)
	internships.GET("/stats/overview", auth, authorize(admin), d.Internship.Stats)
	internships.GET("/:id", optional, d.Internship.Get)
	internships.POST("", auth, authorize(admin), d.Internship.Create)
	internships.POST("/submit", auth, authorize(recruiter), d.Internship.Submit)
	internships.PUT("/:id/approve", auth, authorize(admin), d.Internship.Approve)
	internships.PUT("/:id/reject", auth, authorize(admin), d.Internship.Reject)
	internships.PUT("/:id", auth, authorize(admin, recruiter), middleware.InternshipOwnership(d.Internships), d.Internship.Update)
	internships.DELETE("/:id", auth, authorize(admin, recruiter), middleware.InternshipOwnership(d.Internships), d.Internship.Delete)

	applications := api.Group("/applications", auth)
	applications.POST("", authorize(student), d.Applications.Apply)
	applications.GET("", d.Applications.List)
	applications.GET("/pending/mentor", authorize(mentor), d.Applications.PendingForMentor)
	applications.GET("/analytics/overview", authorize(admin), d.Applications.Analytics)
	applications.GET("/export", authorize(admin), d.Applications.Export)
	applications.GET("/:id", d.Applications.Get)
	applications.PUT("/:id/status", authorize(mentor, admin, recruiter), d.Applications.UpdateStatus)
	applications.DELETE("/:id", authorize(student), d.Applications.Withdraw)

	ipp := api.Group("/ipp")
	ipp.GET("/public/:id", d.IPP.GetPublic)
	ipp.GET("/certificate/:certificateId", d.IPP.Certificate)
	ipp.PUT("/:id/company-evaluation", d.IPP.SubmitCompanyEvaluation)
	ipp.POST("/create", auth, d.IPP.Create)
	ipp.GET("", auth, authorize(admin, mentor), d.IPP.List)
	ipp.GET("/student/:studentId", auth, d.IPP.ListByStudent)
	ipp.GET("/:id", auth, d.IPP.Get)
	ipp.POST("/:id/send-evaluation-request", auth, d.IPP.SendEvaluationRequest)
	ipp.PUT("/:id/student-submission", auth, d.IPP.SubmitStudentSubmission)
	ipp.PUT("/:id/faculty-assessment", auth, authorize(mentor, admin), d.IPP.SubmitFacultyAssessment)
	ipp.POST("/:id/verify", auth, authorize(admin), d.IPP.Publish)
	ipp.PUT("/:id/skill-assessment", auth, d.IPP.UpdateSkillAssessment)
	ipp.POST("/:id/upload-document", auth, d.IPP.UploadDocument)

	notifications := api.Group("/notifications", auth)
	notifications.GET("/status", authorize(admin), d.Notifications.Status)
	notifications.GET("/stats", authorize(admin), d.Notifications.Stats)
	notifications.POST("/test", authorize(admin), d.Notifications.SendTest)
	notifications.GET("/scheduled", authorize(admin), d.Notifications.Scheduled)
	notifications.POST("/process", authorize(admin), audit(models.AuditActionProcessQueue), d.Notifications.Process)
	notifications.GET("/my-notifications", d.Notifications.Mine)
	notifications.POST("", d.Notifications.Create)
	notifications.GET("", d.Notifications.List)
	notifications.POST("/:id/cancel", audit(models.AuditActionCancelNotice), d.Notifications.Cancel)

	calendar := api.Group("/calendar", auth)
	calendar.GET("/events", d.Calendar.Events)
	calendar.POST("/faculty-events", authorize(mentor, admin), d.Calendar.CreateFacultyEvent)
	calendar.DELETE("/faculty-events/:id", authorize(mentor, admin), d.Calendar.DeleteFacultyEvent)
	calendar.POST("/student-events", authorize(student), d.Calendar.CreateStudentEvent)
	calendar.DELETE("/student-events/:id", authorize(student), d.Calendar.DeleteStudentEvent)
	calendar.GET("/summary", d.Calendar.Summary)
	calendar.POST("/availability", d.Calendar.SaveAvailability)
	calendar.GET("/availability/:userId", d.Calendar.GetAvailability)
	calendar.GET("/export/ics", d.Calendar.ExportICS)

	analytics := api.Group("/analytics", auth, authorize(admin))
	analytics.GET("/dashboard", d.Analytics.Dashboard)
	analytics.GET("/system", d.Analytics.System)

	api.GET("/audit-logs", auth, authorize(admin), d.AuditLogs.List)

	return r
}
