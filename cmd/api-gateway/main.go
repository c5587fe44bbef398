package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-placement-api/api/swagger"
	"github.com/noah-isme/campus-placement-api/internal/handler"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	"github.com/noah-isme/campus-placement-api/internal/service"
	"github.com/noah-isme/campus-placement-api/pkg/cache"
	"github.com/noah-isme/campus-placement-api/pkg/config"
	"github.com/noah-isme/campus-placement-api/pkg/database"
	"github.com/noah-isme/campus-placement-api/pkg/events"
	"github.com/noah-isme/campus-placement-api/pkg/export"
	"github.com/noah-isme/campus-placement-api/pkg/identity"
	"github.com/noah-isme/campus-placement-api/pkg/logger"
	"github.com/noah-isme/campus-placement-api/pkg/mailer"
	"github.com/noah-isme/campus-placement-api/pkg/storage"
)

// @title Campus Placement API
// @version 1.0.0
// @description Internship placement portal: postings, applications, passports and calendars.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	db, err := database.NewPostgres(cfg.Database)
	if db == nil {
		logr.Fatal("failed to open postgres", zap.Error(err))
	}
	if err != nil {
		logr.Warn("postgres unavailable, serving from JSON mirror", zap.Error(err))
	}
	defer db.Close()

	monitor := database.NewMonitor(db, cfg.Database.HealthInterval, logr)
	monitor.OnChange(metrics.ObserveAvailability)
	metrics.TrackAvailability(monitor)
	monitor.Check(ctx)
	monitor.Start(ctx)
	defer monitor.Stop()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Cache)
	if err != nil {
		logr.Warn("redis unavailable, cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	var publisher events.Publisher = events.Noop{}
	if cfg.NATS.URL != "" {
		natsPublisher, closeNATS, err := events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logr)
		if err != nil {
			logr.Warn("nats unavailable, domain events disabled", zap.Error(err))
		} else {
			publisher = natsPublisher
			defer closeNATS()
		}
	}

	validate := validator.New()

	// repositories
	studentsDB := repository.NewStudentRepository(db)
	students := repository.NewDualStudentRepository(studentsDB, cfg.DataDir, monitor, metrics, logr)
	principals := repository.NewPrincipalRepository(studentsDB, repository.NewStaffRepository(db), cfg.DataDir, monitor, metrics, logr)
	internships := repository.NewDualInternshipRepository(repository.NewInternshipRepository(db), cfg.DataDir, monitor, metrics, logr)
	applications := repository.NewDualApplicationRepository(repository.NewApplicationRepository(db), cfg.DataDir, monitor, metrics, logr)
	ipps := repository.NewDualIPPRepository(repository.NewIPPRepository(db), cfg.DataDir, monitor, metrics, logr)
	notifications := repository.NewDualNotificationRepository(repository.NewNotificationRepository(db), cfg.DataDir, monitor, metrics, logr)
	audits := repository.NewDualAuditRepository(repository.NewAuditRepository(db), cfg.DataDir, monitor, metrics, logr)
	calendars := repository.NewDualCalendarRepository(repository.NewCalendarRepository(db), cfg.DataDir, monitor, metrics, logr)

	// authentication
	var directory identity.UserDirectory
	if cfg.Clerk.SecretKey != "" {
		directory = identity.NewClient(ctx, cfg.Clerk.APIURL, cfg.Clerk.SecretKey, nil)
	}
	allocator := service.NewStudentIDAllocator(students)
	resolver := service.NewUserResolver(principals, students, allocator, directory, logr)
	classifier := service.NewAuthClassifier(service.AuthClassifierConfig{
		NewTemplate:    cfg.Clerk.NewTemplate,
		LegacyTemplate: cfg.Clerk.LegacyTemplate,
		NewAudience:    cfg.Clerk.NewAudience,
		LegacyAudience: cfg.Clerk.LegacyAudience,
		Issuer:         cfg.Clerk.Issuer,
	})
	verifier := service.NewCredentialVerifier(service.CredentialVerifierConfig{
		JWTSecret:      cfg.JWT.Secret,
		NewAudience:    cfg.Clerk.NewAudience,
		LegacyAudience: cfg.Clerk.LegacyAudience,
		Issuer:         cfg.Clerk.Issuer,
		ClockSkew:      cfg.Clerk.ClockSkew,
	}, identity.NewVerifier(ctx, cfg.Clerk.JWKSURL, nil))
	authenticator := service.NewHybridAuthenticator(classifier, verifier, resolver, metrics, logr)

	// services
	auditSvc := service.NewAuditService(audits, logr)
	scheduler := service.NewNotificationScheduler(notifications, logr)
	authSvc := service.NewAuthService(principals, students, allocator, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
	})
	studentSvc := service.NewStudentService(students, allocator, applications, validate, logr)
	internshipSvc := service.NewInternshipService(internships, students, applications, principals, scheduler, auditSvc, cacheSvc, publisher, validate, logr)
	applicationSvc := service.NewApplicationService(applications, internships, students, principals, scheduler, cacheSvc, publisher, validate, logr)
	calendarSvc := service.NewCalendarService(calendars, applications, internships, students, validate, logr)
	notificationSvc := service.NewNotificationService(notifications, scheduler, mailer.NewWeb3Forms(cfg.Mail, nil, logr), publisher, metrics, cacheSvc, validate, logr, service.NotificationServiceConfig{
		Interval:  cfg.Notifications.Interval,
		BatchSize: cfg.Notifications.BatchSize,
		Workers:   cfg.Notifications.Workers,
		Retries:   cfg.Notifications.Retries,
		Retention: cfg.Notifications.Retention,
		FromName:  cfg.Mail.FromName,
		ReplyTo:   cfg.Mail.ReplyTo,
	})
	analyticsSvc := service.NewAnalyticsService(students, internships, applications, ipps, cacheSvc, metrics, logr)

	certificates, err := storage.NewLocalStorage(cfg.Certificates.StorageDir, cfg.URLs.PublicAPI+"/certificates/files")
	if err != nil {
		logr.Fatal("failed to prepare certificate storage", zap.Error(err))
	}
	ippDeps := service.IPPDependencies{
		Repo:         ipps,
		Applications: applications,
		Internships:  internships,
		Students:     students,
		Renderer:     export.NewCertificateRenderer(),
		Certificates: certificates,
		Signer:       storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL),
		Documents:    certificates,
		Scheduler:    scheduler,
		Audit:        auditSvc,
		Publisher:    publisher,
		Metrics:      metrics,
		Validator:    validate,
		Logger:       logr,
	}
	if cfg.Cloudinary.Enabled() {
		uploader, err := storage.NewCloudinaryUploader(cfg.Cloudinary, logr)
		if err != nil {
			logr.Warn("cloudinary unavailable, keeping uploads on disk", zap.Error(err))
		} else {
			ippDeps.Documents = uploader
			ippDeps.CertificateUploader = uploader
		}
	}
	ippSvc := service.NewIPPService(ippDeps, service.IPPServiceConfig{
		RequireFacultyApproval: cfg.IPP.RequireFacultyApproval,
		MagicLinkTTL:           cfg.IPP.MagicLinkTTL,
		SuperAdminURL:          cfg.URLs.SuperAdmin,
		FrontendURL:            cfg.URLs.Frontend,
		CertificateBaseURL:     cfg.URLs.PublicAPI,
		MaxUploadBytes:         cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:           cfg.Uploads.AllowedMIMEs,
	})

	if cfg.Notifications.Enabled {
		notificationSvc.Start(ctx)
		defer notificationSvc.Stop()
	}

	router := newRouter(cfg, logr, routeDeps{
		Authenticator: authenticator,
		Metrics:       metrics,
		Audit:         auditSvc,
		Internships:   internships,
		Auth:          handler.NewAuthHandler(authSvc),
		Students:      handler.NewStudentHandler(studentSvc),
		Internship:    handler.NewInternshipHandler(internshipSvc),
		Applications:  handler.NewApplicationHandler(applicationSvc),
		IPP:           handler.NewIPPHandler(ippSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Calendar:      handler.NewCalendarHandler(calendarSvc),
		Analytics:     handler.NewAnalyticsHandler(analyticsSvc),
		AuditLogs:     handler.NewAuditHandler(auditSvc),
		Health:        handler.NewMetricsHandler(metrics, monitor),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "database", monitor.Available())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
