package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hbajobs-backend/internal/applications"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/dashboard"
	"hbajobs-backend/internal/database"
	"hbajobs-backend/internal/emails"
	"hbajobs-backend/internal/history"
	"hbajobs-backend/internal/intake"
	"hbajobs-backend/internal/interview"
	"hbajobs-backend/internal/jobs"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/notify"
	"hbajobs-backend/internal/offers"
	"hbajobs-backend/internal/pipeline"
	"hbajobs-backend/internal/ratelimit"
	"hbajobs-backend/internal/storage"
	"hbajobs-backend/internal/store"
	"hbajobs-backend/internal/store/memory"
	"hbajobs-backend/internal/store/postgres"
	"hbajobs-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var st store.Store
	if cfg.StoreDriver == "memory" {
		st = memory.New()
	} else {
		st = postgres.New(database.Init(cfg))
	}

	files := storage.NewLocal(cfg.UploadPath, cfg.UploadPublicURL)

	redisClient, err := ratelimit.Connect(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Printf("[WARN] redis unavailable, rate limiting in-process: %v", err)
		redisClient = nil
	}

	provider := notify.ProviderFor(cfg.ResendAPIKey, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	dispatcher := notify.NewDispatcher(provider, cfg.FromEmail, cfg.AppURL)
	mailer, err := notify.NewWorker(dispatcher, notify.NewStoreSink(st, logger), logger,
		notify.WithConcurrency(cfg.MailWorkers),
		notify.WithQueueSize(cfg.MailQueueSize),
		notify.WithRate(cfg.MailRatePerSecond),
	)
	if err != nil {
		log.Fatalf("[FATAL] notification worker: %v", err)
	}
	if err := mailer.Start(context.Background()); err != nil {
		log.Fatalf("[FATAL] notification worker: %v", err)
	}

	pipelineSvc := pipeline.NewService(cfg, st, mailer)
	intakeSvc := intake.NewService(cfg, st, files, mailer)
	interviewSvc := interview.NewService(cfg, st)
	jobSvc := jobs.NewService(cfg, st)
	applicationSvc := applications.NewService(cfg, st)
	offerSvc := offers.NewService(cfg, st)
	dashboardSvc := dashboard.NewService(cfg, st)

	app := fiber.New(fiber.Config{
		BodyLimit: (2*cfg.MaxUploadMB + 1) * 1024 * 1024, // resume + cover letter
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("[ERROR] unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		},
	})

	app.Use(recover.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Static("/files", cfg.UploadPath)

	api := app.Group("/api")

	// Public
	api.Post("/auth/register", ratelimit.PerIP(redisClient, "register", 10, time.Hour), auth.RegisterHandler(cfg, st, mailer))
	api.Post("/auth/verify-email", ratelimit.PerIP(redisClient, "verify", 20, time.Hour), auth.VerifyEmailHandler(cfg, st))
	api.Post("/auth/bootstrap", auth.BootstrapAdminHandler(st))
	api.Post("/auth/login", ratelimit.PerIP(redisClient, "login", 20, 15*time.Minute), auth.LoginHandler(cfg, st))

	api.Get("/jobs", jobs.ListPublicHandler(jobSvc))
	api.Get("/jobs/:id", jobs.GetPublicHandler(jobSvc))
	api.Post("/jobs/:id/apply", ratelimit.PerIP(redisClient, "apply", 5, time.Hour), intake.SubmitHandler(intakeSvc, cfg.MaxUploadMB))

	// Authenticated
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(st))
	protected.Post("/auth/resend-verification", auth.ResendVerificationHandler(cfg, st, mailer))
	protected.Get("/me/applications", applications.ListMineHandler(applicationSvc))
	protected.Get("/me/applications/:id", applications.GetMineHandler(applicationSvc))
	protected.Post("/emails/application-submitted", emails.ApplicationSubmittedHandler(cfg, st, mailer))

	// Interviewers are not staff but may read and review the interviews they sit on.
	reviewer := auth.RequireRole(cfg.FeedbackRoles...)
	protected.Get("/interviews/:id", reviewer, interview.GetHandler(interviewSvc))
	protected.Post("/interviews/:id/feedback", reviewer, interview.FeedbackHandler(interviewSvc))

	// Staff
	staff := protected.Group("")
	staff.Use(auth.RequireRole(models.StaffRoles()...))

	staff.Post("/applications/:id/status", pipeline.ChangeStatusHandler(pipelineSvc))
	staff.Get("/applications/:id/history", history.ListHandler(cfg, st))
	staff.Get("/applications/:id/interviews", interview.ListForApplicationHandler(interviewSvc))
	staff.Post("/interviews", interview.ScheduleHandler(interviewSvc))
	staff.Put("/interviews/:id/status", interview.UpdateStatusHandler(interviewSvc))
	staff.Post("/emails/interview-scheduled", emails.InterviewScheduledHandler(mailer))

	adminRoutes := staff.Group("/admin")

	adminRoutes.Get("/dashboard", dashboard.StatsHandler(dashboardSvc))
	adminRoutes.Get("/dashboard/chart", dashboard.ChartHandler(dashboardSvc))

	adminRoutes.Get("/jobs", jobs.ListAdminHandler(jobSvc))
	adminRoutes.Post("/jobs", jobs.CreateHandler(jobSvc))
	adminRoutes.Get("/jobs/:id", jobs.GetAdminHandler(jobSvc))
	adminRoutes.Put("/jobs/:id", jobs.UpdateHandler(jobSvc))
	adminRoutes.Post("/jobs/:id/status", jobs.SetStatusHandler(jobSvc))
	adminRoutes.Get("/jobs/:id/applications", applications.ListForJobHandler(applicationSvc))

	adminRoutes.Get("/applications/export", applications.ExportHandler(applicationSvc))
	adminRoutes.Get("/applications/:id", applications.GetHandler(applicationSvc))
	adminRoutes.Put("/applications/:id/notes", applications.UpdateNotesHandler(applicationSvc))

	adminRoutes.Get("/applications/:id/offers", offers.ListOffersHandler(offerSvc))
	adminRoutes.Post("/applications/:id/offers", offers.CreateOfferHandler(offerSvc))
	adminRoutes.Put("/offers/:id", offers.UpdateOfferHandler(offerSvc))
	adminRoutes.Get("/applications/:id/hires", offers.ListHiresHandler(offerSvc))
	adminRoutes.Post("/applications/:id/hires", offers.CreateHireHandler(offerSvc))
	adminRoutes.Put("/hires/:id", offers.UpdateHireHandler(offerSvc))

	// HR / Admin only
	hrRoutes := adminRoutes.Group("")
	hrRoutes.Use(auth.RequireRole(cfg.UserAdminRoles...))

	hrRoutes.Post("/users", users.CreateUserHandler(st))
	hrRoutes.Get("/users", users.ListUsersHandler(st))
	hrRoutes.Put("/users/:id", users.UpdateUserHandler(st))
	hrRoutes.Get("/notification-failures", notify.ListFailuresHandler(st))

	go func() {
		log.Printf("[INFO] listening on :%s", cfg.HTTPPort)
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatalf("[FATAL] server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("[INFO] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	if err := mailer.Stop(ctx); err != nil {
		log.Printf("[WARN] mail queue not drained: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
