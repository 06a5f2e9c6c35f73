package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"hbajobs-backend/internal/models"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	StoreDriver string // "postgres" or "memory"
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// Uploaded resumes / cover letters live here and are served under UploadPublicURL.
	UploadPath      string
	UploadPublicURL string
	MaxUploadMB     int

	// Public base URL used for links inside emails.
	AppURL string

	ResendAPIKey string
	FromEmail    string
	HRMailbox    string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string

	RedisURL string

	MailWorkers       int
	MailQueueSize     int
	MailRatePerSecond float64

	// Role lists used by the admin flows.
	StatusChangeRoles []models.UserRole
	FullAccessRoles   []models.UserRole
	SchedulingRoles   []models.UserRole
	FeedbackRoles     []models.UserRole
	UserAdminRoles    []models.UserRole
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] could not read .env: %v", err)
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		StoreDriver:     getEnv("STORE_DRIVER", "postgres"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=hbajobs port=5432 sslmode=disable"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		UploadPath:      getEnv("UPLOAD_PATH", "./uploads"),
		UploadPublicURL: getEnv("UPLOAD_PUBLIC_URL", "http://localhost:8080/files"),
		MaxUploadMB:     getEnvInt("MAX_UPLOAD_MB", 10),
		AppURL:          strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromEmail:    getEnv("RESEND_FROM_EMAIL", "notifications@hbajobs.org"),
		HRMailbox:    getEnv("HR_NOTIFICATION_EMAIL", "hr@hbajobs.org"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		MailWorkers:       getEnvInt("MAIL_WORKERS", 2),
		MailQueueSize:     getEnvInt("MAIL_QUEUE_SIZE", 256),
		MailRatePerSecond: getEnvFloat("MAIL_RATE_PER_SECOND", 2),
	}
	cfg.applyRoleDefaults()

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.StoreDriver != "postgres" && cfg.StoreDriver != "memory" {
		log.Fatalf("[FATAL] STORE_DRIVER must be postgres or memory, got %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == "memory" {
		log.Println("[WARN] STORE_DRIVER=memory, data is lost on restart")
	}
	if cfg.ResendAPIKey == "" && cfg.SMTPHost == "" {
		log.Println("[WARN] RESEND_API_KEY and SMTP_HOST are empty, emails will only be logged")
	}
	if cfg.CORSOrigins == "http://localhost:3000" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS uses the local default")
	}

	return cfg
}

// applyRoleDefaults fills the role lists the admin flows check against.
func (c *Config) applyRoleDefaults() {
	if len(c.FullAccessRoles) == 0 {
		c.FullAccessRoles = []models.UserRole{models.RoleHR, models.RoleAdmin}
	}
	if len(c.StatusChangeRoles) == 0 {
		c.StatusChangeRoles = models.StaffRoles()
	}
	if len(c.SchedulingRoles) == 0 {
		c.SchedulingRoles = models.StaffRoles()
	}
	if len(c.FeedbackRoles) == 0 {
		c.FeedbackRoles = append(models.StaffRoles(), models.RoleInterviewer)
	}
	if len(c.UserAdminRoles) == 0 {
		c.UserAdminRoles = []models.UserRole{models.RoleHR, models.RoleAdmin}
	}
}

// Defaults returns a config with every non-secret field at its default, used by tests
// and tools that never touch the environment.
func Defaults() *Config {
	cfg := &Config{
		HTTPPort:          "8080",
		StoreDriver:       "memory",
		UploadPath:        "./uploads",
		UploadPublicURL:   "http://localhost:8080/files",
		MaxUploadMB:       10,
		AppURL:            "http://localhost:3000",
		FromEmail:         "notifications@hbajobs.org",
		HRMailbox:         "hr@hbajobs.org",
		MailWorkers:       1,
		MailQueueSize:     64,
		MailRatePerSecond: 0,
	}
	cfg.applyRoleDefaults()
	return cfg
}

func (c *Config) IsFullAccess(role models.UserRole) bool {
	return models.HasRole(c.FullAccessRoles, role)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] %s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[WARN] %s=%q is not a number, using %v", key, v, def)
		return def
	}
	return f
}
