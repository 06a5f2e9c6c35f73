package database

import (
	"log"

	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// foreignKey is a constraint AutoMigrate does not create for us because the
// models carry plain uuid columns rather than association fields.
type foreignKey struct {
	table    string
	name     string
	column   string
	refTable string
	onDelete string
}

var foreignKeys = []foreignKey{
	{"job_postings", "fk_job_postings_hiring_manager", "hiring_manager_id", "users", "SET NULL"},
	{"job_postings", "fk_job_postings_created_by", "created_by", "users", "SET NULL"},
	{"applications", "fk_applications_job_posting", "job_posting_id", "job_postings", "RESTRICT"},
	{"applications", "fk_applications_applicant", "applicant_id", "applicants", "RESTRICT"},
	{"application_answers", "fk_application_answers_application", "application_id", "applications", "CASCADE"},
	{"application_stage_history", "fk_stage_history_application", "application_id", "applications", "CASCADE"},
	{"interviews", "fk_interviews_application", "application_id", "applications", "CASCADE"},
	{"interview_participants", "fk_interview_participants_interview", "interview_id", "interviews", "CASCADE"},
	{"interview_participants", "fk_interview_participants_user", "user_id", "users", "CASCADE"},
	{"interview_feedback", "fk_interview_feedback_interview", "interview_id", "interviews", "CASCADE"},
	{"interview_feedback", "fk_interview_feedback_reviewer", "reviewer_id", "users", "RESTRICT"},
	{"offers", "fk_offers_application", "application_id", "applications", "CASCADE"},
	{"hires", "fk_hires_application", "application_id", "applications", "CASCADE"},
}

func Init(cfg *config.Config) *gorm.DB {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("[FATAL] could not connect to database: %v", err)
	}

	// Older deployments stored the applicant email as typed. Normalise before the
	// unique index is (re)built so mixed-case duplicates surface here, not at runtime.
	if DB.Migrator().HasTable(&models.Applicant{}) {
		res := DB.Exec("UPDATE applicants SET email = lower(trim(email)) WHERE email <> lower(trim(email))")
		if res.Error != nil {
			log.Printf("[WARN] applicant email normalisation failed: %v", res.Error)
		} else if res.RowsAffected > 0 {
			log.Printf("[INFO] normalised %d applicant emails", res.RowsAffected)
		}
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.JobPosting{},
		&models.Applicant{},
		&models.Application{},
		&models.ApplicationAnswer{},
		&models.StageHistory{},
		&models.Interview{},
		&models.InterviewParticipant{},
		&models.InterviewFeedback{},
		&models.Offer{},
		&models.Hire{},
		&models.NotificationFailure{},
	)
	if err != nil {
		log.Fatalf("[FATAL] AutoMigrate failed: %v", err)
	}

	for _, fk := range foreignKeys {
		ensureForeignKey(DB, fk)
	}

	// Listing queries filter by status and sort by recency.
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_applications_job_status ON applications(job_posting_id, status)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_stage_history_app_changed ON application_stage_history(application_id, changed_at DESC)")

	log.Println("[INFO] database migrations complete")
	return DB
}

func ensureForeignKey(db *gorm.DB, fk foreignKey) {
	var exists bool
	db.Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.table_constraints
			WHERE table_name = ?
			AND constraint_name = ?
		)
	`, fk.table, fk.name).Scan(&exists)
	if exists {
		return
	}

	log.Printf("[INFO] adding foreign key %s", fk.name)
	sql := "ALTER TABLE " + fk.table +
		" ADD CONSTRAINT " + fk.name +
		" FOREIGN KEY (" + fk.column + ") REFERENCES " + fk.refTable + "(id) ON DELETE " + fk.onDelete
	if err := db.Exec(sql).Error; err != nil {
		log.Printf("[WARN] could not add foreign key %s: %v", fk.name, err)
	}
}
