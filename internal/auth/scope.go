package auth

import (
	"context"
	"errors"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
)

// RequireJobScope passes for full-access roles. Any other actor must be the
// designated hiring manager of the job posting.
func RequireJobScope(ctx context.Context, cfg *config.Config, jobs store.JobStore, actor Actor, jobPostingID uuid.UUID) error {
	if cfg.IsFullAccess(actor.Role) {
		return nil
	}
	job, err := jobs.GetJobPosting(ctx, jobPostingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Forbidden("not allowed to manage this job posting")
		}
		return apperr.Wrap(apperr.CodeInternal, "could not load job posting", err)
	}
	if !job.IsHiringManager(actor.UserID) {
		return apperr.Forbidden("not allowed to manage this job posting")
	}
	return nil
}
