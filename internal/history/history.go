// Package history records application status transitions. Entries are only
// ever appended; nothing in the codebase edits or deletes them.
package history

import (
	"context"
	"fmt"
	"strings"

	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
)

type Entry struct {
	ApplicationID uuid.UUID
	From          *models.ApplicationStatus // nil only for the creation entry
	To            models.ApplicationStatus
	ChangedBy     *uuid.UUID
	Comment       string
}

// Append writes one history row. An empty comment is stored as NULL.
func Append(ctx context.Context, st store.HistoryStore, e Entry) (*models.StageHistory, error) {
	row := &models.StageHistory{
		ApplicationID: e.ApplicationID,
		FromStatus:    e.From,
		ToStatus:      e.To,
		ChangedBy:     e.ChangedBy,
	}
	if c := strings.TrimSpace(e.Comment); c != "" {
		row.Comment = &c
	}
	if err := st.AppendHistory(ctx, row); err != nil {
		return nil, fmt.Errorf("could not write stage history: %w", err)
	}
	return row, nil
}

// Created is the first entry of every application.
func Created(applicationID uuid.UUID, status models.ApplicationStatus, comment string) Entry {
	return Entry{ApplicationID: applicationID, To: status, Comment: comment}
}
