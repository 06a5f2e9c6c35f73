package memory

import (
	"testing"

	"hbajobs-backend/internal/store/storetest"
)

func TestFeedbackUpsertKeepsStoredRow(t *testing.T) {
	storetest.FeedbackUpsert(t, New())
}
