package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/casepulse/casepulse-backend/internal/domain"
)

// SeedProcessingItem inserts a minimal enqueued upload row for tests that
// need a queue item to hang tasks off.
func SeedProcessingItem(tb testing.TB, tx *gorm.DB) *types.ProcessingQueueItem {
	tb.Helper()
	item := &types.ProcessingQueueItem{
		UploaderID: uuid.New(),
		CourtID:    "txed",
		UploadType: types.UploadCaseDocket,
		Status:     types.StatusEnqueued,
	}
	if err := tx.Create(item).Error; err != nil {
		tb.Fatalf("seed processing queue item: %v", err)
	}
	return item
}
