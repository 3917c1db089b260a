// Package services holds side-effect services the pipeline triggers after a
// merge: alert scheduling and document text extraction.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// AlertEnqueuer schedules a case-changed alert at most once per case per
// debounce window, so one ingestion run producing many writes yields one
// alert.
type AlertEnqueuer interface {
	ScheduleCaseAlert(ctx context.Context, caseID uuid.UUID, since time.Time) error
}

type alertEnqueuer struct {
	log    *logger.Logger
	rdb    *goredis.Client
	stream string
	window time.Duration
}

func NewAlertEnqueuer(log *logger.Logger, rdb *goredis.Client) (AlertEnqueuer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &alertEnqueuer{
		log:    log.With("service", "AlertEnqueuer"),
		rdb:    rdb,
		stream: "alerts.case",
		window: 5 * time.Minute,
	}, nil
}

type caseAlertEvent struct {
	CaseID uuid.UUID `json:"case_id"`
	Since  time.Time `json:"since"`
}

func (a *alertEnqueuer) ScheduleCaseAlert(ctx context.Context, caseID uuid.UUID, since time.Time) error {
	if caseID == uuid.Nil {
		return nil
	}
	// SetNX is the debounce: only the first caller inside the window
	// publishes.
	key := "alert:case:" + caseID.String()
	ok, err := a.rdb.SetNX(ctx, key, since.UTC().Format(time.RFC3339), a.window).Result()
	if err != nil {
		return fmt.Errorf("alert debounce: %w", err)
	}
	if !ok {
		return nil
	}

	raw, err := json.Marshal(caseAlertEvent{CaseID: caseID, Since: since.UTC()})
	if err != nil {
		return err
	}
	if err := a.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: a.stream,
		Values: map[string]interface{}{"event": raw},
	}).Err(); err != nil {
		return fmt.Errorf("alert publish: %w", err)
	}
	a.log.Debug("Case alert scheduled", "case_id", caseID)
	return nil
}
