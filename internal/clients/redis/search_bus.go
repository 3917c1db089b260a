package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// SearchBus notifies the search indexer that a case or document changed.
// Consumers of the stream are external to this service.
type SearchBus interface {
	NotifyCaseChanged(ctx context.Context, caseID uuid.UUID) error
	NotifyDocumentChanged(ctx context.Context, documentID uuid.UUID) error
}

type searchBus struct {
	log    *logger.Logger
	rdb    *goredis.Client
	stream string
}

func NewSearchBus(log *logger.Logger, rdb *goredis.Client) (SearchBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	stream := strings.TrimSpace(os.Getenv("SEARCH_REINDEX_STREAM"))
	if stream == "" {
		stream = "search.reindex"
	}
	return &searchBus{
		log:    log.With("service", "SearchBus"),
		rdb:    rdb,
		stream: stream,
	}, nil
}

type reindexEvent struct {
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	At         time.Time `json:"at"`
}

func (b *searchBus) publish(ctx context.Context, entityType string, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	raw, err := json.Marshal(reindexEvent{EntityType: entityType, EntityID: id, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return b.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: b.stream,
		Values: map[string]interface{}{"event": raw},
	}).Err()
}

func (b *searchBus) NotifyCaseChanged(ctx context.Context, caseID uuid.UUID) error {
	return b.publish(ctx, "case", caseID)
}

func (b *searchBus) NotifyDocumentChanged(ctx context.Context, documentID uuid.UUID) error {
	return b.publish(ctx, "document", documentID)
}
