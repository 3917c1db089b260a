package queue

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WorkTask statuses. Queue-item statuses stay on the queue rows; these only
// drive scheduling.
const (
	TaskQueued    = "queued"
	TaskRunning   = "running"
	TaskSucceeded = "succeeded"
	TaskFailed    = "failed"
)

// Queue kinds a WorkTask may reference.
const (
	QueueKindProcessing = "processing"
	QueueKindFetch      = "fetch"
)

// WorkTask is one schedulable pipeline step. Tasks are claimed with SKIP
// LOCKED; Attempts is incremented at claim time. Chain holds the remaining
// step types of an ordered task chain; Payload carries the continuation value
// produced by the previous step.
type WorkTask struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TaskType    string    `gorm:"column:task_type;not null;index" json:"task_type"`
	QueueKind   string    `gorm:"column:queue_kind;not null" json:"queue_kind"`
	QueueItemID uuid.UUID `gorm:"type:uuid;column:queue_item_id;not null;index" json:"queue_item_id"`

	Status      string     `gorm:"column:status;not null;default:'queued';index" json:"status"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	MaxAttempts int        `gorm:"column:max_attempts;not null;default:1" json:"max_attempts"`
	NotBefore   *time.Time `gorm:"column:not_before;index" json:"not_before,omitempty"`

	Chain   datatypes.JSON `gorm:"column:chain;type:jsonb" json:"chain"`
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Result  datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`
	Error   string         `gorm:"column:error;type:text" json:"error,omitempty"`

	LockedAt    *time.Time `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WorkTask) TableName() string { return "work_task" }
