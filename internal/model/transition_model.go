package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TransitionRecord rows are append-only, there is no update or delete path.
type TransitionRecord struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InstanceId uuid.UUID      `gorm:"type:uuid;not null;index:idx_transition_instance,priority:1"`
	FromState  string         `gorm:"type:varchar(50);not null"`
	ToState    string         `gorm:"type:varchar(50);not null"`
	Action     string         `gorm:"type:varchar(50);not null"`
	ActorId    uuid.UUID      `gorm:"type:uuid;not null"`
	ActorRole  string         `gorm:"type:varchar(20);not null"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index:idx_transition_instance,priority:2"`
}

func (TransitionRecord) TableName() string {
	return "transition_records"
}
