package model

import (
	"time"

	"github.com/google/uuid"
)

type WorkflowInstance struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Kind            string     `gorm:"type:workflow_kind;not null;index:idx_workflow_subject,priority:1"`
	SubjectId       uuid.UUID  `gorm:"type:uuid;not null;index:idx_workflow_subject,priority:2"`
	OwnerId         uuid.UUID  `gorm:"type:uuid;not null;index"`
	State           string     `gorm:"type:varchar(50);not null;index"`
	DurationDays    int        `gorm:"default:0"`
	WindowStart     *time.Time `gorm:""`
	WindowEnd       *time.Time `gorm:"index"`
	RejectionReason *string    `gorm:"type:text"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (WorkflowInstance) TableName() string {
	return "workflow_instances"
}
