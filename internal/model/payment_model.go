package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentAttachment struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubjectId       uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	Kind            string     `gorm:"type:workflow_kind;not null"`
	Amount          float64    `gorm:"type:decimal(12,2);not null"`
	Method          string     `gorm:"type:payment_method;not null"`
	ProofReference  *string    `gorm:"type:text"`
	SubStatus       string     `gorm:"type:payment_sub_status;not null;default:'pending'"`
	VerifiedBy      *uuid.UUID `gorm:"type:uuid"`
	VerifiedAt      *time.Time `gorm:""`
	RejectionReason *string    `gorm:"type:text"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (PaymentAttachment) TableName() string {
	return "payment_attachments"
}
