// FILE: internal/entity/payment_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string
type PaymentSubStatus string

const (
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCOD      PaymentMethod = "cod"

	PaymentSubStatusPending  PaymentSubStatus = "pending"
	PaymentSubStatusVerified PaymentSubStatus = "verified"
	PaymentSubStatusRejected PaymentSubStatus = "rejected"
)

// PaymentAttachment is the single payment record for a subject. At most
// one row exists per SubjectId; a resubmission after a rejected cycle
// overwrites the row instead of inserting a second one.
type PaymentAttachment struct {
	Id              uuid.UUID
	SubjectId       uuid.UUID
	Kind            WorkflowKind
	Amount          float64
	Method          PaymentMethod
	ProofReference  *string
	SubStatus       PaymentSubStatus
	VerifiedBy      *uuid.UUID
	VerifiedAt      *time.Time
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
