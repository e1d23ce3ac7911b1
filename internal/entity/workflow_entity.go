// FILE: internal/entity/workflow_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type WorkflowKind string
type WorkflowState string
type WorkflowAction string
type ActorRole string

const (
	KindListingPromotion WorkflowKind = "listing_promotion"
	KindAdvertisement    WorkflowKind = "advertisement"
	KindTransaction      WorkflowKind = "transaction"
)

const (
	// StateNone is the pre-creation state recorded as the origin of the
	// first transition. No persisted instance ever carries it.
	StateNone WorkflowState = "none"

	StatePendingApproval WorkflowState = "pending_approval"
	StateWaitingPayment  WorkflowState = "waiting_payment"
	StatePaymentUploaded WorkflowState = "payment_uploaded"
	StateActive          WorkflowState = "active"
	StateRejected        WorkflowState = "rejected"
	StateStopped         WorkflowState = "stopped"
	StateExpired         WorkflowState = "expired"

	StatePending    WorkflowState = "pending"
	StateConfirmed  WorkflowState = "confirmed"
	StateInProgress WorkflowState = "in_progress"
	StateCompleted  WorkflowState = "completed"
	StateCancelled  WorkflowState = "cancelled"
)

const (
	ActionRequest       WorkflowAction = "request"
	ActionApprove       WorkflowAction = "approve"
	ActionReject        WorkflowAction = "reject"
	ActionUploadProof   WorkflowAction = "upload_proof"
	ActionVerifyPayment WorkflowAction = "verify_payment"
	ActionRejectPayment WorkflowAction = "reject_payment"
	ActionStop          WorkflowAction = "stop"
	ActionExpire        WorkflowAction = "expire"
	ActionConfirm       WorkflowAction = "confirm"
	ActionStart         WorkflowAction = "start"
	ActionComplete      WorkflowAction = "complete"
	ActionCancel        WorkflowAction = "cancel"
)

const (
	RoleProvider ActorRole = "provider"
	RoleCustomer ActorRole = "customer"
	RoleAdmin    ActorRole = "admin"
	RoleSystem   ActorRole = "system"
)

// Actor is the authenticated principal a transition is attempted by.
type Actor struct {
	Id   uuid.UUID
	Role ActorRole
}

// SystemActor is used by background processes (expiry sweeps).
var SystemActor = Actor{Id: uuid.Nil, Role: RoleSystem}

// WorkflowInstance is one moderated lifecycle run attached to a listing
// promotion, an advertisement, or a transaction.
type WorkflowInstance struct {
	Id              uuid.UUID
	Kind            WorkflowKind
	SubjectId       uuid.UUID
	OwnerId         uuid.UUID
	State           WorkflowState
	DurationDays    int
	WindowStart     *time.Time
	WindowEnd       *time.Time
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasActiveWindow reports whether the instance currently carries its
// active window. The window is set exactly when the active state is
// entered and cleared when it is left.
func (w *WorkflowInstance) HasActiveWindow() bool {
	return w.WindowStart != nil && w.WindowEnd != nil
}
