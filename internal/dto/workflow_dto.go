package dto

import (
	"time"

	"github.com/google/uuid"
)

type RequestWorkflowRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required,oneof=transfer cod"`
	Days   int     `json:"days" validate:"omitempty,gt=0,lte=90"`
}

type TransitionRequest struct {
	Reason string `json:"reason"`
}

// RejectRequest requires a reason so the owner always learns why the
// cycle ended.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type UploadProofRequest struct {
	ProofReference string `json:"proof_reference" validate:"required"`
}

type WorkflowResponse struct {
	Id              uuid.UUID  `json:"id"`
	Kind            string     `json:"kind"`
	SubjectId       uuid.UUID  `json:"subject_id"`
	OwnerId         uuid.UUID  `json:"owner_id"`
	State           string     `json:"state"`
	DurationDays    int        `json:"duration_days"`
	WindowStart     *time.Time `json:"window_start"`
	WindowEnd       *time.Time `json:"window_end"`
	RejectionReason *string    `json:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type PaymentResponse struct {
	Id              uuid.UUID  `json:"id"`
	SubjectId       uuid.UUID  `json:"subject_id"`
	Amount          float64    `json:"amount"`
	Method          string     `json:"method"`
	ProofReference  *string    `json:"proof_reference"`
	SubStatus       string     `json:"sub_status"`
	VerifiedBy      *uuid.UUID `json:"verified_by"`
	VerifiedAt      *time.Time `json:"verified_at"`
	RejectionReason *string    `json:"rejection_reason"`
}

type TransitionRecordResponse struct {
	Id        uuid.UUID              `json:"id"`
	FromState string                 `json:"from_state"`
	ToState   string                 `json:"to_state"`
	Action    string                 `json:"action"`
	ActorId   uuid.UUID              `json:"actor_id"`
	ActorRole string                 `json:"actor_role"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// WorkflowDetailResponse is the full picture of one cycle: the instance,
// its payment attachment and the append-only transition history.
type WorkflowDetailResponse struct {
	Workflow WorkflowResponse           `json:"workflow"`
	Payment  *PaymentResponse           `json:"payment"`
	History  []TransitionRecordResponse `json:"history"`
}

// PublishTransitionMessage rides the in-process bus after every committed
// transition, the consumer forwards it to the event stream.
type PublishTransitionMessage struct {
	InstanceId uuid.UUID `json:"instance_id"`
	Kind       string    `json:"kind"`
	SubjectId  uuid.UUID `json:"subject_id"`
	ToState    string    `json:"to_state"`
	Action     string    `json:"action"`
}

type ListWorkflowsResponse struct {
	Workflows []WorkflowResponse `json:"workflows"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}
