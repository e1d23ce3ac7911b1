// FILE: internal/entity/transition_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

// TransitionRecord is one line of the append-only audit trail. Records are
// never updated or deleted.
type TransitionRecord struct {
	Id         uuid.UUID
	InstanceId uuid.UUID
	FromState  WorkflowState
	ToState    WorkflowState
	Action     WorkflowAction
	ActorId    uuid.UUID
	ActorRole  ActorRole
	Metadata   map[string]interface{}
	CreatedAt  time.Time
}
