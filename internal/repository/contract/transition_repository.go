package contract

import (
	"context"

	"sabuconnect-be/internal/entity"

	"github.com/google/uuid"
)

type TransitionRepository interface {
	// Append inserts an audit record. There is no update or delete.
	Append(ctx context.Context, record *entity.TransitionRecord) error

	// FindByInstance returns the audit trail oldest first.
	FindByInstance(ctx context.Context, instanceId uuid.UUID) ([]*entity.TransitionRecord, error)
}
