package contract

import (
	"context"
	"time"

	"sabuconnect-be/internal/entity"

	"github.com/google/uuid"
)

type WorkflowRepository interface {
	Create(ctx context.Context, instance *entity.WorkflowInstance) error
	Update(ctx context.Context, instance *entity.WorkflowInstance) error

	// FindByID returns nil without error when the instance does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.WorkflowInstance, error)

	// FindCurrentBySubject returns the most recently created instance for a
	// subject, nil when no cycle was ever opened.
	FindCurrentBySubject(ctx context.Context, kind entity.WorkflowKind, subjectId uuid.UUID) (*entity.WorkflowInstance, error)

	// FindExpirable lists instances of the kind in the given state whose
	// active window elapsed at the given moment.
	FindExpirable(ctx context.Context, kind entity.WorkflowKind, state entity.WorkflowState, moment time.Time) ([]*entity.WorkflowInstance, error)

	// FindPage lists instances filtered by optional kind and state, newest
	// first. Used by the admin listing.
	FindPage(ctx context.Context, kind entity.WorkflowKind, state entity.WorkflowState, limit, offset int) ([]*entity.WorkflowInstance, error)
}
