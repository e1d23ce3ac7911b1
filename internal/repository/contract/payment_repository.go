package contract

import (
	"context"

	"sabuconnect-be/internal/entity"

	"github.com/google/uuid"
)

type PaymentRepository interface {
	// Upsert writes the attachment for its subject. An existing row for the
	// same subject is fully overwritten, never duplicated.
	Upsert(ctx context.Context, attachment *entity.PaymentAttachment) error

	Update(ctx context.Context, attachment *entity.PaymentAttachment) error

	// FindBySubject returns nil without error when no attachment exists.
	FindBySubject(ctx context.Context, subjectId uuid.UUID) (*entity.PaymentAttachment, error)
}
