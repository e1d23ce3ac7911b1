package implementation

import (
	"context"
	"errors"

	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/mapper"
	"sabuconnect-be/internal/model"
	"sabuconnect-be/internal/repository/contract"
	"sabuconnect-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaymentMapper
}

func NewPaymentRepository(db *gorm.DB) contract.PaymentRepository {
	return &PaymentRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaymentMapper(),
	}
}

// Upsert keys on subject_id so a resubmission after a rejected cycle
// replaces the previous row instead of inserting a duplicate.
func (r *PaymentRepositoryImpl) Upsert(ctx context.Context, attachment *entity.PaymentAttachment) error {
	m := r.mapper.ToModel(attachment)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"kind", "amount", "method", "proof_reference", "sub_status",
			"verified_by", "verified_at", "rejection_reason", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	// Re-read so the caller sees the surviving row's id and timestamps.
	saved, err := r.FindBySubject(ctx, attachment.SubjectId)
	if err != nil {
		return err
	}
	if saved != nil {
		*attachment = *saved
	}
	return nil
}

func (r *PaymentRepositoryImpl) Update(ctx context.Context, attachment *entity.PaymentAttachment) error {
	m := r.mapper.ToModel(attachment)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*attachment = *r.mapper.ToEntity(m)
	return nil
}

func (r *PaymentRepositoryImpl) FindBySubject(ctx context.Context, subjectId uuid.UUID) (*entity.PaymentAttachment, error) {
	var m model.PaymentAttachment
	query := specification.BySubject{SubjectID: subjectId}.Apply(r.db.WithContext(ctx))
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
