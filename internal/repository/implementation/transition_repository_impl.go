package implementation

import (
	"context"

	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/mapper"
	"sabuconnect-be/internal/model"
	"sabuconnect-be/internal/repository/contract"
	"sabuconnect-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransitionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TransitionMapper
}

func NewTransitionRepository(db *gorm.DB) contract.TransitionRepository {
	return &TransitionRepositoryImpl{
		db:     db,
		mapper: mapper.NewTransitionMapper(),
	}
}

func (r *TransitionRepositoryImpl) Append(ctx context.Context, record *entity.TransitionRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *TransitionRepositoryImpl) FindByInstance(ctx context.Context, instanceId uuid.UUID) ([]*entity.TransitionRecord, error) {
	var models []*model.TransitionRecord
	query := r.db.WithContext(ctx)
	query = specification.ByInstance{InstanceID: instanceId}.Apply(query)
	query = specification.OrderBy{Field: "created_at", Desc: false}.Apply(query)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	records := make([]*entity.TransitionRecord, len(models))
	for i, m := range models {
		records[i] = r.mapper.ToEntity(m)
	}
	return records, nil
}
