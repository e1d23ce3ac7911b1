package implementation

import (
	"context"
	"errors"
	"time"

	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/mapper"
	"sabuconnect-be/internal/model"
	"sabuconnect-be/internal/repository/contract"
	"sabuconnect-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkflowRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WorkflowMapper
}

func NewWorkflowRepository(db *gorm.DB) contract.WorkflowRepository {
	return &WorkflowRepositoryImpl{
		db:     db,
		mapper: mapper.NewWorkflowMapper(),
	}
}

func (r *WorkflowRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *WorkflowRepositoryImpl) Create(ctx context.Context, instance *entity.WorkflowInstance) error {
	m := r.mapper.ToModel(instance)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*instance = *r.mapper.ToEntity(m)
	return nil
}

func (r *WorkflowRepositoryImpl) Update(ctx context.Context, instance *entity.WorkflowInstance) error {
	m := r.mapper.ToModel(instance)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*instance = *r.mapper.ToEntity(m)
	return nil
}

func (r *WorkflowRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.WorkflowInstance, error) {
	var m model.WorkflowInstance
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: id})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *WorkflowRepositoryImpl) FindCurrentBySubject(ctx context.Context, kind entity.WorkflowKind, subjectId uuid.UUID) (*entity.WorkflowInstance, error) {
	var m model.WorkflowInstance
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByKind{Kind: string(kind)},
		specification.BySubject{SubjectID: subjectId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *WorkflowRepositoryImpl) FindExpirable(ctx context.Context, kind entity.WorkflowKind, state entity.WorkflowState, moment time.Time) ([]*entity.WorkflowInstance, error) {
	var models []*model.WorkflowInstance
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByKind{Kind: string(kind)},
		specification.ByState{State: string(state)},
		specification.WindowEndBefore{Moment: moment},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.WorkflowInstance, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *WorkflowRepositoryImpl) FindPage(ctx context.Context, kind entity.WorkflowKind, state entity.WorkflowState, limit, offset int) ([]*entity.WorkflowInstance, error) {
	var models []*model.WorkflowInstance

	specs := []specification.Specification{}
	if kind != "" {
		specs = append(specs, specification.ByKind{Kind: string(kind)})
	}
	if state != "" {
		specs = append(specs, specification.ByState{State: string(state)})
	}
	specs = append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)

	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.WorkflowInstance, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
