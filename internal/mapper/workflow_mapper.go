package mapper

import (
	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/model"
)

type WorkflowMapper struct{}

func NewWorkflowMapper() *WorkflowMapper {
	return &WorkflowMapper{}
}

func (m *WorkflowMapper) ToEntity(w *model.WorkflowInstance) *entity.WorkflowInstance {
	if w == nil {
		return nil
	}
	return &entity.WorkflowInstance{
		Id:              w.Id,
		Kind:            entity.WorkflowKind(w.Kind),
		SubjectId:       w.SubjectId,
		OwnerId:         w.OwnerId,
		State:           entity.WorkflowState(w.State),
		DurationDays:    w.DurationDays,
		WindowStart:     w.WindowStart,
		WindowEnd:       w.WindowEnd,
		RejectionReason: w.RejectionReason,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

func (m *WorkflowMapper) ToModel(w *entity.WorkflowInstance) *model.WorkflowInstance {
	if w == nil {
		return nil
	}
	return &model.WorkflowInstance{
		Id:              w.Id,
		Kind:            string(w.Kind),
		SubjectId:       w.SubjectId,
		OwnerId:         w.OwnerId,
		State:           string(w.State),
		DurationDays:    w.DurationDays,
		WindowStart:     w.WindowStart,
		WindowEnd:       w.WindowEnd,
		RejectionReason: w.RejectionReason,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}
