package mapper

import (
	"encoding/json"

	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/model"

	"gorm.io/datatypes"
)

type TransitionMapper struct{}

func NewTransitionMapper() *TransitionMapper {
	return &TransitionMapper{}
}

func (m *TransitionMapper) ToEntity(r *model.TransitionRecord) *entity.TransitionRecord {
	if r == nil {
		return nil
	}
	var metadata map[string]interface{}
	if len(r.Metadata) > 0 {
		// Metadata is written by us, a decode failure means a corrupt row;
		// surface the record anyway with nil metadata.
		_ = json.Unmarshal(r.Metadata, &metadata)
	}
	return &entity.TransitionRecord{
		Id:         r.Id,
		InstanceId: r.InstanceId,
		FromState:  entity.WorkflowState(r.FromState),
		ToState:    entity.WorkflowState(r.ToState),
		Action:     entity.WorkflowAction(r.Action),
		ActorId:    r.ActorId,
		ActorRole:  entity.ActorRole(r.ActorRole),
		Metadata:   metadata,
		CreatedAt:  r.CreatedAt,
	}
}

func (m *TransitionMapper) ToModel(r *entity.TransitionRecord) *model.TransitionRecord {
	if r == nil {
		return nil
	}
	var metadata datatypes.JSON
	if r.Metadata != nil {
		if raw, err := json.Marshal(r.Metadata); err == nil {
			metadata = raw
		}
	}
	return &model.TransitionRecord{
		Id:         r.Id,
		InstanceId: r.InstanceId,
		FromState:  string(r.FromState),
		ToState:    string(r.ToState),
		Action:     string(r.Action),
		ActorId:    r.ActorId,
		ActorRole:  string(r.ActorRole),
		Metadata:   metadata,
		CreatedAt:  r.CreatedAt,
	}
}
