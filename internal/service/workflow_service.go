// FILE: internal/service/workflow_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sabuconnect-be/internal/dto"
	"sabuconnect-be/internal/engine"
	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/pkg/logger"
	"sabuconnect-be/internal/registry"
	"sabuconnect-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type IWorkflowService interface {
	Request(ctx context.Context, kind entity.WorkflowKind, subjectId uuid.UUID, actor entity.Actor, req *dto.RequestWorkflowRequest) (*dto.WorkflowResponse, error)
	Transition(ctx context.Context, id uuid.UUID, action entity.WorkflowAction, actor entity.Actor, opts engine.Options) (*dto.WorkflowResponse, error)
	Show(ctx context.Context, id uuid.UUID, actor entity.Actor) (*dto.WorkflowDetailResponse, error)
	List(ctx context.Context, kind entity.WorkflowKind, state entity.WorkflowState, limit, offset int) (*dto.ListWorkflowsResponse, error)
}

type workflowService struct {
	engine           *engine.Engine
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	detailCache      *gocache.Cache
	logger           logger.ILogger
}

func NewWorkflowService(
	eng *engine.Engine,
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	log logger.ILogger,
) IWorkflowService {
	return &workflowService{
		engine:           eng,
		uowFactory:       uowFactory,
		publisherService: publisherService,
		detailCache:      gocache.New(30*time.Second, time.Minute),
		logger:           log,
	}
}

func (s *workflowService) Request(ctx context.Context, kind entity.WorkflowKind, subjectId uuid.UUID, actor entity.Actor, req *dto.RequestWorkflowRequest) (*dto.WorkflowResponse, error) {
	instance, err := s.engine.Request(ctx, kind, subjectId, actor, engine.RequestInput{
		Amount: req.Amount,
		Method: entity.PaymentMethod(req.Method),
		Days:   req.Days,
	})
	if err != nil {
		return nil, err
	}

	s.publishTransition(ctx, instance, entity.ActionRequest)
	return toWorkflowResponse(instance), nil
}

func (s *workflowService) Transition(ctx context.Context, id uuid.UUID, action entity.WorkflowAction, actor entity.Actor, opts engine.Options) (*dto.WorkflowResponse, error) {
	instance, err := s.engine.Apply(ctx, id, action, actor, opts)
	if err != nil {
		return nil, err
	}

	s.detailCache.Delete(detailCacheKey(id))
	s.publishTransition(ctx, instance, action)
	return toWorkflowResponse(instance), nil
}

func (s *workflowService) Show(ctx context.Context, id uuid.UUID, actor entity.Actor) (*dto.WorkflowDetailResponse, error) {
	if cached, ok := s.detailCache.Get(detailCacheKey(id)); ok {
		detail := cached.(*dto.WorkflowDetailResponse)
		if err := authorizeView(detail.Workflow.OwnerId, entity.WorkflowKind(detail.Workflow.Kind), actor); err != nil {
			return nil, err
		}
		return detail, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	instance, err := uow.WorkflowRepository().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrStorage, err)
	}
	if instance == nil {
		return nil, fmt.Errorf("%w: workflow instance %s", engine.ErrNotFound, id)
	}
	if err := authorizeView(instance.OwnerId, instance.Kind, actor); err != nil {
		return nil, err
	}

	payment, err := uow.PaymentRepository().FindBySubject(ctx, instance.SubjectId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrStorage, err)
	}
	records, err := uow.TransitionRepository().FindByInstance(ctx, instance.Id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrStorage, err)
	}

	detail := &dto.WorkflowDetailResponse{
		Workflow: *toWorkflowResponse(instance),
		Payment:  toPaymentResponse(payment),
		History:  toHistoryResponse(records),
	}
	s.detailCache.SetDefault(detailCacheKey(id), detail)
	return detail, nil
}

func (s *workflowService) List(ctx context.Context, kind entity.WorkflowKind, state entity.WorkflowState, limit, offset int) (*dto.ListWorkflowsResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	instances, err := uow.WorkflowRepository().FindPage(ctx, kind, state, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrStorage, err)
	}

	workflows := make([]dto.WorkflowResponse, 0, len(instances))
	for _, instance := range instances {
		workflows = append(workflows, *toWorkflowResponse(instance))
	}
	return &dto.ListWorkflowsResponse{
		Workflows: workflows,
		Limit:     limit,
		Offset:    offset,
	}, nil
}

// authorizeView gates reads: admins see everything, owners see their own
// cycles, providers additionally see transactions so they can act on
// incoming orders.
func authorizeView(ownerId uuid.UUID, kind entity.WorkflowKind, actor entity.Actor) error {
	if actor.Role == entity.RoleAdmin || actor.Id == ownerId {
		return nil
	}
	if kind == entity.KindTransaction && actor.Role == entity.RoleProvider {
		return nil
	}
	return fmt.Errorf("%w: actor %s cannot view this workflow", engine.ErrForbidden, actor.Id)
}

func (s *workflowService) publishTransition(ctx context.Context, instance *entity.WorkflowInstance, action entity.WorkflowAction) {
	msg := dto.PublishTransitionMessage{
		InstanceId: instance.Id,
		Kind:       string(instance.Kind),
		SubjectId:  instance.SubjectId,
		ToState:    string(instance.State),
		Action:     string(action),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("workflow_service", "marshal transition event failed", map[string]interface{}{
			"instance_id": instance.Id,
			"error":       err.Error(),
		})
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		// Transitions are already committed, a lost event is a log line,
		// not a rollback.
		s.logger.Warn("workflow_service", "publish transition event failed", map[string]interface{}{
			"instance_id": instance.Id,
			"error":       err.Error(),
		})
	}
}

func detailCacheKey(id uuid.UUID) string {
	return "workflow_detail:" + id.String()
}

func toWorkflowResponse(instance *entity.WorkflowInstance) *dto.WorkflowResponse {
	return &dto.WorkflowResponse{
		Id:              instance.Id,
		Kind:            string(instance.Kind),
		SubjectId:       instance.SubjectId,
		OwnerId:         instance.OwnerId,
		State:           string(instance.State),
		DurationDays:    instance.DurationDays,
		WindowStart:     instance.WindowStart,
		WindowEnd:       instance.WindowEnd,
		RejectionReason: instance.RejectionReason,
		CreatedAt:       instance.CreatedAt,
		UpdatedAt:       instance.UpdatedAt,
	}
}

func toPaymentResponse(payment *entity.PaymentAttachment) *dto.PaymentResponse {
	if payment == nil {
		return nil
	}
	return &dto.PaymentResponse{
		Id:              payment.Id,
		SubjectId:       payment.SubjectId,
		Amount:          payment.Amount,
		Method:          string(payment.Method),
		ProofReference:  payment.ProofReference,
		SubStatus:       string(payment.SubStatus),
		VerifiedBy:      payment.VerifiedBy,
		VerifiedAt:      payment.VerifiedAt,
		RejectionReason: payment.RejectionReason,
	}
}

func toHistoryResponse(records []*entity.TransitionRecord) []dto.TransitionRecordResponse {
	out := make([]dto.TransitionRecordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, dto.TransitionRecordResponse{
			Id:        record.Id,
			FromState: string(record.FromState),
			ToState:   string(record.ToState),
			Action:    string(record.Action),
			ActorId:   record.ActorId,
			ActorRole: string(record.ActorRole),
			Metadata:  record.Metadata,
			CreatedAt: record.CreatedAt,
		})
	}
	return out
}

// ParseKind maps the path parameter onto a registered workflow kind.
func ParseKind(raw string) (entity.WorkflowKind, error) {
	kind := entity.WorkflowKind(raw)
	if _, ok := registry.For(kind); !ok {
		return "", fmt.Errorf("unknown workflow kind %q", raw)
	}
	return kind, nil
}
