// FILE: internal/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"time"

	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/pkg/logger"
	"sabuconnect-be/internal/registry"
	"sabuconnect-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Options carries the optional per-transition inputs.
type Options struct {
	Reason         string // rejection reason for reject/reject_payment/cancel
	ProofReference string // proof reference for upload_proof
}

// RequestInput opens a new workflow cycle for a subject.
type RequestInput struct {
	Amount float64
	Method entity.PaymentMethod
	Days   int // active window length, defaulted when zero
}

// Engine is the single mutation path for workflow instances and their
// payment attachments. Every write happens inside one unit-of-work
// transaction under a per-instance lock.
type Engine struct {
	uowFactory  unitofwork.RepositoryFactory
	logger      logger.ILogger
	locks       *keyedMutex
	defaultDays int
}

func NewEngine(uowFactory unitofwork.RepositoryFactory, log logger.ILogger, defaultDays int) *Engine {
	if defaultDays <= 0 {
		defaultDays = 7
	}
	return &Engine{
		uowFactory:  uowFactory,
		logger:      log,
		locks:       newKeyedMutex(),
		defaultDays: defaultDays,
	}
}

// Request creates a new instance in its initial post-request state and
// upserts the payment attachment for the subject. A subject with an open
// (non-terminal) instance cannot open another cycle; a subject whose last
// cycle ended gets a fresh instance while the attachment row is reused and
// fully overwritten.
func (e *Engine) Request(ctx context.Context, kind entity.WorkflowKind, subjectId uuid.UUID, actor entity.Actor, in RequestInput) (*entity.WorkflowInstance, error) {
	table, ok := registry.For(kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown workflow kind %q", ErrInvalidTransition, kind)
	}
	if !table.AllowsRequest(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot request a %s cycle", ErrForbidden, actor.Role, kind)
	}

	unlock := e.locks.Lock(subjectKey(kind, subjectId))
	defer unlock()

	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer uow.Rollback()

	current, err := uow.WorkflowRepository().FindCurrentBySubject(ctx, kind, subjectId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if current != nil && !table.IsTerminal(current.State) {
		return nil, fmt.Errorf("%w: subject %s already has an open %s cycle in state %s",
			ErrInvalidTransition, subjectId, kind, current.State)
	}

	days := in.Days
	if days <= 0 {
		days = e.defaultDays
	}

	instance := &entity.WorkflowInstance{
		Id:           uuid.New(),
		Kind:         kind,
		SubjectId:    subjectId,
		OwnerId:      actor.Id,
		State:        table.Initial,
		DurationDays: days,
	}
	if err := uow.WorkflowRepository().Create(ctx, instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	// Full overwrite: a leftover attachment from a rejected cycle is reset
	// to a clean pending record, never duplicated.
	attachment := &entity.PaymentAttachment{
		SubjectId: subjectId,
		Kind:      kind,
		Amount:    in.Amount,
		Method:    in.Method,
		SubStatus: entity.PaymentSubStatusPending,
	}
	if err := uow.PaymentRepository().Upsert(ctx, attachment); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	record := &entity.TransitionRecord{
		Id:         uuid.New(),
		InstanceId: instance.Id,
		FromState:  entity.StateNone,
		ToState:    instance.State,
		Action:     entity.ActionRequest,
		ActorId:    actor.Id,
		ActorRole:  actor.Role,
		Metadata: map[string]interface{}{
			"amount": in.Amount,
			"method": string(in.Method),
			"days":   days,
		},
		CreatedAt: time.Now(),
	}
	if err := uow.TransitionRepository().Append(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	e.logger.Info("workflow_engine", "cycle opened", map[string]interface{}{
		"instance_id": instance.Id,
		"kind":        kind,
		"subject_id":  subjectId,
		"state":       instance.State,
	})
	return instance, nil
}

// Apply validates and executes one transition. The whole decision runs
// inside the per-instance critical section and one transaction: on any
// failure nothing is committed.
func (e *Engine) Apply(ctx context.Context, instanceId uuid.UUID, action entity.WorkflowAction, actor entity.Actor, opts Options) (*entity.WorkflowInstance, error) {
	unlock := e.locks.Lock(instanceKey(instanceId))
	defer unlock()

	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer uow.Rollback()

	instance, err := uow.WorkflowRepository().FindByID(ctx, instanceId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if instance == nil {
		return nil, fmt.Errorf("%w: workflow instance %s", ErrNotFound, instanceId)
	}

	table, ok := registry.For(instance.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown workflow kind %q", ErrInvalidTransition, instance.Kind)
	}

	rule, ok := table.Lookup(instance.State, action)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot %s from state %s",
			ErrInvalidTransition, instance.Kind, action, instance.State)
	}

	if !rule.AllowsRole(actor.Role) {
		return nil, fmt.Errorf("%w: action %s requires one of %v, actor has %s",
			ErrForbidden, action, rule.Roles, actor.Role)
	}
	if rule.OwnerOnly && actor.Role != entity.RoleAdmin && actor.Id != instance.OwnerId {
		return nil, fmt.Errorf("%w: actor %s does not own instance %s", ErrForbidden, actor.Id, instanceId)
	}

	payment, err := uow.PaymentRepository().FindBySubject(ctx, instance.SubjectId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	now := time.Now()
	paymentChanged, err := e.applyPaymentEffect(rule.Effect, payment, actor, now, opts)
	if err != nil {
		return nil, err
	}

	method := entity.PaymentMethodTransfer
	if payment != nil {
		method = payment.Method
	}
	target := rule.Target(method)

	if table.RequiresVerifiedPayment(target) {
		if payment == nil || payment.SubStatus != entity.PaymentSubStatusVerified {
			return nil, fmt.Errorf("%w: %s requires a verified payment before entering %s, upload and verify the proof first",
				ErrPaymentNotVerified, instance.Kind, target)
		}
	}

	from := instance.State
	instance.State = target

	if table.Active != "" && target == table.Active {
		start := now
		end := now.AddDate(0, 0, instance.DurationDays)
		instance.WindowStart = &start
		instance.WindowEnd = &end
	} else {
		instance.WindowStart = nil
		instance.WindowEnd = nil
	}

	if target == entity.StateRejected {
		reason := opts.Reason
		instance.RejectionReason = &reason
	} else {
		instance.RejectionReason = nil
	}

	if err := uow.WorkflowRepository().Update(ctx, instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if paymentChanged {
		if err := uow.PaymentRepository().Update(ctx, payment); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}

	record := &entity.TransitionRecord{
		Id:         uuid.New(),
		InstanceId: instance.Id,
		FromState:  from,
		ToState:    target,
		Action:     action,
		ActorId:    actor.Id,
		ActorRole:  actor.Role,
		Metadata:   transitionMetadata(opts),
		CreatedAt:  now,
	}
	if err := uow.TransitionRepository().Append(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	e.logger.Info("workflow_engine", "transition applied", map[string]interface{}{
		"instance_id": instance.Id,
		"kind":        instance.Kind,
		"action":      action,
		"from":        from,
		"to":          target,
		"actor_role":  actor.Role,
	})
	return instance, nil
}

// applyPaymentEffect mutates the attachment in memory, the caller persists
// it together with the instance inside the same transaction.
func (e *Engine) applyPaymentEffect(effect registry.PaymentEffect, payment *entity.PaymentAttachment, actor entity.Actor, now time.Time, opts Options) (bool, error) {
	switch effect {
	case registry.EffectNone:
		return false, nil
	case registry.EffectUploadProof:
		if payment == nil {
			return false, fmt.Errorf("%w: payment attachment", ErrNotFound)
		}
		proof := opts.ProofReference
		payment.ProofReference = &proof
		payment.SubStatus = entity.PaymentSubStatusPending
		payment.RejectionReason = nil
		return true, nil
	case registry.EffectVerify:
		if payment == nil {
			return false, fmt.Errorf("%w: payment attachment", ErrNotFound)
		}
		verifyPayment(payment, actor, now)
		return true, nil
	case registry.EffectVerifyCOD:
		if payment == nil || payment.Method != entity.PaymentMethodCOD {
			return false, nil
		}
		verifyPayment(payment, actor, now)
		return true, nil
	case registry.EffectReject:
		if payment == nil {
			return false, nil
		}
		payment.SubStatus = entity.PaymentSubStatusRejected
		if opts.Reason != "" {
			reason := opts.Reason
			payment.RejectionReason = &reason
		}
		return true, nil
	}
	return false, nil
}

func verifyPayment(payment *entity.PaymentAttachment, actor entity.Actor, now time.Time) {
	payment.SubStatus = entity.PaymentSubStatusVerified
	verifiedBy := actor.Id
	verifiedAt := now
	payment.VerifiedBy = &verifiedBy
	payment.VerifiedAt = &verifiedAt
	payment.RejectionReason = nil
}

func transitionMetadata(opts Options) map[string]interface{} {
	metadata := map[string]interface{}{}
	if opts.Reason != "" {
		metadata["reason"] = opts.Reason
	}
	if opts.ProofReference != "" {
		metadata["proof_reference"] = opts.ProofReference
	}
	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

func instanceKey(id uuid.UUID) string {
	return "instance:" + id.String()
}

func subjectKey(kind entity.WorkflowKind, id uuid.UUID) string {
	return "subject:" + string(kind) + ":" + id.String()
}
