// Package memory provides an in-memory unit of work used by engine and
// sweeper tests. Begin acquires an exclusive store lock held until Commit
// or Rollback, so concurrent units of work serialize the way per-row
// database transactions do, and Rollback restores the pre-transaction
// snapshot.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/repository/contract"
	"sabuconnect-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type Store struct {
	mu          sync.Mutex
	instances   map[uuid.UUID]*entity.WorkflowInstance
	payments    map[uuid.UUID]*entity.PaymentAttachment // keyed by subject id
	transitions []*entity.TransitionRecord
}

func NewStore() *Store {
	return &Store{
		instances: make(map[uuid.UUID]*entity.WorkflowInstance),
		payments:  make(map[uuid.UUID]*entity.PaymentAttachment),
	}
}

// SeedInstance writes an instance directly, bypassing the unit of work.
// Test setup only.
func (s *Store) SeedInstance(instance *entity.WorkflowInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[instance.Id] = cloneInstance(instance)
}

// SeedPayment writes an attachment directly, bypassing the unit of work.
// Test setup only.
func (s *Store) SeedPayment(attachment *entity.PaymentAttachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[attachment.SubjectId] = clonePayment(attachment)
}

// NewFactory returns a RepositoryFactory over the shared store.
func NewFactory(store *Store) unitofwork.RepositoryFactory {
	return &factory{store: store}
}

type factory struct {
	store *Store
}

func (f *factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: f.store}
}

type snapshot struct {
	instances   map[uuid.UUID]*entity.WorkflowInstance
	payments    map[uuid.UUID]*entity.PaymentAttachment
	transitions []*entity.TransitionRecord
}

type unitOfWork struct {
	store *Store
	inTx  bool
	snap  *snapshot
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.store.mu.Lock()
	u.inTx = true
	u.snap = u.store.snapshot()
	return nil
}

func (u *unitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.snap = nil
	u.inTx = false
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.restore(u.snap)
	u.snap = nil
	u.inTx = false
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) WorkflowRepository() contract.WorkflowRepository {
	return &workflowRepo{uow: u}
}

func (u *unitOfWork) PaymentRepository() contract.PaymentRepository {
	return &paymentRepo{uow: u}
}

func (u *unitOfWork) TransitionRepository() contract.TransitionRepository {
	return &transitionRepo{uow: u}
}

// lock acquires the store lock for access outside a transaction. Inside a
// transaction the lock is already held by Begin.
func (u *unitOfWork) lock() func() {
	if u.inTx {
		return func() {}
	}
	u.store.mu.Lock()
	return u.store.mu.Unlock
}

func (s *Store) snapshot() *snapshot {
	snap := &snapshot{
		instances:   make(map[uuid.UUID]*entity.WorkflowInstance, len(s.instances)),
		payments:    make(map[uuid.UUID]*entity.PaymentAttachment, len(s.payments)),
		transitions: make([]*entity.TransitionRecord, len(s.transitions)),
	}
	for id, inst := range s.instances {
		snap.instances[id] = cloneInstance(inst)
	}
	for id, pay := range s.payments {
		snap.payments[id] = clonePayment(pay)
	}
	copy(snap.transitions, s.transitions)
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.instances = snap.instances
	s.payments = snap.payments
	s.transitions = snap.transitions
}

// --- workflow repository ---

type workflowRepo struct {
	uow *unitOfWork
}

func (r *workflowRepo) Create(ctx context.Context, instance *entity.WorkflowInstance) error {
	unlock := r.uow.lock()
	defer unlock()

	if instance.Id == uuid.Nil {
		instance.Id = uuid.New()
	}
	now := time.Now()
	instance.CreatedAt = now
	instance.UpdatedAt = now
	r.uow.store.instances[instance.Id] = cloneInstance(instance)
	return nil
}

func (r *workflowRepo) Update(ctx context.Context, instance *entity.WorkflowInstance) error {
	unlock := r.uow.lock()
	defer unlock()

	if _, ok := r.uow.store.instances[instance.Id]; !ok {
		return fmt.Errorf("workflow instance %s not found", instance.Id)
	}
	instance.UpdatedAt = time.Now()
	r.uow.store.instances[instance.Id] = cloneInstance(instance)
	return nil
}

func (r *workflowRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.WorkflowInstance, error) {
	unlock := r.uow.lock()
	defer unlock()

	inst, ok := r.uow.store.instances[id]
	if !ok {
		return nil, nil
	}
	return cloneInstance(inst), nil
}

func (r *workflowRepo) FindCurrentBySubject(ctx context.Context, kind entity.WorkflowKind, subjectId uuid.UUID) (*entity.WorkflowInstance, error) {
	unlock := r.uow.lock()
	defer unlock()

	var latest *entity.WorkflowInstance
	for _, inst := range r.uow.store.instances {
		if inst.Kind != kind || inst.SubjectId != subjectId {
			continue
		}
		if latest == nil || inst.CreatedAt.After(latest.CreatedAt) {
			latest = inst
		}
	}
	return cloneInstance(latest), nil
}

func (r *workflowRepo) FindExpirable(ctx context.Context, kind entity.WorkflowKind, state entity.WorkflowState, moment time.Time) ([]*entity.WorkflowInstance, error) {
	unlock := r.uow.lock()
	defer unlock()

	var out []*entity.WorkflowInstance
	for _, inst := range r.uow.store.instances {
		if inst.Kind != kind || inst.State != state {
			continue
		}
		if inst.WindowEnd == nil || inst.WindowEnd.After(moment) {
			continue
		}
		out = append(out, cloneInstance(inst))
	}
	return out, nil
}

func (r *workflowRepo) FindPage(ctx context.Context, kind entity.WorkflowKind, state entity.WorkflowState, limit, offset int) ([]*entity.WorkflowInstance, error) {
	unlock := r.uow.lock()
	defer unlock()

	var out []*entity.WorkflowInstance
	for _, inst := range r.uow.store.instances {
		if kind != "" && inst.Kind != kind {
			continue
		}
		if state != "" && inst.State != state {
			continue
		}
		out = append(out, cloneInstance(inst))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// --- payment repository ---

type paymentRepo struct {
	uow *unitOfWork
}

func (r *paymentRepo) Upsert(ctx context.Context, attachment *entity.PaymentAttachment) error {
	unlock := r.uow.lock()
	defer unlock()

	now := time.Now()
	if existing, ok := r.uow.store.payments[attachment.SubjectId]; ok {
		// Same row survives: keep id and created_at, everything else is
		// overwritten.
		attachment.Id = existing.Id
		attachment.CreatedAt = existing.CreatedAt
	} else {
		if attachment.Id == uuid.Nil {
			attachment.Id = uuid.New()
		}
		attachment.CreatedAt = now
	}
	attachment.UpdatedAt = now
	r.uow.store.payments[attachment.SubjectId] = clonePayment(attachment)
	return nil
}

func (r *paymentRepo) Update(ctx context.Context, attachment *entity.PaymentAttachment) error {
	unlock := r.uow.lock()
	defer unlock()

	if _, ok := r.uow.store.payments[attachment.SubjectId]; !ok {
		return fmt.Errorf("payment attachment for subject %s not found", attachment.SubjectId)
	}
	attachment.UpdatedAt = time.Now()
	r.uow.store.payments[attachment.SubjectId] = clonePayment(attachment)
	return nil
}

func (r *paymentRepo) FindBySubject(ctx context.Context, subjectId uuid.UUID) (*entity.PaymentAttachment, error) {
	unlock := r.uow.lock()
	defer unlock()

	pay, ok := r.uow.store.payments[subjectId]
	if !ok {
		return nil, nil
	}
	return clonePayment(pay), nil
}

// --- transition repository ---

type transitionRepo struct {
	uow *unitOfWork
}

func (r *transitionRepo) Append(ctx context.Context, record *entity.TransitionRecord) error {
	unlock := r.uow.lock()
	defer unlock()

	if record.Id == uuid.Nil {
		record.Id = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	r.uow.store.transitions = append(r.uow.store.transitions, cloneTransition(record))
	return nil
}

func (r *transitionRepo) FindByInstance(ctx context.Context, instanceId uuid.UUID) ([]*entity.TransitionRecord, error) {
	unlock := r.uow.lock()
	defer unlock()

	var out []*entity.TransitionRecord
	for _, rec := range r.uow.store.transitions {
		if rec.InstanceId == instanceId {
			out = append(out, cloneTransition(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// --- clone helpers ---

func cloneInstance(w *entity.WorkflowInstance) *entity.WorkflowInstance {
	if w == nil {
		return nil
	}
	out := *w
	out.WindowStart = cloneTime(w.WindowStart)
	out.WindowEnd = cloneTime(w.WindowEnd)
	out.RejectionReason = cloneString(w.RejectionReason)
	return &out
}

func clonePayment(p *entity.PaymentAttachment) *entity.PaymentAttachment {
	if p == nil {
		return nil
	}
	out := *p
	out.ProofReference = cloneString(p.ProofReference)
	out.RejectionReason = cloneString(p.RejectionReason)
	out.VerifiedAt = cloneTime(p.VerifiedAt)
	if p.VerifiedBy != nil {
		v := *p.VerifiedBy
		out.VerifiedBy = &v
	}
	return &out
}

func cloneTransition(r *entity.TransitionRecord) *entity.TransitionRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
