// FILE: internal/engine/engine_test.go
package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/pkg/logger"
	"sabuconnect-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() (*Engine, *memory.Store) {
	store := memory.NewStore()
	eng := NewEngine(memory.NewFactory(store), logger.NewNop(), 7)
	return eng, store
}

func historyFor(t *testing.T, store *memory.Store, instanceId uuid.UUID) []*entity.TransitionRecord {
	t.Helper()
	uow := memory.NewFactory(store).NewUnitOfWork(context.Background())
	records, err := uow.TransitionRepository().FindByInstance(context.Background(), instanceId)
	require.NoError(t, err)
	return records
}

func paymentFor(t *testing.T, store *memory.Store, subjectId uuid.UUID) *entity.PaymentAttachment {
	t.Helper()
	uow := memory.NewFactory(store).NewUnitOfWork(context.Background())
	attachment, err := uow.PaymentRepository().FindBySubject(context.Background(), subjectId)
	require.NoError(t, err)
	return attachment
}

func instanceFor(t *testing.T, store *memory.Store, id uuid.UUID) *entity.WorkflowInstance {
	t.Helper()
	uow := memory.NewFactory(store).NewUnitOfWork(context.Background())
	instance, err := uow.WorkflowRepository().FindByID(context.Background(), id)
	require.NoError(t, err)
	return instance
}

func TestPromotionTransferFlow(t *testing.T) {
	eng, store := newTestEngine()
	ctx := context.Background()

	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	admin := entity.Actor{Id: uuid.New(), Role: entity.RoleAdmin}
	subjectId := uuid.New()

	instance, err := eng.Request(ctx, entity.KindListingPromotion, subjectId, provider, RequestInput{
		Amount: 7000,
		Method: entity.PaymentMethodTransfer,
		Days:   7,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatePendingApproval, instance.State)
	assert.Equal(t, provider.Id, instance.OwnerId)
	assert.Equal(t, 7, instance.DurationDays)
	assert.False(t, instance.HasActiveWindow())

	attachment := paymentFor(t, store, subjectId)
	require.NotNil(t, attachment)
	assert.Equal(t, entity.PaymentSubStatusPending, attachment.SubStatus)
	assert.Equal(t, 7000.0, attachment.Amount)
	assert.Nil(t, attachment.ProofReference)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionApprove, admin, Options{})
	require.NoError(t, err)
	assert.Equal(t, entity.StateWaitingPayment, instance.State)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionUploadProof, provider, Options{ProofReference: "bucket/proof-001.jpg"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatePaymentUploaded, instance.State)

	attachment = paymentFor(t, store, subjectId)
	require.NotNil(t, attachment.ProofReference)
	assert.Equal(t, "bucket/proof-001.jpg", *attachment.ProofReference)
	assert.Equal(t, entity.PaymentSubStatusPending, attachment.SubStatus)

	before := time.Now()
	instance, err = eng.Apply(ctx, instance.Id, entity.ActionVerifyPayment, admin, Options{})
	require.NoError(t, err)
	assert.Equal(t, entity.StateActive, instance.State)
	require.True(t, instance.HasActiveWindow())
	wantEnd := before.AddDate(0, 0, 7)
	assert.WithinDuration(t, wantEnd, *instance.WindowEnd, 5*time.Second)

	attachment = paymentFor(t, store, subjectId)
	assert.Equal(t, entity.PaymentSubStatusVerified, attachment.SubStatus)
	require.NotNil(t, attachment.VerifiedBy)
	assert.Equal(t, admin.Id, *attachment.VerifiedBy)
	assert.NotNil(t, attachment.VerifiedAt)

	records := historyFor(t, store, instance.Id)
	require.Len(t, records, 4)
	assert.Equal(t, entity.StateNone, records[0].FromState)
	assert.Equal(t, entity.ActionVerifyPayment, records[3].Action)
	assert.Equal(t, entity.StateActive, records[3].ToState)
}

func TestPromotionCODApproveActivatesAndVerifies(t *testing.T) {
	eng, store := newTestEngine()
	ctx := context.Background()

	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	admin := entity.Actor{Id: uuid.New(), Role: entity.RoleAdmin}
	subjectId := uuid.New()

	instance, err := eng.Request(ctx, entity.KindListingPromotion, subjectId, provider, RequestInput{
		Amount: 5000,
		Method: entity.PaymentMethodCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatePendingApproval, instance.State)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionApprove, admin, Options{})
	require.NoError(t, err)
	assert.Equal(t, entity.StateActive, instance.State)
	assert.True(t, instance.HasActiveWindow())

	attachment := paymentFor(t, store, subjectId)
	assert.Equal(t, entity.PaymentSubStatusVerified, attachment.SubStatus)
	require.NotNil(t, attachment.VerifiedBy)
	assert.Equal(t, admin.Id, *attachment.VerifiedBy)
}

func TestPromotionRejectSetsReasonAndRejectsPayment(t *testing.T) {
	eng, store := newTestEngine()
	ctx := context.Background()

	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	admin := entity.Actor{Id: uuid.New(), Role: entity.RoleAdmin}
	subjectId := uuid.New()

	instance, err := eng.Request(ctx, entity.KindListingPromotion, subjectId, provider, RequestInput{
		Amount: 5000,
		Method: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionReject, admin, Options{Reason: "listing violates content policy"})
	require.NoError(t, err)
	assert.Equal(t, entity.StateRejected, instance.State)
	require.NotNil(t, instance.RejectionReason)
	assert.Equal(t, "listing violates content policy", *instance.RejectionReason)
	assert.False(t, instance.HasActiveWindow())

	attachment := paymentFor(t, store, subjectId)
	assert.Equal(t, entity.PaymentSubStatusRejected, attachment.SubStatus)
	require.NotNil(t, attachment.RejectionReason)
	assert.Equal(t, "listing violates content policy", *attachment.RejectionReason)
}

func TestInvalidTransitionLeavesEverythingUntouched(t *testing.T) {
	eng, store := newTestEngine()
	ctx := context.Background()

	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	admin := entity.Actor{Id: uuid.New(), Role: entity.RoleAdmin}
	subjectId := uuid.New()

	instance, err := eng.Request(ctx, entity.KindListingPromotion, subjectId, provider, RequestInput{
		Amount: 5000,
		Method: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	// verify_payment is not legal from pending_approval
	_, err = eng.Apply(ctx, instance.Id, entity.ActionVerifyPayment, admin, Options{})
	require.ErrorIs(t, err, ErrInvalidTransition)

	reloaded := instanceFor(t, store, instance.Id)
	assert.Equal(t, entity.StatePendingApproval, reloaded.State)
	attachment := paymentFor(t, store, subjectId)
	assert.Equal(t, entity.PaymentSubStatusPending, attachment.SubStatus)
	assert.Len(t, historyFor(t, store, instance.Id), 1)
}

func TestForbiddenPrecedesAnyMutation(t *testing.T) {
	eng, store := newTestEngine()
	ctx := context.Background()

	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	subjectId := uuid.New()

	instance, err := eng.Request(ctx, entity.KindListingPromotion, subjectId, provider, RequestInput{
		Amount: 5000,
		Method: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	// providers cannot moderate their own requests
	_, err = eng.Apply(ctx, instance.Id, entity.ActionApprove, provider, Options{})
	require.ErrorIs(t, err, ErrForbidden)

	reloaded := instanceFor(t, store, instance.Id)
	assert.Equal(t, entity.StatePendingApproval, reloaded.State)
	assert.Len(t, historyFor(t, store, instance.Id), 1)
}

func TestOwnerOnlyRejectsOtherProviders(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	owner := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	stranger := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	admin := entity.Actor{Id: uuid.New(), Role: entity.RoleAdmin}
	subjectId := uuid.New()

	instance, err := eng.Request(ctx, entity.KindListingPromotion, subjectId, owner, RequestInput{
		Amount: 5000,
		Method: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	_, err = eng.Apply(ctx, instance.Id, entity.ActionApprove, admin, Options{})
	require.NoError(t, err)

	_, err = eng.Apply(ctx, instance.Id, entity.ActionUploadProof, stranger, Options{ProofReference: "bucket/x.jpg"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = eng.Apply(ctx, instance.Id, entity.ActionUploadProof, owner, Options{ProofReference: "bucket/x.jpg"})
	require.NoError(t, err)
}

func TestRequestRejectedWhileCycleOpen(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	subjectId := uuid.New()

	_, err := eng.Request(ctx, entity.KindListingPromotion, subjectId, provider, RequestInput{
		Amount: 5000,
		Method: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	_, err = eng.Request(ctx, entity.KindListingPromotion, subjectId, provider, RequestInput{
		Amount: 5000,
		Method: entity.PaymentMethodTransfer,
	})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResubmissionAfterRejectionReusesAttachmentRow(t *testing.T) {
	eng, store := newTestEngine()
	ctx := context.Background()

	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	admin := entity.Actor{Id: uuid.New(), Role: entity.RoleAdmin}
	subjectId := uuid.New()

	first, err := eng.Request(ctx, entity.KindListingPromotion, subjectId, provider, RequestInput{
		Amount: 5000,
		Method: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	_, err = eng.Apply(ctx, first.Id, entity.ActionReject, admin, Options{Reason: "blurry photos"})
	require.NoError(t, err)

	firstAttachment := paymentFor(t, store, subjectId)

	second, err := eng.Request(ctx, entity.KindListingPromotion, subjectId, provider, RequestInput{
		Amount: 9000,
		Method: entity.PaymentMethodCOD,
		Days:   14,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.Id, second.Id)
	assert.Equal(t, entity.StatePendingApproval, second.State)

	attachment := paymentFor(t, store, subjectId)
	assert.Equal(t, firstAttachment.Id, attachment.Id, "same row is overwritten, not duplicated")
	assert.Equal(t, 9000.0, attachment.Amount)
	assert.Equal(t, entity.PaymentMethodCOD, attachment.Method)
	assert.Equal(t, entity.PaymentSubStatusPending, attachment.SubStatus)
	assert.Nil(t, attachment.ProofReference)
	assert.Nil(t, attachment.RejectionReason)
}

func TestRequestDefaultsDuration(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	instance, err := eng.Request(ctx, entity.KindListingPromotion, uuid.New(), provider, RequestInput{
		Amount: 5000,
		Method: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, instance.DurationDays)
}

func TestRequestRoleGuard(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	customer := entity.Actor{Id: uuid.New(), Role: entity.RoleCustomer}
	_, err := eng.Request(ctx, entity.KindListingPromotion, uuid.New(), customer, RequestInput{
		Amount: 5000,
		Method: entity.PaymentMethodTransfer,
	})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestApplyUnknownInstance(t *testing.T) {
	eng, _ := newTestEngine()

	admin := entity.Actor{Id: uuid.New(), Role: entity.RoleAdmin}
	_, err := eng.Apply(context.Background(), uuid.New(), entity.ActionApprove, admin, Options{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyWithoutAttachmentFails(t *testing.T) {
	eng, store := newTestEngine()

	// drifted row: instance awaits verification but the attachment is gone
	instance := &entity.WorkflowInstance{
		Id:           uuid.New(),
		Kind:         entity.KindListingPromotion,
		SubjectId:    uuid.New(),
		OwnerId:      uuid.New(),
		State:        entity.StatePaymentUploaded,
		DurationDays: 7,
		CreatedAt:    time.Now(),
	}
	store.SeedInstance(instance)

	admin := entity.Actor{Id: uuid.New(), Role: entity.RoleAdmin}
	_, err := eng.Apply(context.Background(), instance.Id, entity.ActionVerifyPayment, admin, Options{})
	require.ErrorIs(t, err, ErrNotFound)

	reloaded := instanceFor(t, store, instance.Id)
	assert.Equal(t, entity.StatePaymentUploaded, reloaded.State)
}

func TestTransactionLifecycle(t *testing.T) {
	eng, store := newTestEngine()
	ctx := context.Background()

	customer := entity.Actor{Id: uuid.New(), Role: entity.RoleCustomer}
	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	subjectId := uuid.New()

	instance, err := eng.Request(ctx, entity.KindTransaction, subjectId, customer, RequestInput{
		Amount: 120000,
		Method: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatePending, instance.State)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionConfirm, provider, Options{})
	require.NoError(t, err)
	assert.Equal(t, entity.StateConfirmed, instance.State)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionStart, provider, Options{})
	require.NoError(t, err)
	assert.Equal(t, entity.StateInProgress, instance.State)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionComplete, provider, Options{})
	require.NoError(t, err)
	assert.Equal(t, entity.StateCompleted, instance.State)
	assert.False(t, instance.HasActiveWindow(), "transactions never carry an active window")

	// terminal, nothing else applies
	_, err = eng.Apply(ctx, instance.Id, entity.ActionConfirm, provider, Options{})
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = eng.Apply(ctx, instance.Id, entity.ActionCancel, customer, Options{})
	require.ErrorIs(t, err, ErrInvalidTransition)

	records := historyFor(t, store, instance.Id)
	require.Len(t, records, 4)
	assert.Equal(t, entity.StateCompleted, records[3].ToState)
}

func TestTransactionCancelIsTerminal(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	customer := entity.Actor{Id: uuid.New(), Role: entity.RoleCustomer}
	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}

	instance, err := eng.Request(ctx, entity.KindTransaction, uuid.New(), customer, RequestInput{Amount: 50000, Method: entity.PaymentMethodCOD})
	require.NoError(t, err)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionCancel, customer, Options{Reason: "changed my mind"})
	require.NoError(t, err)
	assert.Equal(t, entity.StateCancelled, instance.State)

	_, err = eng.Apply(ctx, instance.Id, entity.ActionConfirm, provider, Options{})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConcurrentCompleteAndCancelOneWins(t *testing.T) {
	eng, store := newTestEngine()
	ctx := context.Background()

	customer := entity.Actor{Id: uuid.New(), Role: entity.RoleCustomer}
	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}

	instance, err := eng.Request(ctx, entity.KindTransaction, uuid.New(), customer, RequestInput{Amount: 50000, Method: entity.PaymentMethodTransfer})
	require.NoError(t, err)
	_, err = eng.Apply(ctx, instance.Id, entity.ActionConfirm, provider, Options{})
	require.NoError(t, err)
	_, err = eng.Apply(ctx, instance.Id, entity.ActionStart, provider, Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = eng.Apply(ctx, instance.Id, entity.ActionComplete, provider, Options{})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = eng.Apply(ctx, instance.Id, entity.ActionCancel, customer, Options{})
	}()
	wg.Wait()

	succeeded := 0
	for _, e := range errs {
		if e == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, e, ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one racing transition commits")

	final := instanceFor(t, store, instance.Id)
	assert.Contains(t, []entity.WorkflowState{entity.StateCompleted, entity.StateCancelled}, final.State)
	// request + confirm + start + exactly one winner
	assert.Len(t, historyFor(t, store, instance.Id), 4)
}

func TestAdvertisementPaymentTracking(t *testing.T) {
	eng, store := newTestEngine()
	ctx := context.Background()

	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	admin := entity.Actor{Id: uuid.New(), Role: entity.RoleAdmin}
	subjectId := uuid.New()

	instance, err := eng.Request(ctx, entity.KindAdvertisement, subjectId, provider, RequestInput{
		Amount: 25000,
		Method: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatePendingApproval, instance.State)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionApprove, admin, Options{})
	require.NoError(t, err)
	assert.Equal(t, entity.StateWaitingPayment, instance.State)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionUploadProof, provider, Options{ProofReference: "bucket/ad-proof.png"})
	require.NoError(t, err)
	assert.Equal(t, entity.StateWaitingPayment, instance.State)

	instance, err = eng.Apply(ctx, instance.Id, entity.ActionVerifyPayment, admin, Options{})
	require.NoError(t, err)
	assert.Equal(t, entity.StateWaitingPayment, instance.State)
	assert.False(t, instance.HasActiveWindow())

	attachment := paymentFor(t, store, subjectId)
	assert.Equal(t, entity.PaymentSubStatusVerified, attachment.SubStatus)
}
