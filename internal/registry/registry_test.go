package registry

import (
	"testing"

	"sabuconnect-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestLookupLegalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		kind   entity.WorkflowKind
		from   entity.WorkflowState
		action entity.WorkflowAction
		wantTo entity.WorkflowState
	}{
		{"promotion approve", entity.KindListingPromotion, entity.StatePendingApproval, entity.ActionApprove, entity.StateWaitingPayment},
		{"promotion reject", entity.KindListingPromotion, entity.StatePendingApproval, entity.ActionReject, entity.StateRejected},
		{"promotion upload proof", entity.KindListingPromotion, entity.StateWaitingPayment, entity.ActionUploadProof, entity.StatePaymentUploaded},
		{"promotion verify payment", entity.KindListingPromotion, entity.StatePaymentUploaded, entity.ActionVerifyPayment, entity.StateActive},
		{"promotion reject payment", entity.KindListingPromotion, entity.StatePaymentUploaded, entity.ActionRejectPayment, entity.StateRejected},
		{"promotion stop", entity.KindListingPromotion, entity.StateActive, entity.ActionStop, entity.StateStopped},
		{"promotion expire", entity.KindListingPromotion, entity.StateActive, entity.ActionExpire, entity.StateExpired},
		{"ad approve", entity.KindAdvertisement, entity.StatePendingApproval, entity.ActionApprove, entity.StateWaitingPayment},
		{"ad reject", entity.KindAdvertisement, entity.StatePendingApproval, entity.ActionReject, entity.StateRejected},
		{"ad verify keeps state", entity.KindAdvertisement, entity.StateWaitingPayment, entity.ActionVerifyPayment, entity.StateWaitingPayment},
		{"transaction confirm", entity.KindTransaction, entity.StatePending, entity.ActionConfirm, entity.StateConfirmed},
		{"transaction cancel pending", entity.KindTransaction, entity.StatePending, entity.ActionCancel, entity.StateCancelled},
		{"transaction start", entity.KindTransaction, entity.StateConfirmed, entity.ActionStart, entity.StateInProgress},
		{"transaction cancel confirmed", entity.KindTransaction, entity.StateConfirmed, entity.ActionCancel, entity.StateCancelled},
		{"transaction complete", entity.KindTransaction, entity.StateInProgress, entity.ActionComplete, entity.StateCompleted},
		{"transaction cancel in progress", entity.KindTransaction, entity.StateInProgress, entity.ActionCancel, entity.StateCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, ok := For(tt.kind)
			if !ok {
				t.Fatalf("no table for kind %s", tt.kind)
			}
			rule, ok := table.Lookup(tt.from, tt.action)
			if !ok {
				t.Fatalf("expected rule for (%s, %s)", tt.from, tt.action)
			}
			assert.Equal(t, tt.wantTo, rule.To)
		})
	}
}

func TestLookupIllegalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		kind   entity.WorkflowKind
		from   entity.WorkflowState
		action entity.WorkflowAction
	}{
		{"promotion cannot expire before active", entity.KindListingPromotion, entity.StatePendingApproval, entity.ActionExpire},
		{"promotion cannot verify without upload", entity.KindListingPromotion, entity.StateWaitingPayment, entity.ActionVerifyPayment},
		{"promotion cannot re-approve active", entity.KindListingPromotion, entity.StateActive, entity.ActionApprove},
		{"stopped is terminal", entity.KindListingPromotion, entity.StateStopped, entity.ActionApprove},
		{"expired is terminal", entity.KindListingPromotion, entity.StateExpired, entity.ActionStop},
		{"ad has no stop", entity.KindAdvertisement, entity.StateWaitingPayment, entity.ActionStop},
		{"cancelled is terminal", entity.KindTransaction, entity.StateCancelled, entity.ActionConfirm},
		{"completed is terminal", entity.KindTransaction, entity.StateCompleted, entity.ActionCancel},
		{"transaction cannot complete from pending", entity.KindTransaction, entity.StatePending, entity.ActionComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, ok := For(tt.kind)
			if !ok {
				t.Fatalf("no table for kind %s", tt.kind)
			}
			_, ok = table.Lookup(tt.from, tt.action)
			assert.False(t, ok)
		})
	}
}

func TestTerminalStatesHaveNoOutgoingRules(t *testing.T) {
	for _, kind := range Kinds() {
		table, _ := For(kind)
		for _, terminal := range table.Terminal {
			for _, rule := range table.Rules {
				if rule.From == terminal {
					t.Errorf("%s: terminal state %s has outgoing rule %s", kind, terminal, rule.Action)
				}
			}
		}
	}
}

func TestCODBranchTargets(t *testing.T) {
	table, _ := For(entity.KindListingPromotion)
	rule, ok := table.Lookup(entity.StatePendingApproval, entity.ActionApprove)
	if !ok {
		t.Fatal("approve rule missing")
	}

	assert.Equal(t, entity.StateWaitingPayment, rule.Target(entity.PaymentMethodTransfer))
	assert.Equal(t, entity.StateActive, rule.Target(entity.PaymentMethodCOD))
	assert.Equal(t, EffectVerifyCOD, rule.Effect)
}

func TestRequiresVerifiedPayment(t *testing.T) {
	promo, _ := For(entity.KindListingPromotion)
	assert.True(t, promo.RequiresVerifiedPayment(entity.StateActive))
	assert.False(t, promo.RequiresVerifiedPayment(entity.StateWaitingPayment))

	// Transactions never gate on payment, ads have no active state.
	tx, _ := For(entity.KindTransaction)
	assert.False(t, tx.RequiresVerifiedPayment(entity.StateCompleted))
	ad, _ := For(entity.KindAdvertisement)
	assert.False(t, ad.RequiresVerifiedPayment(entity.StateWaitingPayment))
}

func TestRoleGuards(t *testing.T) {
	promo, _ := For(entity.KindListingPromotion)

	verify, _ := promo.Lookup(entity.StatePaymentUploaded, entity.ActionVerifyPayment)
	assert.True(t, verify.AllowsRole(entity.RoleAdmin))
	assert.False(t, verify.AllowsRole(entity.RoleProvider))

	expire, _ := promo.Lookup(entity.StateActive, entity.ActionExpire)
	assert.True(t, expire.AllowsRole(entity.RoleSystem))
	assert.False(t, expire.AllowsRole(entity.RoleAdmin))

	upload, _ := promo.Lookup(entity.StateWaitingPayment, entity.ActionUploadProof)
	assert.True(t, upload.OwnerOnly)

	assert.True(t, promo.AllowsRequest(entity.RoleProvider))
	assert.False(t, promo.AllowsRequest(entity.RoleCustomer))

	tx, _ := For(entity.KindTransaction)
	assert.True(t, tx.AllowsRequest(entity.RoleCustomer))
}
