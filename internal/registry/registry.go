// FILE: internal/registry/registry.go
package registry

import (
	"sabuconnect-be/internal/entity"
)

// PaymentEffect is the attachment mutation a rule performs before the
// instance state is written.
type PaymentEffect int

const (
	EffectNone PaymentEffect = iota
	// EffectUploadProof stores the submitted proof reference, sub-status
	// stays pending until an admin acts.
	EffectUploadProof
	// EffectVerify marks the attachment verified by the acting admin.
	EffectVerify
	// EffectReject marks the attachment rejected with the given reason.
	EffectReject
	// EffectVerifyCOD verifies the attachment only when the method is COD.
	// Used by approval rules where COD skips the proof-upload cycle.
	EffectVerifyCOD
)

// Rule is one legal transition: (From, Action) guarded by Roles resolves
// to To, or to ToCOD when the attached payment method is COD and ToCOD is
// set.
type Rule struct {
	From      entity.WorkflowState
	Action    entity.WorkflowAction
	Roles     []entity.ActorRole
	OwnerOnly bool
	To        entity.WorkflowState
	ToCOD     entity.WorkflowState
	Effect    PaymentEffect
}

// Target resolves the destination state for the given payment method.
func (r *Rule) Target(method entity.PaymentMethod) entity.WorkflowState {
	if r.ToCOD != "" && method == entity.PaymentMethodCOD {
		return r.ToCOD
	}
	return r.To
}

// AllowsRole reports whether the actor role satisfies the rule guard.
func (r *Rule) AllowsRole(role entity.ActorRole) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Table is the full machine declaration for one workflow kind.
type Table struct {
	Kind         entity.WorkflowKind
	Initial      entity.WorkflowState
	Active       entity.WorkflowState // empty when the kind has no active state
	Terminal     []entity.WorkflowState
	RequestRoles []entity.ActorRole
	PaymentGated bool
	Rules        []Rule
}

// Lookup finds the rule for (from, action). Absence means the transition
// is illegal from that state.
func (t *Table) Lookup(from entity.WorkflowState, action entity.WorkflowAction) (*Rule, bool) {
	for i := range t.Rules {
		if t.Rules[i].From == from && t.Rules[i].Action == action {
			return &t.Rules[i], true
		}
	}
	return nil, false
}

func (t *Table) IsTerminal(s entity.WorkflowState) bool {
	for _, terminal := range t.Terminal {
		if terminal == s {
			return true
		}
	}
	return false
}

// RequiresVerifiedPayment reports whether entering the given state is
// gated on a verified payment attachment.
func (t *Table) RequiresVerifiedPayment(to entity.WorkflowState) bool {
	return t.PaymentGated && t.Active != "" && to == t.Active
}

// AllowsRequest reports whether the role may open a new cycle of this kind.
func (t *Table) AllowsRequest(role entity.ActorRole) bool {
	for _, allowed := range t.RequestRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

var tables = map[entity.WorkflowKind]*Table{
	entity.KindListingPromotion: {
		Kind:         entity.KindListingPromotion,
		Initial:      entity.StatePendingApproval,
		Active:       entity.StateActive,
		Terminal:     []entity.WorkflowState{entity.StateRejected, entity.StateStopped, entity.StateExpired},
		RequestRoles: []entity.ActorRole{entity.RoleProvider},
		PaymentGated: true,
		Rules: []Rule{
			{
				From:   entity.StatePendingApproval,
				Action: entity.ActionApprove,
				Roles:  []entity.ActorRole{entity.RoleAdmin},
				To:     entity.StateWaitingPayment,
				ToCOD:  entity.StateActive,
				Effect: EffectVerifyCOD,
			},
			{
				From:   entity.StatePendingApproval,
				Action: entity.ActionReject,
				Roles:  []entity.ActorRole{entity.RoleAdmin},
				To:     entity.StateRejected,
				Effect: EffectReject,
			},
			{
				From:      entity.StateWaitingPayment,
				Action:    entity.ActionUploadProof,
				Roles:     []entity.ActorRole{entity.RoleProvider},
				OwnerOnly: true,
				To:        entity.StatePaymentUploaded,
				Effect:    EffectUploadProof,
			},
			{
				From:   entity.StatePaymentUploaded,
				Action: entity.ActionVerifyPayment,
				Roles:  []entity.ActorRole{entity.RoleAdmin},
				To:     entity.StateActive,
				Effect: EffectVerify,
			},
			{
				From:   entity.StatePaymentUploaded,
				Action: entity.ActionRejectPayment,
				Roles:  []entity.ActorRole{entity.RoleAdmin},
				To:     entity.StateRejected,
				Effect: EffectReject,
			},
			{
				From:      entity.StateActive,
				Action:    entity.ActionStop,
				Roles:     []entity.ActorRole{entity.RoleProvider, entity.RoleAdmin},
				OwnerOnly: true,
				To:        entity.StateStopped,
			},
			{
				From:   entity.StateActive,
				Action: entity.ActionExpire,
				Roles:  []entity.ActorRole{entity.RoleSystem},
				To:     entity.StateExpired,
			},
		},
	},
	entity.KindAdvertisement: {
		Kind:         entity.KindAdvertisement,
		Initial:      entity.StatePendingApproval,
		Terminal:     []entity.WorkflowState{entity.StateRejected},
		RequestRoles: []entity.ActorRole{entity.RoleProvider},
		Rules: []Rule{
			{
				From:   entity.StatePendingApproval,
				Action: entity.ActionApprove,
				Roles:  []entity.ActorRole{entity.RoleAdmin},
				To:     entity.StateWaitingPayment,
			},
			{
				From:   entity.StatePendingApproval,
				Action: entity.ActionReject,
				Roles:  []entity.ActorRole{entity.RoleAdmin},
				To:     entity.StateRejected,
				Effect: EffectReject,
			},
			// Payment tracking happens on the same instance without
			// further lifecycle states.
			{
				From:      entity.StateWaitingPayment,
				Action:    entity.ActionUploadProof,
				Roles:     []entity.ActorRole{entity.RoleProvider},
				OwnerOnly: true,
				To:        entity.StateWaitingPayment,
				Effect:    EffectUploadProof,
			},
			{
				From:   entity.StateWaitingPayment,
				Action: entity.ActionVerifyPayment,
				Roles:  []entity.ActorRole{entity.RoleAdmin},
				To:     entity.StateWaitingPayment,
				Effect: EffectVerify,
			},
			{
				From:   entity.StateWaitingPayment,
				Action: entity.ActionRejectPayment,
				Roles:  []entity.ActorRole{entity.RoleAdmin},
				To:     entity.StateRejected,
				Effect: EffectReject,
			},
		},
	},
	entity.KindTransaction: {
		Kind:         entity.KindTransaction,
		Initial:      entity.StatePending,
		Terminal:     []entity.WorkflowState{entity.StateCompleted, entity.StateCancelled},
		RequestRoles: []entity.ActorRole{entity.RoleCustomer},
		Rules: []Rule{
			{
				From:   entity.StatePending,
				Action: entity.ActionConfirm,
				Roles:  []entity.ActorRole{entity.RoleProvider, entity.RoleAdmin},
				To:     entity.StateConfirmed,
			},
			{
				From:   entity.StatePending,
				Action: entity.ActionCancel,
				Roles:  []entity.ActorRole{entity.RoleCustomer, entity.RoleProvider, entity.RoleAdmin},
				To:     entity.StateCancelled,
			},
			{
				From:   entity.StateConfirmed,
				Action: entity.ActionStart,
				Roles:  []entity.ActorRole{entity.RoleProvider, entity.RoleAdmin},
				To:     entity.StateInProgress,
			},
			{
				From:   entity.StateConfirmed,
				Action: entity.ActionCancel,
				Roles:  []entity.ActorRole{entity.RoleCustomer, entity.RoleProvider, entity.RoleAdmin},
				To:     entity.StateCancelled,
			},
			{
				From:   entity.StateInProgress,
				Action: entity.ActionComplete,
				Roles:  []entity.ActorRole{entity.RoleProvider, entity.RoleAdmin},
				To:     entity.StateCompleted,
			},
			{
				From:   entity.StateInProgress,
				Action: entity.ActionCancel,
				Roles:  []entity.ActorRole{entity.RoleCustomer, entity.RoleProvider, entity.RoleAdmin},
				To:     entity.StateCancelled,
			},
		},
	},
}

// For returns the transition table for a kind.
func For(kind entity.WorkflowKind) (*Table, bool) {
	t, ok := tables[kind]
	return t, ok
}

// Kinds lists all registered workflow kinds.
func Kinds() []entity.WorkflowKind {
	kinds := make([]entity.WorkflowKind, 0, len(tables))
	for k := range tables {
		kinds = append(kinds, k)
	}
	return kinds
}
