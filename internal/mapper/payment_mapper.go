package mapper

import (
	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/model"
)

type PaymentMapper struct{}

func NewPaymentMapper() *PaymentMapper {
	return &PaymentMapper{}
}

func (m *PaymentMapper) ToEntity(p *model.PaymentAttachment) *entity.PaymentAttachment {
	if p == nil {
		return nil
	}
	return &entity.PaymentAttachment{
		Id:              p.Id,
		SubjectId:       p.SubjectId,
		Kind:            entity.WorkflowKind(p.Kind),
		Amount:          p.Amount,
		Method:          entity.PaymentMethod(p.Method),
		ProofReference:  p.ProofReference,
		SubStatus:       entity.PaymentSubStatus(p.SubStatus),
		VerifiedBy:      p.VerifiedBy,
		VerifiedAt:      p.VerifiedAt,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (m *PaymentMapper) ToModel(p *entity.PaymentAttachment) *model.PaymentAttachment {
	if p == nil {
		return nil
	}
	return &model.PaymentAttachment{
		Id:              p.Id,
		SubjectId:       p.SubjectId,
		Kind:            string(p.Kind),
		Amount:          p.Amount,
		Method:          string(p.Method),
		ProofReference:  p.ProofReference,
		SubStatus:       string(p.SubStatus),
		VerifiedBy:      p.VerifiedBy,
		VerifiedAt:      p.VerifiedAt,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
