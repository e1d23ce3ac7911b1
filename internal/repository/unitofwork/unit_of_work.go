package unitofwork

import (
	"context"

	"sabuconnect-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	WorkflowRepository() contract.WorkflowRepository
	PaymentRepository() contract.PaymentRepository
	TransitionRepository() contract.TransitionRepository
}
