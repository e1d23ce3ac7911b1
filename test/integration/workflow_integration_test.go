package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"sabuconnect-be/internal/engine"
	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/pkg/logger"
	"sabuconnect-be/internal/repository/unitofwork"
	"sabuconnect-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a migrated database (cmd/migrate) behind DB_CONNECTION_STRING.
func TestWorkflowEngineAgainstPostgres(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	eng := engine.NewEngine(uowFactory, logger.NewNop(), 7)
	ctx := context.Background()

	provider := entity.Actor{Id: uuid.New(), Role: entity.RoleProvider}
	admin := entity.Actor{Id: uuid.New(), Role: entity.RoleAdmin}
	subjectId := uuid.New()

	instance, err := eng.Request(ctx, entity.KindListingPromotion, subjectId, provider, engine.RequestInput{
		Amount: 7000,
		Method: entity.PaymentMethodTransfer,
		Days:   7,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatePendingApproval, instance.State)

	t.Run("Transition To Active", func(t *testing.T) {
		instance, err = eng.Apply(ctx, instance.Id, entity.ActionApprove, admin, engine.Options{})
		require.NoError(t, err)

		instance, err = eng.Apply(ctx, instance.Id, entity.ActionUploadProof, provider, engine.Options{ProofReference: "uploads/proof.jpg"})
		require.NoError(t, err)

		instance, err = eng.Apply(ctx, instance.Id, entity.ActionVerifyPayment, admin, engine.Options{})
		require.NoError(t, err)
		assert.Equal(t, entity.StateActive, instance.State)
		assert.True(t, instance.HasActiveWindow())
	})

	t.Run("Persisted Rows Survive Reload", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)

		reloaded, err := uow.WorkflowRepository().FindByID(ctx, instance.Id)
		require.NoError(t, err)
		require.NotNil(t, reloaded)
		assert.Equal(t, entity.StateActive, reloaded.State)

		payment, err := uow.PaymentRepository().FindBySubject(ctx, subjectId)
		require.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, entity.PaymentSubStatusVerified, payment.SubStatus)

		records, err := uow.TransitionRepository().FindByInstance(ctx, instance.Id)
		require.NoError(t, err)
		assert.Len(t, records, 4)
	})

	t.Run("Stop Ends The Cycle", func(t *testing.T) {
		instance, err = eng.Apply(ctx, instance.Id, entity.ActionStop, provider, engine.Options{})
		require.NoError(t, err)
		assert.Equal(t, entity.StateStopped, instance.State)
		assert.False(t, instance.HasActiveWindow())
	})
}
