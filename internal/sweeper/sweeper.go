// FILE: internal/sweeper/sweeper.go

// Package sweeper closes elapsed active windows. It periodically scans for
// instances whose window end has passed and drives them through the regular
// expire transition, so the audit trail records the system actor like any
// other transition.
package sweeper

import (
	"context"
	"time"

	"sabuconnect-be/internal/engine"
	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/pkg/logger"
	"sabuconnect-be/internal/registry"
	"sabuconnect-be/internal/repository/unitofwork"
)

type Sweeper struct {
	engine     *engine.Engine
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	interval   time.Duration
}

func NewSweeper(eng *engine.Engine, uowFactory unitofwork.RepositoryFactory, log logger.ILogger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		engine:     eng,
		uowFactory: uowFactory,
		logger:     log,
		interval:   interval,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweeper", "sweep failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

// Sweep expires every instance whose active window has elapsed and returns
// how many it closed. Expiry goes through the engine, so a sweep racing a
// manual stop loses cleanly: the instance is already out of its active
// state and the expire attempt is skipped.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := time.Now()
	swept := 0

	for _, kind := range registry.Kinds() {
		table, ok := registry.For(kind)
		if !ok || table.Active == "" {
			continue
		}

		uow := s.uowFactory.NewUnitOfWork(ctx)
		expirable, err := uow.WorkflowRepository().FindExpirable(ctx, kind, table.Active, now)
		if err != nil {
			return swept, err
		}

		for _, instance := range expirable {
			if _, err := s.engine.Apply(ctx, instance.Id, entity.ActionExpire, entity.SystemActor, engine.Options{}); err != nil {
				// Someone transitioned it between the scan and the lock,
				// the next pass confirms there is nothing left to do.
				s.logger.Warn("sweeper", "expire skipped", map[string]interface{}{
					"instance_id": instance.Id,
					"error":       err.Error(),
				})
				continue
			}
			swept++
		}
	}

	if swept > 0 {
		s.logger.Info("sweeper", "windows expired", map[string]interface{}{
			"count": swept,
		})
	}
	return swept, nil
}
