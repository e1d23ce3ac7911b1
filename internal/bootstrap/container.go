package bootstrap

import (
	"context"
	"log"

	"sabuconnect-be/internal/config"
	"sabuconnect-be/internal/controller"
	"sabuconnect-be/internal/engine"
	"sabuconnect-be/internal/pkg/logger"
	"sabuconnect-be/internal/repository/unitofwork"
	"sabuconnect-be/internal/service"
	"sabuconnect-be/internal/sweeper"

	"sabuconnect-be/pkg/events"
	pktNats "sabuconnect-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	WorkflowController controller.IWorkflowController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	Sweeper         *sweeper.Sweeper

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		// Durable audit tail of the transition stream.
		err = natsSub.Subscribe("events.WORKFLOW_TRANSITION", "workflow-transition-audit", func(ctx context.Context, event events.Event) error {
			sysLogger.Info("event_stream", "transition delivered", event.Payload())
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to transition events: %v", err)
		}
	}

	// 3. Core engine
	workflowEngine := engine.NewEngine(uowFactory, sysLogger, cfg.Workflow.PromotionDefaultDays)
	windowSweeper := sweeper.NewSweeper(workflowEngine, uowFactory, sysLogger, cfg.Workflow.SweepInterval)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Workflow.TransitionTopic, pubSub)
	workflowService := service.NewWorkflowService(workflowEngine, uowFactory, publisherService, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.Workflow.TransitionTopic, natsPub, sysLogger)

	// 5. Controllers
	workflowController := controller.NewWorkflowController(workflowService)

	return &Container{
		WorkflowController: workflowController,
		ConsumerService:    consumerService,
		Sweeper:            windowSweeper,
		Logger:             sysLogger,
	}
}
