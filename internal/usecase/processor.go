package usecase

import (
	"context"
	"fmt"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/config"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/ingestion"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/ingestion/handler"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/jetstream"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
	"go.uber.org/zap"
)

// Processor orchestrates event processing
type Processor struct {
	service        *EventService
	jsClient       jetstream.ClientInterface
	intakeConsumer *ingestion.IntakeConsumer
	reviewConsumer *ingestion.ReviewConsumer
	eventRouter    ingestion.RouterInterface
	intakeHandler  handler.IntakeHandlerInterface
	reviewHandler  handler.ReviewHandlerInterface
}

// NewProcessor creates a new processor with all components wired up
// Accepts the main config object to access NATS settings
func NewProcessor(service *EventService, jsClient jetstream.ClientInterface, cfg *config.Config, orgID string) *Processor {
	// Create the event router (shared by both consumers)
	router := ingestion.NewRouter()

	// Create handlers (used by the router)
	intakeHandler := handler.NewIntakeHandler(service)
	reviewHandler := handler.NewReviewHandler(service)

	// Create specific consumers using dedicated config from the main cfg object
	// Append orgID to consumer names for uniqueness
	intakeCfg := cfg.NATS.Intake // Access nested config
	intakeCfg.Consumer = intakeCfg.Consumer + orgID
	intakeCfg.QueueGroup = intakeCfg.QueueGroup + orgID
	// Pass DLQ subject from main config
	intakeConsumer := ingestion.NewIntakeConsumer(jsClient, router, intakeCfg, orgID, cfg.NATS.DLQSubject)

	reviewCfg := cfg.NATS.Review // Access nested config
	reviewCfg.Consumer = reviewCfg.Consumer + orgID
	reviewCfg.QueueGroup = reviewCfg.QueueGroup + orgID
	// Pass DLQ subject from main config
	reviewConsumer := ingestion.NewReviewConsumer(jsClient, router, reviewCfg, orgID, cfg.NATS.DLQSubject)

	return &Processor{
		service:        service,
		jsClient:       jsClient,
		intakeConsumer: intakeConsumer,
		reviewConsumer: reviewConsumer,
		eventRouter:    router,
		intakeHandler:  intakeHandler,
		reviewHandler:  reviewHandler,
	}
}

// GetRouter returns the processor's event router.
func (p *Processor) GetRouter() ingestion.RouterInterface {
	return p.eventRouter
}

// Setup sets up the processor by registering handlers and setting up both consumers
func (p *Processor) Setup() error {
	// Register event handlers

	p.eventRouter.Register(model.V1BatchesTriage, p.intakeHandler.HandleEvent)
	p.eventRouter.Register(model.V1SubmissionsCreate, p.reviewHandler.HandleEvent)

	// Default handler for unknown event types, we can use this as dlq or for logging
	p.eventRouter.RegisterDefault(func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		logger.FromContext(ctx).Warn("Unhandled event type",
			zap.String("type", string(eventType)),
			zap.String("version", eventType.GetVersion()),
			zap.String("base_type", string(eventType.GetBaseType())),
		)
		return nil
	})

	// Setup both consumers
	if err := p.intakeConsumer.Setup(); err != nil {
		return fmt.Errorf("failed to setup intake consumer: %w", err)
	}
	if err := p.reviewConsumer.Setup(); err != nil {
		return fmt.Errorf("failed to setup review consumer: %w", err)
	}

	logger.Log.Info("Processor setup complete for both consumers")
	return nil
}

// Start starts the processor by starting both consumers
func (p *Processor) Start() error {
	logger.Log.Info("Starting event processor with both consumers...")

	// Add panic recovery for the entire processor start sequence
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("[panic] Recovered from panic in processor",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	// Start both consumers
	if err := p.intakeConsumer.Start(); err != nil {
		p.reviewConsumer.Stop() // Stop review if intake failed
		return fmt.Errorf("failed to start intake consumer: %w", err)
	}
	if err := p.reviewConsumer.Start(); err != nil {
		// If review fails, stop the already started intake consumer
		p.intakeConsumer.Stop()
		return fmt.Errorf("failed to start review consumer: %w", err)
	}

	logger.Log.Info("Both consumers started successfully")
	return nil
}

// Stop stops the processor by stopping both consumers
func (p *Processor) Stop() {
	logger.Log.Info("Stopping event processor and both consumers...")
	p.reviewConsumer.Stop() // Stop review first
	p.intakeConsumer.Stop() // Then stop intake
	logger.Log.Info("Both consumers stopped")
}
