package worker

import (
	"context"

	"storefront-service/internal/broker"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// StatusWorker consumes order lifecycle and payment outcome events and
// drives status transitions and confirmation mail through the orchestrator.
type StatusWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewStatusWorker creates a new status worker
func NewStatusWorker(consumer *broker.Consumer, orchestrator *service.StatusOrchestrator) *StatusWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderCreated(orchestrator.HandleOrderCreated)
	eventHandler.OnPaymentSucceeded(orchestrator.HandlePaymentSucceeded)
	eventHandler.OnPaymentFailed(orchestrator.HandlePaymentFailed)

	return &StatusWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start starts the worker
func (w *StatusWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting status worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StatusWorker) Stop() error {
	w.logger.Info("Stopping status worker")
	return w.consumer.Close()
}
