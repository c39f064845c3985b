package service

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusStore is the slice of the store the orchestrator needs.
type StatusStore interface {
	GetOrdersBySessionID(ctx context.Context, sessionID string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// StatusEventPublisher publishes order status change events.
type StatusEventPublisher interface {
	PublishOrderStatus(ctx context.Context, event *models.OrderStatusEvent) error
}

// Mailer sends the order confirmation. Implementations must treat a missing
// mail configuration as a silent skip, not an error.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, to string, order *models.Order, items []models.OrderItem) error
}

// StatusOrchestrator applies provider payment outcomes to orders and fans
// out OrderCreated side effects. It is the only writer of status changes
// after order creation.
type StatusOrchestrator struct {
	store  StatusStore
	events StatusEventPublisher
	mailer Mailer
	logger *zap.Logger
}

// NewStatusOrchestrator creates a new status orchestrator
func NewStatusOrchestrator(st StatusStore, events StatusEventPublisher, mailer Mailer) *StatusOrchestrator {
	return &StatusOrchestrator{
		store:  st,
		events: events,
		mailer: mailer,
		logger: util.GetLogger(),
	}
}

// HandleOrderCreated sends the order confirmation email. Creation and the
// email are decoupled on purpose: a slow or failing SMTP host must never
// hold up checkout completion.
func (so *StatusOrchestrator) HandleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	ctx, span := util.StartSpan(ctx, "StatusOrchestrator.HandleOrderCreated")
	defer span.End()

	processed, err := so.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		so.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if event.UserEmail != "" {
		order := &models.Order{
			ID:          event.OrderID,
			UserID:      event.UserID,
			StoreID:     event.StoreID,
			SessionID:   event.SessionID,
			TotalAmount: event.TotalAmount,
			Status:      event.Status,
		}
		items := make([]models.OrderItem, len(event.Items))
		for i, it := range event.Items {
			items[i] = models.OrderItem{
				OrderID:   event.OrderID,
				ProductID: it.ProductID,
				Name:      it.Name,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			}
		}

		if err := so.mailer.SendOrderConfirmation(ctx, event.UserEmail, order, items); err != nil {
			so.logger.Warn("Failed to send order confirmation",
				zap.String("order_id", event.OrderID),
				zap.Error(err))
		}
	}

	if err := so.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		so.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}

// HandlePaymentSucceeded moves the session's orders out of pending_payment.
func (so *StatusOrchestrator) HandlePaymentSucceeded(ctx context.Context, event *models.PaymentSucceededEvent) error {
	ctx, span := util.StartSpan(ctx, "StatusOrchestrator.HandlePaymentSucceeded")
	defer span.End()

	processed, err := so.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		so.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	so.logger.Info("Handling payment success",
		zap.String("session_id", event.SessionID),
		zap.String("tx_id", event.TxID))

	if err := so.transitionSession(ctx, event.SessionID, models.OrderStatusPending); err != nil {
		return err
	}

	if err := so.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		so.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}

// HandlePaymentFailed cancels the session's unpaid orders.
func (so *StatusOrchestrator) HandlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	ctx, span := util.StartSpan(ctx, "StatusOrchestrator.HandlePaymentFailed")
	defer span.End()

	processed, err := so.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		so.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	so.logger.Warn("Handling payment failure",
		zap.String("session_id", event.SessionID),
		zap.String("reason", event.Reason))

	if err := so.transitionSession(ctx, event.SessionID, models.OrderStatusCancelled); err != nil {
		return err
	}

	if err := so.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		so.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}

// transitionSession applies a status to every order of a session that is
// allowed to move there. Orders in other states are left untouched.
func (so *StatusOrchestrator) transitionSession(ctx context.Context, sessionID, to string) error {
	orders, err := so.store.GetOrdersBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get orders for session: %w", err)
	}
	if len(orders) == 0 {
		so.logger.Warn("Payment event for unknown session", zap.String("session_id", sessionID))
		return nil
	}

	for _, order := range orders {
		if !models.CanTransition(order.Status, to) {
			so.logger.Info("Skipping disallowed status transition",
				zap.String("order_id", order.ID),
				zap.String("from", order.Status),
				zap.String("to", to))
			continue
		}

		if err := so.store.UpdateOrderStatus(ctx, order.ID, to); err != nil {
			return fmt.Errorf("failed to update order %s: %w", order.ID, err)
		}

		util.OrderStatusChangesTotal.WithLabelValues(to).Inc()

		event := &models.OrderStatusEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderStatus,
				Timestamp: time.Now(),
			},
			OrderID: order.ID,
			From:    order.Status,
			To:      to,
		}
		if err := so.events.PublishOrderStatus(ctx, event); err != nil {
			so.logger.Error("Failed to publish status event", zap.Error(err))
		}

		so.logger.Info("Order status updated",
			zap.String("order_id", order.ID),
			zap.String("from", order.Status),
			zap.String("to", to))
	}

	return nil
}
