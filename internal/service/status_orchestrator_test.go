package service

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusStore struct {
	bySession map[string][]models.Order
	statuses  map[string]string
	processed map[string]bool
}

func newFakeStatusStore(orders ...models.Order) *fakeStatusStore {
	f := &fakeStatusStore{
		bySession: make(map[string][]models.Order),
		statuses:  make(map[string]string),
		processed: make(map[string]bool),
	}
	for _, o := range orders {
		f.bySession[o.SessionID] = append(f.bySession[o.SessionID], o)
		f.statuses[o.ID] = o.Status
	}
	return f
}

func (f *fakeStatusStore) GetOrdersBySessionID(_ context.Context, sessionID string) ([]models.Order, error) {
	return f.bySession[sessionID], nil
}

func (f *fakeStatusStore) UpdateOrderStatus(_ context.Context, orderID, status string) error {
	f.statuses[orderID] = status
	return nil
}

func (f *fakeStatusStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeStatusStore) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	f.processed[eventID] = true
	return nil
}

type fakeStatusPublisher struct {
	events []*models.OrderStatusEvent
}

func (f *fakeStatusPublisher) PublishOrderStatus(_ context.Context, event *models.OrderStatusEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) SendOrderConfirmation(_ context.Context, to string, _ *models.Order, _ []models.OrderItem) error {
	f.sent = append(f.sent, to)
	return nil
}

func paymentSucceeded(eventID, sessionID string) *models.PaymentSucceededEvent {
	return &models.PaymentSucceededEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypePaymentSucceeded,
			Timestamp: time.Now(),
		},
		SessionID: sessionID,
		TxID:      "tx-1",
	}
}

func TestPaymentSucceededAdvancesOrders(t *testing.T) {
	st := newFakeStatusStore(
		models.Order{ID: "o-1", SessionID: "cs_1", Status: models.OrderStatusPendingPayment},
		models.Order{ID: "o-2", SessionID: "cs_1", Status: models.OrderStatusPendingPayment},
	)
	pub := &fakeStatusPublisher{}
	so := NewStatusOrchestrator(st, pub, &fakeMailer{})

	err := so.HandlePaymentSucceeded(context.Background(), paymentSucceeded("evt-1", "cs_1"))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, st.statuses["o-1"])
	assert.Equal(t, models.OrderStatusPending, st.statuses["o-2"])
	assert.Len(t, pub.events, 2)
	assert.True(t, st.processed["evt-1"])
}

func TestPaymentSucceededIsIdempotent(t *testing.T) {
	st := newFakeStatusStore(
		models.Order{ID: "o-1", SessionID: "cs_1", Status: models.OrderStatusPendingPayment},
	)
	pub := &fakeStatusPublisher{}
	so := NewStatusOrchestrator(st, pub, &fakeMailer{})

	event := paymentSucceeded("evt-1", "cs_1")
	require.NoError(t, so.HandlePaymentSucceeded(context.Background(), event))
	require.NoError(t, so.HandlePaymentSucceeded(context.Background(), event))

	assert.Len(t, pub.events, 1, "second delivery is a no-op")
}

func TestPaymentFailedCancelsUnpaidOrders(t *testing.T) {
	st := newFakeStatusStore(
		models.Order{ID: "o-1", SessionID: "cs_1", Status: models.OrderStatusPendingPayment},
	)
	pub := &fakeStatusPublisher{}
	so := NewStatusOrchestrator(st, pub, &fakeMailer{})

	err := so.HandlePaymentFailed(context.Background(), &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-2", EventType: models.EventTypePaymentFailed, Timestamp: time.Now()},
		SessionID: "cs_1",
		Reason:    "card_declined",
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, st.statuses["o-1"])
}

func TestDisallowedTransitionIsSkipped(t *testing.T) {
	st := newFakeStatusStore(
		models.Order{ID: "o-1", SessionID: "cs_1", Status: models.OrderStatusDelivered},
	)
	pub := &fakeStatusPublisher{}
	so := NewStatusOrchestrator(st, pub, &fakeMailer{})

	err := so.HandlePaymentFailed(context.Background(), &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-3", EventType: models.EventTypePaymentFailed, Timestamp: time.Now()},
		SessionID: "cs_1",
		Reason:    "chargeback",
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusDelivered, st.statuses["o-1"], "delivered orders are never cancelled by payment events")
	assert.Empty(t, pub.events)
}

func TestPaymentEventForUnknownSession(t *testing.T) {
	st := newFakeStatusStore()
	so := NewStatusOrchestrator(st, &fakeStatusPublisher{}, &fakeMailer{})

	err := so.HandlePaymentSucceeded(context.Background(), paymentSucceeded("evt-4", "cs_missing"))
	assert.NoError(t, err, "unknown sessions are logged, not failed")
}

func orderCreated(eventID, email string) *models.OrderCreatedEvent {
	return &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:     "o-1",
		UserID:      "user-1",
		UserEmail:   email,
		StoreID:     "s-1",
		SessionID:   "cs_1",
		TotalAmount: 2500,
		Status:      models.OrderStatusPending,
		Items: []models.OrderItemData{
			{ProductID: "p-1", Name: "Mug", Quantity: 2, UnitPrice: 1000},
		},
	}
}

func TestOrderCreatedSendsConfirmation(t *testing.T) {
	st := newFakeStatusStore()
	mail := &fakeMailer{}
	so := NewStatusOrchestrator(st, &fakeStatusPublisher{}, mail)

	err := so.HandleOrderCreated(context.Background(), orderCreated("evt-5", "user@example.com"))
	require.NoError(t, err)

	assert.Equal(t, []string{"user@example.com"}, mail.sent)
	assert.True(t, st.processed["evt-5"])
}

func TestOrderCreatedIsIdempotent(t *testing.T) {
	st := newFakeStatusStore()
	mail := &fakeMailer{}
	so := NewStatusOrchestrator(st, &fakeStatusPublisher{}, mail)

	event := orderCreated("evt-6", "user@example.com")
	require.NoError(t, so.HandleOrderCreated(context.Background(), event))
	require.NoError(t, so.HandleOrderCreated(context.Background(), event))

	assert.Len(t, mail.sent, 1, "redelivery must not send a second confirmation")
}

func TestOrderCreatedWithoutEmailSkipsMail(t *testing.T) {
	st := newFakeStatusStore()
	mail := &fakeMailer{}
	so := NewStatusOrchestrator(st, &fakeStatusPublisher{}, mail)

	err := so.HandleOrderCreated(context.Background(), orderCreated("evt-7", ""))
	require.NoError(t, err)

	assert.Empty(t, mail.sent)
	assert.True(t, st.processed["evt-7"], "event is still consumed")
}
