package models

import "time"

// Event types
const (
	EventTypeOrderCreated     = "ORDER_CREATED"
	EventTypeOrderStatus      = "ORDER_STATUS_CHANGED"
	EventTypePaymentSucceeded = "PAYMENT_SUCCEEDED"
	EventTypePaymentFailed    = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when checkout completion persists an order
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	UserEmail   string          `json:"user_email,omitempty"`
	StoreID     string          `json:"store_id"`
	SessionID   string          `json:"session_id"`
	TotalAmount int64           `json:"total_amount"`
	Status      string          `json:"status"`
	Items       []OrderItemData `json:"items"`
}

// OrderStatusEvent published when an order moves to a new status
type OrderStatusEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// PaymentSucceededEvent published from the provider webhook
type PaymentSucceededEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
	TxID      string `json:"tx_id"`
}

// PaymentFailedEvent published from the provider webhook
type PaymentFailedEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}
