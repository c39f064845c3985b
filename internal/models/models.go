package models

import (
	"fmt"
	"time"
)

// Store represents a merchant store on the platform
type Store struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product represents a product in a store's catalog
type Product struct {
	ID        string    `db:"id" json:"id"`
	StoreID   string    `db:"store_id" json:"store_id"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CartItem is a single line in a device cart. Reservation lines carry a
// date and time and represent a bookable slot rather than a stocked unit.
type CartItem struct {
	ID              string `json:"id"`
	ProductID       string `json:"product_id"`
	StoreID         string `json:"store_id"`
	ProductName     string `json:"product_name"`
	UnitPrice       int64  `json:"unit_price"`
	Quantity        int    `json:"quantity"`
	ReservationDate string `json:"reservation_date,omitempty"`
	ReservationTime string `json:"reservation_time,omitempty"`
}

// IsReservation reports whether the line is a bookable slot.
func (ci *CartItem) IsReservation() bool {
	return ci.ReservationDate != "" || ci.ReservationTime != ""
}

// Key derives the identity key for a cart line. Non-reservation lines are
// unique per (store, product); reservation lines additionally per slot.
func (ci *CartItem) Key() string {
	if ci.IsReservation() {
		return fmt.Sprintf("%s-%s-%s-%s", ci.StoreID, ci.ProductID, ci.ReservationDate, ci.ReservationTime)
	}
	return fmt.Sprintf("%s-%s", ci.StoreID, ci.ProductID)
}

// Cart holds the lines for one device
type Cart struct {
	DeviceID  string     `json:"device_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Order represents a customer order, one per store per completed session
type Order struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	StoreID         string    `db:"store_id" json:"store_id"`
	SessionID       string    `db:"session_id" json:"session_id"`
	TotalAmount     int64     `db:"total_amount" json:"total_amount"`
	Status          string    `db:"status" json:"status"`
	ShippingAddress string    `db:"shipping_address" json:"shipping_address"`
	PaymentMethod   string    `db:"payment_method" json:"payment_method"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	// Items is populated by list/get queries, never written as a column.
	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem represents items in an order
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   string `db:"order_id" json:"order_id"`
	ProductID string `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Quantity  int    `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
}

// Order statuses
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPending        = "pending"
	OrderStatusProcessing     = "processing"
	OrderStatusShipped        = "shipped"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// allowedTransitions enumerates server-driven status moves
var allowedTransitions = map[string][]string{
	OrderStatusPendingPayment: {OrderStatusPending, OrderStatusCancelled},
	OrderStatusPending:        {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusPending, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// AddressSuggestion is the ephemeral result of an address validation call
type AddressSuggestion struct {
	Formatted  string  `json:"formatted"`
	ResultType string  `json:"result_type"`
	Confidence float64 `json:"confidence"`
	Valid      bool    `json:"valid"`
	Skipped    bool    `json:"skipped"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
