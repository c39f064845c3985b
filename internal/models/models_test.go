package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartItemKey(t *testing.T) {
	item := CartItem{ProductID: "p-1", StoreID: "s-1"}
	assert.Equal(t, "s-1-p-1", item.Key())
	assert.False(t, item.IsReservation())

	slot := CartItem{ProductID: "p-1", StoreID: "s-1", ReservationDate: "2026-09-01", ReservationTime: "14:00"}
	assert.Equal(t, "s-1-p-1-2026-09-01-14:00", slot.Key())
	assert.True(t, slot.IsReservation())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusPendingPayment, OrderStatusPending))
	assert.True(t, CanTransition(OrderStatusPendingPayment, OrderStatusCancelled))
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusProcessing))
	assert.True(t, CanTransition(OrderStatusProcessing, OrderStatusShipped))
	assert.True(t, CanTransition(OrderStatusShipped, OrderStatusDelivered))

	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusShipped, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusCancelled, OrderStatusPending))
	assert.False(t, CanTransition(OrderStatusPending, OrderStatusDelivered))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{
		OrderStatusPendingPayment, OrderStatusPending, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("paid"))
	assert.False(t, ValidStatus(""))
}
