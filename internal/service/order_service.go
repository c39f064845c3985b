package service

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// OrderService answers order queries for the HTTP API.
type OrderService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(st *store.Store) *OrderService {
	return &OrderService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// ListOrders returns the caller's orders, optionally narrowed by status.
func (s *OrderService) ListOrders(ctx context.Context, userID, status string, limit, offset int) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	if status != "" && !models.ValidStatus(status) {
		return nil, fmt.Errorf("unknown order status: %s", status)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.store.ListOrders(ctx, store.OrderFilter{
		UserID: userID,
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems fills Items for a page of orders with one batched query.
func (s *OrderService) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	items, err := s.store.GetOrderItemsByOrderIDs(ctx, ids)
	if err != nil {
		return err
	}

	byOrder := make(map[string][]models.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return nil
}

// GetOrder retrieves one of the caller's orders with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.UserID != userID {
		return nil, nil, fmt.Errorf("order not found: %s", orderID)
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// ListStores returns the active merchant stores.
func (s *OrderService) ListStores(ctx context.Context) ([]models.Store, error) {
	return s.store.GetStores(ctx)
}

// GetStore retrieves one merchant store by ID.
func (s *OrderService) GetStore(ctx context.Context, storeID string) (*models.Store, error) {
	return s.store.GetStoreByID(ctx, storeID)
}
