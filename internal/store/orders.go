package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// OrderFilter narrows ListOrders results. Zero values are ignored.
type OrderFilter struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

// CreateSessionOrdersTx persists every order of a checkout session, with
// their items, in one transaction. A failure on any store leaves the
// session untouched so a retry starts from a clean slate.
func (s *Store) CreateSessionOrdersTx(ctx context.Context, orders []*models.Order, itemsByOrder [][]models.OrderItem) error {
	if len(orders) != len(itemsByOrder) {
		return fmt.Errorf("orders/items length mismatch: %d vs %d", len(orders), len(itemsByOrder))
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, order := range orders {
		if err := insertOrder(ctx, tx, order, itemsByOrder[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertOrder(ctx context.Context, tx *sqlx.Tx, order *models.Order, items []models.OrderItem) error {
	query := `
		INSERT INTO orders (id, user_id, store_id, session_id, total_amount, status, shipping_address, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	row := tx.QueryRowxContext(ctx, query,
		order.ID, order.UserID, order.StoreID, order.SessionID,
		order.TotalAmount, order.Status, order.ShippingAddress, order.PaymentMethod)
	if err := row.Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err := tx.GetContext(ctx, &items[i].ID, `
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].Name, items[i].Quantity, items[i].UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersBySessionID retrieves the orders created from a checkout session.
// Returns an empty slice when the session has not been finalized yet.
func (s *Store) GetOrdersBySessionID(ctx context.Context, sessionID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE session_id = $1 ORDER BY created_at", sessionID)
	return orders, err
}

// ListOrders retrieves orders matching the filter, newest first.
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	var conds []string
	var args []interface{}

	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := "SELECT * FROM orders"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, query, args...)
	return orders, err
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

// GetOrderItemsByOrderIDs retrieves items for multiple orders at once
func (s *Store) GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) ([]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []models.OrderItem{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM order_items WHERE order_id IN (?)", orderIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []models.OrderItem
	err = s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
