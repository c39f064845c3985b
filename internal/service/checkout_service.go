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

// OrderWriter is the slice of the store the checkout flow needs. All of a
// session's orders are persisted in one transaction so a retry never sees
// a half-finalized session.
type OrderWriter interface {
	CreateSessionOrdersTx(ctx context.Context, orders []*models.Order, itemsByOrder [][]models.OrderItem) error
	GetOrdersBySessionID(ctx context.Context, sessionID string) ([]models.Order, error)
}

// OrderEventPublisher publishes order lifecycle events.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
}

// SessionLocker serializes concurrent completions of the same session.
type SessionLocker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// CheckoutService finalizes provider checkout sessions into persisted orders.
type CheckoutService struct {
	orders   OrderWriter
	sessions SessionClient
	catalog  ProductCatalog
	carts    *CartService
	events   OrderEventPublisher
	locker   SessionLocker
	logger   *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	orders OrderWriter,
	sessions SessionClient,
	catalog ProductCatalog,
	carts *CartService,
	events OrderEventPublisher,
	locker SessionLocker,
) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		sessions: sessions,
		catalog:  catalog,
		carts:    carts,
		events:   events,
		locker:   locker,
		logger:   util.GetLogger(),
	}
}

// CompleteRequest identifies the session being finalized and its owner.
type CompleteRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"-"`
	UserEmail string `json:"-"`
	DeviceID  string `json:"device_id,omitempty"`
}

// CompleteResult is always returned to the caller; raw faults never escape.
type CompleteResult struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	OrderIDs []string `json:"order_ids,omitempty"`
}

// Complete finalizes a checkout session into one order per store.
// Missing session or user fail fast before any provider call. A session
// already finalized returns the previously created order IDs.
func (s *CheckoutService) Complete(ctx context.Context, req *CompleteRequest) *CompleteResult {
	if req.SessionID == "" {
		util.CheckoutsFailedTotal.WithLabelValues("missing_session").Inc()
		return &CompleteResult{Success: false, Message: "missing checkout session"}
	}
	if req.UserID == "" {
		util.CheckoutsFailedTotal.WithLabelValues("unauthenticated").Inc()
		return &CompleteResult{Success: false, Message: "authentication required"}
	}

	ctx, span := util.StartSpan(ctx, "CheckoutService.Complete")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	acquired, err := s.locker.AcquireLock(ctx, "session:"+req.SessionID, 30*time.Second)
	if err != nil {
		s.logger.Error("Failed to acquire session lock",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		util.CheckoutsFailedTotal.WithLabelValues("lock_error").Inc()
		return &CompleteResult{Success: false, Message: "checkout is temporarily unavailable, please retry"}
	}
	if !acquired {
		util.CheckoutsFailedTotal.WithLabelValues("in_progress").Inc()
		return &CompleteResult{Success: false, Message: "checkout is already being processed"}
	}
	defer func() {
		if err := s.locker.ReleaseLock(ctx, "session:"+req.SessionID); err != nil {
			s.logger.Warn("Failed to release session lock", zap.Error(err))
		}
	}()

	existing, err := s.orders.GetOrdersBySessionID(ctx, req.SessionID)
	if err != nil {
		s.logger.Error("Failed to check existing orders", zap.Error(err))
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return &CompleteResult{Success: false, Message: "failed to look up checkout session"}
	}
	if len(existing) > 0 {
		ids := make([]string, len(existing))
		for i, o := range existing {
			ids[i] = o.ID
		}
		s.logger.Info("Session already finalized",
			zap.String("session_id", req.SessionID),
			zap.Strings("order_ids", ids))
		return &CompleteResult{Success: true, Message: "orders already created for this session", OrderIDs: ids}
	}

	session, err := s.sessions.GetSession(ctx, req.SessionID)
	if err != nil {
		s.logger.Error("Failed to retrieve checkout session",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		util.CheckoutsFailedTotal.WithLabelValues("provider_error").Inc()
		return &CompleteResult{Success: false, Message: "unable to verify payment session"}
	}

	if session.Status != "complete" {
		util.CheckoutsFailedTotal.WithLabelValues("session_incomplete").Inc()
		return &CompleteResult{Success: false, Message: "payment has not been completed"}
	}
	if len(session.LineItems) == 0 {
		util.CheckoutsFailedTotal.WithLabelValues("empty_session").Inc()
		return &CompleteResult{Success: false, Message: "checkout session has no items"}
	}

	missing, err := s.missingProducts(ctx, session.LineItems)
	if err != nil {
		s.logger.Error("Failed to verify session products",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return &CompleteResult{Success: false, Message: "failed to verify order items"}
	}
	if len(missing) > 0 {
		s.logger.Warn("Session references unknown products",
			zap.String("session_id", req.SessionID),
			zap.Strings("product_ids", missing))
		util.CheckoutsFailedTotal.WithLabelValues("unknown_product").Inc()
		return &CompleteResult{Success: false, Message: "checkout session contains unavailable products"}
	}

	status := models.OrderStatusPendingPayment
	if session.PaymentStatus == "paid" {
		status = models.OrderStatusPending
	}

	orderIDs, err := s.createOrders(ctx, req, session, status)
	if err != nil {
		s.logger.Error("Failed to persist orders",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return &CompleteResult{Success: false, Message: "failed to save order"}
	}

	util.CheckoutsCompletedTotal.Inc()

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = session.Metadata["device_id"]
	}
	if deviceID != "" {
		if err := s.carts.Clear(ctx, deviceID); err != nil {
			s.logger.Warn("Failed to clear cart after checkout",
				zap.String("device_id", deviceID),
				zap.Error(err))
		}
	} else {
		s.logger.Debug("No device id on request or session metadata, cart left untouched",
			zap.String("session_id", req.SessionID))
	}

	return &CompleteResult{
		Success:  true,
		Message:  "order placed",
		OrderIDs: orderIDs,
	}
}

// missingProducts returns the session line item product IDs absent from
// the catalog. Orders are only created for products we actually sell.
func (s *CheckoutService) missingProducts(ctx context.Context, lines []SessionLineItem) ([]string, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool)
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	products, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}

	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// createOrders persists one order per store in the session's line items.
// All stores' orders go through a single transaction; either the whole
// session finalizes or none of it does.
func (s *CheckoutService) createOrders(ctx context.Context, req *CompleteRequest, session *CheckoutSession, status string) ([]string, error) {
	byStore := make(map[string][]SessionLineItem)
	storeOrder := make([]string, 0)
	for _, line := range session.LineItems {
		if _, ok := byStore[line.StoreID]; !ok {
			storeOrder = append(storeOrder, line.StoreID)
		}
		byStore[line.StoreID] = append(byStore[line.StoreID], line)
	}

	orders := make([]*models.Order, 0, len(byStore))
	itemsByOrder := make([][]models.OrderItem, 0, len(byStore))
	for _, storeID := range storeOrder {
		lines := byStore[storeID]

		var total int64
		items := make([]models.OrderItem, len(lines))
		for i, line := range lines {
			total += line.UnitPrice * int64(line.Quantity)
			items[i] = models.OrderItem{
				ProductID: line.ProductID,
				Name:      line.Name,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			}
		}

		orders = append(orders, &models.Order{
			ID:              uuid.New().String(),
			UserID:          req.UserID,
			StoreID:         storeID,
			SessionID:       session.ID,
			TotalAmount:     total,
			Status:          status,
			ShippingAddress: session.ShippingAddress,
			PaymentMethod:   session.PaymentMethod,
		})
		itemsByOrder = append(itemsByOrder, items)
	}

	if err := s.orders.CreateSessionOrdersTx(ctx, orders, itemsByOrder); err != nil {
		return nil, fmt.Errorf("failed to create orders for session %s: %w", session.ID, err)
	}

	orderIDs := make([]string, 0, len(orders))
	for i, order := range orders {
		util.OrdersCreatedTotal.Inc()
		s.logger.Info("Order created",
			zap.String("order_id", order.ID),
			zap.String("store_id", order.StoreID),
			zap.String("session_id", session.ID),
			zap.Int64("total_amount", order.TotalAmount))

		event := &models.OrderCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCreated,
				Timestamp: time.Now(),
			},
			OrderID:     order.ID,
			UserID:      order.UserID,
			UserEmail:   req.UserEmail,
			StoreID:     order.StoreID,
			SessionID:   order.SessionID,
			TotalAmount: order.TotalAmount,
			Status:      order.Status,
			Items:       toItemData(itemsByOrder[i]),
		}
		if err := s.events.PublishOrderCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
		}

		orderIDs = append(orderIDs, order.ID)
	}

	return orderIDs, nil
}

func toItemData(items []models.OrderItem) []models.OrderItemData {
	data := make([]models.OrderItemData, len(items))
	for i, item := range items {
		data[i] = models.OrderItemData{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return data
}
