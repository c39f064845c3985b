package service

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// CartStore persists device carts. The production implementation is Redis.
type CartStore interface {
	GetCart(ctx context.Context, deviceID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, deviceID string) error
}

// ProductCatalog resolves cart and checkout lines against the product
// catalog. The production implementation is the Postgres store.
type ProductCatalog interface {
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
}

// CartService reconciles cart lines for a device. Every mutation writes the
// whole cart back before returning; the last writer per device wins.
type CartService struct {
	carts   CartStore
	catalog ProductCatalog
	logger  *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(carts CartStore, catalog ProductCatalog) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		logger:  util.GetLogger(),
	}
}

// GetCart returns the current cart for a device
func (s *CartService) GetCart(ctx context.Context, deviceID string) (*models.Cart, error) {
	return s.carts.GetCart(ctx, deviceID)
}

// AddItem merges an incoming line into the cart by identity key.
// A matching non-reservation line has its quantity summed; a matching
// reservation line means the slot is already booked and the add is a no-op.
func (s *CartService) AddItem(ctx context.Context, deviceID string, item models.CartItem) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if item.ProductID == "" || item.StoreID == "" {
		return nil, fmt.Errorf("cart item requires product and store")
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	product, err := s.catalog.GetProductByID(ctx, item.ProductID)
	if err != nil {
		return nil, fmt.Errorf("unknown product %s: %w", item.ProductID, err)
	}
	if item.ProductName == "" {
		item.ProductName = product.Name
	}
	if item.UnitPrice == 0 {
		item.UnitPrice = product.Price
	}
	item.ID = item.Key()

	cart, err := s.carts.GetCart(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ID != item.ID {
			continue
		}
		if item.IsReservation() {
			// Slot already in the cart; drop the duplicate.
			s.logger.Debug("Duplicate reservation dropped",
				zap.String("device_id", deviceID),
				zap.String("item_id", item.ID))
			return cart, nil
		}
		cart.Items[i].Quantity += item.Quantity
		util.CartLinesMerged.Inc()
		merged = true
		break
	}

	if !merged {
		cart.Items = append(cart.Items, item)
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to persist cart: %w", err)
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	return cart, nil
}

// UpdateQuantity sets the quantity of a line. A non-positive quantity
// removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, deviceID, itemID string, quantity int) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateQuantity")
	defer span.End()

	cart, err := s.carts.GetCart(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	found := false
	items := cart.Items[:0]
	for _, line := range cart.Items {
		if line.ID != itemID {
			items = append(items, line)
			continue
		}
		found = true
		if quantity > 0 {
			line.Quantity = quantity
			items = append(items, line)
		}
	}
	cart.Items = items

	if !found {
		return nil, fmt.Errorf("cart item not found: %s", itemID)
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to persist cart: %w", err)
	}

	util.CartMutationsTotal.WithLabelValues("update").Inc()
	return cart, nil
}

// RemoveItem deletes a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, deviceID, itemID string) (*models.Cart, error) {
	return s.UpdateQuantity(ctx, deviceID, itemID, 0)
}

// Clear empties the cart for a device
func (s *CartService) Clear(ctx context.Context, deviceID string) error {
	if err := s.carts.DeleteCart(ctx, deviceID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	return nil
}
