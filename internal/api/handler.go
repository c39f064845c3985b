package api

import (
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	carts    *service.CartService
	checkout *service.CheckoutService
	orders   *service.OrderService
	geocoder *service.GeocodeClient
	tokens   *auth.TokenService
	events   *broker.EventPublisher
}

// NewHandler creates a new HTTP handler
func NewHandler(
	carts *service.CartService,
	checkout *service.CheckoutService,
	orders *service.OrderService,
	geocoder *service.GeocodeClient,
	tokens *auth.TokenService,
	events *broker.EventPublisher,
) *Handler {
	return &Handler{
		carts:    carts,
		checkout: checkout,
		orders:   orders,
		geocoder: geocoder,
		tokens:   tokens,
		events:   events,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/refresh", h.refreshToken)

		v1.GET("/cart/:deviceID", h.getCart)
		v1.POST("/cart/:deviceID/items", h.addCartItem)
		v1.PATCH("/cart/:deviceID/items/:itemID", h.updateCartItem)
		v1.DELETE("/cart/:deviceID", h.clearCart)

		v1.GET("/stores", h.listStores)
		v1.GET("/stores/:storeID", h.getStore)
		v1.POST("/address/validate", h.validateAddress)
		v1.POST("/payments/webhook", h.paymentWebhook)

		authed := v1.Group("")
		authed.Use(h.authMiddleware())
		{
			authed.POST("/checkout/complete", h.completeCheckout)
			authed.GET("/orders", h.listOrders)
			authed.GET("/orders/:id", h.getOrder)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// getCart returns the device cart
func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), c.Param("deviceID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// addCartItem merges a line into the device cart
func (h *Handler) addCartItem(c *gin.Context) {
	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), c.Param("deviceID"), item)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to add item",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// updateCartItem sets a line quantity; zero or below removes the line
func (h *Handler) updateCartItem(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	cart, err := h.carts.UpdateQuantity(c.Request.Context(), c.Param("deviceID"), c.Param("itemID"), req.Quantity)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to update item",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// clearCart empties the device cart
func (h *Handler) clearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), c.Param("deviceID")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}
	c.Status(http.StatusNoContent)
}

// completeCheckout finalizes a payment session into orders
func (h *Handler) completeCheckout(c *gin.Context) {
	var req service.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	req.UserID = c.GetString("user_id")
	req.UserEmail = c.GetString("email")

	result := h.checkout.Complete(c.Request.Context(), &req)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

// listOrders returns the caller's orders filtered by status/limit/offset
func (h *Handler) listOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	orders, err := h.orders.ListOrders(c.Request.Context(),
		c.GetString("user_id"), c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder returns one of the caller's orders with its items
func (h *Handler) getOrder(c *gin.Context) {
	order, items, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Order not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// listStores returns the store directory
func (h *Handler) listStores(c *gin.Context) {
	stores, err := h.orders.ListStores(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list stores"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// getStore returns a single merchant store
func (h *Handler) getStore(c *gin.Context) {
	store, err := h.orders.GetStore(c.Request.Context(), c.Param("storeID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Store not found",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, store)
}

// validateAddress geocodes a free-text address
func (h *Handler) validateAddress(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	suggestion, err := h.geocoder.ValidateAddress(c.Request.Context(), req.Address)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Address validation failed"})
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

// paymentWebhook turns provider payment notifications into events for the
// status worker. The provider retries on non-2xx.
func (h *Handler) paymentWebhook(c *gin.Context) {
	var payload struct {
		Type      string `json:"type" binding:"required"`
		SessionID string `json:"session_id" binding:"required"`
		Amount    int64  `json:"amount"`
		TxID      string `json:"tx_id"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid webhook payload",
			"details": err.Error(),
		})
		return
	}

	base := models.BaseEvent{
		EventID:   uuid.New().String(),
		Timestamp: time.Now(),
	}

	var err error
	switch payload.Type {
	case "payment.succeeded":
		base.EventType = models.EventTypePaymentSucceeded
		err = h.events.PublishPaymentSucceeded(c.Request.Context(), &models.PaymentSucceededEvent{
			BaseEvent: base,
			SessionID: payload.SessionID,
			Amount:    payload.Amount,
			TxID:      payload.TxID,
		})
	case "payment.failed":
		base.EventType = models.EventTypePaymentFailed
		err = h.events.PublishPaymentFailed(c.Request.Context(), &models.PaymentFailedEvent{
			BaseEvent: base,
			SessionID: payload.SessionID,
			Reason:    payload.Reason,
		})
	default:
		c.JSON(http.StatusOK, gin.H{"ignored": payload.Type})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// refreshToken rotates the access token from the refresh cookie
func (h *Handler) refreshToken(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token not found"})
		return
	}

	claims, err := h.tokens.ParseToken(refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	pair, err := h.tokens.GenerateTokenPair(claims.UserID, claims.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	maxAge := int(h.tokens.AccessTTL().Seconds())
	c.SetCookie("token", pair.AccessToken, maxAge, "/", "", false, true)
	c.SetCookie("refresh_token", pair.RefreshToken, 604800, "/", "", false, true)

	c.JSON(http.StatusOK, pair)
}

// authMiddleware authenticates via the token cookie with a bearer fallback
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("token")
		if err != nil || tokenStr == "" {
			header := c.GetHeader("Authorization")
			if len(header) > 7 && header[:7] == "Bearer " {
				tokenStr = header[7:]
			}
		}

		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := h.tokens.ParseToken(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
