package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-checkout-flow/internal/aws"
	"github.com/imrishuroy/go-checkout-flow/internal/checkout"
	"github.com/imrishuroy/go-checkout-flow/internal/validation"
)

// HandlerConfig groups dependencies for the checkout handler.
type HandlerConfig struct {
	Cart      checkout.CartReader
	Orders    checkout.OrderPlacer
	Gateway   checkout.Gateway
	Store     checkout.StateStore
	Publisher *aws.Publisher // optional; nil disables event publishing
}

// RegisterCheckoutRoutes registers routes for the checkout API. Every
// route is session-scoped via the X-Session-Id header.
func RegisterCheckoutRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	manager := checkout.NewManager(checkout.Deps{
		Cart:    cfg.Cart,
		Orders:  cfg.Orders,
		Gateway: cfg.Gateway,
		Store:   cfg.Store,
	})

	holder := func(c *gin.Context) (*checkout.Checkout, bool) {
		sessionID := c.GetHeader("X-Session-Id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_session_id"})
			return nil, false
		}
		co, created := manager.Get(sessionID)
		if created {
			co.Hydrate(c.Request.Context())
		}
		return co, true
	}

	grp := r.Group("/checkout")

	grp.GET("", func(c *gin.Context) {
		co, ok := holder(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, co.Snapshot())
	})

	// manual retry for a failed cart fetch
	grp.POST("/cart/refresh", func(c *gin.Context) {
		co, ok := holder(c)
		if !ok {
			return
		}
		co.RefreshCart(c.Request.Context())
		c.JSON(http.StatusOK, co.Snapshot())
	})

	grp.PUT("/address", func(c *gin.Context) {
		co, ok := holder(c)
		if !ok {
			return
		}
		var req validation.SetAddressRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}
		co.SetShippingAddress(c.Request.Context(), req.Address())
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	grp.PUT("/payment-method", func(c *gin.Context) {
		co, ok := holder(c)
		if !ok {
			return
		}
		var req validation.SetPaymentMethodRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		if err := co.SetPaymentMethod(c.Request.Context(), checkout.PaymentMethod(req.Method)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payment_method"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	grp.POST("/place-order", func(c *gin.Context) {
		co, ok := holder(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		snap := co.Snapshot()
		res := co.PlaceOrder(ctx)
		if !res.OK {
			c.JSON(http.StatusUnprocessableEntity, res)
			return
		}

		publishEvent(c, cfg.Publisher, "order_placed", res.OrderID, map[string]string{
			"payment_method": string(snap.PaymentMethod),
		})

		c.JSON(http.StatusCreated, gin.H{
			"success":        true,
			"orderId":        res.OrderID,
			"gatewaySession": co.Snapshot().GatewaySession,
		})
	})

	grp.POST("/payment/confirm", func(c *gin.Context) {
		co, ok := holder(c)
		if !ok {
			return
		}
		var req validation.ConfirmPaymentRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		res := co.ConfirmPayment(c.Request.Context(), checkout.PaymentConfirmation{
			GatewayOrderID: req.GatewayOrderID,
			PaymentID:      req.PaymentID,
			Signature:      req.Signature,
		})
		if !res.OK {
			if res.OrderID != "" {
				publishEvent(c, cfg.Publisher, "payment_failed", res.OrderID, nil)
			}
			c.JSON(http.StatusUnprocessableEntity, res)
			return
		}

		publishEvent(c, cfg.Publisher, "payment_confirmed", res.OrderID, nil)
		c.JSON(http.StatusOK, res)
	})

	grp.POST("/payment/abort", func(c *gin.Context) {
		co, ok := holder(c)
		if !ok {
			return
		}
		// body is optional; an absent reason falls back to a generic one
		var req validation.AbortPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
			return
		}

		res := co.AbortPayment(req.Reason)
		if res.OrderID != "" {
			publishEvent(c, cfg.Publisher, "payment_failed", res.OrderID, nil)
		}
		c.JSON(http.StatusOK, res)
	})

	grp.DELETE("", func(c *gin.Context) {
		co, ok := holder(c)
		if !ok {
			return
		}
		co.ClearCheckoutState(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
}

// publishEvent sends a checkout event best-effort; the checkout flow
// never fails because telemetry could not be enqueued.
func publishEvent(c *gin.Context, p *aws.Publisher, eventType, orderID string, extra map[string]string) {
	if p == nil {
		return
	}
	sessionID := c.GetHeader("X-Session-Id")

	payload := map[string]string{
		"event_id":   uuid.NewString(),
		"event_type": eventType,
		"order_id":   orderID,
		"session_id": sessionID,
	}
	for k, v := range extra {
		payload[k] = v
	}
	body, _ := json.Marshal(payload)

	attrs := map[string]string{
		"event_type": eventType,
		"order_id":   orderID,
	}
	if rid := c.GetHeader("X-Request-Id"); rid != "" {
		attrs["correlation_id"] = rid
	}
	if err := p.SendCheckoutEvent(c.Request.Context(), string(body), attrs); err != nil {
		log.Printf("[handlers] publish %s for order=%s: %v", eventType, orderID, err)
	}
}
