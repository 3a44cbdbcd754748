package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"ecommerce-backend/internal/orders"
	"ecommerce-backend/internal/stores/kafka"
	"ecommerce-backend/pkg/ctxmanage"
	"ecommerce-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Checkout converts the caller's cart into a paid order in one transaction.
func (h *Handler) Checkout(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	_, userID, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	order, err := h.o.CreateOrderFromCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "checkout failed", err)
		return
	}

	slog.Info("order created", slog.String(logkey.TraceID, traceID),
		slog.Int64(logkey.UserID, userID), slog.Int64(logkey.OrderID, order.ID),
		slog.String("total_price", order.TotalPrice.String()))

	if h.k != nil {
		go h.publishOrderPaid(traceID, order)
	}

	c.JSON(http.StatusCreated, order)
}

// publishOrderPaid is best effort; the order is already committed and a
// broker outage must not fail the request.
func (h *Handler) publishOrderPaid(traceID string, order *orders.Order) {
	key := []byte(strconv.FormatInt(order.ID, 10))
	for _, item := range order.Items {
		event := kafka.OrderPaidEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			CreatedAt: order.CreatedAt,
		}
		data, err := json.Marshal(event)
		if err != nil {
			slog.Error("error marshalling order event", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
			continue
		}
		if err := h.k.ProduceMessage(kafka.TopicOrderPaid, key, data); err != nil {
			slog.Error("error producing order event", slog.String(logkey.TraceID, traceID),
				slog.Int64(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
		}
	}
}

func (h *Handler) ListOrders(c *gin.Context) {
	_, userID, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	list, err := h.o.FindUserOrders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "error listing orders", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetOrder(c *gin.Context) {
	_, userID, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.o.FindUserOrderByID(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, "error fetching order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}
