package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"ecommerce-backend/internal/cart"
	"ecommerce-backend/pkg/ctxmanage"
	"ecommerce-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetCart(c *gin.Context) {
	_, userID, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	items, err := h.ct.GetUserCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "error fetching cart", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) AddToCart(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	_, userID, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	var ni cart.NewItem
	if err := c.ShouldBindJSON(&ni); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(ni); err != nil {
		slog.Error("cart item validation failed", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "product_id is required and quantity must be at least 1"})
		return
	}

	item, err := h.ct.AddItemToCart(c.Request.Context(), userID, ni)
	if err != nil {
		respondError(c, "error adding item to cart", err)
		return
	}

	slog.Info("item added to cart", slog.String(logkey.TraceID, traceID),
		slog.Int64(logkey.UserID, userID), slog.Int64(logkey.ProductID, ni.ProductID))
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	_, userID, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid cart item id"})
		return
	}

	var ui cart.UpdateItem
	if err := c.ShouldBindJSON(&ui); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(ui); err != nil {
		slog.Error("cart item validation failed", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "quantity must be at least 1"})
		return
	}

	item, err := h.ct.UpdateCartItem(c.Request.Context(), userID, itemID, ui.Quantity)
	if err != nil {
		respondError(c, "error updating cart item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	_, userID, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid cart item id"})
		return
	}

	if err := h.ct.RemoveCartItem(c.Request.Context(), userID, itemID); err != nil {
		respondError(c, "error removing cart item", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed from cart"})
}
