package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"ecommerce-backend/internal/products"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/ctxmanage"
	"ecommerce-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxUploadFiles = 5

func (h *Handler) ListProducts(c *gin.Context) {
	params, ok := parseListParams(c)
	if !ok {
		return
	}

	result, err := h.p.ListProductsFromDB(c.Request.Context(), params)
	if err != nil {
		respondError(c, "error listing products", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.p.GetProductByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "error fetching product", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceID), slog.Int64("size", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "request body too large"})
		return
	}

	var np products.NewProduct
	if err := c.ShouldBindJSON(&np); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(np); err != nil {
		respondError(c, "product validation failed", apperror.Wrap(apperror.Validation, "name is required and stock must not be negative", err))
		return
	}

	product, err := h.p.InsertProduct(c.Request.Context(), np)
	if err != nil {
		respondError(c, "error creating product", err)
		return
	}

	slog.Info("product created", slog.String(logkey.TraceID, traceID), slog.Int64(logkey.ProductID, product.ID))
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var up products.UpdateProduct
	if err := c.ShouldBindJSON(&up); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(up); err != nil {
		respondError(c, "product validation failed", apperror.Wrap(apperror.Validation, "stock must not be negative", err))
		return
	}

	product, err := h.p.UpdateProductInDB(c.Request.Context(), id, up)
	if err != nil {
		respondError(c, "error updating product", err)
		return
	}

	slog.Info("product updated", slog.String(logkey.TraceID, traceID), slog.Int64(logkey.ProductID, id))
	c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := h.p.DeleteProductFromDB(c.Request.Context(), id); err != nil {
		respondError(c, "error deleting product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// UploadProductImages stores up to maxUploadFiles multipart files on disk
// and appends them to the product's image list.
func (h *Handler) UploadProductImages(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error("invalid multipart form", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		product, err := h.p.GetProductByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, "error fetching product", err)
			return
		}
		c.JSON(http.StatusOK, product)
		return
	}
	if len(files) > maxUploadFiles {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "too many files"})
		return
	}

	var urls []string
	for _, file := range files {
		name := uuid.NewString() + filepath.Ext(file.Filename)
		if err := c.SaveUploadedFile(file, h.saveUploadPath(name)); err != nil {
			respondError(c, "error saving uploaded file", err)
			return
		}
		urls = append(urls, "/uploads/products/"+name)
	}

	product, err := h.p.InsertProductImages(c.Request.Context(), id, urls)
	if err != nil {
		respondError(c, "error saving product images", err)
		return
	}

	slog.Info("product images uploaded", slog.String(logkey.TraceID, traceID),
		slog.Int64(logkey.ProductID, id), slog.Int("count", len(urls)))
	c.JSON(http.StatusOK, product)
}

func parseListParams(c *gin.Context) (products.ListParams, bool) {
	params := products.ListParams{
		Query: c.Query("q"),
		Sort:  c.Query("sort"),
		Order: c.Query("order"),
	}

	if page := c.Query("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid page parameter"})
			return products.ListParams{}, false
		}
		params.Page = n
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return products.ListParams{}, false
		}
		params.Limit = n
	}
	if raw := c.Query("minPrice"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid minPrice parameter"})
			return products.ListParams{}, false
		}
		params.MinPrice = &d
	}
	if raw := c.Query("maxPrice"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid maxPrice parameter"})
			return products.ListParams{}, false
		}
		params.MaxPrice = &d
	}
	return params, true
}
