package handlers

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"ecommerce-backend/internal/auth"
	"ecommerce-backend/internal/cart"
	"ecommerce-backend/internal/orders"
	"ecommerce-backend/internal/products"
	"ecommerce-backend/internal/stores/kafka"
	"ecommerce-backend/internal/users"
	"ecommerce-backend/middleware"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/ctxmanage"
	"ecommerce-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	u          users.Conf
	p          products.Conf
	ct         cart.Conf
	o          orders.Conf
	k          *kafka.Conf // nil when no broker is configured
	a          *auth.Keys
	validate   *validator.Validate
	uploadsDir string
}

func NewHandler(a *auth.Keys, u users.Conf, p products.Conf, ct cart.Conf, o orders.Conf, k *kafka.Conf, uploadsDir string) *Handler {
	return &Handler{
		u:          u,
		p:          p,
		ct:         ct,
		o:          o,
		k:          k,
		a:          a,
		validate:   validator.New(),
		uploadsDir: uploadsDir,
	}
}

func API(a *auth.Keys, u users.Conf, p products.Conf, ct cart.Conf, o orders.Conf, k *kafka.Conf, uploadsDir string) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m := middleware.NewMid(a)
	sm := middleware.NewServerMetrics()
	h := NewHandler(a, u, p, ct, o, k, uploadsDir)

	r.Use(middleware.Logger(), gin.Recovery(), sm.Metrics())

	r.GET("/ping", healthCheck)
	r.GET("/metrics", gin.WrapH(sm.Handler()))
	r.Static("/uploads", uploadsDir)

	api := r.Group("/api")
	{
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/login", h.Login)

		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
	}

	authed := api.Group("")
	authed.Use(m.Authentication())
	{
		authed.GET("/auth/profile", h.Profile)

		authed.POST("/products", m.Authorize(h.CreateProduct, auth.RoleAdmin))
		authed.PUT("/products/:id", m.Authorize(h.UpdateProduct, auth.RoleAdmin))
		authed.DELETE("/products/:id", m.Authorize(h.DeleteProduct, auth.RoleAdmin))
		authed.POST("/products/:id/images", m.Authorize(h.UploadProductImages, auth.RoleAdmin))

		authed.GET("/users", m.Authorize(h.ListUsers, auth.RoleAdmin))
		authed.GET("/users/:id", m.Authorize(h.GetUser, auth.RoleAdmin))
		authed.POST("/users", m.Authorize(h.CreateUser, auth.RoleAdmin))
		authed.PUT("/users/:id", m.Authorize(h.UpdateUser, auth.RoleAdmin))
		authed.DELETE("/users/:id", m.Authorize(h.DeleteUser, auth.RoleAdmin))

		authed.GET("/cart", m.Authorize(h.GetCart, auth.RoleUser, auth.RoleAdmin))
		authed.POST("/cart", m.Authorize(h.AddToCart, auth.RoleUser, auth.RoleAdmin))
		authed.PUT("/cart/:id", m.Authorize(h.UpdateCartItem, auth.RoleUser, auth.RoleAdmin))
		authed.DELETE("/cart/:id", m.Authorize(h.RemoveCartItem, auth.RoleUser, auth.RoleAdmin))

		authed.POST("/orders", m.Authorize(h.Checkout, auth.RoleUser, auth.RoleAdmin))
		authed.GET("/orders", m.Authorize(h.ListOrders, auth.RoleUser, auth.RoleAdmin))
		authed.GET("/orders/:id", m.Authorize(h.GetOrder, auth.RoleUser, auth.RoleAdmin))
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// claimsOfRequest pulls the verified claims and numeric user id out of the
// request context; it aborts with 401 when the middleware did not run.
func claimsOfRequest(c *gin.Context) (auth.Claims, int64, bool) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceID))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return auth.Claims{}, 0, false
	}

	userID, err := claims.UserID()
	if err != nil {
		slog.Error("invalid subject claim", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return auth.Claims{}, 0, false
	}
	return claims, userID, true
}

// respondError maps a store error onto an HTTP status, logging the full
// chain while the caller only sees the safe message.
func respondError(c *gin.Context, msg string, err error) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)
	slog.Error(msg, slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
	c.AbortWithStatusJSON(apperror.Status(err), gin.H{"error": apperror.Message(err)})
}

func (h *Handler) saveUploadPath(name string) string {
	return filepath.Join(h.uploadsDir, "products", name)
}
