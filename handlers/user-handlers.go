package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"ecommerce-backend/internal/users"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/ctxmanage"
	"ecommerce-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Signup(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(newUser); err != nil {
		slog.Error("signup validation failed", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email, name and a password of at least 8 characters are required"})
		return
	}

	user, err := h.u.InsertUser(c.Request.Context(), newUser)
	if err != nil {
		respondError(c, "error creating user", err)
		return
	}

	token, err := h.a.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(c, "error generating token", err)
		return
	}

	slog.Info("user signed up", slog.String(logkey.TraceID, traceID), slog.Int64(logkey.UserID, user.ID))
	c.JSON(http.StatusCreated, gin.H{"access_token": token, "user": user})
}

func (h *Handler) Login(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.u.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "login failed", err)
		return
	}

	token, err := h.a.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(c, "error generating token", err)
		return
	}

	slog.Info("user logged in", slog.String(logkey.TraceID, traceID), slog.Int64(logkey.UserID, user.ID))
	c.JSON(http.StatusOK, gin.H{"access_token": token, "user": user})
}

func (h *Handler) Profile(c *gin.Context) {
	_, userID, ok := claimsOfRequest(c)
	if !ok {
		return
	}

	user, err := h.u.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "error fetching profile", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) CreateUser(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	var nu users.AdminNewUser
	if err := c.ShouldBindJSON(&nu); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(nu); err != nil {
		slog.Error("user validation failed", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email, name, a password of at least 8 characters and a role of user or admin are required"})
		return
	}

	user, err := h.u.InsertUserWithRole(c.Request.Context(), nu)
	if err != nil {
		respondError(c, "error creating user", err)
		return
	}

	slog.Info("user created by admin", slog.String(logkey.TraceID, traceID), slog.Int64(logkey.UserID, user.ID))
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) ListUsers(c *gin.Context) {
	params := users.ListParams{Query: c.Query("q")}
	if page := c.Query("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid page parameter"})
			return
		}
		params.Page = n
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		params.Limit = n
	}

	result, err := h.u.ListUsers(c.Request.Context(), params)
	if err != nil {
		respondError(c, "error listing users", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.u.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "error fetching user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var up users.UpdateUser
	if err := c.ShouldBindJSON(&up); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(up); err != nil {
		respondError(c, "user update validation failed", apperror.Wrap(apperror.Validation, "invalid user fields", err))
		return
	}

	user, err := h.u.UpdateUserInDB(c.Request.Context(), id, up)
	if err != nil {
		respondError(c, "error updating user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.u.DeleteUserFromDB(c.Request.Context(), id); err != nil {
		respondError(c, "error deleting user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
