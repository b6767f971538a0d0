package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"shop-api/auth"
	"shop-api/middleware"
	"shop-api/models"
	"shop-api/store"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserHandler struct {
	users  *store.UserStore
	tokens *auth.Manager
	logger *zap.Logger
}

func NewUserHandler(users *store.UserStore, tokens *auth.Manager, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (h *UserHandler) Create(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "CreateUser")
	defer span.End()

	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "name, username and password are required",
		})
		return
	}

	// Friendly pre-check; the unique constraint is the real guard.
	if _, err := h.users.GetByUsername(ctx, req.Username); err == nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Username already exists",
		})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.serverError(c, err, "Failed to create user")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.serverError(c, err, "Failed to create user")
		return
	}

	status := true
	if req.Status != nil {
		status = *req.Status
	}

	user, err := h.users.Create(ctx, store.NewUser{
		Name:      req.Name,
		Username:  req.Username,
		Password:  string(hashed),
		Status:    status,
		CreatedBy: middleware.ActorID(c),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusBadRequest, models.APIResponse{
				Success: false,
				Message: "Username already exists",
			})
			return
		}
		h.serverError(c, err, "Failed to create user")
		return
	}

	span.SetAttributes(attribute.Int("user.id", user.UserID))
	h.logger.Info("User created",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("username", user.Username),
	)
	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Message: "User created successfully",
		Data:    user,
	})
}

func (h *UserHandler) Update(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "UpdateUser")
	defer span.End()

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: err.Error()})
		return
	}

	patch := store.UserPatch{
		Name:      req.Name,
		Username:  req.Username,
		Status:    req.Status,
		UpdatedBy: middleware.ActorID(c),
	}

	// Re-hash only when the password actually changes.
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.serverError(c, err, "Failed to update user")
			return
		}
		hashedStr := string(hashed)
		patch.Password = &hashedStr
	}

	user, err := h.users.Update(ctx, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: "User not found"})
		case errors.Is(err, store.ErrConflict):
			c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: "Username already exists"})
		default:
			h.serverError(c, err, "Failed to update user")
		}
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "User updated successfully",
		Data:    user,
	})
}

func (h *UserHandler) Delete(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "DeleteUser")
	defer span.End()

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}

	user, err := h.users.SoftDelete(ctx, userID, middleware.ActorID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: "User not found"})
			return
		}
		h.serverError(c, err, "Failed to delete user")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "User deleted successfully",
		Data:    user,
	})
}

func (h *UserHandler) GetByID(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "GetUser")
	defer span.End()

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: "User not found"})
			return
		}
		h.serverError(c, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "User fetched successfully",
		Data:    user,
	})
}

func (h *UserHandler) GetAll(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "GetAllUsers")
	defer span.End()

	users, err := h.users.ListActive(ctx)
	if err != nil {
		h.serverError(c, err, "Failed to fetch users")
		return
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Users fetched successfully",
		Data:    users,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "Login")
	defer span.End()

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "username and password are required",
		})
		return
	}

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, models.APIResponse{
				Success: false,
				Message: "Invalid username or password",
			})
			return
		}
		h.serverError(c, err, "Failed to login")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, models.APIResponse{
			Success: false,
			Message: "Invalid username or password",
		})
		return
	}

	token, err := h.tokens.Issue(auth.Claims{
		UserID:   user.UserID,
		Username: user.Username,
	})
	if err != nil {
		h.serverError(c, err, "Failed to login")
		return
	}

	h.logger.Info("User logged in",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("username", user.Username),
	)
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
	})
}

// Logout is stateless: the server holds no session, the client discards
// the token.
func (h *UserHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Logout successful. Please discard the token on client side.",
	})
}

func (h *UserHandler) ValidateToken(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Token is required. Send in Authorization header as: Bearer <token>",
		})
		return
	}

	status := h.tokens.CheckStatus(token)
	if status.Valid {
		c.JSON(http.StatusOK, models.APIResponse{
			Success: true,
			Message: status.Message,
			Data: gin.H{
				"valid":   status.Valid,
				"expired": status.Expired,
				"user": gin.H{
					"user_id":  status.Decoded.UserID,
					"username": status.Decoded.Username,
				},
			},
		})
		return
	}

	c.JSON(http.StatusUnauthorized, models.APIResponse{
		Success: false,
		Message: status.Message,
		Data: gin.H{
			"valid":     status.Valid,
			"expired":   status.Expired,
			"expiredAt": status.ExpiredAt,
		},
	})
}

func (h *UserHandler) serverError(c *gin.Context, err error, message string) {
	trace.SpanFromContext(c.Request.Context()).RecordError(err)
	h.logger.Error(message,
		zap.String("trace_id", middleware.GetTraceID(c.Request.Context())),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, models.APIResponse{
		Success: false,
		Message: message,
	})
}
