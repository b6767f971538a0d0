package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"shop-api/cache"
	"shop-api/middleware"
	"shop-api/models"
	"shop-api/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const productCacheTTL = 5 * time.Minute

type ProductHandler struct {
	products    *store.ProductStore
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewProductHandler wires the catalog endpoints. redisClient may be nil;
// reads then always hit the store.
func NewProductHandler(products *store.ProductStore, redisClient *redis.Client, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products:    products,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (h *ProductHandler) Create(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "CreateProduct")
	defer span.End()

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: err.Error()})
		return
	}

	status := true
	if req.Status != nil {
		status = *req.Status
	}

	product, err := h.products.Create(ctx, store.NewProduct{
		Name:        req.Name,
		Price:       *req.Price,
		Description: req.Description,
		Status:      status,
		CreatedBy:   middleware.ActorID(c),
	})
	if err != nil {
		h.serverError(c, err, "Failed to create product")
		return
	}

	span.SetAttributes(attribute.Int("product.id", product.ProductID))
	h.logger.Info("Product created", zap.Int("product_id", product.ProductID))
	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

func (h *ProductHandler) Update(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "UpdateProduct")
	defer span.End()

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: "Invalid product id"})
		return
	}
	span.SetAttributes(attribute.Int("product.id", productID))

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: err.Error()})
		return
	}

	product, err := h.products.Update(ctx, productID, store.ProductPatch{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Status:      req.Status,
		UpdatedBy:   middleware.ActorID(c),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: "Product not found"})
			return
		}
		h.serverError(c, err, "Failed to update product")
		return
	}

	h.invalidateCache(ctx, productID)

	h.logger.Info("Product updated", zap.Int("product_id", productID))
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Product updated successfully",
		Data:    product,
	})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "DeleteProduct")
	defer span.End()

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: "Invalid product id"})
		return
	}
	span.SetAttributes(attribute.Int("product.id", productID))

	product, err := h.products.SoftDelete(ctx, productID, middleware.ActorID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: "Product not found"})
			return
		}
		h.serverError(c, err, "Failed to delete product")
		return
	}

	h.invalidateCache(ctx, productID)

	h.logger.Info("Product deleted", zap.Int("product_id", productID))
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Product deleted successfully",
		Data:    product,
	})
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "GetProduct")
	defer span.End()

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: "Invalid product id"})
		return
	}
	span.SetAttributes(attribute.Int("product.id", productID))

	if h.redisClient != nil {
		if cached, err := cache.GetProduct(ctx, h.redisClient, productID); err == nil {
			var product models.Product
			if err := json.Unmarshal(cached, &product); err == nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				c.JSON(http.StatusOK, models.APIResponse{
					Success: true,
					Message: "Product fetched successfully",
					Data:    product,
				})
				return
			}
		}
		span.SetAttributes(attribute.Bool("cache.hit", false))
	}

	product, err := h.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: "Product not found"})
			return
		}
		h.serverError(c, err, "Failed to fetch product")
		return
	}

	if h.redisClient != nil {
		if err := cache.SetProduct(ctx, h.redisClient, productID, product, productCacheTTL); err != nil {
			h.logger.Warn("Failed to cache product", zap.Int("product_id", productID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Product fetched successfully",
		Data:    product,
	})
}

func (h *ProductHandler) GetAll(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "GetAllProducts")
	defer span.End()

	products, err := h.products.ListActive(ctx)
	if err != nil {
		h.serverError(c, err, "Failed to fetch products")
		return
	}

	span.SetAttributes(attribute.Int("products.count", len(products)))
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Products fetched successfully",
		Data:    products,
	})
}

func (h *ProductHandler) invalidateCache(ctx context.Context, productID int) {
	if h.redisClient == nil {
		return
	}
	if err := cache.DeleteProduct(ctx, h.redisClient, productID); err != nil {
		h.logger.Warn("Failed to invalidate product cache", zap.Int("product_id", productID), zap.Error(err))
	}
}

func (h *ProductHandler) serverError(c *gin.Context, err error, message string) {
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
