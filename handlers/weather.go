package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"shop-api/circuitbreaker"
	"shop-api/middleware"
	"shop-api/models"
	"shop-api/weather"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type WeatherHandler struct {
	client *weather.Client
	logger *zap.Logger
}

func NewWeatherHandler(client *weather.Client, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{client: client, logger: logger}
}

func (h *WeatherHandler) Current(c *gin.Context) {
	ctx, span := otel.Tracer("shop-api").Start(c.Request.Context(), "GetCurrentWeather")
	defer span.End()

	city := c.Query("city")
	span.SetAttributes(attribute.String("weather.city", city))

	report, err := h.client.Current(ctx, city)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Weather fetched successfully",
		Data:    report,
	})
}

func (h *WeatherHandler) handleError(c *gin.Context, err error) {
	traceID := middleware.GetTraceID(c.Request.Context())

	var upstream *weather.UpstreamError
	switch {
	case errors.Is(err, weather.ErrMissingAPIKey):
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "WEATHER_API_KEY is not configured on the server",
		})
	case errors.As(err, &upstream):
		status := upstream.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		var detail any = err.Error()
		if json.Valid(upstream.Body) {
			detail = json.RawMessage(upstream.Body)
		}
		c.JSON(status, models.APIResponse{
			Success: false,
			Message: "Failed to fetch weather from external API",
			Error:   detail,
		})
	case errors.Is(err, weather.ErrUpstreamTimeout):
		c.JSON(http.StatusGatewayTimeout, models.APIResponse{
			Success: false,
			Message: "Weather API request timed out",
		})
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		c.JSON(http.StatusServiceUnavailable, models.APIResponse{
			Success: false,
			Message: "Weather service temporarily unavailable",
		})
	default:
		h.logger.Error("Unexpected error fetching weather", zap.String("trace_id", traceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Message: "Unexpected error fetching weather",
			Error:   err.Error(),
		})
	}
}
