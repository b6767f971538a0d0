package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "shop-api",
		"status":  "healthy",
	})
}

// Root answers the unauthenticated liveness probe.
func Root(c *gin.Context) {
	c.String(http.StatusOK, "Hello World! Project is running")
}
