package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"now":    h.now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
