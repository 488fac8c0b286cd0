package api

import (
	"net/http"

	"mail-ingest-backend/internal/ingest/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, webhookHandler *delivery.WebhookHandler) {
	// Health check (no auth required)
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	email := r.Group("/email")
	{
		// Graph sends the validation handshake as GET and notification
		// batches as POST to the same path; the handler rejects the rest
		// with 405.
		email.Any("/graph-webhook", webhookHandler.HandleGraphWebhook)
	}
}
