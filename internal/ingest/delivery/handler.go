package delivery

import (
	"log"
	"net/http"

	emaildomain "mail-ingest-backend/internal/ingest/domain"
	"mail-ingest-backend/internal/ingest/usecase"

	"github.com/gin-gonic/gin"
)

// WebhookHandler terminates Microsoft Graph push notifications. It must
// answer fast: the validation echo does no I/O at all and notification
// processing is handed to the ingest workers before responding.
type WebhookHandler struct {
	ingestUsecase usecase.IngestUsecase
	clientState   string
}

func NewWebhookHandler(ingestUsecase usecase.IngestUsecase, clientState string) *WebhookHandler {
	return &WebhookHandler{
		ingestUsecase: ingestUsecase,
		clientState:   clientState,
	}
}

// HandleGraphWebhook serves both the subscription validation handshake (GET
// with validationToken, echoed verbatim) and notification batches (POST,
// acknowledged with 202 before any downstream work finishes).
func (h *WebhookHandler) HandleGraphWebhook(c *gin.Context) {
	if token := c.Query("validationToken"); token != "" {
		log.Printf("[Webhook] Validation token received via %s", c.Request.Method)
		c.String(http.StatusOK, "%s", token)
		return
	}

	if c.Request.Method == http.MethodPost {
		var batch emaildomain.NotificationBatch
		if err := c.ShouldBindJSON(&batch); err != nil {
			log.Printf("[Webhook] Failed to parse JSON: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		for _, notification := range batch.Value {
			if notification.ClientState != "" && h.clientState != "" && notification.ClientState != h.clientState {
				log.Printf("[Webhook] clientState mismatch for resource %s, skipping", notification.Resource)
				continue
			}
			log.Printf("[Webhook] Resource: %s", notification.Resource)
			h.ingestUsecase.Enqueue(notification.Resource)
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "Notification received"})
		return
	}

	c.Status(http.StatusMethodNotAllowed)
}
