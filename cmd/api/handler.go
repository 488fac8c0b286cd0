package api

import (
	"mail-ingest-backend/internal/ingest/delivery"
	"mail-ingest-backend/internal/ingest/usecase"
	"mail-ingest-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	webhookHandler *delivery.WebhookHandler
}

func NewHandler(cfg *config.Config, ingestUsecase usecase.IngestUsecase) *Handler {
	return &Handler{
		webhookHandler: delivery.NewWebhookHandler(ingestUsecase, cfg.ClientState),
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	SetupRoutes(r, h.webhookHandler)

	return r.Run(addr)
}
