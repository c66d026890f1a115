package handler

import (
	"log"
	"net/http"

	"predix/config"
	"predix/internal/service"

	"github.com/gin-gonic/gin"
)

// DepositWebhookHandler receives chain events for incoming transfers from the
// custody service's chain watcher.
type DepositWebhookHandler struct {
	cfg        *config.Config
	depositSvc *service.DepositService
}

func NewDepositWebhookHandler(cfg *config.Config, depositSvc *service.DepositService) *DepositWebhookHandler {
	return &DepositWebhookHandler{cfg: cfg, depositSvc: depositSvc}
}

// Handle ingests one chain event. Events are idempotent on tx_hash, so the
// watcher can re-deliver freely as confirmations accumulate.
func (h *DepositWebhookHandler) Handle(c *gin.Context) {
	if !webhookAuthorized(c, h.cfg.Webhook.Secret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad webhook secret"})
		return
	}
	var ev service.DepositEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		log.Printf("[Deposit webhook] invalid payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	log.Printf("[Deposit webhook] tx_hash=%s asset=%s amount=%s confirmations=%d user=%d",
		ev.TxHash, ev.Asset, ev.Amount, ev.Confirmations, ev.UserID)

	d, err := h.depositSvc.Process(ev)
	if err != nil {
		log.Printf("[Deposit webhook] process failed for tx_hash=%s: %v", ev.TxHash, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "process failed"})
		return
	}
	log.Printf("[Deposit webhook] deposit %d now %s (%d/%d confirmations)",
		d.ID, d.Status, d.Confirmations, d.RequiredConfirmations)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
