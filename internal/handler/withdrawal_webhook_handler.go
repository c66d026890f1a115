package handler

import (
	"errors"
	"log"
	"net/http"

	"predix/config"
	"predix/internal/domain"
	"predix/internal/repository"
	"predix/internal/service"

	"github.com/gin-gonic/gin"
)

// WithdrawalWebhookHandler receives status events from the processing
// backend as a withdrawal moves through approval, broadcast and confirmation.
type WithdrawalWebhookHandler struct {
	cfg           *config.Config
	withdrawalSvc *service.WithdrawalService
	auditRepo     *repository.AuditLogRepository
}

func NewWithdrawalWebhookHandler(cfg *config.Config, withdrawalSvc *service.WithdrawalService, auditRepo *repository.AuditLogRepository) *WithdrawalWebhookHandler {
	return &WithdrawalWebhookHandler{cfg: cfg, withdrawalSvc: withdrawalSvc, auditRepo: auditRepo}
}

func webhookAuthorized(c *gin.Context, secret string) bool {
	if secret == "" {
		return true // dev mode, endpoint unguarded
	}
	return c.GetHeader("X-Webhook-Secret") == secret
}

// Handle applies one status event. Unknown references are acknowledged so the
// backend stops retrying; out-of-order or duplicate events get a 409 with
// INVALID_TRANSITION and leave the record untouched.
func (h *WithdrawalWebhookHandler) Handle(c *gin.Context) {
	if !webhookAuthorized(c, h.cfg.Webhook.Secret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad webhook secret"})
		return
	}
	var ev service.StatusEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		log.Printf("[Withdrawal webhook] invalid payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	log.Printf("[Withdrawal webhook] reference_id=%s new_status=%s tx_hash=%s reason=%s",
		ev.ReferenceID, ev.NewStatus, ev.TxHash, ev.Reason)

	rec, err := h.withdrawalSvc.ApplyStatusEvent(ev)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawalNotFound):
			log.Printf("[Withdrawal webhook] no withdrawal for reference_id=%s", ev.ReferenceID)
			c.JSON(http.StatusOK, gin.H{"received": true})
		case errors.Is(err, service.ErrInvalidTransition):
			log.Printf("[Withdrawal webhook] invalid transition to %s for reference_id=%s", ev.NewStatus, ev.ReferenceID)
			c.JSON(http.StatusConflict, gin.H{"error": domain.ReasonInvalidTransition})
		default:
			log.Printf("[Withdrawal webhook] apply failed for reference_id=%s: %v", ev.ReferenceID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "apply failed"})
		}
		return
	}
	_ = h.auditRepo.Log(&rec.UserID, "withdrawal_status", "withdrawal", rec.ReferenceID, c.ClientIP(), ev.NewStatus)
	log.Printf("[Withdrawal webhook] withdrawal %d now %s (reference_id=%s)", rec.ID, rec.Status, rec.ReferenceID)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
