package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"predix/config"
	"predix/internal/database"
	"predix/internal/domain"
	"predix/internal/repository"
	"predix/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newWebhookRouter(t *testing.T) (*gin.Engine, *service.WithdrawalService, *repository.WalletRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	walletRepo := repository.NewWalletRepository(db)
	svc := service.NewWithdrawalService(
		db,
		walletRepo,
		repository.NewWithdrawalRepository(db),
		repository.NewAddressBookRepository(db),
		nil,
		nil,
	)
	cfg := &config.Config{Webhook: config.WebhookConfig{Secret: "hook-secret"}}
	h := NewWithdrawalWebhookHandler(cfg, svc, repository.NewAuditLogRepository(db))

	r := gin.New()
	r.POST("/api/v1/webhooks/withdrawal-status", h.Handle)
	return r, svc, walletRepo
}

func postEvent(t *testing.T, r *gin.Engine, secret string, ev service.StatusEvent) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/withdrawal-status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRequiresSecret(t *testing.T) {
	r, _, _ := newWebhookRouter(t)
	w := postEvent(t, r, "", service.StatusEvent{ReferenceID: "wd-x", NewStatus: domain.WithdrawalApproved})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postEvent(t, r, "wrong", service.StatusEvent{ReferenceID: "wd-x", NewStatus: domain.WithdrawalApproved})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookAcknowledgesUnknownReference(t *testing.T) {
	r, _, _ := newWebhookRouter(t)
	w := postEvent(t, r, "hook-secret", service.StatusEvent{ReferenceID: "wd-missing", NewStatus: domain.WithdrawalApproved})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")
}

func TestWebhookAppliesAndRejectsStaleEvents(t *testing.T) {
	r, svc, walletRepo := newWebhookRouter(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(100)))
	rec, _, err := svc.Submit(1, service.WithdrawalRequest{
		Asset:              "USDT",
		Amount:             "50",
		DestinationAddress: "0xa1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2",
	})
	require.NoError(t, err)

	w := postEvent(t, r, "hook-secret", service.StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalApproved})
	assert.Equal(t, http.StatusOK, w.Code)

	// replayed event is stale now
	w = postEvent(t, r, "hook-secret", service.StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalApproved})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), domain.ReasonInvalidTransition)
}
