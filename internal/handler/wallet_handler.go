package handler

import (
	"net/http"
	"strconv"

	"predix/internal/middleware"
	"predix/internal/repository"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	walletRepo *repository.WalletRepository
}

func NewWalletHandler(walletRepo *repository.WalletRepository) *WalletHandler {
	return &WalletHandler{walletRepo: walletRepo}
}

// GetBalances returns the current user's per-asset balances.
func (h *WalletHandler) GetBalances(c *gin.Context) {
	userID := middleware.GetUserID(c)
	ws, err := h.walletRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": ws})
}

// GetTransactions returns the user's wallet journal, newest first.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	txs, err := h.walletRepo.ListTransactions(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
