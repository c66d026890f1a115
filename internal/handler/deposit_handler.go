package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"predix/internal/domain"
	"predix/internal/middleware"
	"predix/internal/service"

	"github.com/gin-gonic/gin"
)

type DepositHandler struct {
	depositSvc *service.DepositService
	gateway    service.ChainGateway
}

func NewDepositHandler(depositSvc *service.DepositService, gateway service.ChainGateway) *DepositHandler {
	return &DepositHandler{depositSvc: depositSvc, gateway: gateway}
}

func (h *DepositHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	ds, err := h.depositSvc.List(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": ds})
}

// Claim credits a confirmed dust deposit. Safe to retry: a deposit already
// claimed comes back as success with already_credited set.
func (h *DepositHandler) Claim(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deposit id"})
		return
	}
	result, err := h.depositSvc.Claim(userID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDepositNotFound), errors.Is(err, service.ErrDepositNotOwned):
			c.JSON(http.StatusNotFound, gin.H{"error": "deposit not found"})
		case errors.Is(err, service.ErrNotYetConfirmed):
			c.JSON(http.StatusConflict, gin.H{"error": domain.ReasonNotYetConfirmed})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "claim failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deposit":          result.Deposit,
		"already_credited": result.AlreadyCredited,
	})
}

// DepositAddress proxies the custody address for an asset; derivation is the
// custody service's concern.
func (h *DepositHandler) DepositAddress(c *gin.Context) {
	userID := middleware.GetUserID(c)
	asset := strings.ToUpper(c.Param("asset"))
	if asset == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset required"})
		return
	}
	addr, err := h.gateway.DepositAddress(c.Request.Context(), userID, asset)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "deposit address unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset, "address": addr})
}
