package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"predix/internal/domain"
	"predix/internal/middleware"
	"predix/internal/repository"
	"predix/internal/service"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	withdrawalSvc *service.WithdrawalService
	auditRepo     *repository.AuditLogRepository
}

func NewWithdrawalHandler(withdrawalSvc *service.WithdrawalService, auditRepo *repository.AuditLogRepository) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc, auditRepo: auditRepo}
}

type withdrawalBody struct {
	Asset              string `json:"asset" binding:"required"`
	Amount             string `json:"amount" binding:"required"`
	DestinationAddress string `json:"destination_address"`
}

// Validate runs the withdrawal checks without side effects. The client calls
// this on every keystroke for live feedback; no record is created.
func (h *WithdrawalHandler) Validate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req withdrawalBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.withdrawalSvc.Check(userID, service.WithdrawalRequest{
		Asset:              req.Asset,
		Amount:             req.Amount,
		DestinationAddress: req.DestinationAddress,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Create submits the withdrawal authoritatively: validates, freezes funds and
// persists the record in REQUESTED.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req withdrawalBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, res, err := h.withdrawalSvc.Submit(userID, service.WithdrawalRequest{
		Asset:              req.Asset,
		Amount:             req.Amount,
		DestinationAddress: req.DestinationAddress,
	})
	if err != nil {
		if errors.Is(err, service.ErrWithdrawalInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": domain.ReasonWithdrawalInProgress})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "withdrawal failed"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Reason})
		return
	}
	_ = h.auditRepo.Log(&userID, "withdrawal_submit", "withdrawal", rec.ReferenceID, c.ClientIP(),
		fmt.Sprintf(`{"asset":%q,"gross_amount":%q}`, rec.Asset, rec.GrossAmount.String()))
	c.JSON(http.StatusCreated, gin.H{
		"withdrawal": rec,
		"message":    "Withdrawal submitted for approval.",
	})
}

// GetCurrent returns the user's in-flight withdrawal, or null.
func (h *WithdrawalHandler) GetCurrent(c *gin.Context) {
	userID := middleware.GetUserID(c)
	rec, err := h.withdrawalSvc.Current(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": rec})
}

func (h *WithdrawalHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	ws, err := h.withdrawalSvc.History(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": ws})
}

// Cancel aborts a withdrawal still in REQUESTED.
func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal id"})
		return
	}
	rec, err := h.withdrawalSvc.Cancel(userID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawalNotFound), errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		case errors.Is(err, service.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": domain.ReasonInvalidTransition})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel failed"})
		}
		return
	}
	_ = h.auditRepo.Log(&userID, "withdrawal_cancel", "withdrawal", rec.ReferenceID, c.ClientIP(), "")
	c.JSON(http.StatusOK, gin.H{"withdrawal": rec})
}
