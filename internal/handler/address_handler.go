package handler

import (
	"net/http"

	"predix/internal/middleware"
	"predix/internal/repository"

	"github.com/gin-gonic/gin"
)

// AddressHandler exposes the user's address book read-only; entries are
// created and removed by the wallet-management service.
type AddressHandler struct {
	addressRepo *repository.AddressBookRepository
}

func NewAddressHandler(addressRepo *repository.AddressBookRepository) *AddressHandler {
	return &AddressHandler{addressRepo: addressRepo}
}

func (h *AddressHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	entries, err := h.addressRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": entries})
}
