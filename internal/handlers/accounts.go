package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neonstocks/portfolio-service/internal/models"
)

// CreateAccount handles POST /api/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), req.DisplayName)
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// GetAccount handles GET /api/accounts/:accountId
func (h *Handler) GetAccount(c *gin.Context) {
	accountID := c.Param("accountId")

	account, err := h.accounts.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	balance, err := h.accounts.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": account,
		"balance": balance,
	})
}
