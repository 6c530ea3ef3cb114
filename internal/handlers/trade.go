package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neonstocks/portfolio-service/internal/models"
)

// Deposit handles POST /api/wallet/deposit
func (h *Handler) Deposit(c *gin.Context) {
	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.processor.SubmitDeposit(c.Request.Context(), req.AccountID, req.Amount)
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Funds added successfully",
		"transaction_id": result.TransactionID,
		"new_balance":    result.NewBalance,
	})
}

// BuyStock handles POST /api/trades/buy
func (h *Handler) BuyStock(c *gin.Context) {
	var req models.BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.processor.SubmitBuy(c.Request.Context(), req)
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Trade executed successfully",
		"transaction_id": result.TransactionID,
		"price":          result.Price,
		"price_quality":  result.PriceQuality,
		"total_cost":     result.Total,
		"new_balance":    result.NewBalance,
	})
}

// SellStock handles POST /api/trades/sell
func (h *Handler) SellStock(c *gin.Context) {
	var req models.SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.processor.SubmitSell(c.Request.Context(), req)
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Stock sold successfully",
		"transaction_id": result.TransactionID,
		"price":          result.Price,
		"price_quality":  result.PriceQuality,
		"total_proceeds": result.Total,
		"new_balance":    result.NewBalance,
	})
}

// GetTransactions handles GET /api/transactions/:accountId
func (h *Handler) GetTransactions(c *gin.Context) {
	accountID := c.Param("accountId")

	records, err := h.ledger.ListFor(c.Request.Context(), accountID)
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": records,
		"count":        len(records),
	})
}
