package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetPortfolio handles GET /api/portfolio/:accountId
func (h *Handler) GetPortfolio(c *gin.Context) {
	accountID := c.Param("accountId")

	view, err := h.valuation.Compute(c.Request.Context(), accountID)
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetProfitData handles GET /api/profit-data/:accountId
func (h *Handler) GetProfitData(c *gin.Context) {
	accountID := c.Param("accountId")

	data, err := h.valuation.ProfitData(c.Request.Context(), accountID)
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// GetCandles handles GET /api/candles/:symbol?period=1mo
func (h *Handler) GetCandles(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	period := c.DefaultQuery("period", "1mo")

	candles, err := h.market.Candles(c.Request.Context(), symbol, period)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Candle fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "no data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":  symbol,
		"period":  period,
		"candles": candles,
	})
}
