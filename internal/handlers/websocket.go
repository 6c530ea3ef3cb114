package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/neonstocks/portfolio-service/internal/models"
	"github.com/neonstocks/portfolio-service/internal/oracle"
)

// PriceUpdate is one tick of the streamed market watch.
type PriceUpdate struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"` // percent vs previous tick of this symbol
	Quality   string    `json:"quality"`
	Timestamp time.Time `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (for development and demo)
	},
}

// StreamPrices handles GET /ws/prices: it cycles through the reference
// symbols and pushes one resolved quote per second until the client
// disconnects.
func (h *Handler) StreamPrices(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Price stream client connected")

	symbols := oracle.ReferenceSymbols(oracle.DefaultFallbackPrices())
	previous := make(map[string]decimal.Decimal)
	ctx := c.Request.Context()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			symbol := symbols[i%len(symbols)]
			price, quality, _ := h.resolver.Resolve(ctx, symbol, models.SourceAuto)

			change := 0.0
			if prev, ok := previous[symbol]; ok && prev.IsPositive() {
				change = price.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).InexactFloat64()
			}
			previous[symbol] = price

			update := PriceUpdate{
				Symbol:    symbol,
				Price:     price.InexactFloat64(),
				Change:    change,
				Quality:   string(quality),
				Timestamp: time.Now(),
			}
			if err := conn.WriteJSON(update); err != nil {
				h.log.Debug().Err(err).Msg("Price stream client gone")
				return
			}
		}
	}
}
