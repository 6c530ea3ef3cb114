package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/neonstocks/portfolio-service/internal/models"
	"github.com/neonstocks/portfolio-service/internal/oracle"
	"github.com/neonstocks/portfolio-service/internal/portfolio"
	"github.com/neonstocks/portfolio-service/internal/store"
	"github.com/neonstocks/portfolio-service/internal/trading"
)

// Handler carries the injected services for all HTTP endpoints.
type Handler struct {
	processor *trading.Processor
	valuation *portfolio.Valuation
	accounts  *store.AccountStore
	ledger    *store.TransactionLog
	market    *oracle.YahooClient
	resolver  *oracle.Resolver
	log       zerolog.Logger
}

func New(
	processor *trading.Processor,
	valuation *portfolio.Valuation,
	accounts *store.AccountStore,
	ledger *store.TransactionLog,
	market *oracle.YahooClient,
	resolver *oracle.Resolver,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		processor: processor,
		valuation: valuation,
		accounts:  accounts,
		ledger:    ledger,
		market:    market,
		resolver:  resolver,
		log:       log.With().Str("component", "http").Logger(),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidSymbol),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInsufficientShares),
		errors.Is(err, models.ErrNoSuchPosition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) errorResponse(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
