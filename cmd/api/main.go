package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/neonstocks/portfolio-service/internal/config"
	"github.com/neonstocks/portfolio-service/internal/db"
	"github.com/neonstocks/portfolio-service/internal/handlers"
	"github.com/neonstocks/portfolio-service/internal/logger"
	"github.com/neonstocks/portfolio-service/internal/oracle"
	"github.com/neonstocks/portfolio-service/internal/portfolio"
	"github.com/neonstocks/portfolio-service/internal/scheduler"
	"github.com/neonstocks/portfolio-service/internal/store"
	"github.com/neonstocks/portfolio-service/internal/trading"
)

func main() {
	// .env is optional; fall back to the process environment
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	// Storage
	database, err := db.Open(db.Config{
		Driver:   cfg.DBDriver,
		Path:     cfg.DBPath,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Str("driver", database.Driver()).Msg("Database ready")

	// Market data
	yahoo := oracle.NewYahooClient()
	fallback := oracle.DefaultFallbackPrices()
	resolver := oracle.NewResolver(yahoo, fallback, cfg.OracleTimeout, log)

	// Domain services
	accounts := store.NewAccountStore(database, log)
	ledger := store.NewTransactionLog(database, log)
	engine := trading.NewEngine(accounts, ledger, resolver, log)
	valuation := portfolio.NewValuation(accounts, resolver, log)

	processor := trading.NewProcessor(engine, cfg.NumWorkers, log)
	processor.Start()
	defer processor.Stop()

	// Background quote-cache warmup
	sched := scheduler.New(log)
	if cfg.QuoteRefresh != "" {
		job := oracle.NewRefreshJob(resolver, oracle.ReferenceSymbols(fallback), log)
		if err := sched.AddJob(cfg.QuoteRefresh, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.QuoteRefresh).Msg("Invalid refresh schedule")
		}
		sched.Start()
		defer sched.Stop()
	}

	h := handlers.New(processor, valuation, accounts, ledger, yahoo, resolver, log)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	api := router.Group("/api")
	{
		api.POST("/accounts", h.CreateAccount)
		api.GET("/accounts/:accountId", h.GetAccount)

		api.POST("/wallet/deposit", h.Deposit)
		api.POST("/trades/buy", h.BuyStock)
		api.POST("/trades/sell", h.SellStock)

		api.GET("/transactions/:accountId", h.GetTransactions)
		api.GET("/portfolio/:accountId", h.GetPortfolio)
		api.GET("/profit-data/:accountId", h.GetProfitData)
		api.GET("/candles/:symbol", h.GetCandles)
	}

	router.GET("/ws/prices", h.StreamPrices)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	log.Info().Str("port", cfg.Port).Msg("Server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
