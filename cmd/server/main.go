package main

import (
	"database/sql"
	"net/http"

	"storepay-be/internal/config"
	"storepay-be/internal/db"
	"storepay-be/internal/ipay88"
	"storepay-be/internal/logger"
	"storepay-be/internal/middleware"
	"storepay-be/internal/order"
	"storepay-be/internal/payment"
	"storepay-be/internal/payment/webhook"

	"go.uber.org/zap"
)

// Swappable for tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = http.ListenAndServe
)

func setupRouter(h *webhook.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /payment/ipay88", h.PaymentFormHandler)
	mux.HandleFunc("POST /webhook/ipay88", h.CallbackHandler)

	var handler http.Handler = mux
	handler = middleware.RateLimitMiddleware(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)

	return handler
}

func newServer(cfg *config.Config, database *sql.DB) http.Handler {
	gatewayCfg := ipay88.Config{
		MerchantCode: cfg.IPay88MerchantCode,
		MerchantKey:  cfg.IPay88MerchantKey,
		ActionURL:    cfg.IPay88ActionURL,
		ResponseURL:  cfg.IPay88ResponseURL,
		PaymentMode:  cfg.IPay88PaymentMode,
	}

	orderRepo := order.NewRepository(database)
	paymentRepo := payment.NewRepository(database)

	builder := ipay88.NewRequestBuilder(orderRepo, gatewayCfg)
	validator := ipay88.NewValidator(gatewayCfg)
	processor := payment.NewProcessor(orderRepo)

	h := webhook.NewWebhookHandler(builder, validator, processor, paymentRepo)

	return setupRouter(h)
}

func run() error {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	router := newServer(cfg, database)

	logger.L().Info("payment service listening",
		zap.String("port", cfg.AppPort),
		zap.Int("payment_mode", cfg.IPay88PaymentMode),
	)

	return startServerFunc(":"+cfg.AppPort, router)
}

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
