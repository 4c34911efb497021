package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/payment"
	"storefront/internal/seed"
	"storefront/internal/storefront"
	"storefront/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.NewConfig()
	slog.Info("Starting storefront", "port", cfg.HTTPPort)

	data, err := seed.Load(cfg.CatalogSeedPath)
	if err != nil {
		slog.Error("Failed to load seed data", "path", cfg.CatalogSeedPath, "error", err)
		os.Exit(1)
	}

	repo, err := catalog.NewRepository(data.Products)
	if err != nil {
		slog.Error("Failed to build catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Catalog loaded", "products", len(data.Products), "users", len(data.Users))

	opts := api.Options{
		LoginLimit:   cfg.LoginRateLimit,
		LoginWindow:  cfg.LoginRateWindow,
		ArrivalsSeed: uint64(time.Now().UnixNano()),
	}

	var records auth.RecordStore
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewClient(cfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.Info("Connected to Redis", "addr", cfg.RedisAddr)

		records = auth.NewRedisRecordStore(redisClient, cfg.SessionKey)
		opts.Limiter = redisClient
	} else {
		path := cfg.SessionFile
		if path == "" {
			if path, err = auth.DefaultRecordPath(); err != nil {
				slog.Error("No session file location", "error", err)
				os.Exit(1)
			}
		}
		records = auth.NewFileRecordStore(path)
		slog.Info("Session record stored on disk", "path", path)
	}

	session := auth.NewStore(auth.NewRegistry(data.Users), records)
	session.Restore(context.Background())

	gateway := payment.NewSimulatedGateway(payment.GatewayConfig{
		MinLatency:  cfg.PaymentMinLatency,
		MaxLatency:  cfg.PaymentMaxLatency,
		FailureRate: cfg.PaymentFailureRate,
		Seed:        cfg.PaymentSeed,
	})
	authorizer := payment.NewGuarded(gateway, 5, 30*time.Second)

	pricing := checkout.Pricing{ShippingFee: cfg.ShippingFee, TaxRate: cfg.TaxRate}
	engine := storefront.New(repo, cart.NewStore(repo), session, pricing, authorizer)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authMiddleware := auth.NewMiddleware(tokens, session)
	handler := api.NewHandler(engine, tokens, opts)

	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())
	handler.Register(mux, authMiddleware)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	slog.Info("Server listening", "addr", serverAddr)

	if err := http.ListenAndServe(serverAddr, telemetry.Middleware(mux)); err != nil {
		slog.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}
}
