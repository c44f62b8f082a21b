package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tabsplit/tabsplit/internal/api"
	"github.com/tabsplit/tabsplit/internal/auth"
	"github.com/tabsplit/tabsplit/internal/config"
	"github.com/tabsplit/tabsplit/internal/service"
	"github.com/tabsplit/tabsplit/internal/storage/sqlite"
	"github.com/tabsplit/tabsplit/pkg/logging"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.Log.Level))

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
	hub := service.NewSnapshotHub()
	settlements := service.NewSettlementService(store, hub, cfg.Settlement.AbsorbExtraCents)
	accounts := service.NewAccountService(store, jwtManager)

	server := api.NewServer(settlements, accounts, jwtManager)

	// h2c keeps HTTP/2 available without TLS for local and proxied deployments.
	handler := h2c.NewHandler(server.Handler(), &http2.Server{})

	slog.Info("Server starting",
		"address", cfg.Server.Addr,
		"absorb_extra_cents", cfg.Settlement.AbsorbExtraCents,
	)
	if err := http.ListenAndServe(cfg.Server.Addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
