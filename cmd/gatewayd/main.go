// Package main is the entry point for gatewayd, the fitness gateway daemon.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/fitsync/gateway/pkg/audit"
	"github.com/fitsync/gateway/pkg/config"
	"github.com/fitsync/gateway/pkg/httpapi"
	"github.com/fitsync/gateway/pkg/logger"
	"github.com/fitsync/gateway/pkg/mcpserver"
	"github.com/fitsync/gateway/pkg/oauthlink"
	"github.com/fitsync/gateway/pkg/providercache"
	"github.com/fitsync/gateway/pkg/session"
	"github.com/fitsync/gateway/pkg/store"
	"github.com/fitsync/gateway/pkg/users"
	"github.com/fitsync/gateway/pkg/vault"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(cfg.LogLevel, cfg.LogLevel == "debug")
	log := logger.FromContext(ctx)
	ctx = logger.WithContext(ctx, log)

	if err := run(ctx, cfg); err != nil {
		log.Error("gatewayd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.FromContext(ctx)

	encryptionKey, err := readHexKeyFile(cfg.EncryptionKeyPath, 32)
	if err != nil {
		return fmt.Errorf("load encryption key: %w", err)
	}
	jwtSecret, err := readKeyFile(cfg.JWTSecretPath)
	if err != nil {
		return fmt.Errorf("load jwt secret: %w", err)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	v, err := vault.New(db, encryptionKey)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}

	userStore := users.New(db)

	providerConfigs := make(map[string]providercache.ProviderConfig, len(cfg.Providers))
	clientConfigs := make(map[string]oauthlink.ClientConfig, len(cfg.Providers))
	for name, p := range cfg.Providers {
		providerConfigs[name] = providercache.ProviderConfig{ClientID: p.ClientID, ClientSecret: p.ClientSecret}
		clientConfigs[name] = oauthlink.ClientConfig{ClientID: p.ClientID, ClientSecret: p.ClientSecret, RedirectURI: p.RedirectURI}
	}

	cache := providercache.New(v, providerConfigs)
	oauth := oauthlink.New(v, cache, clientConfigs)
	sessions := session.New(jwtSecret, time.Duration(cfg.SessionTokenExpiryHours)*time.Hour)
	auditor := audit.NewAuditor(log)

	mcp := mcpserver.New(sessions, userStore, cache, oauth, auditor)
	httpRouter := httpapi.NewRouter(userStore, sessions, oauth)

	mcpAddr := fmt.Sprintf(":%d", cfg.MCPPort)
	ln, err := net.Listen("tcp", mcpAddr)
	if err != nil {
		return fmt.Errorf("listen mcp: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("mcp dispatch layer listening", "addr", mcpAddr)
		return mcp.Serve(gctx, ln)
	})
	g.Go(func() error {
		return httpapi.Serve(gctx, fmt.Sprintf(":%d", cfg.HTTPPort), httpRouter)
	})
	g.Go(func() error {
		return serveMetrics(gctx, log)
	})

	return g.Wait()
}

func serveMetrics(ctx context.Context, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: ":9090", Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info("metrics endpoint listening", "addr", srv.Addr)
	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func readKeyFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(string(raw))), nil
}

func readHexKeyFile(path string, wantLen int) ([]byte, error) {
	raw, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("decode hex key: %w", err)
	}
	if len(key) != wantLen {
		return nil, fmt.Errorf("key must be %d bytes, got %d", wantLen, len(key))
	}
	return key, nil
}
