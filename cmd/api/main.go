package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/echo/backend/internal/analysis/crisis"
	"github.com/zhouzirui/echo/backend/internal/config"
	"github.com/zhouzirui/echo/backend/internal/database"
	"github.com/zhouzirui/echo/backend/internal/handler"
	"github.com/zhouzirui/echo/backend/internal/logging"
	"github.com/zhouzirui/echo/backend/internal/repository/users"
	"github.com/zhouzirui/echo/backend/internal/security/password"
	"github.com/zhouzirui/echo/backend/internal/security/token"
	"github.com/zhouzirui/echo/backend/internal/service/account"
	"github.com/zhouzirui/echo/backend/internal/service/chat"
	"github.com/zhouzirui/echo/backend/internal/service/memory"
	"github.com/zhouzirui/echo/backend/internal/service/reply"
	"github.com/zhouzirui/echo/backend/internal/storage/snapshot"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Warn("failed to load .env file, continuing with system environment variables only", "error", envErr)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.DB, cfg.Database.Driver); err != nil {
		return err
	}

	hasher := password.NewBcrypt(cfg.Auth.PasswordCost)
	accountSvc, err := account.NewService(users.NewSQLRepository(db), hasher, logger)
	if err != nil {
		return err
	}

	issuer, err := newIssuer(cfg.Auth, logger)
	if err != nil {
		return err
	}

	backend, err := snapshot.Open(ctx, cfg.Memory.Path, snapshot.S3Options{
		Region:    cfg.Memory.S3Region,
		Endpoint:  cfg.Memory.S3Endpoint,
		AccessKey: cfg.Memory.S3AccessKey,
		SecretKey: cfg.Memory.S3SecretKey,
	})
	if err != nil {
		return err
	}
	store, err := memory.NewStore(backend)
	if err != nil {
		return err
	}
	if err := store.Load(ctx); err != nil {
		return err
	}
	logger.Info("conversation memory loaded", "location", cfg.Memory.Path, "conversations", store.Len())

	chatSvc, err := chat.NewService(
		store,
		crisis.New(cfg.Safety.Keywords),
		reply.New(cfg.Safety.CrisisReply, cfg.Safety.GenericReply),
		logger,
	)
	if err != nil {
		return err
	}

	router := handler.NewRouter(accountSvc, issuer, chatSvc, logger, cfg.CORS.AllowedOrigins)

	serveErr := startServer(ctx, cfg.Server, router, logger)

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := chatSvc.Flush(flushCtx); err != nil {
		logger.Error("final memory flush failed", "error", err)
	}
	return serveErr
}

// newIssuer falls back to a random per-process secret, which invalidates all
// tokens on restart.
func newIssuer(cfg config.AuthConfig, logger *slog.Logger) (*token.Issuer, error) {
	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		logger.Warn("AUTH_TOKEN_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	return token.NewIssuer(secret, cfg.TokenTTL)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *slog.Logger) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("Echo backend listening", "addr", addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
