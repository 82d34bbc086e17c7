package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tabnest/internal/auth"
	"tabnest/internal/config"
	"tabnest/internal/handler"
	"tabnest/internal/middleware"
	"tabnest/internal/repository"
	authsvc "tabnest/internal/service/auth"
	tabservice "tabnest/internal/service/tabs"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"driver", cfg.DBDriver,
		"table_prefix", cfg.TablePrefix,
		"auth_disabled", cfg.AuthDisabled,
	)

	ctx := context.Background()
	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s backend: %v", cfg.DBDriver, err)
	}
	defer backend.Close()

	// Services
	authorizer := authsvc.NewOwnerBasedAuthorizer(backend.Groups, backend.Tabs)
	groupService := tabservice.NewGroupService(backend.Groups, authorizer, logger)
	tabService := tabservice.NewTabService(backend.Tabs, backend.Groups, backend.TxManager, authorizer, logger)

	logger.Info("services initialized")

	mux := handler.NewRouter(handler.Handlers{
		Health: handler.NewHealthHandler(backend.Driver, backend.Ping, logger),
		Groups: handler.NewGroupHandler(groupService, logger),
		Tabs:   handler.NewTabHandler(tabService, logger),
		Tree:   handler.NewTreeHandler(tabService, logger),
	})

	// Authentication: Supabase JWTs, or a fixed dev user when disabled
	var authMiddleware func(http.Handler) http.Handler
	if cfg.AuthDisabled {
		devUser := uuid.MustParse(cfg.DevUserID)
		logger.Warn("AUTH DISABLED: every request acts as the dev user (NEVER use in production!)", "user_id", devUser)
		authMiddleware = middleware.DevAuthMiddleware(devUser)
	} else {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		authMiddleware = middleware.AuthMiddleware(jwtVerifier, logger)
	}

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → RequestID → RealIP → Logger → Recovery → Auth → Routes
	var h http.Handler = mux
	h = authMiddleware(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)
	h = chimw.RealIP(h)
	h = chimw.RequestID(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server failed", "error", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
