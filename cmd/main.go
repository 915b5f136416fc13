package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcrouter "github.com/dtroode/vidtube-accounts/internal/api/grpc/router"
	grpcserver "github.com/dtroode/vidtube-accounts/internal/api/grpc/server"
	httpcontext "github.com/dtroode/vidtube-accounts/internal/api/http/context"
	"github.com/dtroode/vidtube-accounts/internal/api/http/handler"
	"github.com/dtroode/vidtube-accounts/internal/api/http/middleware"
	httprouter "github.com/dtroode/vidtube-accounts/internal/api/http/router"
	httpserver "github.com/dtroode/vidtube-accounts/internal/api/http/server"
	"github.com/dtroode/vidtube-accounts/internal/config"
	"github.com/dtroode/vidtube-accounts/internal/logger"
	"github.com/dtroode/vidtube-accounts/internal/metrics"
	"github.com/dtroode/vidtube-accounts/internal/model"
	"github.com/dtroode/vidtube-accounts/internal/password"
	"github.com/dtroode/vidtube-accounts/internal/repository/postgres"
	"github.com/dtroode/vidtube-accounts/internal/server"
	"github.com/dtroode/vidtube-accounts/internal/service"
	storage "github.com/dtroode/vidtube-accounts/internal/storage/minio"
	"github.com/dtroode/vidtube-accounts/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN, postgres.Options{
		MaxConns:        cfg.Database.MaxConns,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	})
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	accountRepo := postgres.NewAccountRepository(db)
	hasher := password.NewBcrypt(cfg.Password.Cost)
	tokenCodec, err := token.NewJWT(token.Config{Secret: cfg.JWT.Secret})
	if err != nil {
		logger.Fatal("failed to initialize token codec", "error", err)
	}

	mediaStore, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		logger.Fatal("failed to initialize media storage", "error", err)
	}

	appMetrics := metrics.New()

	sessionService := service.NewSession(accountRepo, tokenCodec, hasher, appMetrics, service.SessionConfig{
		AccessTTL:              cfg.JWT.AccessTTL,
		RefreshTTL:             cfg.JWT.RefreshTTL,
		RevokeOnReuse:          cfg.Session.RevokeOnReuse,
		CompareAndSwap:         cfg.Session.CompareAndSwap,
		GenericAuthErrors:      cfg.Session.GenericAuthErrors,
		RevokeOnPasswordChange: cfg.Session.RevokeOnPasswordChange,
	}, logger)
	accountService := service.NewAccount(accountRepo, hasher, mediaStore, logger)

	httpSrv := registerHTTPServer(cfg, logger, sessionService, accountService, appMetrics, db)

	healthServer := health.NewServer()
	grpcSrv := grpcserver.NewGRPCServer(
		grpcrouter.New(healthServer, appMetrics, logger).Register(),
		fmt.Sprintf(":%s", cfg.GRPC.Port),
	)

	servers := []struct {
		srv model.Server
		sl  model.SecurityLayer
	}{
		{httpSrv, server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName, server.HTTPProtocols)},
		{grpcSrv, server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName, server.GRPCProtocols)},
	}

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server, sl model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s.srv, s.sl)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.srv.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.srv.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func registerHTTPServer(
	cfg *config.Config,
	logger *logger.Logger,
	sessionService *service.Session,
	accountService *service.Account,
	appMetrics *metrics.Metrics,
	health httprouter.HealthChecker,
) *httpserver.HTTPServer {
	ctxMgr := httpcontext.NewManager()
	cookies := handler.NewCookies(handler.CookieConfig{
		Secure:     cfg.Cookie.Secure,
		Domain:     cfg.Cookie.Domain,
		Path:       cfg.Cookie.Path,
		SameSite:   cfg.Cookie.SameSiteMode(),
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})

	r := httprouter.New(httprouter.Params{
		Users:        handler.NewUsers(sessionService, accountService, ctxMgr, cookies, cfg.HTTP.MaxUploadBytes, logger),
		Authenticate: middleware.NewAuthenticate(sessionService, ctxMgr, logger),
		RateLimit: middleware.NewRateLimit(middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			Burst:             cfg.RateLimit.Burst,
		}, appMetrics, logger),
		Observer:           appMetrics,
		Metrics:            appMetrics.Handler(),
		Health:             health,
		MaxMultipartMemory: cfg.HTTP.MaxUploadBytes,
		Logger:             logger,
	})

	return httpserver.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)
}
