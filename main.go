package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folio-cms/folio/handlers"
	"github.com/folio-cms/folio/internal/app"
	"github.com/folio-cms/folio/internal/binder"
	"github.com/folio-cms/folio/internal/config"
	"github.com/folio-cms/folio/internal/media"
	"github.com/folio-cms/folio/internal/oidc"
	"github.com/folio-cms/folio/internal/page"
	"github.com/folio-cms/folio/internal/tokens"
	"github.com/folio-cms/folio/pkg/logger"
	"github.com/folio-cms/folio/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v media=%q", cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Media.Backend)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = randomSecret()
		logger.Warnf("using a random JWT secret: sessions end when the process restarts")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open backends: %v", err)
	}
	defer backend.Close()
	if err := backend.SeedOwner(ctx, cfg); err != nil {
		logger.Fatalf("%v", err)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	site := page.New(backend.Store, binder.Options{
		Writer: binder.NewWriter(cfg.Write.Policy()),
		Media:  media.Policy(cfg.Media),
	})
	if err := site.Activate(ctx); err != nil {
		logger.Fatalf("failed to load content: %v", err)
	}
	defer site.Close()

	verifiers := tokens.Chain{tokens.NewVerifier(cfg.JWT.Secret)}
	if cfg.Keycloak.URL != "" && cfg.Keycloak.Realm != "" {
		ver, err := oidc.NewVerifier(ctx, oidc.IssuerURL(cfg.Keycloak.URL, cfg.Keycloak.Realm), cfg.Keycloak.ClientID, cfg.Owner.Email)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifiers = append(verifiers, ver)
		}
	}

	uploader, err := media.New(ctx, cfg.Media)
	if err != nil {
		logger.Warnf("media uploads disabled: %v", err)
		uploader = nil
	}

	checks := map[string]handlers.Check{}
	for name, fn := range backend.Checks {
		checks[name] = fn
	}
	checks["content"] = func(context.Context) error {
		for _, b := range site.Collections() {
			if !b.Loaded() {
				return errors.New("content is still loading")
			}
		}
		return nil
	}

	r := handlers.NewRouter(handlers.Deps{
		Config:    cfg,
		Page:      site,
		Users:     backend.Users,
		Sessions:  backend.Sessions,
		Blacklist: backend.Blacklist,
		Verifier:  verifiers,
		Uploader:  uploader,
		Redis:     backend.Redis,
		Checks:    checks,
		Started:   startTime,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: live streams stay open
		IdleTimeout: 2 * time.Minute,
		// streams end with the signal context
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		logger.Infof("serving portfolio on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logger.Fatalf("random secret: %v", err)
	}
	return hex.EncodeToString(b)
}
