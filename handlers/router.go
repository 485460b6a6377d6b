package handlers

import (
	"time"

	"github.com/folio-cms/folio/internal/config"
	"github.com/folio-cms/folio/internal/media"
	"github.com/folio-cms/folio/internal/page"
	"github.com/folio-cms/folio/internal/sessions"
	"github.com/folio-cms/folio/internal/users"
	"github.com/folio-cms/folio/pkg/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Page      *page.Page
	Users     *users.Service
	Sessions  *sessions.Service
	Blacklist *sessions.Blacklist
	Verifier  middleware.Verifier
	Uploader  media.Uploader
	// Redis is optional; it backs the shared rate limiter.
	Redis   *redis.Client
	Checks  map[string]Check
	Started time.Time
}

// NewRouter wires middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	cc := cors.DefaultConfig()
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization")
	cc.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	if len(cfg.Server.CORSOrigins) > 0 {
		cc.AllowOrigins = cfg.Server.CORSOrigins
		cc.AllowCredentials = true
	} else {
		cc.AllowAllOrigins = true
	}
	r.Use(cors.New(cc))

	// claims first so the limiter can key on the owner
	r.Use(middleware.OptionalAuth(d.Verifier, d.Blacklist))
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	started := d.Started
	if started.IsZero() {
		started = time.Now()
	}
	RegisterHealth(r, started, d.Checks)
	RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	NewPageHandler(d.Page).Register(r)

	auth := NewAuthHandler(cfg, d.Users, d.Sessions, d.Blacklist)
	auth.Register(r.Group("/"))

	requireOwner := middleware.AuthMiddleware(d.Verifier, d.Blacklist)
	r.GET("/api/v1/me", requireOwner, auth.Me)

	public := r.Group("/api")
	owner := r.Group("/api", requireOwner)
	NewContentHandler(d.Page).Register(public, owner)
	NewMediaHandler(d.Uploader).Register(owner)
	return r
}
