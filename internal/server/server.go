package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	artworkdomain "github.com/gavelhq/gavel/internal/artwork/domain"
	auditdomain "github.com/gavelhq/gavel/internal/audit/domain"
	biddingdomain "github.com/gavelhq/gavel/internal/bidding/domain"
	"github.com/gavelhq/gavel/internal/config"
	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	"github.com/gavelhq/gavel/internal/liveevents"
	"github.com/gavelhq/gavel/internal/observability"
	"github.com/gavelhq/gavel/internal/observability/logger"
	obsmetrics "github.com/gavelhq/gavel/internal/observability/metrics"
	"github.com/gavelhq/gavel/internal/observability/tracing"
	paymentdomain "github.com/gavelhq/gavel/internal/payment/domain"
	"github.com/gavelhq/gavel/internal/sweep"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config      config.Config
	ObsConfig   observability.Config
	Log         *zap.Logger
	Metrics     *obsmetrics.Metrics `optional:"true"`
	IdentitySvc identitydomain.Service
	ArtworkSvc  artworkdomain.Service
	BiddingSvc  biddingdomain.Service
	PaymentSvc  paymentdomain.Service
	AuditSvc    auditdomain.Service
	Hub         *liveevents.Hub
	Sweeper     *sweep.Sweeper
}

type Server struct {
	cfg         config.Config
	log         *zap.Logger
	metrics     *obsmetrics.Metrics
	identitySvc identitydomain.Service
	artworkSvc  artworkdomain.Service
	biddingSvc  biddingdomain.Service
	paymentSvc  paymentdomain.Service
	auditSvc    auditdomain.Service
	hub         *liveevents.Hub
	sweeper     *sweep.Sweeper

	engine *gin.Engine
	http   *http.Server
}

func New(p Params) *Server {
	s := &Server{
		cfg:         p.Config,
		log:         p.Log.Named("server"),
		metrics:     p.Metrics,
		identitySvc: p.IdentitySvc,
		artworkSvc:  p.ArtworkSvc,
		biddingSvc:  p.BiddingSvc,
		paymentSvc:  p.PaymentSvc,
		auditSvc:    p.AuditSvc,
		hub:         p.Hub,
		sweeper:     p.Sweeper,
	}

	if !p.ObsConfig.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Log:             p.Log.Named("http"),
		Debug:           p.ObsConfig.Debug(),
		ErrorClassifier: ErrorClassifier,
	}))
	engine.Use(tracing.GinMiddleware())
	engine.Use(obsmetrics.GinMiddleware(p.Metrics))

	s.engine = engine
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")

	// Payment provider callbacks authenticate by signature, not bearer token.
	v1.POST("/webhooks/payments", s.handlePaymentWebhook)

	authed := v1.Group("")
	authed.Use(s.AuthMiddleware())

	authed.GET("/users/me", s.handleCurrentUser)

	authed.POST("/artworks", s.handleCreateArtwork)
	authed.GET("/artworks", s.handleListArtworks)
	authed.GET("/artworks/:id", s.handleGetArtwork)
	authed.DELETE("/artworks/:id", s.handleDeleteArtwork)
	authed.GET("/artworks/:id/bids", s.handleListArtworkBids)
	authed.GET("/artworks/:id/events", s.handleArtworkEvents)
	authed.GET("/artworks/:id/ws", s.handleArtworkSocket)

	authed.POST("/bids", s.handlePlaceBid)
	authed.GET("/bids/mine", s.handleMyBids)

	authed.POST("/payments/intents", s.handleCreatePaymentIntent)
	authed.GET("/payments/:id", s.handleGetPayment)

	admin := authed.Group("/admin")
	admin.Use(s.requireAdmin())
	admin.POST("/sweep", s.handleSweep)
	admin.GET("/audit-logs", s.handleListAuditLogs)
	admin.DELETE("/users/:id", s.handleDeleteUser)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	go func() {
		s.log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, s *Server) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error { return s.Start(ctx) },
			OnStop:  func(ctx context.Context) error { return s.Stop(ctx) },
		})
	}),
)
