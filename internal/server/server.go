package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/depictapp/depict/internal/challenge"
	"github.com/depictapp/depict/internal/config"
	"github.com/depictapp/depict/internal/credit"
	creditdomain "github.com/depictapp/depict/internal/credit/domain"
	"github.com/depictapp/depict/internal/generation"
	generationdomain "github.com/depictapp/depict/internal/generation/domain"
	obsmetrics "github.com/depictapp/depict/internal/observability/metrics"
	"github.com/depictapp/depict/internal/payment"
	"github.com/depictapp/depict/internal/payment/adapters"
	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
	"github.com/depictapp/depict/internal/providers"
	"github.com/depictapp/depict/internal/providers/artifact"
	"github.com/depictapp/depict/internal/ratelimit"
	"github.com/depictapp/depict/internal/signup"
	signupdomain "github.com/depictapp/depict/internal/signup/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	credit.Module,
	payment.Module,
	challenge.Module,
	providers.Module,
	ratelimit.Module,
	generation.Module,
	signup.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	creditSvc     creditdomain.Service
	generationSvc generationdomain.Service
	signupSvc     signupdomain.Service
	recorder      paymentdomain.Recorder
	registry      *adapters.Registry
	artifacts     *artifact.FSStore
	metrics       *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	CreditSvc     creditdomain.Service
	GenerationSvc generationdomain.Service
	SignupSvc     signupdomain.Service
	Recorder      paymentdomain.Recorder
	Registry      *adapters.Registry
	Artifacts     *artifact.FSStore
	Metrics       *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		creditSvc:     p.CreditSvc,
		generationSvc: p.GenerationSvc,
		signupSvc:     p.SignupSvc,
		recorder:      p.Recorder,
		registry:      p.Registry,
		artifacts:     p.Artifacts,
		metrics:       p.Metrics,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()
	svc.registerArtifactRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.SubjectRequired())

	api.POST("/generate", s.Generate)
	api.GET("/credits/balance", s.GetBalance)
	api.GET("/attempts", s.ListAttempts)
	api.POST("/payments/:provider/verify", s.VerifyPayment)
}

func (s *Server) registerWebhookRoutes() {
	// Webhooks authenticate with provider signatures, not subject headers.
	s.engine.POST("/api/webhooks/:provider", s.HandlePaymentWebhook)
}

func (s *Server) registerArtifactRoutes() {
	base := strings.TrimSpace(s.cfg.Artifacts.PublicBaseURL)
	if !strings.HasPrefix(base, "/") {
		// Absolute URLs mean something else (a CDN) serves the files.
		return
	}
	s.engine.Static(base, s.artifacts.Dir())
}
