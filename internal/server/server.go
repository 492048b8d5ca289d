package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/config"
	engagementdomain "github.com/brookejlacey/flowback/internal/engagement/domain"
	"github.com/brookejlacey/flowback/internal/observability"
	obsmiddleware "github.com/brookejlacey/flowback/internal/observability/logger"
	obsmetrics "github.com/brookejlacey/flowback/internal/observability/metrics"
	"github.com/brookejlacey/flowback/internal/ratelimit"
	submissionservice "github.com/brookejlacey/flowback/internal/submission/service"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	opsCfg        *config.OpsConfigHolder
	engagementSvc engagementdomain.Service
	submissionSvc *submissionservice.Service
	limiter       *ratelimit.TokenBucket
	metrics       *obsmetrics.Metrics
	log           *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	OpsCfg        *config.OpsConfigHolder
	EngagementSvc engagementdomain.Service
	SubmissionSvc *submissionservice.Service
	Limiter       *ratelimit.TokenBucket `optional:"true"`
	Metrics       *obsmetrics.Metrics    `optional:"true"`
	Log           *zap.Logger
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		opsCfg:        p.OpsCfg,
		engagementSvc: p.EngagementSvc,
		submissionSvc: p.SubmissionSvc,
		limiter:       p.Limiter,
		metrics:       p.Metrics,
		log:           p.Log.Named("server"),
	}

	s.registerAPIRoutes()

	return s
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	metrics := api.Group("/metrics")
	metrics.Use(s.ServiceTokenRequired(), s.MetricsRateLimit())
	metrics.GET("/:platform/:videoId", s.handleVideoMetrics)

	submissions := api.Group("/submissions")
	submissions.POST("", s.handleCreateSubmission)
	submissions.GET("/:id", s.handleGetSubmission)
	submissions.GET("", s.handleListSubmissions)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
