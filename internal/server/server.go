package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reclaimhq/reclaim/internal/billing"
	billingdomain "github.com/reclaimhq/reclaim/internal/billing/domain"
	"github.com/reclaimhq/reclaim/internal/certainty"
	certaintydomain "github.com/reclaimhq/reclaim/internal/certainty/domain"
	"github.com/reclaimhq/reclaim/internal/claim"
	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
	"github.com/reclaimhq/reclaim/internal/config"
	"github.com/reclaimhq/reclaim/internal/journal"
	journaldomain "github.com/reclaimhq/reclaim/internal/journal/domain"
	"github.com/reclaimhq/reclaim/internal/observability"
	obsmiddleware "github.com/reclaimhq/reclaim/internal/observability/logger"
	obsmetrics "github.com/reclaimhq/reclaim/internal/observability/metrics"
	obstracing "github.com/reclaimhq/reclaim/internal/observability/tracing"
	"github.com/reclaimhq/reclaim/internal/submission"
	submissiondomain "github.com/reclaimhq/reclaim/internal/submission/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	claim.Module,
	journal.Module,
	billing.Module,
	submission.Module,
	certainty.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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
	db            *gorm.DB
	genID         *snowflake.Node
	claimSvc      claimdomain.Service
	submissionSvc submissiondomain.Service
	journalSvc    journaldomain.Service
	billingSvc    billingdomain.Service
	certaintySvc  certaintydomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	ClaimSvc      claimdomain.Service
	SubmissionSvc submissiondomain.Service
	JournalSvc    journaldomain.Service
	BillingSvc    billingdomain.Service
	CertaintySvc  certaintydomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		claimSvc:      p.ClaimSvc,
		submissionSvc: p.SubmissionSvc,
		journalSvc:    p.JournalSvc,
		billingSvc:    p.BillingSvc,
		certaintySvc:  p.CertaintySvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Claims --------
	api.GET("/claims", s.ListClaims)
	api.POST("/claims", s.CreateClaim)
	api.GET("/claims/:id", s.GetClaimByID)
	api.POST("/claims/:id/score", s.ScoreClaim)

	// -------- Submissions --------
	api.GET("/submissions", s.ListSubmissions)
	api.POST("/submissions", s.CreateSubmission)
	api.GET("/submissions/:id", s.GetSubmissionByID)
	api.POST("/submissions/:id/reset", s.ResetSubmission)

	// -------- Journal --------
	api.GET("/journal", s.ListJournalEntries)
}
