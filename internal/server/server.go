package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/careloop/clinicore/internal/audit"
	auditdomain "github.com/careloop/clinicore/internal/audit/domain"
	"github.com/careloop/clinicore/internal/billing"
	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
	"github.com/careloop/clinicore/internal/catalog"
	catalogdomain "github.com/careloop/clinicore/internal/catalog/domain"
	"github.com/careloop/clinicore/internal/config"
	"github.com/careloop/clinicore/internal/observability"
	obsmiddleware "github.com/careloop/clinicore/internal/observability/logger"
	"github.com/careloop/clinicore/internal/receipt"
	receiptdomain "github.com/careloop/clinicore/internal/receipt/domain"
	"github.com/careloop/clinicore/internal/revenue"
	revenuedomain "github.com/careloop/clinicore/internal/revenue/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	catalog.Module,
	billing.Module,
	revenue.Module,
	receipt.Module,
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
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	auditSvc   auditdomain.Service
	billingSvc billingdomain.Service
	catalogSvc catalogdomain.Service
	revenueSvc revenuedomain.Service
	receiptSvc receiptdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	AuditSvc   auditdomain.Service
	BillingSvc billingdomain.Service
	CatalogSvc catalogdomain.Service
	RevenueSvc revenuedomain.Service
	ReceiptSvc receiptdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		auditSvc:   p.AuditSvc,
		billingSvc: p.BillingSvc,
		catalogSvc: p.CatalogSvc,
		revenueSvc: p.RevenueSvc,
		receiptSvc: p.ReceiptSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1")

	records := api.Group("/records")
	records.POST("", s.CreateRecord)
	records.GET("", s.ListRecords)
	records.GET("/:id", s.GetRecord)
	records.POST("/:id/updates", s.ApplyRecordUpdate)
	records.POST("/:id/installments", s.AddInstallment)
	records.DELETE("/:id/installments/:installment_id", s.RemoveInstallment)
	records.GET("/:id/receipt", s.RecordReceipt)
	records.GET("/:id/audit", s.RecordAuditTrail)

	catalogGroup := api.Group("/catalog")
	catalogGroup.GET("/:department/lines", s.ListCostLines)
	catalogGroup.POST("/:department/lines", s.CreateCostLine)
	catalogGroup.POST("/:department/quote", s.QuoteSelections)

	api.GET("/revenue/summary", s.RevenueSummary)
}
