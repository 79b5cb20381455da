// Package server exposes the HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	accountlinkdomain "github.com/resailhq/resail/internal/accountlink/domain"
	auditdomain "github.com/resailhq/resail/internal/audit/domain"
	"github.com/resailhq/resail/internal/auditcontext"
	"github.com/resailhq/resail/internal/config"
	customerdomain "github.com/resailhq/resail/internal/customer/domain"
	"github.com/resailhq/resail/internal/observability/logger"
	"github.com/resailhq/resail/internal/observability/metrics"
	plandomain "github.com/resailhq/resail/internal/plan/domain"
	pricingdomain "github.com/resailhq/resail/internal/pricing/domain"
	usagedomain "github.com/resailhq/resail/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config config.Config
	DB     *gorm.DB
	Log    *zap.Logger

	CustomerSvc    customerdomain.Service
	AccountLinkSvc accountlinkdomain.Service
	PricingSvc     pricingdomain.Service
	UsageSvc       usagedomain.Service
	PlanSvc        plandomain.Service
	AuditSvc       auditdomain.Service `optional:"true"`

	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

type Server struct {
	cfg config.Config
	db  *gorm.DB
	log *zap.Logger

	customerSvc    customerdomain.Service
	accountLinkSvc accountlinkdomain.Service
	pricingSvc     pricingdomain.Service
	usageSvc       usagedomain.Service
	planSvc        plandomain.Service
	auditSvc       auditdomain.Service

	httpMetrics *metrics.HTTPMetrics
	limiter     *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg: p.Config,
		db:  p.DB,
		log: p.Log.Named("server"),

		customerSvc:    p.CustomerSvc,
		accountLinkSvc: p.AccountLinkSvc,
		pricingSvc:     p.PricingSvc,
		usageSvc:       p.UsageSvc,
		planSvc:        p.PlanSvc,
		auditSvc:       p.AuditSvc,

		httpMetrics: p.HTTPMetrics,
		limiter:     newRateLimiter(p.Config.RateLimit.Limit, p.Config.RateLimit.Window),
	}
}

// Router builds the gin engine with all middleware and routes attached.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(logger.MiddlewareConfig{SkipPaths: []string{"/healthz"}}))
	if s.httpMetrics != nil {
		router.Use(metrics.GinMiddleware(s.httpMetrics))
	}
	router.Use(actorMiddleware())

	router.GET("/healthz", s.Healthz)

	v1 := router.Group("/v1")
	{
		v1.GET("/plans", s.ListPlans)

		v1.POST("/pricing/calculate", s.CalculatePrice)
		v1.POST("/pricing/calculate-legacy", s.CalculateLegacyPrice)

		v1.POST("/customers", s.rateLimit, s.CreateCustomer)
		v1.GET("/customers", s.ListCustomers)
		v1.GET("/customers/:id", s.GetCustomerByID)
		v1.POST("/customers/:id/transition", s.rateLimit, s.TransitionCustomer)
		v1.GET("/customers/:id/quote", s.QuoteCustomer)

		v1.POST("/customers/:id/links", s.rateLimit, s.LinkAccount)
		v1.DELETE("/customers/:id/links", s.rateLimit, s.UnlinkAccount)
		v1.GET("/customers/:id/links", s.ListActiveLinks)
		v1.GET("/customers/:id/links/history", s.ListLinkHistory)

		v1.POST("/usage", s.rateLimit, s.RecordUsage)
		v1.GET("/customers/:id/usage/summary", s.SummarizeUsage)

		v1.GET("/audit-logs", s.ListAuditLogs)
	}

	return router
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) rateLimit(c *gin.Context) {
	if !s.limiter.Allow(c.ClientIP()) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}
	c.Next()
}

// actorMiddleware records the calling operator for audit trails. The
// X-Actor header is trusted here; authentication happens upstream.
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader("X-Actor"))
		if actor != "" {
			ctx := auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeUser), actor)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
