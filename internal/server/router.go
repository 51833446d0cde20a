package server

import (
	"time"

	"github.com/0xPexy/sentra-wallet/internal/auth"
	"github.com/0xPexy/sentra-wallet/internal/metrics"
	"github.com/0xPexy/sentra-wallet/internal/simulator"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Wallet *simulator.Handler
	Hub    *EventHub
	// Auth guards /rpc; nil leaves it open.
	Auth     *auth.Verifier
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	if d.Hub != nil {
		r.GET("/ws", d.Hub.ServeWS)
	}

	r.POST("/rpc", auth.BearerMiddleware(d.Auth), d.Wallet.HandleJSONRPC)
	api := r.Group("/api/v1")
	{
		api.GET("/bundles/:id", d.Wallet.GetBundle)
		api.GET("/permissions/:account", d.Wallet.GetPermissions)
	}
	return r
}
