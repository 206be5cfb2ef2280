package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pakawat-dev/support-linebot-go/internal/config"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/orchestrator"
	"github.com/pakawat-dev/support-linebot-go/internal/sequencer"
	"github.com/pakawat-dev/support-linebot-go/internal/session"
	"github.com/pakawat-dev/support-linebot-go/internal/warmup"
	"github.com/pakawat-dev/support-linebot-go/internal/webhook"
)

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	wh *webhook.Handler,
	orch *orchestrator.Orchestrator,
	seq *sequencer.Sequencer,
	sessions *session.Registry,
	readiness *warmup.ReadinessState,
	registry *prometheus.Registry,
	log *logger.Logger,
) {
	router.GET("/healthz", healthzHandler)
	router.HEAD("/healthz", healthzHandler)
	router.GET("/readyz", readyzHandler(readiness))

	router.POST("/webhook", wh.Handle)

	admin := router.Group("/admin", basicAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword))
	admin.POST("/refresh", refreshHandler(orch, log))
	admin.GET("/status", statusHandler(orch, seq, sessions))

	router.GET("/metrics",
		basicAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

func healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyzHandler reports 503 until the initial data load completes or the
// warmup timeout degrades the gate open.
func readyzHandler(readiness *warmup.ReadinessState) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := readiness.Status()
		code := http.StatusOK
		if !status.Ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}

func refreshHandler(orch *orchestrator.Orchestrator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := orch.ForceRefresh(c.Request.Context()); err != nil {
			log.WithError(err).Error("Manual refresh failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
	}
}

func statusHandler(orch *orchestrator.Orchestrator, seq *sequencer.Sequencer, sessions *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"sources":        orch.Status(),
			"queueDepth":     seq.QueueDepth(),
			"activeSessions": sessions.Count(),
		})
	}
}

// basicAuthMiddleware protects operator endpoints. With no credentials
// configured the endpoints are left open, which suits local development.
func basicAuthMiddleware(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if username == "" && password == "" {
			c.Next()
			return
		}
		user, pass, ok := c.Request.BasicAuth()
		if !ok || user != username || pass != password {
			c.Header("WWW-Authenticate", `Basic realm="restricted"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
