// Package main provides the support bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pakawat-dev/support-linebot-go/internal/config"
	"github.com/pakawat-dev/support-linebot-go/internal/docstore"
	"github.com/pakawat-dev/support-linebot-go/internal/format"
	"github.com/pakawat-dev/support-linebot-go/internal/genai"
	"github.com/pakawat-dev/support-linebot-go/internal/keywordtable"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/metrics"
	"github.com/pakawat-dev/support-linebot-go/internal/orchestrator"
	"github.com/pakawat-dev/support-linebot-go/internal/provider"
	"github.com/pakawat-dev/support-linebot-go/internal/ratelimit"
	"github.com/pakawat-dev/support-linebot-go/internal/sequencer"
	"github.com/pakawat-dev/support-linebot-go/internal/session"
	"github.com/pakawat-dev/support-linebot-go/internal/storage"
	"github.com/pakawat-dev/support-linebot-go/internal/textanalyzer"
	"github.com/pakawat-dev/support-linebot-go/internal/warmup"
	"github.com/pakawat-dev/support-linebot-go/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting support bot server")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			AttachStacktrace: true,
		}); err != nil {
			log.WithError(err).Warn("Sentry initialization failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open snapshot database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Snapshot database opened")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Data sources
	fetchClient := provider.NewClient(cfg.FetchTimeout, cfg.FetchMaxRetries)
	table := keywordtable.New(
		provider.NewSheetProvider(fetchClient, cfg.SheetURL),
		keywordtable.Config{
			Pages:         cfg.SheetPages,
			IntentBuckets: keywordtable.DefaultIntentBuckets(),
			FuzzyMinRatio: keywordtable.DefaultFuzzyMinRatio,
		}, log, m)
	docs := docstore.New(
		provider.NewDocumentProvider(fetchClient, cfg.DocumentURL),
		cfg.DocumentTTL, docstore.DefaultSearchVocabulary(), log, m)

	// Generative providers: Gemini primary, OpenAI-compatible on quota
	// exhaustion. Either may be absent.
	gemini, err := genai.NewGemini(rootCtx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.WithError(err).Warn("Gemini client unavailable")
	}
	fallbackLLM, err := genai.NewOpenAICompatible(cfg.FallbackLLMAPIKey, cfg.FallbackLLMBaseURL, cfg.FallbackLLMModel)
	if err != nil {
		log.WithError(err).Warn("Fallback LLM client unavailable")
	}
	chain := genai.NewChain(log, gemini, fallbackLLM)
	if chain == nil {
		log.Warn("No LLM provider configured; generative answers disabled")
	} else {
		defer func() { _ = chain.Close() }()
	}
	responder := genai.NewResponder(chain, genai.DefaultRetryConfig(), log, m)

	orch := orchestrator.New(
		textanalyzer.New(textanalyzer.DefaultVocabulary()),
		docs, table, responder,
		orchestrator.PolicyFromName(cfg.SourcePolicy),
		format.New(cfg.ResponseLanguage, cfg.ClosingLine),
		orchestrator.Config{
			DocAcceptThreshold:     cfg.DocAcceptThreshold,
			KeywordAcceptThreshold: cfg.KeywordAcceptThreshold,
			KeywordMatchThreshold:  cfg.KeywordMatchThreshold,
			DefaultResponse:        cfg.DefaultResponse,
		}, log, m)

	sessions := session.NewRegistry(cfg.SessionTimeout, log, m)
	seq := sequencer.New(rootCtx, orch.Handle, cfg.MaxQueueSize, cfg.BusyResponse, cfg.HandleTimeout, log, m)

	userLimiter := ratelimit.NewPerKey(ratelimit.PerKeyConfig{
		MaxTokens:     6,
		RefillRate:    0.2,
		CleanupPeriod: 5 * time.Minute,
	})
	defer userLimiter.Stop()

	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		ChannelToken:  cfg.LineChannelToken,
		Sequencer:     seq,
		Sessions:      sessions,
		UserLimiter:   userLimiter,
		Greeting:      cfg.Greeting,
		BusyResponse:  cfg.BusyResponse,
		Logger:        log,
		Metrics:       m,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create webhook handler")
	}

	// Initial warmup and background jobs
	warmupMgr := warmup.NewManager(table, docs, db, log)
	readiness := warmup.NewReadinessState(2 * time.Minute)
	startJobs(rootCtx, warmupMgr, readiness, sessions, cfg, log)

	// HTTP server
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	setupRoutes(router, cfg, webhookHandler, orch, seq, sessions, readiness, registry, log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	webhookHandler.Wait()
	seq.Close()
	log.Info("Server stopped")
}
