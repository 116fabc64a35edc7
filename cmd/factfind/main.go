package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/factfind/internal/anthropic"
	"github.com/MikeSquared-Agency/factfind/internal/api"
	"github.com/MikeSquared-Agency/factfind/internal/config"
	"github.com/MikeSquared-Agency/factfind/internal/elevenlabs"
	"github.com/MikeSquared-Agency/factfind/internal/extractor"
	"github.com/MikeSquared-Agency/factfind/internal/gemini"
	"github.com/MikeSquared-Agency/factfind/internal/hermes"
	"github.com/MikeSquared-Agency/factfind/internal/processor"
	"github.com/MikeSquared-Agency/factfind/internal/slack"
	"github.com/MikeSquared-Agency/factfind/internal/store"
)

func main() {
	cfg, err := config.Load()
	setupLogging(cfg.LogLevel)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("factfind starting", "port", cfg.Port, "store", cfg.StoreDriver, "llm", cfg.LLMProvider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document store
	docs, err := openDocuments(ctx, cfg)
	if err != nil {
		slog.Error("failed to open document store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	if err := docs.EnsureContainers(ctx); err != nil {
		slog.Error("failed to create containers", "error", err)
		os.Exit(1)
	}
	if cfg.CacheSize > 0 {
		docs = store.NewCached(docs, cfg.CacheSize, cfg.CacheTTL)
	}
	db := store.New(docs)
	defer db.Close()
	slog.Info("document store ready", "driver", cfg.StoreDriver)

	// Extractor (optional: conversations are still stored without it)
	var ext processor.Extractor
	if llm := newLLM(ctx, cfg); llm != nil {
		ext = extractor.New(llm, slog.Default(), cfg.ExtractionMaxTokens, cfg.ExtractionTimeout)
	}

	// NATS/Hermes (optional)
	var publisher processor.Publisher
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		publisher = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set, events will not be published")
	}

	// Slack poster (optional)
	var notifier processor.Notifier
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		notifier = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, advisors will not be notified")
	}

	calls := elevenlabs.NewClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsAgentID, cfg.ElevenLabsPhoneNumberID, slog.Default())
	if !calls.Configured() {
		slog.Warn("XI_API_KEY not set, outbound calls disabled")
	}
	if cfg.WebhookSecret == "" {
		slog.Warn("ELEVENLABS_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	proc := processor.New(db, ext, publisher, notifier, slog.Default())

	// HTTP API
	srv := api.NewServer(cfg.Port, api.Deps{
		Store:         db,
		Webhooks:      proc,
		Calls:         calls,
		WebhookSecret: cfg.WebhookSecret,
	}, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Announce registration
	if publisher != nil {
		if err := publisher.PublishEvent(hermes.SubjectRegistered, hermes.Registered{
			Port:  cfg.Port,
			Store: cfg.StoreDriver,
			LLM:   cfg.LLMProvider,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("factfind ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	cancel()
	slog.Info("factfind stopped")
}

func openDocuments(ctx context.Context, cfg config.Config) (store.Documents, error) {
	if cfg.StoreDriver == "postgres" {
		return store.NewPostgres(ctx, cfg.DatabaseURL)
	}
	return store.NewSQLite(ctx, cfg.SQLitePath)
}

// newLLM returns nil when the selected provider has no API key.
func newLLM(ctx context.Context, cfg config.Config) extractor.LLM {
	if cfg.LLMAPIKey() == "" {
		slog.Warn("no API key for LLM provider, profile extraction disabled", "provider", cfg.LLMProvider)
		return nil
	}
	switch cfg.LLMProvider {
	case "gemini":
		llm, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "")
		if err != nil {
			slog.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		slog.Info("gemini client ready", "model", llm.Model())
		return llm
	default:
		llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		slog.Info("anthropic client ready", "model", llm.Model())
		return llm
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
