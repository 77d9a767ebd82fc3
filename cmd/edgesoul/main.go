package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgesoul/edgesoul/internal/cache"
	"github.com/edgesoul/edgesoul/internal/config"
	"github.com/edgesoul/edgesoul/internal/empathy"
	"github.com/edgesoul/edgesoul/internal/emotion"
	"github.com/edgesoul/edgesoul/internal/intent"
	"github.com/edgesoul/edgesoul/internal/knowledge"
	"github.com/edgesoul/edgesoul/internal/memory"
	"github.com/edgesoul/edgesoul/internal/models"
	"github.com/edgesoul/edgesoul/internal/orchestrator"
	"github.com/edgesoul/edgesoul/internal/repository"
	"github.com/edgesoul/edgesoul/internal/tone"
	"github.com/edgesoul/edgesoul/internal/web"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := repository.NewStore(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}
	defer store.Close()
	slog.Info("database connected")

	// The response cache is an optimization; run without it if redis is down.
	var respCache knowledge.Cache
	if cfg.RedisAddr != "" {
		c, err := cache.NewResponseCache(cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			slog.Warn("redis unavailable, response caching disabled", "error", err.Error())
		} else {
			defer c.Close()
			respCache = c
			slog.Info("redis connected", "addr", cfg.RedisAddr)
		}
	}

	var classifier emotion.Classifier
	if cfg.EmotionAPIURL != "" {
		classifier = emotion.NewHTTPClassifier(cfg.EmotionAPIURL, 5*time.Second)
		slog.Info("using HTTP emotion classifier", "url", cfg.EmotionAPIURL)
	} else {
		classifier = emotion.NewLexicalClassifier()
		slog.Info("using lexical emotion classifier")
	}
	smoother := emotion.NewWeightedSmoother(cfg.LowConfidenceThreshold, cfg.PriorStrongThreshold, cfg.SmoothingNewWeight)
	reader := emotion.NewReader(classifier, smoother)

	var completer models.Completer
	switch {
	case cfg.OpenAIAPIKey != "":
		completer, err = models.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			log.Fatalf("failed to initialize OpenAI completer: %v", err)
		}
		slog.Info("using OpenAI generation engine", "model", cfg.LLMModel)
	case cfg.GoogleAPIKey != "":
		completer, err = models.NewGeminiCompleter(context.Background(), cfg.GoogleAPIKey, cfg.LLMModel)
		if err != nil {
			log.Fatalf("failed to initialize Gemini completer: %v", err)
		}
		slog.Info("using Gemini generation engine", "model", cfg.LLMModel)
	default:
		slog.Warn("no generation API key configured, knowledge routes will use fallback responses")
	}

	var embedder memory.Embedder
	if cfg.GoogleAPIKey != "" {
		e, err := memory.NewGenAIEmbedder(context.Background(), cfg.GoogleAPIKey, cfg.EmbeddingModel)
		if err != nil {
			slog.Warn("embedder unavailable, memory search degrades to text match", "error", err.Error())
		} else {
			embedder = e
			slog.Info("vector memory search enabled", "model", cfg.EmbeddingModel)
		}
	}

	mem := memory.NewService(store.Profiles, store.Patterns, store.Records, store.Turns, embedder, memory.Options{
		WindowSize:          cfg.WindowSize,
		SearchLimit:         cfg.SearchLimit,
		SimilarityThreshold: cfg.SimilarityThreshold,
	})

	responder := knowledge.NewResponder(completer, respCache, cfg.GenerationTimeout)
	generator := empathy.NewGenerator(rand.NewSource(time.Now().UnixNano()))
	shaper := tone.NewShaper()
	router := intent.NewRouter(cfg.RouteConfidenceThreshold)

	engine := orchestrator.NewEngine(reader, router, responder, generator, shaper, mem, orchestrator.Options{
		MessageTimeout: cfg.MessageTimeout,
		QueueSessions:  cfg.SessionQueue,
	})

	handlers := web.NewHandlers(engine, reader, mem)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      web.NewRouter(handlers),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.MessageTimeout + 15*time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err.Error())
	}
}
