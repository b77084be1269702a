package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bridgetext/coachbot/backend/internal/analysis/safety"
	"github.com/bridgetext/coachbot/backend/internal/config"
	"github.com/bridgetext/coachbot/backend/internal/handler"
	chathandler "github.com/bridgetext/coachbot/backend/internal/handler/chat"
	healthhandler "github.com/bridgetext/coachbot/backend/internal/handler/health"
	"github.com/bridgetext/coachbot/backend/internal/service/coach"
	"github.com/bridgetext/coachbot/backend/internal/service/retrieval"
	"github.com/bridgetext/coachbot/backend/internal/service/session"
	"github.com/bridgetext/coachbot/backend/internal/service/turn"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sessions := session.NewStore()
	go sessions.StartJanitor(ctx, 5*time.Minute, cfg.Chat.SessionTTL)

	engine := turn.NewEngine(sessions, safety.NewKeywordFilter(), collaboratorInit(cfg), cfg.Chat.MessageLimit)
	if err := engine.Initialize(ctx); err != nil {
		log.Printf("warning: failed to initialize collaborators: %v", err)
		log.Println("continuing in degraded mode - check OpenAI and Qdrant environment variables")
	} else {
		log.Println("collaborators initialized successfully")
	}

	chatHandler := chathandler.New(engine, sessions)
	healthHandler := healthhandler.New(engine, cfg.AI.Model, cfg.AI.EmbeddingModel)
	router := handler.NewRouter(chatHandler, healthHandler, cfg.Server.CORSOrigins)

	startServer(ctx, cfg.Server, router)
}

// collaboratorInit builds the retrieval and generation clients. The engine
// re-invokes it when a collaborator is missing at request time.
func collaboratorInit(cfg *config.Config) turn.InitFunc {
	return func(ctx context.Context) (turn.Collaborators, error) {
		embedder, err := cfg.AI.NewEmbedder(ctx)
		if err != nil {
			return turn.Collaborators{}, err
		}

		qdrantClient, err := cfg.Qdrant.NewClient()
		if err != nil {
			return turn.Collaborators{}, err
		}

		generator, err := coach.NewService(ctx, cfg.AI, cfg.Chat.HistoryWindow)
		if err != nil {
			return turn.Collaborators{}, err
		}

		retriever := retrieval.NewService(embedder, qdrantClient, cfg.Qdrant.Collection, cfg.Qdrant.TopK)

		return turn.Collaborators{Retriever: retriever, Generator: generator}, nil
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("coachbot backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
