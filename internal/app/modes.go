package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketfuse/internal/agent"
	"github.com/alanyoungcy/marketfuse/internal/chat"
	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/fixture"
	"github.com/alanyoungcy/marketfuse/internal/match"
	"github.com/alanyoungcy/marketfuse/internal/pipeline"
	"github.com/alanyoungcy/marketfuse/internal/server"
	"github.com/alanyoungcy/marketfuse/internal/server/handler"
	"github.com/alanyoungcy/marketfuse/internal/server/ws"
)

// shutdownTimeout bounds how long the HTTP server may drain on exit.
const shutdownTimeout = 10 * time.Second

// CollectMode runs one collection pass with the deterministic matcher.
func (a *App) CollectMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting collect mode")
	return a.runOnce(ctx, deps, deps.Fetchers, a.localUnifier(), "local")
}

// AgentMode runs one collection pass with the LLM pipeline. Config
// validation guarantees an API key in this mode; the local matcher still
// backs the run up against mid-run LLM failures.
func (a *App) AgentMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting agent mode")
	return a.runAgent(ctx, deps)
}

// AutoMode prefers the LLM pipeline and degrades: no API key means the local
// matcher, and an LLM failure mid-run falls back to it.
func (a *App) AutoMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting auto mode")
	return a.runAgent(ctx, deps)
}

// runAgent runs one pass with the agent pipeline when an LLM is configured,
// wrapped over the local matcher as fallback, and with the local matcher
// alone otherwise.
func (a *App) runAgent(ctx context.Context, deps *Dependencies) error {
	if deps.LLM == nil {
		a.logger.Info("no llm api key configured, using the local matcher")
		return a.runOnce(ctx, deps, deps.Fetchers, a.localUnifier(), "local")
	}
	unifier := agent.WithFallback{
		Primary:  agent.NewPipeline(deps.LLM, a.logger),
		Fallback: a.localUnifier(),
		Logger:   a.logger,
	}
	return a.runOnce(ctx, deps, deps.Fetchers, unifier, "agent")
}

// TestMode runs the full pipeline over canned sample data, with no site
// fetching and no model calls.
func (a *App) TestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting test mode with sample data")
	fetchers := []pipeline.Fetcher{
		fixture.NewFetcher("polymarket"),
		fixture.NewFetcher("manifold"),
		fixture.NewFetcher("predictit"),
	}
	return a.runOnce(ctx, deps, fetchers, a.localUnifier(), "local")
}

// ServeMode starts the HTTP and WebSocket API and blocks until the context
// is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode", slog.Int("port", a.cfg.Server.Port))

	var (
		searcher handler.Searcher
		chatter  handler.Chatter
		stats    handler.StatsSource
		chatWS   *ws.ChatHandler
	)
	if deps.Index != nil {
		searcher = deps.Index
		chatter = deps.Index
		stats = deps.Index
		chatWS = ws.NewChatHandler(deps.Index, a.logger)
	}

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(),
		Products: handler.NewProductHandler(deps.Products, searcher, a.logger),
		Chat:     handler.NewChatHandler(chatter, a.logger),
		Status:   handler.NewStatusHandler(a.cfg.Mode, a.pipelineName(deps), time.Now().UTC(), stats),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, handlers, chatWS, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
	return g.Wait()
}

// ChatMode runs the interactive terminal session over the search index.
func (a *App) ChatMode(ctx context.Context, deps *Dependencies) error {
	if deps.Index == nil {
		return errors.New("app: chat mode requires an llm api key for embeddings")
	}
	a.logger.InfoContext(ctx, "starting chat mode")
	repl := chat.NewREPL(deps.Index, os.Stdin, os.Stdout)
	return repl.Run(ctx)
}

// FullMode runs one collection pass and then serves the API over the result.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")
	if err := a.AutoMode(ctx, deps); err != nil {
		return err
	}
	return a.ServeMode(ctx, deps)
}

// runOnce executes a single collection run and dispatches run notifications.
func (a *App) runOnce(ctx context.Context, deps *Dependencies, fetchers []pipeline.Fetcher, unifier domain.Unifier, name string) error {
	collector := pipeline.NewCollector(fetchers, deps.RateLimiter, a.cfg.Scrape.RateLimitPerMin, a.logger)

	runner := &pipeline.Runner{
		Collector:    collector,
		Unifier:      unifier,
		OutputPath:   a.cfg.Export.OutputPath,
		PipelineName: name,
		Limit:        a.cfg.Scrape.Limit,
		Products:     deps.Products,
		Runs:         deps.Runs,
		Snapshots:    deps.Snapshots,
		Cache:        deps.Cache,
		Locks:        deps.Locks,
		Logger:       a.logger,
	}
	if deps.Index != nil {
		runner.Index = deps.Index
	}

	result, err := runner.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			if nerr := deps.Notifier.RunFailed(ctx, name, err); nerr != nil {
				a.logger.Warn("run failure notification failed", slog.String("error", nerr.Error()))
			}
		}
		return fmt.Errorf("app: %s run: %w", name, err)
	}

	summary := domain.RunSummary{
		ID:               result.RunID,
		StartedAt:        result.Summary.StartedAt,
		FinishedAt:       result.Summary.StartedAt.Add(result.Summary.Duration),
		MarketsCollected: result.Summary.TotalMarkets,
		UnifiedProducts:  result.Summary.UnifiedProducts,
		ErrorCount:       result.Summary.ErrorCount,
		Pipeline:         name,
	}
	if err := deps.Notifier.RunCompleted(ctx, summary); err != nil {
		a.logger.Warn("run completion notification failed", slog.String("error", err.Error()))
	}
	return nil
}

// localUnifier builds the deterministic matcher from the configured
// threshold.
func (a *App) localUnifier() match.Local {
	return match.Local{Threshold: a.cfg.Matching.Threshold}
}

// pipelineName reports which unifier auto mode would pick, for the status
// endpoint.
func (a *App) pipelineName(deps *Dependencies) string {
	if deps.LLM != nil {
		return "agent"
	}
	return "local"
}
