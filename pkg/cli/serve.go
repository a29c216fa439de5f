package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/cli/config"
	controller "github.com/secmon-lab/vigia/pkg/controller/http"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/service/llm"
	"github.com/secmon-lab/vigia/pkg/usecase"
	"github.com/secmon-lab/vigia/pkg/utils/apperr"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg    config.Server
		manualsCfg   config.Manuals
		firestoreCfg config.Firestore
		storageCfg   config.Storage
		geminiCfg    config.Gemini
		slackCfg     config.Slack
	)

	flags := joinFlags(
		serverCfg.Flags(),
		manualsCfg.Flags(),
		firestoreCfg.Flags(),
		storageCfg.Flags(),
		geminiCfg.Flags(),
		slackCfg.Flags(),
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start HTTP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting vigia server",
				slog.Any("server", serverCfg),
				slog.Any("firestore", firestoreCfg),
				slog.Any("storage", storageCfg),
				slog.Any("gemini", geminiCfg),
				slog.Any("slack", slackCfg),
			)

			manuals, err := manualsCfg.Configure()
			if err != nil {
				return err
			}

			repo, err := firestoreCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					apperr.Handle(ctx, goerr.Wrap(err, "failed to close repository"))
				}
			}()

			blobs, closeBlobs, err := storageCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeBlobs(); err != nil {
					apperr.Handle(ctx, goerr.Wrap(err, "failed to close blob store"))
				}
			}()

			store := usecase.NewIncidentStore(repo, blobs)
			defer store.Close()

			if serverCfg.Seed {
				if err := seedIfEmpty(ctx, store); err != nil {
					return err
				}
			}

			assistantOpts := []usecase.AssistantOption{
				usecase.WithReplyDelay(serverCfg.ReplyDelay),
				usecase.WithManualCatalog(manuals),
			}
			if llmClient := geminiCfg.ConfigureOptional(ctx, logger); llmClient != nil {
				assistantOpts = append(assistantOpts, usecase.WithReviser(llm.NewLLMService(llmClient)))
			}
			assistant := usecase.NewAssistant(store, assistantOpts...)
			defer assistant.Close()

			if notifier := slackCfg.ConfigureOptional(logger, serverCfg.FrontendURL); notifier != nil {
				defer store.Subscribe(notifier.OnChange)()
			}

			server := controller.NewServer(ctx,
				controller.NewConfig(serverCfg.Addr, manuals),
				controller.NewUseCases(store, assistant, usecase.NewFlightLookup(serverCfg.LookupDelay)),
				blobs,
			)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "HTTP server error")
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}

// seedIfEmpty loads the demonstration incidents into an empty collection.
// A persistent backend keeps its records across restarts.
func seedIfEmpty(ctx context.Context, store *usecase.IncidentStore) error {
	incidents, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(incidents) > 0 {
		ctxlog.From(ctx).Info("Skipping seed, incidents already exist", "count", len(incidents))
		return nil
	}
	return store.Seed(ctx, model.SeedIncidents())
}
