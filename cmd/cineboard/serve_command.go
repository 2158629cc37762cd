package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cineboard/internal/api"
	"cineboard/internal/config"
	"cineboard/internal/logging"
	"cineboard/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(commandCtx(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(false)
			if err != nil {
				return err
			}
			if err := runPreflight(runCtx, cfg, logger); err != nil {
				return err
			}

			a, err := ctx.openApp(runCtx, cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if bind := strings.TrimSpace(bindFlag); bind != "" {
				a.cfg.Paths.APIBind = bind
			}

			server := api.NewServer(a.cfg, a.orch, a.logger)
			if err := server.Start(runCtx); err != nil {
				return err
			}
			defer server.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s (Ctrl+C to stop)\n", server.Addr())
			<-runCtx.Done()
			a.logger.Info("shutting down", logging.String(logging.FieldEventType, "serve_stopped"))
			return nil
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Override paths.api_bind")
	return cmd
}

// runPreflight logs every check and fails when any of them did.
func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		if r.Passed {
			logger.Info("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logger.Error("preflight check failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "run 'cineboard config check' and fix the reported issue"),
		)
	}
	return preflight.Failures(results)
}
