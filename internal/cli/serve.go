package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/janelia-flyem/cleave/internal/api"
	"github.com/janelia-flyem/cleave/pkg/cleave"
	"github.com/janelia-flyem/cleave/pkg/config"
)

// shutdownGrace is how long in-flight requests get to finish on SIGINT.
const shutdownGrace = 15 * time.Second

// newServeCmd creates the "serve" command running the HTTP service.
func newServeCmd() *cobra.Command {
	var (
		configPath string
		listen     string
		server     string
		uuid       string
		instance   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cleave HTTP service",
		Long:  `Serve runs the cleave engine as an HTTP service. Configuration comes from a TOML file plus flag overrides; the service shuts down gracefully on SIGINT/SIGTERM, letting in-flight cleaves finish.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if server != "" {
				cfg.DVID.Server = server
			}
			if uuid != "" {
				cfg.DVID.UUID = uuid
			}
			if instance != "" {
				cfg.DVID.Instance = instance
			}

			store, err := newStore(cfg)
			if err != nil {
				return err
			}
			graphCache, err := newCache(ctx, cfg)
			if err != nil {
				return fatalHint(err, "is redis reachable?")
			}
			defer graphCache.Close()
			recorder, err := newRecorder(ctx, cfg)
			if err != nil {
				return fatalHint(err, "is mongodb reachable?")
			}
			defer recorder.Close(context.Background())

			engine := cleave.NewEngine(store, graphCache, cfg.Engine(), logger)
			srv := api.NewServer(engine, recorder, logger, cfg.MaxInFlight)

			httpSrv := &http.Server{
				Addr:              cfg.Listen,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("cleave service listening",
					"addr", cfg.Listen, "dvid", cfg.DVID.Server,
					"node", cfg.DVID.UUID, "instance", cfg.DVID.Instance)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return fatalHint(err, "is the listen address free?")
			case <-ctx.Done():
			}

			logger.Info("shutting down", "grace", shutdownGrace)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&server, "server", "", "DVID server URL (overrides config)")
	cmd.Flags().StringVar(&uuid, "uuid", "", "DVID node UUID (overrides config)")
	cmd.Flags().StringVar(&instance, "instance", "", "labelmap instance name (overrides config)")

	return cmd
}
