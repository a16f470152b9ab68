package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/talentradar/internal/app"
	"github.com/okian/talentradar/pkg/logger"
)

const (
	stopTimeout            = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background enrichment workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := setup(ctx, "stdout")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			svc := service.New(cfg, service.WithLogger(log))
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
				defer cancel()
				if err := svc.Stop(stopCtx); err != nil {
					log.Error(stopCtx, "service stop failed", logger.Error(err))
				}
			}()

			go startServiceMetricsUpdater(ctx, svc)

			return svc.Serve(ctx)
		},
	}
}

// startServiceMetricsUpdater refreshes pipeline gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.GetStats(ctx)
		}
	}
}
