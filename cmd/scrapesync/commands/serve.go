package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"scrapesync-backend/internal/components/chrono"
	"scrapesync-backend/internal/reconcile"
	"scrapesync-backend/internal/server"
	"scrapesync-backend/lib/serviceutil"
	libtelemetry "scrapesync-backend/lib/telemetry"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read endpoint and run the scheduled update tasks.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		otel, err := libtelemetry.Setup(ctx, "scrapesync", cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		defer func() {
			err := otel.Shutdown(context.Background())
			if err != nil {
				slog.Warn("failed to shutdown telemetry", "err", err)
			}
		}()
		libtelemetry.InstrumentPerfStats(ctx, 30*time.Second)

		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		syncer, err := a.newSyncer(cfg)
		if err != nil {
			return err
		}
		cron := chrono.NewStandardCron(a.clock, a.tel)
		err = reconcile.Schedule(ctx, cron, syncer, cfg.specs())
		if err != nil {
			return err
		}
		cron.Start()
		// runs before a.Close so no sync is cut off from the database
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			err := cron.Stop(stopCtx)
			if err != nil {
				slog.Warn("failed to stop update tasks", "err", err)
			}
		}()
		slog.Info("scheduled update tasks", "jobs", cron.Entries())

		addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
		srv := serviceutil.NewHttpServer(addr, server.New(a.store, a.tel).Handler())
		return serviceutil.StartHttpServer(ctx, srv)
	},
}
