package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"openentropy/internal/apiserver"
	"openentropy/internal/config"
	"openentropy/internal/logging"
	"openentropy/internal/metrics"
	"openentropy/internal/monitor"
)

func newServerCmd(cfg *config.Config, log *logging.Logger) *cobra.Command {
	var host string
	var port int
	var sourceNames string
	var allowRaw bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the pool over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPool(sourcesFlag(sourceNames))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stopReseed := startBackgroundCollect(ctx, p)
			defer stopReseed()

			poolMetrics := metrics.NewOpenEntropyMetrics(nil)
			p.SetMetrics(poolMetrics)

			srv := apiserver.New(p, apiserver.Config{
				Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
				AllowRaw: allowRaw,
				Log:      log,
				Metrics:  poolMetrics,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", net.JoinHostPort(host, strconv.Itoa(port)))
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", cfg.HTTP.Host, "bind address")
	cmd.Flags().IntVar(&port, "port", cfg.HTTP.Port, "bind port")
	cmd.Flags().StringVar(&sourceNames, "sources", "", "comma-separated source IDs to use (default: all)")
	cmd.Flags().BoolVar(&allowRaw, "allow-raw", cfg.HTTP.AllowRaw, "permit conditioning=raw on /api/v1/random")
	return cmd
}

func newMonitorCmd(cfg *config.Config) *cobra.Command {
	var refreshSecs int
	var sourceNames string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the live terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPool(sourcesFlag(sourceNames))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			monitorMetrics := metrics.NewOpenEntropyMetrics(nil)
			p.SetMetrics(monitorMetrics)

			stopReseed := startBackgroundCollect(ctx, p)
			defer stopReseed()

			m := monitor.New(p, monitor.Config{
				Interval: time.Duration(refreshSecs) * time.Second,
				Writer:   cmd.OutOrStdout(),
				Metrics:  monitorMetrics,
			})
			return m.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&refreshSecs, "refresh", 1, "refresh interval in seconds")
	cmd.Flags().StringVar(&sourceNames, "sources", "", "comma-separated source IDs to use (default: all)")
	return cmd
}
