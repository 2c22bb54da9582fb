package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"runmeter.sh/collector"
	"runmeter.sh/internal/version"
)

var (
	collectHost       string
	collectPort       int
	collectFrequency  time.Duration
	collectMaxSamples int
)

func newCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run the sampling daemon in the foreground",
		Long: `Run the collector daemon attached to the current terminal: sample
CPU, memory, network and disk on a fixed interval and serve the buffered
samples on a loopback HTTP interface until interrupted.

"runmeter start" launches this same daemon detached; running it in the
foreground is mostly useful for debugging.`,
		RunE: runCollect,
	}

	cmd.Flags().StringVar(&collectHost, "host", "", "bind address (default 127.0.0.1)")
	cmd.Flags().IntVar(&collectPort, "port", 0, "query interface port (0 picks a free port)")
	cmd.Flags().DurationVar(&collectFrequency, "frequency", 0, "sampling interval (default 5s)")
	cmd.Flags().IntVar(&collectMaxSamples, "max-samples", 0, "per-domain sample cap")

	return cmd
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := collector.LoadConfig()
	if collectHost != "" {
		cfg.Host = collectHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = collectPort
	}
	if cmd.Flags().Changed("frequency") {
		cfg.Frequency = collectFrequency
	}
	if cmd.Flags().Changed("max-samples") {
		cfg.MaxSamples = collectMaxSamples
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("Starting collector daemon",
		"version", version.String(),
		"frequency", cfg.Frequency)

	srv := collector.NewServer(cfg, collector.New(cfg))
	return srv.Start(ctx)
}
