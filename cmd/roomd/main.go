package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/roomwire/internal/logging"
	"github.com/danmuck/roomwire/internal/registry"
	"github.com/danmuck/roomwire/internal/roomd"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "roomd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "roomd",
		Short:         "Room chat server for the roomwire protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd())
	return root
}

func serveCmd() *cobra.Command {
	var (
		configPath   string
		addr         string
		identityMode string
		metricsAddr  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept connections until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.ConfigureRuntime()
			cfg, err := loadServiceConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.ListenAddr = addr
			}
			if flags.Changed("identity") {
				cfg.IdentityMode = roomd.IdentityMode(identityMode)
			}
			if flags.Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return roomd.NewServiceWithConfig(cfg, registry.New()).Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to roomd TOML config")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (host:port)")
	cmd.Flags().StringVar(&identityMode, "identity", "", "registry identity: addr, host or generated")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}
