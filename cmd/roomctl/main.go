package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/roomwire/internal/logging"
	"github.com/danmuck/roomwire/internal/protocol"
	"github.com/danmuck/roomwire/internal/roomctl"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "roomctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "roomctl",
		Short:         "Scripted client for the roomwire protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(sendCmd())
	return root
}

func sendCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		room       string
		message    string
		noAck      bool
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Join a room and send one message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.ConfigureRuntime()
			cfg, err := loadClientConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Address = addr
			}
			if flags.Changed("room") {
				id, err := protocol.ParseU128(room)
				if err != nil {
					return err
				}
				cfg.RoomID = id
			}
			if flags.Changed("message") {
				cfg.Message = message
			}
			if flags.Changed("no-ack") {
				cfg.AwaitAck = !noAck
			}

			client, err := roomctl.NewClient(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			res, err := client.Run(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Acked {
				fmt.Fprintf(out, "room=%s message_id=%s\n", res.RoomID, res.MessageID)
			} else {
				fmt.Fprintf(out, "room=%s message_id=unacknowledged\n", res.RoomID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to roomctl TOML config")
	cmd.Flags().StringVar(&addr, "addr", "", "server address (host:port)")
	cmd.Flags().StringVar(&room, "room", "", "room id, decimal or uuid")
	cmd.Flags().StringVarP(&message, "message", "m", "", "message text")
	cmd.Flags().BoolVar(&noAck, "no-ack", false, "do not wait for the message response")
	return cmd
}
