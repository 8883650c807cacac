// Command udpkv runs the UDP key-value store.
package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/protohackers/suite/internal/cmdutil"
	"github.com/protohackers/suite/internal/netutil"
	"github.com/protohackers/suite/internal/udpkv"
	"github.com/protohackers/suite/pkg/config"
)

var version = "dev"

const serviceName = "udpkv"

const maxDatagram = 1024

func main() {
	root := &cobra.Command{Use: serviceName, Short: "UDP key-value store"}
	cmdutil.RegisterCommonFlags(root)
	root.AddCommand(serveCmd(), statusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [port]",
		Short: "Run the key-value store, listening on the given UDP port (0 for ephemeral)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.New(serviceName)
			if err := cmdutil.BindCommonFlags(v, cmd); err != nil {
				return err
			}
			cfg := config.DefaultUDPKVConfig()
			cfg.ListenAddr = cmdutil.ResolveListenAddr(cfg.ListenAddr, args)
			if err := config.Load(v, &cfg); err != nil {
				return err
			}

			ctx := context.Background()
			shutdown, reg, err := cmdutil.Bootstrap(ctx, serviceName, cfg.Base, version)
			if err != nil {
				return err
			}
			defer shutdown(ctx)

			udpAddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
			if err != nil {
				return fmt.Errorf("udpkv: resolving %s: %w", cfg.ListenAddr, err)
			}
			conn, err := net.ListenUDP("udp", udpAddr)
			if err != nil {
				return fmt.Errorf("udpkv: listening on %s: %w", cfg.ListenAddr, err)
			}
			fmt.Println("udpkv listening on", conn.LocalAddr())

			store, err := udpkv.NewStore()
			if err != nil {
				return fmt.Errorf("udpkv: opening store: %w", err)
			}
			defer store.Close()

			srv := udpkv.NewServer(store, conn)
			udpSrv := netutil.NewUDPServer(serviceName, conn, maxDatagram, srv.HandleDatagram)

			return cmdutil.RunGroup(ctx, cfg.MetricsAddr, reg, func(ctx context.Context) error {
				go func() { <-ctx.Done(); udpSrv.Stop() }()
				return udpSrv.Serve(ctx)
			})
		},
	}
}

func statusCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check a running instance's health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, latency, err := cmdutil.FetchHealth(metricsAddr)
			if err != nil {
				return fmt.Errorf("udpkv: checking %s: %w", metricsAddr, err)
			}
			cmdutil.PrintStatusTable(os.Stdout, [][2]string{
				{"service", serviceName},
				{"metrics_addr", metricsAddr},
				{"healthy", fmt.Sprintf("%t", ok)},
				{"latency", latency.String()},
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "127.0.0.1:0", "metrics address of the running instance")
	return cmd
}
