// Command mitm runs the intercepting chat proxy.
package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/protohackers/suite/internal/cmdutil"
	"github.com/protohackers/suite/internal/mitm"
	"github.com/protohackers/suite/internal/netutil"
	"github.com/protohackers/suite/pkg/config"
)

var version = "dev"

const serviceName = "mitm"

func main() {
	root := &cobra.Command{Use: serviceName, Short: "Intercepting chat proxy"}
	cmdutil.RegisterCommonFlags(root)
	root.AddCommand(serveCmd(), statusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [port]",
		Short: "Run the proxy, listening on the given port (0 for ephemeral)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.New(serviceName)
			if err := cmdutil.BindCommonFlags(v, cmd); err != nil {
				return err
			}
			if err := v.BindPFlag("upstream_addr", cmd.Flags().Lookup("upstream-addr")); err != nil {
				return err
			}
			cfg := config.DefaultMITMConfig()
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

			ln, err := net.Listen("tcp", cfg.ListenAddr)
			if err != nil {
				return fmt.Errorf("mitm: listening on %s: %w", cfg.ListenAddr, err)
			}
			fmt.Println("mitm listening on", ln.Addr())

			srv := mitm.NewServer(cfg.UpstreamAddr)
			tcpSrv := netutil.NewTCPServer(serviceName, ln, srv.Handle())

			return cmdutil.RunGroup(ctx, cfg.MetricsAddr, reg, func(ctx context.Context) error {
				go func() { <-ctx.Done(); tcpSrv.Stop() }()
				return tcpSrv.Serve(ctx)
			})
		},
	}
	cmd.Flags().String("upstream-addr", "chat.protohackers.com:16963", "upstream chat server host:port")
	return cmd
}

func statusCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check a running instance's health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, latency, err := cmdutil.FetchHealth(metricsAddr)
			if err != nil {
				return fmt.Errorf("mitm: checking %s: %w", metricsAddr, err)
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
