package cmdutil

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RegisterCommonFlags adds the CLI flags every service's root command
// exposes: metrics listener, log level/format, and the profiling toggle
// (§9.2, §9.3).
func RegisterCommonFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("metrics-addr", "", "address to serve /metrics and /healthz on (empty disables)")
	cmd.PersistentFlags().String("log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
	cmd.PersistentFlags().String("log-format", "text", "log format: text, json")
	cmd.PersistentFlags().Bool("profiling", false, "profiling toggle (recorded in config; no profiler is started)")
}

// BindCommonFlags wires the flags registered by RegisterCommonFlags into v
// so CLI flags take precedence over the config file and environment per
// §9.2's layering.
func BindCommonFlags(v *viper.Viper, cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"metrics_addr": "metrics-addr",
		"log_level":    "log-level",
		"log_format":   "log-format",
		"profiling":    "profiling",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

// ResolveListenAddr applies the optional positional port argument over the
// configured listen address: a bare port number becomes ":port" (so "0"
// asks for an ephemeral port); an absent or empty argument leaves the
// configured address in place.
func ResolveListenAddr(configured string, args []string) string {
	if len(args) == 0 || args[0] == "" {
		return configured
	}
	return ":" + args[0]
}
