// Command twbridge drives the Twitter plugin of a bridge host from the shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"twitter-bridge/client"
	"twitter-bridge/config"
	"twitter-bridge/logger"
	"twitter-bridge/twitter"
)

// app is shared by every subcommand once the root's PersistentPreRunE ran.
type app struct {
	cfg     *config.Config
	bridge  *client.Client
	twitter *twitter.Client
	out     io.Writer
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), a.cfg.Timeout)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	var (
		addrs    []string
		etcd     []string
		codecArg string
		plugin   string
		timeout  time.Duration
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:           "twbridge",
		Short:         "Call Twitter plugin actions over the native bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addrs = addrs
			}
			if flags.Changed("etcd") {
				cfg.EtcdEndpoints = etcd
			}
			if flags.Changed("codec") {
				cfg.Codec = codecArg
			}
			if flags.Changed("plugin") {
				cfg.Plugin = plugin
			}
			if flags.Changed("timeout") {
				cfg.Timeout = timeout
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			lc := cfg.LoggerConfig()
			lc.Output = os.Stderr
			logger.SetDefault(lc)

			reg, err := cfg.NewRegistry()
			if err != nil {
				return fmt.Errorf("create registry: %w", err)
			}
			bal, err := cfg.NewBalancer()
			if err != nil {
				return err
			}
			ct, err := cfg.CodecType()
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.bridge = client.NewClient(reg, bal, ct, cfg.PoolSize)
			a.twitter = twitter.NewClient(a.bridge).WithPlugin(cfg.Plugin)
			slog.Debug("bridge configured",
				"addrs", cfg.Addrs,
				"etcd", cfg.EtcdEndpoints,
				"codec", cfg.Codec,
				"plugin", cfg.Plugin,
			)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.bridge != nil {
				return a.bridge.Close()
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringSliceVar(&addrs, "addr", nil, "plugin host address (repeatable)")
	pf.StringSliceVar(&etcd, "etcd", nil, "etcd endpoints for host discovery")
	pf.StringVar(&codecArg, "codec", "", "wire codec: json or binary")
	pf.StringVar(&plugin, "plugin", "", "plugin identifier")
	pf.DurationVar(&timeout, "timeout", 0, "give up waiting after this long (0 waits forever)")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		availableCmd(a),
		setupCmd(a),
		tweetCmd(a),
		timelineCmd(a),
		searchCmd(a),
		mentionsCmd(a),
		usernameCmd(a),
		profileCmd(a),
		requestCmd(a),
		retweetCmd(a),
		favoriteCmd(a),
		unfavoriteCmd(a),
		execCmd(a),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		red := color.New(color.FgRed, color.Bold).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %s\n", red("error:"), client.Reason(err))
		slog.Debug("command failed", "error", err)
		os.Exit(1)
	}
}
