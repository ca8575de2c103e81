// Package cli implements the netlayer command line tool.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinyes/netlayer/internal/config"
	"github.com/shinyes/netlayer/log"
	"github.com/shinyes/netlayer/metrics"
	"github.com/shinyes/netlayer/transport"
)

// Version is set at build time via
// -ldflags "-X github.com/shinyes/netlayer/internal/cli.Version=x.y.z".
var Version = "0.1.0"

// app carries the state shared by all subcommands of one invocation.
type app struct {
	cfgFile  string
	listen   string
	logLevel string
	format   string

	cfg    *config.Config
	logger *log.StdLogger
}

// NewRootCmd builds the netlayer command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "netlayer",
		Short: "Send, receive and broadcast raw TCP payloads",
		Long: `netlayer drives the lowest transport layer of a node-to-node stack.
Every connection carries exactly one payload, terminated by EOF.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.netlayer/config.yaml)")
	root.PersistentFlags().StringVar(&a.listen, "listen", "", "listen address host:port (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn, error or silent (overrides config)")
	root.PersistentFlags().StringVarP(&a.format, "output", "o", "text", "payload output format: text or hex")

	root.AddCommand(
		newListenCmd(a),
		newSendCmd(a),
		newBroadcastCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.listen != "" {
		cfg.Listen = a.listen
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if a.format != "text" && a.format != "hex" {
		return fmt.Errorf("unknown output format %q", a.format)
	}

	a.cfg = cfg
	a.logger = log.NewStdLogger(log.WithWriter(cmd.ErrOrStderr()), log.WithLevel(level))
	return nil
}

func (a *app) newTransport() (*transport.TCPTransport, error) {
	opts := append(a.cfg.Options(),
		transport.WithLogger(a.logger.Named("tcp")),
		transport.WithMetrics(metrics.Global),
	)
	return transport.NewTCP(a.cfg.Listen, opts...)
}
