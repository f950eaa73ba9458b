package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"lead-crm/internal/common/config"
	"lead-crm/internal/common/logger"
	"lead-crm/internal/leads/client"
	"lead-crm/internal/view"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultAPIURL  = "http://localhost:3000"
	defaultTimeout = 10 * time.Second
)

// app carries per-invocation state shared by the subcommands.
type app struct {
	v   *viper.Viper
	out io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}
	var cfgFile string

	root := &cobra.Command{
		Use:   "leadctl",
		Short: "List, search, filter and create CRM leads",
		Long: `leadctl talks to a running lead API.

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (LEADCTL_*)
  3. Config file (--config)
  4. Defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd, cfgFile)
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml)")
	flags.String("api-url", defaultAPIURL, "lead API base URL")
	flags.Duration("timeout", defaultTimeout, "request timeout")
	flags.String("catalog", "", "lead field catalog JSON (default: built-in)")
	flags.String("tz", "Local", "time zone for updated date/time columns")
	flags.String("log-level", "error", "log level (debug, info, warn, error)")

	root.AddCommand(
		newListCmd(a),
		newCreateCmd(a),
		newCatalogCmd(a),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command, cfgFile string) error {
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		// The server config file carries the client section in milliseconds.
		if a.v.IsSet("client.api_url") {
			a.v.SetDefault("api-url", a.v.GetString("client.api_url"))
		}
		if a.v.IsSet("client.timeout") {
			a.v.SetDefault("timeout", config.GetDuration(a.v.GetInt("client.timeout")))
		}
	}

	a.v.SetEnvPrefix("LEADCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	return a.v.BindPFlags(cmd.Flags())
}

func (a *app) synchronizer() (*view.Synchronizer, error) {
	loc, err := time.LoadLocation(a.v.GetString("tz"))
	if err != nil {
		return nil, fmt.Errorf("invalid --tz: %w", err)
	}

	api := client.New(a.v.GetString("api-url"), a.v.GetDuration("timeout"))
	return view.NewSynchronizer(api, view.Options{
		Logger:   logger.NewZapAdapter(logger.NewWithOutput(a.v.GetString("log-level"), "console", "stderr")),
		Location: loc,
	}), nil
}
