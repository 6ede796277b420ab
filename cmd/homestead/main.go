// Package main provides the homestead command: run, inspect, and serve
// goal-driven settler simulations.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cory-johannsen/homestead/internal/config"
	"github.com/cory-johannsen/homestead/internal/observability"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	configPath string
	v          *viper.Viper
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "homestead",
		Short: "Goal-oriented action planning for resource-gathering settlers",
		Long: `homestead runs settlers that plan and execute chains of actions
(gather, withdraw, store, consume, construct) to keep themselves fed and
watered and their storage stocked.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to configuration file (empty = defaults and environment)")
	flags.String("scenario", "", "scenario YAML file (overrides simulation.scenario)")
	flags.String("log-level", "", "log level (overrides logging.level)")
	flags.String("journal", "", "journal driver: none, postgres, sqlite, csv (overrides journal.driver)")
	flags.String("journal-path", "", "journal file for sqlite or csv (overrides journal.path)")
	mustBind(a.v, "simulation.scenario", flags.Lookup("scenario"))
	mustBind(a.v, "logging.level", flags.Lookup("log-level"))
	mustBind(a.v, "journal.driver", flags.Lookup("journal"))
	mustBind(a.v, "journal.path", flags.Lookup("journal-path"))

	root.AddCommand(
		newSimulateCmd(a),
		newPlanCmd(a),
		newServeCmd(a),
		newMigrateCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func mustBind(v *viper.Viper, key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", f.Name, err))
	}
}

func (a *app) load() error {
	config.SetDefaults(a.v)
	a.v.SetEnvPrefix("HOMESTEAD")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()
	if a.configPath != "" {
		a.v.SetConfigFile(a.configPath)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg, err := config.LoadFromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	a.logger = logger
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
