// Package main is the coursemap CLI: structure analysis and knowledge maps
// for course documents, on the command line or against the service's
// SQLite store.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dgallion1/coursemap/internal/app"
	"github.com/dgallion1/coursemap/internal/config"
	"github.com/dgallion1/coursemap/internal/logging"
)

// cli carries the configuration shared by every subcommand.
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "coursemap",
		Short: "Detect course structure and track learning progress",
		Long: `coursemap finds the Unit / Module / Class outline of course documents
and turns it into a knowledge map whose nodes carry difficulty, importance and
mastery status.

analyze and map work on a single file without any state. ingest, list,
status, session, analytics and export use the SQLite database shared with the
HTTP server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default: ./coursemap.yaml or ~/.config/coursemap/coursemap.yaml)")
	pf.String("db", "coursemap.db", "SQLite database path")
	pf.String("patterns", "", "YAML file replacing the built-in heading patterns")
	pf.String("status-mode", config.StatusModeWeighted, "initial node status: weighted or objective")
	pf.Uint64("seed", 0, "seed for weighted initial statuses (0 = random)")
	pf.String("log-mode", "off", "logging: off, dev or prod")
	pf.Bool("pdftotext", false, "fall back to pdftotext for unreadable PDFs")

	root.AddCommand(
		c.analyzeCmd(),
		c.mapCmd(),
		c.ingestCmd(),
		c.listCmd(),
		c.statusCmd(),
		c.sessionCmd(),
		c.analyticsCmd(),
		c.exportCmd(),
	)
	return root
}

func (c *cli) initConfig(cmd *cobra.Command) error {
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if cfgFile := c.v.GetString("config"); cfgFile != "" {
		c.v.SetConfigFile(cfgFile)
	} else {
		c.v.SetConfigName("coursemap")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			c.v.AddConfigPath(filepath.Join(home, ".config", "coursemap"))
		}
	}

	c.v.SetEnvPrefix("COURSEMAP")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.v.GetString("config") != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg := c.config()
	switch cfg.InitialStatusMode {
	case config.StatusModeWeighted, config.StatusModeObjective:
	default:
		return fmt.Errorf("--status-mode must be %q or %q, got %q",
			config.StatusModeWeighted, config.StatusModeObjective, cfg.InitialStatusMode)
	}
	return nil
}

// config maps the flag, environment and file values onto the service config.
func (c *cli) config() config.Config {
	return config.Config{
		DBPath:               c.v.GetString("db"),
		PatternsFile:         c.v.GetString("patterns"),
		InitialStatusMode:    c.v.GetString("status-mode"),
		RandomSeed:           c.v.GetUint64("seed"),
		LogMode:              c.v.GetString("log-mode"),
		PDFFallbackPdftotext: c.v.GetBool("pdftotext"),
	}
}

func (c *cli) logger() *zap.Logger {
	log, err := logging.New(c.v.GetString("log-mode"))
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// open connects to the store. Callers must Close the result.
func (c *cli) open() (*app.Services, *zap.Logger, error) {
	log := c.logger()
	svc, err := app.Open(c.config(), log)
	if err != nil {
		return nil, nil, err
	}
	return svc, log, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
