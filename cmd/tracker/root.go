package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/revenue-tracker/pkg/config"
	"github.com/user/revenue-tracker/pkg/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// cli holds the state every subcommand shares once the root has loaded
// configuration.
type cli struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Track startup revenue disclosures in tech news",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default is ./.env)")

	root.AddCommand(
		newRunCommand(c),
		newServeCommand(c),
		newSourcesCommand(c),
		newAlertsCommand(c),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "tracker version %s\n", version)
			},
		},
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = log
	return nil
}
