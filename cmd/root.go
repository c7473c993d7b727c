// Package cmd holds the numberhero command line: serve (default) and seed.
package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/robalobadob/numberhero/internal/config"
)

var version = "dev"

// SetVersion sets the version string shown by --version.
func SetVersion(v string) { version = v }

// app carries state shared by the subcommands.
type app struct {
	cfgFile string
	cfg     config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "numberhero",
		Short:         "Number Hero game session server",
		Long:          `Backend for the Number Hero memory games: starts sessions, builds puzzles, scores answers.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.New(), a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			zerolog.SetGlobalLevel(cfg.Level())
			return nil
		},
		RunE: a.runServe,
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML)")

	root.AddCommand(a.newServeCmd(), a.newSeedCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
