// Package cli provides the leapstore command-line interface: small
// operational commands around the engine environment (inspecting
// drivers, checking connectivity, running managed migrations).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapstore/internal/cli/commands"
	"github.com/leapstack-labs/leapstore/internal/config"

	// All bundled drivers register themselves so the CLI can reach
	// any configured database.
	_ "github.com/leapstack-labs/leapstore/pkg/drivers/duckdb"
	_ "github.com/leapstack-labs/leapstore/pkg/drivers/postgres"
	_ "github.com/leapstack-labs/leapstore/pkg/drivers/sqlite"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapstore",
		Short: "Leapstore - Unit-of-Work Persistence Engine",
		Long: `Leapstore binds one logical unit of work to one database session.

The CLI covers the operational side of a leapstore deployment: listing
available drivers, verifying database connectivity, and applying managed
schema migrations.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			env, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			cmd.SetContext(commands.WithEnvironment(cmd.Context(), env))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags; names mirror the config keys so the
	// loader can merge them.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./leapstore.yaml)")
	rootCmd.PersistentFlags().String("driver", "", "Database driver (sqlite|postgres|duckdb)")
	rootCmd.PersistentFlags().String("dsn", "", "Data source name (overrides connection fields)")
	rootCmd.PersistentFlags().String("database", "", "Database name or file path")
	rootCmd.PersistentFlags().String("host", "", "Database host")
	rootCmd.PersistentFlags().Int("port", 0, "Database port")
	rootCmd.PersistentFlags().String("user", "", "Database user")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewDriversCommand())
	rootCmd.AddCommand(commands.NewPingCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
