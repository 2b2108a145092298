package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapstore/pkg/driver"
)

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Verify database connectivity",
		Long:  `Open the configured database, issue a ping, and report the round-trip time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := Environment(cmd.Context())
			if err := env.Validate(); err != nil {
				return err
			}

			drv, err := driver.New(env.Driver, newLogger(env))
			if err != nil {
				return err
			}

			start := time.Now()
			db, err := drv.Open(cmd.Context(), env.DriverConfig())
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}
			defer func() { _ = db.Close() }()

			if err := db.PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n",
				drv.Name(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
