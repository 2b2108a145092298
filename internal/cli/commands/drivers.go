package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapstore/pkg/driver"
)

// NewDriversCommand creates the drivers command.
func NewDriversCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List registered database drivers",
		Long:  `List every registered database driver with its placeholder style and migration support.`,
		Run: func(cmd *cobra.Command, _ []string) {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Name", "Placeholder", "Migrations"})

			for _, name := range driver.List() {
				drv, err := driver.New(name, nil)
				if err != nil {
					continue
				}
				migrations := "unsupported"
				if dialect, ok := drv.MigrationDialect(); ok {
					migrations = dialect
				}
				t.AppendRow(table.Row{name, drv.Placeholder(1), migrations})
			}
			t.Render()
		},
	}
}
