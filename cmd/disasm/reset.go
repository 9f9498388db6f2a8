package main

import (
	"github.com/spf13/cobra"

	"github.com/jchristman/haevn/store/sqlstore"
)

var (
	resetProject     string
	resetDisassembly string
)

// resetCmd is the Go equivalent of clear_haevn_db.py: drop a single
// disassembly's persisted state from the project (SPEC_FULL.md §C).
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop a disassembly's persisted state",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().StringVarP(&resetProject, "project", "p", "", "project name (required)")
	resetCmd.Flags().StringVarP(&resetDisassembly, "disassembly", "d", "", "disassembly name (required)")
}

func runReset(cmd *cobra.Command, args []string) error {
	if resetProject == "" {
		return newUsageError("-p/--project is required")
	}
	if resetDisassembly == "" {
		return newUsageError("-d/--disassembly is required")
	}

	dsn := sqlstore.DSN(cfg.Database.Host, cfg.Database.Port, resetProject+".sqlite")
	st, err := sqlstore.Open(dsn)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.LoadProject(resetProject); err != nil {
		return err
	}
	if err := st.DeleteDisassembly(resetDisassembly); err != nil {
		return err
	}

	printSuccess("dropped disassembly %q from project %q", resetDisassembly, resetProject)
	return nil
}
