package main

import (
	"github.com/spf13/cobra"

	"github.com/jchristman/haevn/internal/disasm"
	"github.com/jchristman/haevn/store/sqlstore"
)

var (
	runProject     string
	runDisassembly string
	runFile        string
	runStringIDs   []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a disassembly, new or existing",
	Long: `run starts a new disassembly (-f) or resumes an existing one (-s, reserved
for data->text re-disassembly over listed instruction identities). Exactly
one of -f/-s must be given.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runProject, "project", "p", "", "project name (required)")
	runCmd.Flags().StringVarP(&runDisassembly, "disassembly", "d", "", "disassembly name (required)")
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "binary file to create a new disassembly from")
	runCmd.Flags().StringArrayVarP(&runStringIDs, "string", "s", nil, "instruction identities to re-disassemble (reserved, not yet implemented)")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runProject == "" {
		return newUsageError("-p/--project is required")
	}
	if runDisassembly == "" {
		return newUsageError("-d/--disassembly is required")
	}
	haveFile := runFile != ""
	haveStrings := len(runStringIDs) > 0
	if haveFile == haveStrings {
		return newUsageError("exactly one of -f/--file or -s/--string must be given")
	}
	if haveStrings {
		return newUsageError("-s/--string (data->text re-disassembly) is reserved and not implemented")
	}

	dsn := sqlstore.DSN(cfg.Database.Host, cfg.Database.Port, runProject+".sqlite")
	st, err := sqlstore.Open(dsn)
	if err != nil {
		return err
	}
	defer st.Close()

	d, err := disasm.NewForFile(st, cfg, log, runProject, runDisassembly, runFile)
	if err != nil {
		return err
	}
	if err := d.DisassembleFile(); err != nil {
		return err
	}

	printSuccess("disassembly %q complete for project %q", runDisassembly, runProject)
	return nil
}
