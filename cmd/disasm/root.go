package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jchristman/haevn/internal/config"
	"github.com/jchristman/haevn/internal/disasmerr"
	"github.com/jchristman/haevn/internal/logging"
)

var (
	colorError   = color.New(color.FgRed, color.Bold)
	colorSuccess = color.New(color.FgGreen)

	cfgFile  string
	debug    bool
	cfg      *config.Config
	log      *slog.Logger
	logDone  func() error
	profDone func()
)

// Exit codes per SPEC_FULL.md A.1: 0 success, 1 argument/usage error,
// 2 DuplicateDisassembly, 3 all other fatal errors.
const (
	exitOK                   = 0
	exitUsageError           = 1
	exitDuplicateDisassembly = 2
	exitOtherFatal           = 3
)

var rootCmd = &cobra.Command{
	Use:   "disasm",
	Short: "A Capstone-less static disassembler",
	Long: `disasm is a static binary disassembler: it front-ends ELF/PE/Mach-O
binaries, runs a linear or recursive disassembly strategy, and enriches the
result with string and cross-reference parsers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		var closer func() error
		log, closer, err = logging.New(cfg.Debugging.LogPath, debug)
		if err != nil {
			return err
		}
		logDone = closer

		if cfg.Debugging.ProfilerOn {
			done, err := startCPUProfile(cfg.Debugging.LogPath)
			if err != nil {
				return err
			}
			profDone = done
		}
		return nil
	},
}

// startCPUProfile implements SPEC_FULL.md A.3's Debugging.profiler_on:
// wrap the run with runtime/pprof.StartCPUProfile, writing to
// profile.pprof next to the log file (or the working directory if no log
// path is configured).
func startCPUProfile(logPath string) (func(), error) {
	dir := "."
	if logPath != "" {
		dir = filepath.Dir(logPath)
	}
	f, err := os.Create(filepath.Join(dir, "profile.pprof"))
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to haevn.conf (INI)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug-level logging")
	rootCmd.AddCommand(runCmd, resetCmd)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newUsageError("%v", err)
	})
}

// Execute runs the command tree and maps the error it returns to a process
// exit code, per SPEC_FULL.md A.1/A.4.
func Execute() int {
	err := rootCmd.Execute()
	if profDone != nil {
		profDone()
	}
	if logDone != nil {
		logDone()
	}
	if err == nil {
		return exitOK
	}

	switch {
	case errIsUsage(err):
		colorError.Fprintln(os.Stderr, "usage error:", err)
		return exitUsageError
	case disasmerr.IsDuplicateDisassembly(err):
		colorError.Fprintln(os.Stderr, "error:", err)
		return exitDuplicateDisassembly
	default:
		colorError.Fprintln(os.Stderr, "fatal:", err)
		return exitOtherFatal
	}
}

func errIsUsage(err error) bool {
	_, ok := err.(*usageError)
	return ok
}

// usageError marks an argument-validation failure (spec §6's "argument
// error" exit path), distinct from the disassembler's own fatal taxonomy.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func printSuccess(format string, args ...any) {
	colorSuccess.Println(fmt.Sprintf(format, args...))
}
