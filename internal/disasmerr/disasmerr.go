// Package disasmerr defines the fatal-error taxonomy a disassembly run can
// raise. Each sentinel is comparable with errors.Is; cmd/disasm maps
// sentinel identity to a process exit code.
package disasmerr

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Fatal sentinels. All are unrecoverable at the point raised and propagate
// to the CLI boundary.
var (
	ErrUnknownFormat       = errors.New("unknown binary format")
	ErrUnknownArchitecture = errors.New("unknown architecture")
	ErrUnknownStrategy     = errors.New("unknown disassembly strategy")
	ErrDuplicateDisassembly = errors.New("disassembly already exists")
	ErrNoProjectInfo       = errors.New("project does not exist")
)

// Local sentinels name the error kinds that are recovered where they occur.
// The strategies and the predisassembler handle those cases inline (logging
// and skipping, or returning no extra entry points) and do not return
// these values.
var (
	ErrDecodeStall           = errors.New("decode stalled: no instruction could be decoded at this address")
	ErrInvalidControlTarget  = errors.New("control-flow target address is outside any known section")
	ErrPredisassemblerFailed = errors.New("predisassembler heuristic failed")
)

// IsDuplicateDisassembly reports whether err is (or wraps) ErrDuplicateDisassembly,
// used by cmd/disasm to pick the exit code spec §6 assigns the duplicate case.
func IsDuplicateDisassembly(err error) bool {
	return stderrors.Is(err, ErrDuplicateDisassembly)
}

// ErrStoreTransient wraps a storage failure as a transient one. The store
// implementations in this module return their errors unwrapped. A strategy
// worker that gets a store error returns it, and the strategy's
// Disassemble returns it once all workers have exited, ending the run.
func ErrStoreTransient(cause error) error {
	return errors.Wrap(cause, "transient storage error")
}
