// Package store defines the persistence abstraction of spec §4.2: a
// single object scoped to (project, disassembly) that is the storage
// concern's entire contract. Two implementations satisfy it: memstore (an
// in-memory fake, required for testability) and sqlstore (a real
// modernc.org/sqlite-backed implementation). Both are run through the same
// shared contract test in store/contract_test.go, which covers a subset of
// the operations below.
package store

import (
	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
)

// AddrRange is a half-open relative address range, [Start, End).
type AddrRange struct {
	Start uint64
	End   uint64
}

// Store is the full operation list of spec §4.2.
type Store interface {
	// LoadProject creates the project record if absent and sets the
	// store's internal project identity. Memoized by name.
	LoadProject(name string) error

	// AddDisassembly persists d under the loaded project, returning false
	// (without mutating state) if a disassembly of that name already
	// exists — the DuplicateDisassembly check of spec §7.
	AddDisassembly(d model.Disassembly) (bool, error)

	// SetDisassembly sets the store's internal disassembly identity to an
	// already-persisted disassembly; called by disasm.NewForExisting.
	SetDisassembly(name string) error

	// DeleteDisassembly drops every record belonging to name within the
	// loaded project: its metadata, sections, instructions, labels and
	// xrefs. Used by the "reset" CLI command, the Go equivalent of
	// clear_haevn_db.py.
	DeleteDisassembly(name string) error

	AddSection(s model.Section) error
	UpsertSection(s model.Section) error

	// BatchAddInstructions bulk-inserts insts for secName. The absolute
	// address stored is each inst.AbsAddr as given; it is not recomputed
	// from inst.RAddr and the section base. Implementations must
	// keep per-section storage ordered so get_instructions returns
	// ascending by address.
	BatchAddInstructions(secName string, insts []model.Instruction) error
	AddInstruction(secName string, inst model.Instruction, update bool) error

	// BatchDeleteInstsInAddrRanges deletes, within secName, every
	// instruction whose relative address falls in one of ranges
	// (half-open). Used by the string parser to replace byte-at-a-time
	// data instructions with a single string-backed one.
	BatchDeleteInstsInAddrRanges(secName string, ranges []AddrRange) error

	AddLabel(l model.Label) error
	UpsertLabel(l model.Label) error
	AddXref(x model.Xref) error

	GetSections(executableOnly bool) ([]model.Section, error)
	GetSection(name string) (model.Section, bool, error)
	GetSectionContainingAddr(abs decompbin.Address) (model.Section, bool, error)

	GetFunctions() ([]model.Label, error)
	GetStrings() ([]model.Label, error)
	GetLocations() ([]model.Label, error)

	// GetInstructions returns every instruction of secName, ascending by
	// absolute address.
	GetInstructions(secName string) ([]model.Instruction, error)
	GetInstructionsCount(secName string) (int, error)

	// ProjectExists reports whether a project of this name is already
	// known to the backing store, independent of LoadProject's memoized
	// identity — used by the orchestrator's existing-disassembly path
	// (spec's NoProjectInfo check).
	ProjectExists(name string) (bool, error)

	Close() error
}
