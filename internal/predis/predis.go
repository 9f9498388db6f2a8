// Package predis implements the predisassembler contract of spec §4.4:
// seed additional entry points from format-specific conventions before the
// chosen strategy runs.
package predis

import (
	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
)

// Predisassembler returns a (possibly empty) list of extra absolute
// addresses to seed the recursive strategy's work queue with, beyond the
// format's declared entry point. When the underlying heuristic cannot run
// or finds nothing, Run returns an empty list and a nil error; it does not
// log that case itself. The caller logs any non-nil error Run returns.
type Predisassembler interface {
	Run() ([]decompbin.Address, error)
}

// None is the Predisassembler for formats spec §4.4 defines no convention
// for (PE, Mach-O): it always yields no extra entry points.
type None struct{}

func (None) Run() ([]decompbin.Address, error) { return nil, nil }

// NewFor selects the predisassembler appropriate for format.
func NewFor(format model.Format, entry decompbin.Address, execSections []model.Section, arch model.Arch, mode model.Mode) Predisassembler {
	if format == model.FormatELF {
		return &ELF{Entry: entry, ExecSections: execSections, Arch: arch, Mode: mode}
	}
	return None{}
}
