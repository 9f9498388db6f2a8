package predis

import (
	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/internal/arch"
	"github.com/jchristman/haevn/model"
)

// maxScanInsts bounds the predisassembler's linear scan from the entry
// point, per spec §4.4's "bounded scan (up to N instructions, e.g. 200)".
const maxScanInsts = 200

// ELF implements the "_start -> main" heuristic of spec §4.4: decode
// linearly from the entry point, and when the first CALL is reached,
// inspect the instruction immediately preceding it. On X86_64 and
// AARCH64, a two-operand instruction whose second operand is an immediate
// is assumed to be the `mov`/`lea` loading main's address into the
// call-argument register, and that immediate is returned as the extra
// entry point.
type ELF struct {
	Entry        decompbin.Address
	ExecSections []model.Section
	Arch         model.Arch
	Mode         model.Mode
}

func (e *ELF) Run() ([]decompbin.Address, error) {
	var section *model.Section
	for i := range e.ExecSections {
		if e.ExecSections[i].ContainsAddr(e.Entry) {
			section = &e.ExecSections[i]
			break
		}
	}
	if section == nil {
		return nil, nil
	}

	dec, err := arch.ForArch(e.Arch, e.Mode)
	if err != nil {
		return nil, nil
	}

	wantsTwoOperandImm := (e.Arch == model.ArchX86 && e.Mode == model.Mode64) || e.Arch == model.ArchARM64

	rel := uint64(e.Entry - section.BaseAddr)
	abs := e.Entry

	var prev *arch.Decoded
	for count := 0; count < maxScanInsts; {
		if rel >= section.Size {
			break
		}
		d, derr := dec.Decode(section.Data[rel:], abs)
		if derr != nil || d.Len == 0 {
			// Skip one byte and resynchronize, mirroring capstone's
			// skipdata behavior in the original heuristic.
			rel++
			abs++
			continue
		}

		if d.IsCall {
			if prev != nil && wantsTwoOperandImm && len(prev.Operands) == 2 {
				second := prev.Operands[1]
				if second.Type == model.OpImm && second.Imm != nil {
					return []decompbin.Address{decompbin.Address(second.Imm.Val)}, nil
				}
			}
			return nil, nil
		}

		prev = &d
		rel += uint64(d.Len)
		abs += decompbin.Address(d.Len)
		count++
	}
	return nil, nil
}
