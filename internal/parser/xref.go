package parser

import (
	"log/slog"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
	"github.com/jchristman/haevn/store"
)

// xrefLowerBound is spec §4.8's "val >= 0x10000" candidate filter, excluding
// small immediates (stack offsets, small constants) that happen to fall
// inside a loaded section.
const xrefLowerBound = 0x10000

// XrefParser implements spec §4.8: for every executable instruction's
// operands, detect literal values that land inside some section and
// materialize them as Location labels plus Xref records.
type XrefParser struct {
	Store store.Store
	Log   *slog.Logger
}

func NewXrefParser(st store.Store, log *slog.Logger) *XrefParser {
	return &XrefParser{Store: st, Log: log}
}

func (p *XrefParser) Run() error {
	sections, err := p.Store.GetSections(false)
	if err != nil {
		return err
	}
	for _, s := range sections {
		p.Log.Debug("section range", "name", s.Name, "base", s.BaseAddr, "end", s.BaseAddr+decompbin.Address(s.Size))
	}

	for _, sec := range sections {
		if !sec.IsExecutable() {
			continue
		}
		if err := p.findXrefs(sec.Name); err != nil {
			return err
		}
	}
	return nil
}

// candidateAddr implements spec §4.8's per-operand-type candidate extraction.
func candidateAddr(op model.Operand) (int64, bool) {
	if op.Xref != nil {
		return 0, false
	}
	switch op.Type {
	case model.OpFP:
		if op.FP != nil {
			return op.FP.Val, true
		}
	case model.OpImm:
		if op.Imm != nil {
			return op.Imm.Val, true
		}
	case model.OpMem:
		if op.Mem != nil && op.Mem.IndexReg == "" {
			return op.Mem.Rel.Val, true
		}
	}
	return 0, false
}

func (p *XrefParser) findXrefs(secName string) error {
	insts, err := p.Store.GetInstructions(secName)
	if err != nil {
		return err
	}

	for _, inst := range insts {
		if !inst.IsText {
			continue
		}

		modified := false
		operands := make([]model.Operand, len(inst.Operands))
		copy(operands, inst.Operands)

		for i := range operands {
			val, ok := candidateAddr(operands[i])
			if !ok || val < xrefLowerBound {
				continue
			}

			sec, found, err := p.Store.GetSectionContainingAddr(decompbin.Address(val))
			if err != nil {
				return err
			}
			if !found {
				continue
			}

			rAddr := uint64(decompbin.Address(val) - sec.BaseAddr)
			name := model.LocationName(uint64(val))
			loc := model.NewLocationLabel(rAddr, sec.Name)
			loc.Name = name
			ref := model.LocationRef{Name: name, RAddr: rAddr, SecName: sec.Name}

			xref := model.NewXref(inst.AbsAddr, secName, ref.Name)
			if err := p.Store.AddXref(xref); err != nil {
				return err
			}
			if err := p.Store.UpsertLabel(loc); err != nil {
				return err
			}

			operands[i].Xref = &ref
			modified = true
		}

		if modified {
			inst.Operands = operands
			if err := p.Store.AddInstruction(secName, inst, true); err != nil {
				return err
			}
		}
	}
	return nil
}
