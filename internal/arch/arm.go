package arch

import (
	"strings"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
	"golang.org/x/arch/arm/armasm"
)

// armDecoder covers 32-bit ARM (A32) encodings only; Thumb is out of scope
// here (mode tag from the ELF front end does not currently distinguish
// interworking state).
type armDecoder struct{}

func newARMDecoder(_ model.Mode) Decoder { return &armDecoder{} }

func (d *armDecoder) Decode(code []byte, pc decompbin.Address) (Decoded, error) {
	inst, err := armasm.Decode(code, armasm.ModeARM)
	if err != nil {
		return Decoded{}, err
	}

	text := inst.String()
	mnem := strings.ToLower(firstToken(text))
	base, cond := armOpBase(inst.Op)

	out := Decoded{Len: 4, Mnemonic: mnem, Operands: genericOperands(text, mnem)}

	switch base {
	case "BL", "BLX":
		out.IsCall = true
	case "BX":
		switch {
		case armArgIsLR(inst.Args[0]):
			out.IsRet = true
		case cond == "" || cond == "ZZ":
			out.IsJump = true
		default:
			out.IsConditionalJump = true
		}
	case "BXJ":
		if cond == "" || cond == "ZZ" {
			out.IsJump = true
		} else {
			out.IsConditionalJump = true
		}
	case "B":
		if cond == "" || cond == "ZZ" {
			out.IsJump = true
		} else {
			out.IsConditionalJump = true
		}
	}

	if out.IsCall || out.IsJump || out.IsConditionalJump {
		if rel, ok := armPCRelTarget(inst.Args); ok {
			abs := pc + decompbin.Address(rel)
			switch {
			case out.IsCall:
				out.CallTarget = &abs
			case out.IsJump:
				out.JumpTarget = &abs
			case out.IsConditionalJump:
				out.CondJumpTarget = &abs
			}
		}
	}

	return out, nil
}

// armOpBase splits a (possibly condition-suffixed) Op's rendered mnemonic
// into its base operation and condition code, e.g. "BL.EQ" -> ("BL", "EQ"),
// "B" -> ("B", ""). Comparing the base exactly, rather than a string
// prefix, keeps BIC/BFC/BFI/BKPT/BXJ's conditioned forms from being
// misread as the B/BX family just because their rendered mnemonic also
// starts with "b".
func armOpBase(op armasm.Op) (base, cond string) {
	s := op.String()
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func armArgIsLR(a armasm.Arg) bool {
	r, ok := a.(armasm.Reg)
	return ok && r == armasm.LR
}

// armPCRelTarget scans the typed argument list for the PC-relative
// displacement armasm.Decode produces for a branch's label operand,
// instead of scraping the first hex literal out of rendered operand text.
func armPCRelTarget(args armasm.Args) (int64, bool) {
	for _, a := range args {
		if a == nil {
			break
		}
		if r, ok := a.(armasm.PCRel); ok {
			return int64(r), true
		}
	}
	return 0, false
}

// genericOperands builds best-effort operand records from the rendered
// text, one per comma-separated operand: a '#'-prefixed operand becomes an
// immediate if it holds a hex literal (invalid otherwise), a bracketed one
// becomes a memory operand with no fields filled in, and any other
// non-empty one becomes a register name. This is deliberately coarse
// relative to x86's typed extraction — spec §4.3 calls the x86 rule list
// exemplary and the rest "analogous", not identical in fidelity.
func genericOperands(text, mnem string) []model.Operand {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil
	}
	rawOps := strings.Split(strings.Join(fields[1:], " "), ",")
	ops := make([]model.Operand, 0, len(rawOps))
	for i, raw := range rawOps {
		raw = strings.TrimSpace(raw)
		op := model.Operand{OpStr: raw, Last: i == len(rawOps)-1}
		switch {
		case strings.HasPrefix(raw, "#"):
			if v, ok := scrapeHexOperand(raw); ok {
				op.Type = model.OpImm
				op.Imm = &model.Lit{Val: v, Disp: model.DispHex}
			} else {
				op.Type = model.OpInv
			}
		case raw != "" && !strings.ContainsAny(raw, "[]"):
			op.Type = model.OpReg
			op.Reg = raw
		case strings.ContainsAny(raw, "[]"):
			op.Type = model.OpMem
			op.Mem = &model.Mem{}
		default:
			op.Type = model.OpInv
		}
		ops = append(ops, op)
	}
	return ops
}
