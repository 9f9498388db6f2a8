package arch

import (
	"strings"

	decompbin "github.com/decomp/exp/bin"
	"golang.org/x/arch/arm64/arm64asm"
)

type arm64Decoder struct{}

func newARM64Decoder() Decoder { return &arm64Decoder{} }

func (d *arm64Decoder) Decode(code []byte, pc decompbin.Address) (Decoded, error) {
	inst, err := arm64asm.Decode(code)
	if err != nil {
		return Decoded{}, err
	}

	text := inst.String()
	mnem := strings.ToLower(firstToken(text))
	out := Decoded{Len: 4, Mnemonic: mnem, Operands: genericOperands(text, mnem)}

	switch inst.Op {
	case arm64asm.BL, arm64asm.BLR:
		out.IsCall = true
	case arm64asm.RET:
		out.IsRet = true
	case arm64asm.BR:
		out.IsJump = true
	case arm64asm.B:
		if arm64HasCond(inst.Args) {
			out.IsConditionalJump = true
		} else {
			out.IsJump = true
		}
	case arm64asm.CBZ, arm64asm.CBNZ, arm64asm.TBZ, arm64asm.TBNZ:
		out.IsConditionalJump = true
	}

	if out.IsCall || out.IsJump || out.IsConditionalJump {
		if rel, ok := arm64PCRelTarget(inst.Args); ok {
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

// arm64HasCond reports whether B's argument list carries the conditional
// (Cond) argument distinguishing "B.cond <label>" from plain "B <label>":
// both render the same Op, so the condition argument is what separates
// them, not any substring of the rendered mnemonic.
func arm64HasCond(args arm64asm.Args) bool {
	for _, a := range args {
		if a == nil {
			break
		}
		if _, ok := a.(arm64asm.Cond); ok {
			return true
		}
	}
	return false
}

// arm64PCRelTarget picks out the typed PC-relative branch-target argument
// rather than the first hex literal in the rendered text: TBZ/TBNZ render
// their bit-index immediate before the branch label (Rt, #imm, label), so
// a naive left-to-right text scrape grabs the bit index instead of the
// actual target.
func arm64PCRelTarget(args arm64asm.Args) (int64, bool) {
	for _, a := range args {
		if a == nil {
			break
		}
		if r, ok := a.(arm64asm.PCRel); ok {
			return int64(r), true
		}
	}
	return 0, false
}
