package arch

import (
	"encoding/binary"
	"strings"

	decompbin "github.com/decomp/exp/bin"
	"golang.org/x/arch/ppc64/ppc64asm"
)

type ppc64Decoder struct{}

func newPPC64Decoder() Decoder { return &ppc64Decoder{} }

func (d *ppc64Decoder) Decode(code []byte, pc decompbin.Address) (Decoded, error) {
	inst, err := ppc64asm.Decode(code, binary.BigEndian)
	if err != nil {
		return Decoded{}, err
	}

	text := inst.String()
	mnem := strings.ToLower(firstToken(text))
	out := Decoded{Len: 4, Mnemonic: mnem, Operands: genericOperands(text, mnem)}

	switch inst.Op {
	case ppc64asm.BL, ppc64asm.BLA:
		out.IsCall = true
	case ppc64asm.BCLR, ppc64asm.BCLRL:
		out.IsRet = true
	case ppc64asm.B, ppc64asm.BA, ppc64asm.BCCTR, ppc64asm.BCCTRL:
		out.IsJump = true
	case ppc64asm.BC, ppc64asm.BCL:
		out.IsConditionalJump = true
	}

	if out.IsCall || out.IsJump || out.IsConditionalJump {
		if rel, relative, ok := ppc64BranchTarget(inst.Args); ok {
			abs := decompbin.Address(rel)
			if relative {
				abs = pc + decompbin.Address(rel)
			}
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

// ppc64BranchTarget picks the typed target-address argument — PCRel for
// relative branches, Label for the absolute "a"-suffixed forms — instead
// of scraping rendered operand text, which for BC/BCL would otherwise also
// match the numeric BO/BI condition-field operands rendered ahead of the
// target. Matching Op exactly (rather than a "bc"/"b" prefix) also keeps
// the unrelated BCD instruction family (bcdadd., bcdsub., ...) from being
// misread as conditional branches.
func ppc64BranchTarget(args ppc64asm.Args) (val int64, relative, ok bool) {
	for _, a := range args {
		if a == nil {
			break
		}
		switch t := a.(type) {
		case ppc64asm.PCRel:
			return int64(t), true, true
		case ppc64asm.Label:
			return int64(t), false, true
		}
	}
	return 0, false, false
}
