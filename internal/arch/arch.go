// Package arch implements the per-architecture heuristics contract of
// spec §4.3: decode one instruction and classify it for the strategies in
// internal/strategy. Go has no maintained Capstone binding, so each ISA is
// backed by its golang.org/x/arch decoder package (or, for MIPS, a
// hand-rolled fixed-width decoder) rather than Capstone's Cs/Heuristics
// split; the two concerns are combined into a single Decoder per ISA,
// which is the more idiomatic shape in Go.
package arch

import (
	"fmt"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
)

// Decoded is the result of decoding one instruction: its length, textual
// form, operand records, and the control-flow classification spec §4.3
// requires of a heuristics object.
type Decoded struct {
	Len      int
	Mnemonic string
	Operands []model.Operand

	IsCall            bool
	IsJump            bool
	IsConditionalJump bool
	IsRet             bool

	// CallTarget, JumpTarget and CondJumpTarget are the resolved absolute
	// target of the respective control-flow operand, set only when the
	// operand is a literal (spec §4.3's op_*_get_addr contract).
	CallTarget     *decompbin.Address
	JumpTarget     *decompbin.Address
	CondJumpTarget *decompbin.Address
}

// IsBranch is the derived helper of spec §4.3.
func (d Decoded) IsBranch() bool { return d.IsCall || d.IsJump }

// Decoder decodes one instruction from code, which begins at address pc.
// An error indicates a decode stall (spec's DecodeStall): the caller emits
// a one-byte data instruction and advances.
type Decoder interface {
	Decode(code []byte, pc decompbin.Address) (Decoded, error)
}

// ForArch returns the Decoder registered for (arch, mode), or an error
// satisfying the UnknownArchitecture taxonomy entry of spec §7.
func ForArch(a model.Arch, m model.Mode) (Decoder, error) {
	switch a {
	case model.ArchX86:
		return newX86Decoder(m), nil
	case model.ArchARM64:
		return newARM64Decoder(), nil
	case model.ArchARM:
		return newARMDecoder(m), nil
	case model.ArchPPC:
		return newPPC64Decoder(), nil
	case model.ArchMIPS:
		return newMIPSDecoder(m), nil
	default:
		return nil, fmt.Errorf("unknown architecture %q/%q", a, m)
	}
}
