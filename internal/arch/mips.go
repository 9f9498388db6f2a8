package arch

import (
	"encoding/binary"
	"fmt"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
)

// mipsDecoder is a hand-rolled fixed-width MIPS32 decoder: no
// golang.org/x/arch/mips package exists, so this follows the corpus's own
// fixed-width opcode/funct-field switch rather than reaching for a decoder
// that doesn't exist in the ecosystem.
type mipsDecoder struct {
	order binary.ByteOrder
}

func newMIPSDecoder(_ model.Mode) Decoder {
	return &mipsDecoder{order: binary.BigEndian}
}

func (d *mipsDecoder) Decode(code []byte, pc decompbin.Address) (Decoded, error) {
	if len(code) < 4 {
		return Decoded{}, fmt.Errorf("mips: need 4 bytes, have %d", len(code))
	}
	inst := d.order.Uint32(code[:4])
	op := inst >> 26

	out := Decoded{Len: 4}

	switch op {
	case 0x0: // R-type
		d.decodeR(inst, &out)
	case 0x2: // J
		out.Mnemonic = "j"
		out.IsJump = true
		target := mipsJTarget(inst, pc)
		out.JumpTarget = &target
		out.Operands = []model.Operand{mipsImmOperand(int64(target), true)}
	case 0x3: // JAL
		out.Mnemonic = "jal"
		out.IsCall = true
		target := mipsJTarget(inst, pc)
		out.CallTarget = &target
		out.Operands = []model.Operand{mipsImmOperand(int64(target), true)}
	case 0x4, 0x5, 0x6, 0x7: // BEQ, BNE, BLEZ, BGTZ
		d.decodeBranch(op, inst, pc, &out)
	default:
		d.decodeI(op, inst, pc, &out)
	}

	return out, nil
}

func mipsJTarget(inst uint32, pc decompbin.Address) decompbin.Address {
	addr := inst & 0x3FFFFFF
	next := uint32(pc) + 4
	return decompbin.Address((next & 0xF0000000) | (addr << 2))
}

func mipsRegOperand(n uint32) model.Operand {
	return model.Operand{Type: model.OpReg, Reg: fmt.Sprintf("$%d", n)}
}

func mipsImmOperand(v int64, last bool) model.Operand {
	return model.Operand{Type: model.OpImm, Imm: &model.Lit{Val: v, Disp: model.DispHex}, Last: last}
}

func (d *mipsDecoder) decodeR(inst uint32, out *Decoded) {
	rs := (inst >> 21) & 0x1f
	rt := (inst >> 16) & 0x1f
	rd := (inst >> 11) & 0x1f
	funct := inst & 0x3f

	switch funct {
	case 0x08: // jr
		out.Mnemonic = "jr"
		out.IsRet = true
		out.Operands = []model.Operand{mipsRegOperand(rs)}
		out.Operands[0].Last = true
	case 0x09: // jalr
		out.Mnemonic = "jalr"
		out.IsCall = true
		out.Operands = []model.Operand{mipsRegOperand(rs)}
		out.Operands[0].Last = true
	case 0x20:
		out.Mnemonic = "add"
		out.Operands = mipsRTypeOperands(rd, rs, rt)
	case 0x21:
		out.Mnemonic = "addu"
		out.Operands = mipsRTypeOperands(rd, rs, rt)
	case 0x22:
		out.Mnemonic = "sub"
		out.Operands = mipsRTypeOperands(rd, rs, rt)
	case 0x23:
		out.Mnemonic = "subu"
		out.Operands = mipsRTypeOperands(rd, rs, rt)
	case 0x24:
		out.Mnemonic = "and"
		out.Operands = mipsRTypeOperands(rd, rs, rt)
	case 0x25:
		out.Mnemonic = "or"
		out.Operands = mipsRTypeOperands(rd, rs, rt)
	case 0x2a:
		out.Mnemonic = "slt"
		out.Operands = mipsRTypeOperands(rd, rs, rt)
	case 0x0c:
		out.Mnemonic = "syscall"
	default:
		out.Mnemonic = "db"
	}
}

func mipsRTypeOperands(rd, rs, rt uint32) []model.Operand {
	ops := []model.Operand{mipsRegOperand(rd), mipsRegOperand(rs), mipsRegOperand(rt)}
	ops[len(ops)-1].Last = true
	return ops
}

func (d *mipsDecoder) decodeBranch(op, inst uint32, pc decompbin.Address, out *Decoded) {
	rs := (inst >> 21) & 0x1f
	rt := (inst >> 16) & 0x1f
	imm := int16(inst & 0xffff)
	target := pc + 4 + decompbin.Address(int32(imm)<<2)

	names := map[uint32]string{0x4: "beq", 0x5: "bne", 0x6: "blez", 0x7: "bgtz"}
	out.Mnemonic = names[op]
	out.IsConditionalJump = true
	out.CondJumpTarget = &target

	switch op {
	case 0x4, 0x5:
		out.Operands = []model.Operand{mipsRegOperand(rs), mipsRegOperand(rt), mipsImmOperand(int64(target), true)}
	default:
		out.Operands = []model.Operand{mipsRegOperand(rs), mipsImmOperand(int64(target), true)}
	}
}

func (d *mipsDecoder) decodeI(op, inst uint32, pc decompbin.Address, out *Decoded) {
	rs := (inst >> 21) & 0x1f
	rt := (inst >> 16) & 0x1f
	imm := int16(inst & 0xffff)

	names := map[uint32]string{
		0x08: "addi", 0x09: "addiu", 0x0c: "andi", 0x0d: "ori", 0x0e: "xori",
		0x0a: "slti", 0x0b: "sltiu", 0x0f: "lui", 0x23: "lw", 0x20: "lb",
		0x21: "lh", 0x24: "lbu", 0x25: "lhu", 0x2b: "sw", 0x28: "sb", 0x29: "sh",
	}
	mnem, ok := names[op]
	if !ok {
		out.Mnemonic = "db"
		return
	}
	out.Mnemonic = mnem
	out.Operands = []model.Operand{mipsRegOperand(rt), mipsRegOperand(rs), mipsImmOperand(int64(imm), true)}
}
