package arch

import (
	"fmt"
	"strings"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
	"golang.org/x/arch/x86/x86asm"
)

// x86Decoder implements Decoder for x86/386 and x86/amd64, the ISA spec
// §4.3 gives an exemplary, concrete rule list for.
type x86Decoder struct {
	mode int
}

func newX86Decoder(m model.Mode) Decoder {
	bits := 32
	if m == model.Mode64 {
		bits = 64
	}
	return &x86Decoder{mode: bits}
}

// x86CondJumps is the literal set spec §4.3 enumerates for is_conditional_jump.
// Note JMP itself appears in the source list; this is preserved exactly as
// specified rather than "corrected", per DESIGN.md's open-question notes.
var x86CondJumps = map[x86asm.Op]bool{
	x86asm.JA: true, x86asm.JAE: true, x86asm.JB: true, x86asm.JBE: true,
	x86asm.JCXZ: true, x86asm.JE: true, x86asm.JECXZ: true, x86asm.JG: true,
	x86asm.JGE: true, x86asm.JL: true, x86asm.JLE: true, x86asm.JMP: true,
	x86asm.JNE: true, x86asm.JNO: true, x86asm.JNP: true, x86asm.JNS: true,
	x86asm.JO: true, x86asm.JP: true, x86asm.JRCXZ: true, x86asm.JS: true,
}

func (d *x86Decoder) Decode(code []byte, pc decompbin.Address) (Decoded, error) {
	inst, err := x86asm.Decode(code, d.mode)
	if err != nil {
		return Decoded{}, err
	}
	if inst.Len == 0 {
		return Decoded{}, fmt.Errorf("x86: zero-length decode")
	}

	out := Decoded{
		Len:      inst.Len,
		Mnemonic: strings.ToLower(inst.Op.String()),
	}

	out.IsCall = inst.Op == x86asm.CALL || inst.Op == x86asm.LCALL
	out.IsRet = inst.Op == x86asm.RET || inst.Op == x86asm.LRET || inst.Op == x86asm.IRET
	out.IsJump = inst.Op == x86asm.JMP || inst.Op == x86asm.LJMP
	out.IsConditionalJump = x86CondJumps[inst.Op]

	target, ok := x86ControlTarget(inst, pc)
	switch {
	case out.IsCall && ok:
		out.CallTarget = &target
	case out.IsJump && ok:
		out.JumpTarget = &target
	case out.IsConditionalJump && ok:
		out.CondJumpTarget = &target
	}

	out.Operands = x86Operands(inst, isX87Op(inst.Op))
	return out, nil
}

// x86ControlTarget extracts a literal branch target, per spec §4.3: "the
// operand value only if type = imm; otherwise None". x86asm represents a
// direct near branch as a Rel (relative displacement) rather than an
// absolute Imm, so a Rel is resolved to an absolute address and treated as
// the literal case; a bare Imm (rare, e.g. far calls) is used directly.
// Reg/Mem operands (indirect branches) yield no target.
func x86ControlTarget(inst x86asm.Inst, pc decompbin.Address) (decompbin.Address, bool) {
	if len(inst.Args) == 0 || inst.Args[0] == nil {
		return 0, false
	}
	switch arg := inst.Args[0].(type) {
	case x86asm.Rel:
		return pc + decompbin.Address(inst.Len) + decompbin.Address(int64(arg)), true
	case x86asm.Imm:
		return decompbin.Address(int64(arg)), true
	default:
		return 0, false
	}
}

func x86Operands(inst x86asm.Inst, fp bool) []model.Operand {
	var args []x86asm.Arg
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		args = append(args, a)
	}

	ops := make([]model.Operand, 0, len(args))
	for i, a := range args {
		op := x86Operand(a, fp)
		op.OpStr = fmt.Sprint(a)
		op.Last = i == len(args)-1
		ops = append(ops, op)
	}
	return ops
}

func x86Operand(a x86asm.Arg, fp bool) model.Operand {
	switch v := a.(type) {
	case x86asm.Reg:
		if fp {
			return model.Operand{Type: model.OpFP, FP: &model.Lit{Val: int64(v), Disp: model.DispDec}}
		}
		return model.Operand{Type: model.OpReg, Reg: v.String()}
	case x86asm.Mem:
		return model.Operand{
			Type: model.OpMem,
			Mem: &model.Mem{
				BaseReg:  regNameOrEmpty(v.Base),
				IndexReg: regNameOrEmpty(v.Index),
				Rel:      model.Lit{Val: v.Disp, Disp: model.DispHex},
				Scale:    model.Lit{Val: int64(v.Scale), Disp: model.DispDec},
			},
		}
	case x86asm.Rel:
		return model.Operand{Type: model.OpImm, Imm: &model.Lit{Val: int64(v), Disp: model.DispHex}}
	case x86asm.Imm:
		if fp {
			return model.Operand{Type: model.OpFP, FP: &model.Lit{Val: int64(v), Disp: model.DispHex}}
		}
		return model.Operand{Type: model.OpImm, Imm: &model.Lit{Val: int64(v), Disp: model.DispHex}}
	default:
		return model.Operand{Type: model.OpInv}
	}
}

func regNameOrEmpty(r x86asm.Reg) string {
	if r == 0 {
		return ""
	}
	return r.String()
}

// isX87Op reports whether op is one of the x87 FPU instructions, the set
// grounded on the teacher's own x87-lifting case list.
func isX87Op(op x86asm.Op) bool {
	return x87Ops[op]
}

var x87Ops = func() map[x86asm.Op]bool {
	names := []string{
		"F2XM1", "FABS", "FADD", "FADDP", "FBLD", "FBSTP", "FCHS", "FCLEX",
		"FCMOVB", "FCMOVBE", "FCMOVE", "FCMOVNB", "FCMOVNBE", "FCMOVNE",
		"FCMOVNU", "FCMOVU", "FCOM", "FCOMI", "FCOMIP", "FCOMP", "FCOMPP",
		"FCOS", "FDECSTP", "FDIV", "FDIVP", "FDIVR", "FDIVRP", "FFREE",
		"FIADD", "FICOM", "FICOMP", "FIDIV", "FIDIVR", "FILD", "FIMUL",
		"FINCSTP", "FINIT", "FIST", "FISTP", "FISUB", "FISUBR", "FLD",
		"FLD1", "FLDCW", "FLDENV", "FLDL2E", "FLDL2T", "FLDLG2", "FLDLN2",
		"FLDPI", "FLDZ", "FMUL", "FMULP", "FNCLEX", "FNINIT", "FNOP",
		"FNSAVE", "FNSTCW", "FNSTENV", "FNSTSW", "FPATAN", "FPREM", "FPREM1",
		"FPTAN", "FRNDINT", "FRSTOR", "FSAVE", "FSCALE", "FSIN", "FSINCOS",
		"FSQRT", "FST", "FSTCW", "FSTENV", "FSTP", "FSTSW", "FSUB", "FSUBP",
		"FSUBR", "FSUBRP", "FTST", "FUCOM", "FUCOMI", "FUCOMIP", "FUCOMP",
		"FUCOMPP", "FWAIT", "FXAM", "FXCH", "FXTRACT", "FYL2X", "FYL2XP1",
	}
	m := make(map[x86asm.Op]bool, len(names))
	for op := x86asm.Op(1); op < x86asm.Op(4096); op++ {
		if s := op.String(); contains(names, s) {
			m[op] = true
		}
	}
	return m
}()

func contains(names []string, s string) bool {
	for _, n := range names {
		if n == s {
			return true
		}
	}
	return false
}
