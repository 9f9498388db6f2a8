package model

// Disp is the textual display hint for a numeric literal operand field.
type Disp string

const (
	DispDec Disp = "dec"
	DispHex Disp = "hex"
	DispOct Disp = "oct"
	DispBin Disp = "bin"
	DispStr Disp = "str"
)

// OperandType tags which variant of Operand is populated.
type OperandType string

const (
	OpFP  OperandType = "fp"
	OpImm OperandType = "imm"
	OpMem OperandType = "mem"
	OpReg OperandType = "reg"
	OpInv OperandType = "inv"
)

// Lit is a numeric literal with a preferred display radix.
type Lit struct {
	Val  int64
	Disp Disp
}

// Mem describes a memory operand: base/index registers (register name, or
// "" when there is no base/index) plus a relative displacement and scale.
type Mem struct {
	BaseReg  string
	IndexReg string // "" means "no index"
	Rel      Lit
	Scale    Lit
}

// Operand is a single decoded operand of a text instruction. Exactly one of
// FP, Imm, Mem, Reg is meaningful, selected by Type; Xref is optionally set
// by the xref parser once the operand is known to reference a Location.
type Operand struct {
	Type   OperandType
	FP     *Lit
	Imm    *Lit
	Mem    *Mem
	Reg    string
	OpStr  string
	Last   bool
	Xref   *LocationRef
}

// LocationRef identifies a persisted Location an operand points at.
type LocationRef struct {
	Name    string
	RAddr   uint64
	SecName string
}
