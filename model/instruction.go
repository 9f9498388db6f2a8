package model

import "github.com/decomp/exp/bin"

// Instruction is a single decoded (or undecoded, for data-fill bytes) unit
// within a section. RAddr is relative to the owning section's base address;
// AbsAddr is RAddr + section base, kept denormalized because strategies and
// parsers address instructions absolutely far more often than relatively.
type Instruction struct {
	RAddr    uint64
	AbsAddr  bin.Address
	SecName  string
	IsText   bool
	Raw      []byte
	Mnemonic string
	Operands []Operand
	// Disp holds a textual rendering used for non-code bytes (the ".byte"
	// / "db" data-fill fallback); set only when IsText is false.
	Disp string
}

// End returns the address one past the instruction's last byte, the value
// used by the visited-bitmap and partition invariant of spec §8.
func (i Instruction) End() bin.Address {
	return i.AbsAddr + bin.Address(len(i.Raw))
}

// NewDataByte constructs a single-byte, non-text Instruction, the
// representation the linear/recursive finalizer uses to fill gaps the
// decoder could not traverse (spec §4.5/§4.6's ".byte"/"db" fallback).
func NewDataByte(secName string, rAddr uint64, abs bin.Address, b byte) Instruction {
	return Instruction{
		RAddr:    rAddr,
		AbsAddr:  abs,
		SecName:  secName,
		IsText:   false,
		Raw:      []byte{b},
		Mnemonic: "db",
		Disp:     DispHexByte(b),
	}
}

// NewNonExecByte constructs the per-byte data instruction spec §4.5
// requires for non-executable sections: mnemonic "db" (the normalized
// form of ".byte"), disp fixed to "bytes".
func NewNonExecByte(secName string, rAddr uint64, abs bin.Address, b byte) Instruction {
	return Instruction{
		RAddr:    rAddr,
		AbsAddr:  abs,
		SecName:  secName,
		IsText:   false,
		Raw:      []byte{b},
		Mnemonic: "db",
		Disp:     "bytes",
	}
}

// DispHexByte renders a single byte the way the data-fill fallback displays
// it, e.g. "0x90".
func DispHexByte(b byte) string {
	const hexdigits = "0123456789abcdef"
	return string([]byte{'0', 'x', hexdigits[b>>4], hexdigits[b&0xf]})
}
