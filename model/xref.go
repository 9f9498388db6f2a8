package model

import "github.com/decomp/exp/bin"

// Xref records that the instruction at (BaseSecName, BaseAddr) references
// the location named Target, discovered by the xref parser's operand scan
// (spec §4.7). Xrefs are well-formed only once Target names a Label that
// actually exists in the same disassembly (spec §8's xref well-formedness
// invariant).
type Xref struct {
	BaseAddr    bin.Address
	BaseSecName string
	Target      string
}

// NewXref builds an Xref from the instruction originating the reference and
// the name of the Label it resolves to.
func NewXref(baseAddr bin.Address, baseSecName, target string) Xref {
	return Xref{BaseAddr: baseAddr, BaseSecName: baseSecName, Target: target}
}
