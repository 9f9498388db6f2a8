package model

import (
	"fmt"

	"github.com/decomp/exp/bin"
)

// LocationName renders the loc_%08x name of an unnamed location discovered
// by the xref parser, from the location's absolute address.
func LocationName(absAddr uint64) string {
	return fmt.Sprintf("loc_%08x", absAddr)
}

// Kind discriminates the Label variants. The Python original modeled this
// with multiple inheritance from a Label base class; Go has no multiple
// inheritance, so Label is a tagged union with one non-nil payload selected
// by Kind.
type Kind string

const (
	KindFunction Kind = "func"
	KindString   Kind = "str"
	KindSection  Kind = "sec"
	KindLocation Kind = "loc"
)

// FunctionLabel is a named range of code, [RStart, REnd).
type FunctionLabel struct {
	RStartAddr uint64
	REndAddr   uint64
	SecName    string
	LocalVars  []string
}

// StringLabel anchors a discovered string at a relative address.
type StringLabel struct {
	RAddr   uint64
	SecName string
	Content []byte
}

// SectionLabel duplicates a Section's fields so sections participate in the
// uniform label space (spec §3).
type SectionLabel struct {
	BaseAddr bin.Address
	Size     uint64
	Data     []byte
	Attribs  Attributes
}

// LocationLabel is an arbitrary labelled address, conventionally named
// loc_<8-hex-absaddr>.
type LocationLabel struct {
	RAddr   uint64
	SecName string
}

// Label is the tagged union of the four label kinds.
type Label struct {
	Name string
	Kind Kind

	Func *FunctionLabel
	Str  *StringLabel
	Sec  *SectionLabel
	Loc  *LocationLabel
}

// NewFunctionLabel constructs a func-kind Label.
func NewFunctionLabel(name string, rStart, rEnd uint64, secName string, localVars []string) Label {
	return Label{
		Name: name,
		Kind: KindFunction,
		Func: &FunctionLabel{RStartAddr: rStart, REndAddr: rEnd, SecName: secName, LocalVars: localVars},
	}
}

// NewStringLabel constructs a str-kind Label.
func NewStringLabel(name string, rAddr uint64, secName string, content []byte) Label {
	return Label{
		Name: name,
		Kind: KindString,
		Str:  &StringLabel{RAddr: rAddr, SecName: secName, Content: content},
	}
}

// NewLocationLabel constructs a loc-kind Label at rAddr within secName. It
// has no section base to work from, so its Name is formatted from rAddr;
// the xref parser and both store implementations replace it with the
// absolute-address name.
func NewLocationLabel(rAddr uint64, secName string) Label {
	return Label{
		Name: LocationName(rAddr),
		Kind: KindLocation,
		Loc:  &LocationLabel{RAddr: rAddr, SecName: secName},
	}
}
