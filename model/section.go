// Package model holds the persisted data types of a disassembly: sections,
// instructions, labels and cross-references. These types are storage-format
// agnostic; store.Store implementations translate them to whatever they
// persist to.
package model

import "github.com/decomp/exp/bin"

// Attributes describes the read/write/execute/append permissions of a
// section, parsed from the binary format's section flag characters.
type Attributes struct {
	Read    bool
	Write   bool
	Execute bool
	Append  bool
}

// ParseAttributes builds Attributes by scanning s for the letters R, W, X, A
// (case-insensitive), the convention used by ELF's describe_sh_flags-style
// strings.
func ParseAttributes(s string) Attributes {
	var a Attributes
	for _, r := range s {
		switch r {
		case 'R', 'r':
			a.Read = true
		case 'W', 'w':
			a.Write = true
		case 'X', 'x':
			a.Execute = true
		case 'A', 'a':
			a.Append = true
		}
	}
	return a
}

// String renders the attributes as a 4-character RWXA mask, blank where a
// permission is absent.
func (a Attributes) String() string {
	buf := [4]byte{' ', ' ', ' ', ' '}
	if a.Read {
		buf[0] = 'R'
	}
	if a.Write {
		buf[1] = 'W'
	}
	if a.Execute {
		buf[2] = 'X'
	}
	if a.Append {
		buf[3] = 'A'
	}
	return string(buf[:])
}

// Section is a contiguous addressed region of a binary with uniform
// attributes. Sections are created once, at front-end enumeration time, and
// are immutable thereafter.
type Section struct {
	Name     string
	Data     []byte
	Attribs  Attributes
	BaseAddr bin.Address
	Size     uint64
}

// NewSection builds a Section, enforcing the size == len(data) invariant of
// spec §3.
func NewSection(name string, data []byte, attribs Attributes, base bin.Address) Section {
	return Section{
		Name:     name,
		Data:     data,
		Attribs:  attribs,
		BaseAddr: base,
		Size:     uint64(len(data)),
	}
}

// IsExecutable reports whether the section's attributes mark it executable.
func (s Section) IsExecutable() bool {
	return s.Attribs.Execute
}

// ContainsAddr reports whether abs falls within [BaseAddr, BaseAddr+Size).
func (s Section) ContainsAddr(abs bin.Address) bool {
	return abs >= s.BaseAddr && uint64(abs-s.BaseAddr) < s.Size
}

// Label returns the Section's representation as a queryable Label, per the
// "labels form a uniform queryable space" invariant of spec §3.
func (s Section) Label() Label {
	return Label{
		Name: s.Name,
		Kind: KindSection,
		Sec: &SectionLabel{
			BaseAddr: s.BaseAddr,
			Size:     s.Size,
			Data:     s.Data,
			Attribs:  s.Attribs,
		},
	}
}
