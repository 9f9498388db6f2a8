package model

import "github.com/decomp/exp/bin"

// Format names a recognized binary container format.
type Format string

const (
	FormatELF   Format = "elf"
	FormatPE    Format = "pe"
	FormatMachO Format = "macho"
)

// Arch names an instruction set architecture.
type Arch string

const (
	ArchX86   Arch = "x86"
	ArchARM   Arch = "arm"
	ArchARM64 Arch = "arm64"
	ArchMIPS  Arch = "mips"
	ArchPPC   Arch = "ppc"
)

// Mode distinguishes word size within an architecture family.
type Mode string

const (
	Mode32 Mode = "32"
	Mode64 Mode = "64"
)

// Disassembly is the per-binary metadata record spec §3/§6 describes:
// everything the front end determines once, at creation time, including
// the file's MD5. A duplicate disassembly request is detected by Name
// within the project, not by MD5.
type Disassembly struct {
	Name       string
	BinaryFile string
	Format     Format
	Arch       Arch
	Mode       Mode
	MD5        string
	FileSize   uint64
	EntryPoint bin.Address
}
