package bin

import (
	"debug/elf"
	"os"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
)

// elfFrontend is the required front end of spec §4.1. It wraps
// debug/elf, the same ELF-reading standard-library package the corpus's
// ELF-consuming tools use directly rather than a third-party ELF parser.
type elfFrontend struct {
	f    *os.File
	file *elf.File

	size       uint64
	md5        string
	arch       model.Arch
	mode       model.Mode
	entryPoint decompbin.Address
	sections   []model.Section
}

func newELFFrontend(f *os.File, path string, size uint64, md5sum string) (Frontend, error) {
	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return &unknownFrontend{size: size, md5: md5sum}, nil
	}

	arch, mode := elfArchMode(ef)

	fe := &elfFrontend{
		f:          f,
		file:       ef,
		size:       size,
		md5:        md5sum,
		arch:       arch,
		mode:       mode,
		entryPoint: decompbin.Address(ef.Entry),
	}
	fe.sections = elfSections(ef)
	return fe, nil
}

// elfArchMode implements the ELF machine-field mapping of spec §4.1.
func elfArchMode(ef *elf.File) (model.Arch, model.Mode) {
	switch ef.Machine {
	case elf.EM_386:
		return model.ArchX86, model.Mode32
	case elf.EM_X86_64:
		return model.ArchX86, model.Mode64
	case elf.EM_ARM:
		return model.ArchARM, model.Mode32
	case elf.EM_AARCH64:
		return model.ArchARM64, model.Mode64
	case elf.EM_MIPS:
		mode := model.Mode32
		if ef.Class == elf.ELFCLASS64 {
			mode = model.Mode64
		}
		return model.ArchMIPS, mode
	case elf.EM_PPC:
		return model.ArchPPC, model.Mode32
	case elf.EM_PPC64:
		return model.ArchPPC, model.Mode64
	default:
		return "", ""
	}
}

// elfSections enumerates SHF_ALLOC sections, the ones that occupy address
// space at runtime, and derives Attributes from the section flags.
func elfSections(ef *elf.File) []model.Section {
	var out []model.Section
	for _, s := range ef.Sections {
		if s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		data, err := s.Data()
		if err != nil {
			// SHT_NOBITS (.bss) and similar: treat as zero-filled.
			data = make([]byte, s.Size)
		}
		if uint64(len(data)) != s.Size {
			padded := make([]byte, s.Size)
			copy(padded, data)
			data = padded
		}
		attrs := model.Attributes{
			Read:    true,
			Write:   s.Flags&elf.SHF_WRITE != 0,
			Execute: s.Flags&elf.SHF_EXECINSTR != 0,
			Append:  false,
		}
		out = append(out, model.NewSection(s.Name, data, attrs, decompbin.Address(s.Addr)))
	}
	return out
}

func (e *elfFrontend) Format() model.Format    { return model.FormatELF }
func (e *elfFrontend) Arch() model.Arch        { return e.arch }
func (e *elfFrontend) Mode() model.Mode        { return e.mode }
func (e *elfFrontend) MD5() string             { return e.md5 }
func (e *elfFrontend) Size() uint64            { return e.size }
func (e *elfFrontend) EntryPoint() decompbin.Address {
	return e.entryPoint
}

func (e *elfFrontend) Sections() []model.Section { return e.sections }

func (e *elfFrontend) ExecutableSections() []model.Section {
	var out []model.Section
	for _, s := range e.sections {
		if s.IsExecutable() {
			out = append(out, s)
		}
	}
	return out
}

func (e *elfFrontend) NonExecutableSections() []model.Section {
	var out []model.Section
	for _, s := range e.sections {
		if !s.IsExecutable() {
			out = append(out, s)
		}
	}
	return out
}

func (e *elfFrontend) Close() error {
	if e.file != nil {
		e.file.Close()
	}
	return e.f.Close()
}

// SymbolAddr looks up a named ELF symbol (used by the predisassembler's
// _start/main heuristic to avoid re-deriving _start's address).
func (e *elfFrontend) SymbolAddr(name string) (decompbin.Address, bool) {
	syms, err := e.file.Symbols()
	if err != nil {
		return 0, false
	}
	for _, s := range syms {
		if s.Name == name {
			return decompbin.Address(s.Value), true
		}
	}
	return 0, false
}

// File exposes the underlying debug/elf handle for components (the
// predisassembler) that need raw section bytes beyond the Section view.
func (e *elfFrontend) File() *elf.File { return e.file }
