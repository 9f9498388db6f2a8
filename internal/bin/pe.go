package bin

import (
	"debug/pe"
	"os"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
)

// peFrontend is a stub: it must not crash on a PE input (spec §6) but does
// not implement full section/attribute extraction. Arch/mode are derived
// from the COFF machine field only; sections are exposed so the pipeline
// can at least run, even though heuristics for PE's typical targets
// (x86/x86_64) are the same decoders the ELF front end uses.
type peFrontend struct {
	f    *os.File
	file *pe.File

	size uint64
	md5  string
	arch model.Arch
	mode model.Mode
}

func newPEFrontend(f *os.File, path string, size uint64, md5sum string) (Frontend, error) {
	pf, err := pe.NewFile(f)
	if err != nil {
		f.Close()
		return &unknownFrontend{size: size, md5: md5sum}, nil
	}

	arch, mode := peArchMode(pf)
	return &peFrontend{f: f, file: pf, size: size, md5: md5sum, arch: arch, mode: mode}, nil
}

func peArchMode(pf *pe.File) (model.Arch, model.Mode) {
	switch pf.Machine {
	case pe.IMAGE_FILE_MACHINE_I386:
		return model.ArchX86, model.Mode32
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return model.ArchX86, model.Mode64
	case pe.IMAGE_FILE_MACHINE_ARM, pe.IMAGE_FILE_MACHINE_ARMNT:
		return model.ArchARM, model.Mode32
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return model.ArchARM64, model.Mode64
	default:
		return "", ""
	}
}

func (p *peFrontend) Format() model.Format       { return model.FormatPE }
func (p *peFrontend) Arch() model.Arch           { return p.arch }
func (p *peFrontend) Mode() model.Mode           { return p.mode }
func (p *peFrontend) MD5() string                { return p.md5 }
func (p *peFrontend) Size() uint64                { return p.size }
func (p *peFrontend) EntryPoint() decompbin.Address { return 0 }

func (p *peFrontend) Sections() []model.Section {
	var out []model.Section
	for _, s := range p.file.Sections {
		data, err := s.Data()
		if err != nil {
			continue
		}
		attrs := model.Attributes{
			Read:    s.Characteristics&pe.IMAGE_SCN_MEM_READ != 0,
			Write:   s.Characteristics&pe.IMAGE_SCN_MEM_WRITE != 0,
			Execute: s.Characteristics&pe.IMAGE_SCN_MEM_EXECUTE != 0,
		}
		out = append(out, model.NewSection(s.Name, data, attrs, decompbin.Address(s.VirtualAddress)))
	}
	return out
}

func (p *peFrontend) ExecutableSections() []model.Section {
	var out []model.Section
	for _, s := range p.Sections() {
		if s.IsExecutable() {
			out = append(out, s)
		}
	}
	return out
}

func (p *peFrontend) NonExecutableSections() []model.Section {
	var out []model.Section
	for _, s := range p.Sections() {
		if !s.IsExecutable() {
			out = append(out, s)
		}
	}
	return out
}

func (p *peFrontend) Close() error {
	return p.f.Close()
}
