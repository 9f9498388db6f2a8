package bin

import (
	"debug/macho"
	"os"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
)

// machoFrontend is a stub analogous to peFrontend: enough to not crash on
// a Mach-O input (spec §6), without full section/attribute fidelity.
type machoFrontend struct {
	f    *os.File
	file *macho.File

	size uint64
	md5  string
	arch model.Arch
	mode model.Mode
}

func newMachOFrontend(f *os.File, path string, size uint64, md5sum string) (Frontend, error) {
	mf, err := macho.NewFile(f)
	if err != nil {
		f.Close()
		return &unknownFrontend{size: size, md5: md5sum}, nil
	}

	arch, mode := machoArchMode(mf)
	return &machoFrontend{f: f, file: mf, size: size, md5: md5sum, arch: arch, mode: mode}, nil
}

func machoArchMode(mf *macho.File) (model.Arch, model.Mode) {
	switch mf.Cpu {
	case macho.Cpu386:
		return model.ArchX86, model.Mode32
	case macho.CpuAmd64:
		return model.ArchX86, model.Mode64
	case macho.CpuArm:
		return model.ArchARM, model.Mode32
	case macho.CpuArm64:
		return model.ArchARM64, model.Mode64
	default:
		return "", ""
	}
}

func (m *machoFrontend) Format() model.Format       { return model.FormatMachO }
func (m *machoFrontend) Arch() model.Arch           { return m.arch }
func (m *machoFrontend) Mode() model.Mode           { return m.mode }
func (m *machoFrontend) MD5() string                { return m.md5 }
func (m *machoFrontend) Size() uint64                { return m.size }
func (m *machoFrontend) EntryPoint() decompbin.Address {
	for _, l := range m.file.Loads {
		if seg, ok := l.(*macho.Segment); ok && seg.Name == "__TEXT" {
			return decompbin.Address(seg.Addr)
		}
	}
	return 0
}

func (m *machoFrontend) Sections() []model.Section {
	var out []model.Section
	for _, s := range m.file.Sections {
		data, err := s.Data()
		if err != nil {
			continue
		}
		attrs := model.Attributes{Read: true, Execute: s.Seg == "__TEXT"}
		out = append(out, model.NewSection(s.Name, data, attrs, decompbin.Address(s.Addr)))
	}
	return out
}

func (m *machoFrontend) ExecutableSections() []model.Section {
	var out []model.Section
	for _, s := range m.Sections() {
		if s.IsExecutable() {
			out = append(out, s)
		}
	}
	return out
}

func (m *machoFrontend) NonExecutableSections() []model.Section {
	var out []model.Section
	for _, s := range m.Sections() {
		if !s.IsExecutable() {
			out = append(out, s)
		}
	}
	return out
}

func (m *machoFrontend) Close() error {
	return m.f.Close()
}
