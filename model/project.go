package model

// Project is a named container of disassemblies. The Python original kept
// an ordered list of disassembly names alongside the project record so a
// caller could enumerate "every disassembly in this project" without a
// full collection scan; ProjectInfo mirrors that rather than requiring
// every store implementation to support an efficient by-project query.
type ProjectInfo struct {
	Name          string
	Disassemblies []string
}

// HasDisassembly reports whether name is already registered in the project.
func (p ProjectInfo) HasDisassembly(name string) bool {
	for _, d := range p.Disassemblies {
		if d == name {
			return true
		}
	}
	return false
}

// WithDisassembly returns a copy of p with name appended, a no-op if it is
// already present.
func (p ProjectInfo) WithDisassembly(name string) ProjectInfo {
	if p.HasDisassembly(name) {
		return p
	}
	out := ProjectInfo{Name: p.Name, Disassemblies: make([]string, len(p.Disassemblies), len(p.Disassemblies)+1)}
	copy(out.Disassemblies, p.Disassemblies)
	out.Disassemblies = append(out.Disassemblies, name)
	return out
}
