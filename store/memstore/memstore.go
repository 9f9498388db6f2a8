// Package memstore is the in-memory store.Store fake spec §4.2 requires
// for testing the storage contract without a real database.
package memstore

import (
	"fmt"
	"sort"
	"sync"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
	"github.com/jchristman/haevn/store"
)

// Store is a goroutine-safe in-memory implementation of store.Store,
// scoped to a single (project, disassembly) once LoadProject/AddDisassembly
// have run — exactly the scoping spec §4.2 describes.
type Store struct {
	mu sync.Mutex

	projects map[string]bool
	project  string

	curDisassembly string

	disassemblies map[string]map[string]model.Disassembly // project -> name -> Disassembly

	sections map[string]model.Section // name -> Section
	secByAddr map[decompbin.Address]string

	insts map[string][]model.Instruction // section name -> instructions, kept address-sorted

	labels map[string]model.Label // label name -> Label
	xrefs  []model.Xref

	// memoized GetSectionContainingAddr lookups.
	containingCache map[decompbin.Address]string
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		projects:         make(map[string]bool),
		disassemblies:    make(map[string]map[string]model.Disassembly),
		sections:         make(map[string]model.Section),
		secByAddr:        make(map[decompbin.Address]string),
		insts:            make(map[string][]model.Instruction),
		labels:           make(map[string]model.Label),
		containingCache:  make(map[decompbin.Address]string),
	}
}

func (s *Store) LoadProject(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.projects[name] {
		s.projects[name] = true
		s.disassemblies[name] = make(map[string]model.Disassembly)
	}
	s.project = name
	return nil
}

func (s *Store) ProjectExists(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects[name], nil
}

func (s *Store) AddDisassembly(d model.Disassembly) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.disassemblies[s.project]
	if m == nil {
		m = make(map[string]model.Disassembly)
		s.disassemblies[s.project] = m
	}
	if _, exists := m[d.Name]; exists {
		return false, nil
	}
	m[d.Name] = d
	return true, nil
}

func (s *Store) SetDisassembly(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.curDisassembly = name
	return nil
}

func (s *Store) DeleteDisassembly(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.disassemblies[s.project], name)
	if s.curDisassembly == name {
		s.curDisassembly = ""
	}
	s.sections = make(map[string]model.Section)
	s.secByAddr = make(map[decompbin.Address]string)
	s.insts = make(map[string][]model.Instruction)
	s.labels = make(map[string]model.Label)
	s.xrefs = nil
	s.containingCache = make(map[decompbin.Address]string)
	return nil
}

func (s *Store) AddSection(sec model.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[sec.Name] = sec
	s.secByAddr[sec.BaseAddr] = sec.Name
	return nil
}

func (s *Store) UpsertSection(sec model.Section) error {
	return s.AddSection(sec)
}

func (s *Store) BatchAddInstructions(secName string, insts []model.Instruction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range insts {
		s.resolveXrefLocked(&insts[i])
	}
	s.insts[secName] = append(s.insts[secName], insts...)
	s.sortInstsLocked(secName)
	return nil
}

func (s *Store) AddInstruction(secName string, inst model.Instruction, update bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveXrefLocked(&inst)

	if update {
		for i, existing := range s.insts[secName] {
			if existing.RAddr == inst.RAddr {
				s.insts[secName][i] = inst
				return nil
			}
		}
	}
	s.insts[secName] = append(s.insts[secName], inst)
	s.sortInstsLocked(secName)
	return nil
}

// resolveXrefLocked implements spec §4.2's "operand xref upsert": any
// operand carrying an unresolved Location reference gets that Location
// upserted as a Label first. Caller must hold s.mu.
func (s *Store) resolveXrefLocked(inst *model.Instruction) {
	for i := range inst.Operands {
		ref := inst.Operands[i].Xref
		if ref == nil {
			continue
		}
		loc := model.NewLocationLabel(ref.RAddr, ref.SecName)
		loc.Name = ref.Name
		s.labels[ref.Name] = loc
	}
}

func (s *Store) sortInstsLocked(secName string) {
	list := s.insts[secName]
	sort.Slice(list, func(i, j int) bool { return list[i].AbsAddr < list[j].AbsAddr })
}

func (s *Store) BatchDeleteInstsInAddrRanges(secName string, ranges []store.AddrRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.insts[secName]
	out := list[:0:0]
	for _, inst := range list {
		drop := false
		for _, r := range ranges {
			if inst.RAddr >= r.Start && inst.RAddr < r.End {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, inst)
		}
	}
	s.insts[secName] = out
	return nil
}

func (s *Store) AddLabel(l model.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.labels[l.Name]; exists {
		return fmt.Errorf("label %q already exists", l.Name)
	}
	s.labels[l.Name] = l
	return nil
}

func (s *Store) UpsertLabel(l model.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[l.Name] = l
	return nil
}

func (s *Store) AddXref(x model.Xref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xrefs = append(s.xrefs, x)
	return nil
}

func (s *Store) GetSections(executableOnly bool) ([]model.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Section
	for _, sec := range s.sections {
		if !executableOnly || sec.IsExecutable() {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BaseAddr < out[j].BaseAddr })
	return out, nil
}

func (s *Store) GetSection(name string) (model.Section, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.sections[name]
	return sec, ok, nil
}

func (s *Store) GetSectionContainingAddr(abs decompbin.Address) (model.Section, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name, ok := s.containingCache[abs]; ok {
		sec, exists := s.sections[name]
		return sec, exists, nil
	}
	for _, sec := range s.sections {
		if sec.ContainsAddr(abs) {
			s.containingCache[abs] = sec.Name
			return sec, true, nil
		}
	}
	return model.Section{}, false, nil
}

func (s *Store) GetFunctions() ([]model.Label, error) {
	return s.labelsOfKind(model.KindFunction), nil
}

func (s *Store) GetStrings() ([]model.Label, error) {
	return s.labelsOfKind(model.KindString), nil
}

func (s *Store) GetLocations() ([]model.Label, error) {
	return s.labelsOfKind(model.KindLocation), nil
}

func (s *Store) labelsOfKind(k model.Kind) []model.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Label
	for _, l := range s.labels {
		if l.Kind == k {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) GetInstructions(secName string) ([]model.Instruction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Instruction, len(s.insts[secName]))
	copy(out, s.insts[secName])
	return out, nil
}

func (s *Store) GetInstructionsCount(secName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.insts[secName]), nil
}

func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
