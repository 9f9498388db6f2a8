// Package disasm wires together the binary front end, storage backend,
// predisassembler, strategy, and parsers into the four responsibilities of
// spec §2: manage per-disassembly metadata, pick new-vs-existing, run the
// chosen strategy, then run the default parsers.
package disasm

import (
	"log/slog"
	"path/filepath"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/internal/bin"
	"github.com/jchristman/haevn/internal/config"
	"github.com/jchristman/haevn/internal/disasmerr"
	"github.com/jchristman/haevn/internal/parser"
	"github.com/jchristman/haevn/internal/predis"
	"github.com/jchristman/haevn/internal/strategy"
	"github.com/jchristman/haevn/model"
	"github.com/jchristman/haevn/store"
)

// Disassembler is the top-level orchestrator for one project/disassembly
// run, equivalent to the Python Disassembler class's four responsibilities.
type Disassembler struct {
	Store           store.Store
	Config          *config.Config
	Log             *slog.Logger
	ProjectName     string
	DisassemblyName string

	front       bin.Frontend
	disassembly model.Disassembly
}

// NewForFile starts a new disassembly: binPath is opened, its metadata is
// computed, and AddDisassembly is attempted. Returns
// disasmerr.ErrDuplicateDisassembly if a disassembly of this name already
// exists within the project (spec §7).
func NewForFile(st store.Store, cfg *config.Config, log *slog.Logger,
	projectName, disassemblyName, binPath string) (*Disassembler, error) {

	if err := st.LoadProject(projectName); err != nil {
		return nil, err
	}

	front, err := bin.Open(binPath)
	if err != nil {
		return nil, err
	}

	if front.Format() == "" {
		front.Close()
		return nil, disasmerr.ErrUnknownFormat
	}
	if front.Arch() == "" || front.Mode() == "" {
		front.Close()
		return nil, disasmerr.ErrUnknownArchitecture
	}

	d := model.Disassembly{
		Name:       disassemblyName,
		BinaryFile: filepath.Base(binPath),
		Format:     front.Format(),
		Arch:       front.Arch(),
		Mode:       front.Mode(),
		MD5:        front.MD5(),
		FileSize:   front.Size(),
		EntryPoint: front.EntryPoint(),
	}

	ok, err := st.AddDisassembly(d)
	if err != nil {
		front.Close()
		return nil, err
	}
	if !ok {
		front.Close()
		return nil, disasmerr.ErrDuplicateDisassembly
	}

	for _, sec := range front.Sections() {
		if err := st.AddSection(sec); err != nil {
			front.Close()
			return nil, err
		}
	}

	return &Disassembler{
		Store: st, Config: cfg, Log: log,
		ProjectName: projectName, DisassemblyName: disassemblyName,
		front: front, disassembly: d,
	}, nil
}

// NewForExisting resumes an already-persisted disassembly. Returns
// disasmerr.ErrNoProjectInfo if the project is unknown to the store
// (spec §7).
func NewForExisting(st store.Store, cfg *config.Config, log *slog.Logger,
	projectName, disassemblyName string) (*Disassembler, error) {

	exists, err := st.ProjectExists(projectName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, disasmerr.ErrNoProjectInfo
	}

	if err := st.LoadProject(projectName); err != nil {
		return nil, err
	}
	if err := st.SetDisassembly(disassemblyName); err != nil {
		return nil, err
	}

	return &Disassembler{
		Store: st, Config: cfg, Log: log,
		ProjectName: projectName, DisassemblyName: disassemblyName,
	}, nil
}

// DisassembleFile runs the selected strategy over the file opened by
// NewForFile, then the default parsers unless disabled.
func (d *Disassembler) DisassembleFile() error {
	if d.front == nil {
		return disasmerr.ErrUnknownFormat
	}
	defer d.front.Close()

	sections := d.front.Sections()
	execSections := d.front.ExecutableSections()

	entryPoints := []decompbin.Address{d.front.EntryPoint()}
	p := predis.NewFor(d.disassembly.Format, d.front.EntryPoint(), execSections, d.disassembly.Arch, d.disassembly.Mode)
	extra, err := p.Run()
	if err != nil {
		d.Log.Error("predisassembler failed", "error", err)
	} else {
		entryPoints = append(entryPoints, extra...)
	}

	strat, err := d.buildStrategy(sections, entryPoints)
	if err != nil {
		return err
	}
	if err := strat.Disassemble(); err != nil {
		return err
	}

	if !d.Config.Debugging.DisableParsers {
		return d.runParsers()
	}
	return nil
}

func (d *Disassembler) buildStrategy(sections []model.Section, entryPoints []decompbin.Address) (strategy.Strategy, error) {
	switch strategy.Name(d.Config.Disassembler.Strategy) {
	case strategy.NameLinear:
		return strategy.NewLinear(d.Store, sections, d.disassembly.Arch, d.disassembly.Mode,
			d.Config.General.NumProcs, d.Config.Debugging.DisableMultiprocessing, d.Log), nil
	case strategy.NameRecursive:
		return strategy.NewRecursive(d.Store, sections, d.disassembly.Arch, d.disassembly.Mode,
			entryPoints, d.Config.General.NumProcs, d.Config.Debugging.DisableMultiprocessing, d.Log), nil
	default:
		return nil, strategy.ErrUnknownStrategy
	}
}

// runParsers runs the default parser list: string parser, then xref
// parser, then the (no-op) function parser, matching the Python original's
// parsers.__all__ order (strings must exist before xrefs can reference them
// via Location upserts).
func (d *Disassembler) runParsers() error {
	parsers := []parser.Parser{
		parser.NewStringParser(d.Store, d.Config.StringParser.MinStringLength, d.Log),
		parser.NewXrefParser(d.Store, d.Log),
		parser.NewFunctionParser(d.Store, d.Log),
	}
	for _, p := range parsers {
		if err := p.Run(); err != nil {
			return err
		}
	}
	return nil
}
