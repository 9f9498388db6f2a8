package strategy

import (
	"log/slog"
	"sync"

	decompbin "github.com/decomp/exp/bin"
	"github.com/kr/pretty"

	"github.com/jchristman/haevn/internal/arch"
	"github.com/jchristman/haevn/model"
	"github.com/jchristman/haevn/store"
)

// Linear implements spec §4.5: a linear sweep over every executable
// section's bytes, data-filling whatever the decoder stalls on; every
// non-executable section is emitted byte-by-byte as data. Per spec §5
// ("a fixed-size pool of OS-level worker tasks ... one per section for the
// linear strategy"), sections are dispatched one per worker task, capped at
// NumProcs concurrently, unless DisableMultiprocessing forces a single
// worker — matching the original's dis_executable_sections, which hands
// each section to a multiprocessing.Pool task.
type Linear struct {
	Store                  store.Store
	Sections               []model.Section
	Arch                   model.Arch
	Mode                   model.Mode
	NumProcs               int
	DisableMultiprocessing bool
	Log                    *slog.Logger
}

func NewLinear(st store.Store, sections []model.Section, a model.Arch, m model.Mode,
	numProcs int, disableMulti bool, log *slog.Logger) *Linear {
	return &Linear{
		Store: st, Sections: sections, Arch: a, Mode: m,
		NumProcs: numProcs, DisableMultiprocessing: disableMulti, Log: log,
	}
}

func (l *Linear) Disassemble() error {
	dec, err := arch.ForArch(l.Arch, l.Mode)
	if err != nil {
		return err
	}

	numWorkers := l.NumProcs
	if l.DisableMultiprocessing || numWorkers < 1 {
		numWorkers = 1
	}

	sem := make(chan struct{}, numWorkers)
	var wg sync.WaitGroup
	errs := make(chan error, len(l.Sections))

	for _, sec := range l.Sections {
		sec := sec
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var err error
			if sec.IsExecutable() {
				err = l.sweepExecutable(dec, sec)
			} else {
				err = l.sweepData(sec)
			}
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Linear) sweepExecutable(dec arch.Decoder, sec model.Section) error {
	var buf []model.Instruction
	rel := uint64(0)

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := l.Store.BatchAddInstructions(sec.Name, buf); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}

	for rel < sec.Size {
		abs := sec.BaseAddr + decompbin.Address(rel)
		d, err := dec.Decode(sec.Data[rel:], abs)
		if err != nil || d.Len == 0 {
			l.Log.Debug("decode stall", "section", sec.Name, "rel", rel, "error", err)
			buf = append(buf, model.NewDataByte(sec.Name, rel, abs, sec.Data[rel]))
			rel++
		} else {
			l.Log.Debug("decoded", "section", sec.Name, "rel", rel, "inst", pretty.Sprint(d))
			buf = append(buf, model.Instruction{
				RAddr:    rel,
				AbsAddr:  abs,
				SecName:  sec.Name,
				IsText:   true,
				Raw:      append([]byte(nil), sec.Data[rel:rel+uint64(d.Len)]...),
				Mnemonic: d.Mnemonic,
				Operands: d.Operands,
			})
			rel += uint64(d.Len)
		}

		if len(buf) >= linearFlushThreshold {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (l *Linear) sweepData(sec model.Section) error {
	return SweepNonExecutable(l.Store, sec)
}

// SweepNonExecutable emits the per-byte data instructions spec §4.5
// requires for non-executable sections. Shared by Linear and Recursive,
// since spec §4.6 decodes non-executable sections "by the linear rule of
// 4.5" rather than duplicating the behavior.
func SweepNonExecutable(st store.Store, sec model.Section) error {
	var buf []model.Instruction
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := st.BatchAddInstructions(sec.Name, buf); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}

	for rel := uint64(0); rel < sec.Size; rel++ {
		abs := sec.BaseAddr + decompbin.Address(rel)
		buf = append(buf, model.NewNonExecByte(sec.Name, rel, abs, sec.Data[rel]))
		if len(buf) >= linearFlushThreshold {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
