package strategy

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/internal/arch"
	"github.com/jchristman/haevn/model"
	"github.com/jchristman/haevn/store"
)

// Recursive implements spec §4.6: control-flow-following disassembly with
// a shared visited bitmap and MPMC work queue. Worker count is NumProcs
// unless DisableMultiprocessing forces a single worker (spec §6's
// Debugging.disable_multiprocessing).
type Recursive struct {
	Store                  store.Store
	Sections               []model.Section
	Arch                   model.Arch
	Mode                   model.Mode
	EntryPoints            []decompbin.Address
	NumProcs               int
	DisableMultiprocessing bool
	Log                    *slog.Logger
}

func NewRecursive(st store.Store, sections []model.Section, a model.Arch, m model.Mode,
	entryPoints []decompbin.Address, numProcs int, disableMulti bool, log *slog.Logger) *Recursive {
	return &Recursive{
		Store: st, Sections: sections, Arch: a, Mode: m, EntryPoints: entryPoints,
		NumProcs: numProcs, DisableMultiprocessing: disableMulti, Log: log,
	}
}

// queuePollTimeout is spec §5's "bounded wait, default 1 s".
const queuePollTimeout = time.Second

// missMultiplier is the worker-count multiple spec §4.6 leaves as "a small
// multiple of the worker count" for the miss-counter exit threshold.
const missMultiplier = 3

func (r *Recursive) Disassemble() error {
	dec, err := arch.ForArch(r.Arch, r.Mode)
	if err != nil {
		return err
	}

	var execSections, nonExecSections []model.Section
	for _, s := range r.Sections {
		if s.IsExecutable() {
			execSections = append(execSections, s)
		} else {
			nonExecSections = append(nonExecSections, s)
		}
	}

	bitmaps := make(map[string]*Bitmap, len(execSections))
	for _, s := range execSections {
		bitmaps[s.Name] = NewBitmap(s.Size)
	}

	queue := NewQueue(r.EntryPoints...)

	numWorkers := r.NumProcs
	if r.DisableMultiprocessing || numWorkers < 1 {
		numWorkers = 1
	}
	maxMisses := int32(numWorkers * missMultiplier)

	var missCounter int32
	var wg sync.WaitGroup
	errs := make(chan error, numWorkers)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := &recursiveWorker{
				id: id, dec: dec, store: r.Store, queue: queue,
				bitmaps: bitmaps, sections: r.Sections, execSections: execSections,
				missCounter: &missCounter, maxMisses: maxMisses, log: r.Log,
			}
			if err := w.run(); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}

	if err := r.finalize(execSections, bitmaps); err != nil {
		return err
	}

	for _, s := range nonExecSections {
		if err := SweepNonExecutable(r.Store, s); err != nil {
			return err
		}
	}
	return nil
}

// finalize implements spec §4.6's data-fill pass: after all workers exit,
// every still-clear bitmap bit becomes a one-byte data instruction,
// guaranteeing the partition invariant of spec §8.
func (r *Recursive) finalize(execSections []model.Section, bitmaps map[string]*Bitmap) error {
	for _, sec := range execSections {
		bm := bitmaps[sec.Name]
		var buf []model.Instruction
		for _, rel := range bm.ClearBits() {
			abs := sec.BaseAddr + decompbin.Address(rel)
			buf = append(buf, model.NewDataByte(sec.Name, rel, abs, sec.Data[rel]))
			if len(buf) >= recursiveFlushThreshold {
				if err := r.Store.BatchAddInstructions(sec.Name, buf); err != nil {
					return err
				}
				buf = buf[:0]
			}
		}
		if len(buf) > 0 {
			if err := r.Store.BatchAddInstructions(sec.Name, buf); err != nil {
				return err
			}
		}
	}
	return nil
}

type bufItem struct {
	secName string
	inst    model.Instruction
}

type recursiveWorker struct {
	id           int
	dec          arch.Decoder
	store        store.Store
	queue        *Queue
	bitmaps      map[string]*Bitmap
	sections     []model.Section
	execSections []model.Section
	missCounter  *int32
	maxMisses    int32
	log          *slog.Logger

	buf []bufItem
}

func (w *recursiveWorker) run() error {
	for {
		addr, ok := w.queue.Pop(queuePollTimeout)
		if !ok {
			if err := w.flush(); err != nil {
				return err
			}
			misses := atomic.AddInt32(w.missCounter, 1)
			if misses > w.maxMisses {
				return nil
			}
			continue
		}
		atomic.StoreInt32(w.missCounter, 0)

		sec := w.sectionContaining(addr)
		if sec == nil {
			w.log.Debug("invalid control target: no section contains address", "addr", addr)
			continue
		}
		if !sec.IsExecutable() {
			w.log.Debug("invalid control target: address is in a non-executable section", "addr", addr)
			continue
		}

		w.decodePath(*sec, addr)

		if len(w.buf) >= recursiveFlushThreshold {
			if err := w.flush(); err != nil {
				return err
			}
		}
	}
}

func (w *recursiveWorker) sectionContaining(addr decompbin.Address) *model.Section {
	for i := range w.sections {
		if w.sections[i].ContainsAddr(addr) {
			return &w.sections[i]
		}
	}
	return nil
}

// decodePath walks forward from addr within sec until told to stop by
// heuristics classification, a boundary, or a decode stall (spec §4.6).
func (w *recursiveWorker) decodePath(sec model.Section, addr decompbin.Address) {
	bm := w.bitmaps[sec.Name]
	rel := uint64(addr - sec.BaseAddr)

	for rel < sec.Size {
		if bm.IsSet(rel) {
			break
		}

		d, err := w.dec.Decode(sec.Data[rel:], sec.BaseAddr+decompbin.Address(rel))
		if err != nil || d.Len == 0 {
			// Instruction bytes cannot be decoded (including a
			// section-boundary truncation that the decoder can't
			// consume); leave the bitmap clear here so the finalizer
			// data-fills it.
			break
		}
		if rel+uint64(d.Len) > sec.Size {
			break
		}

		bm.SetRange(rel, rel+uint64(d.Len))

		inst := model.Instruction{
			RAddr:    rel,
			AbsAddr:  sec.BaseAddr + decompbin.Address(rel),
			SecName:  sec.Name,
			IsText:   true,
			Raw:      append([]byte(nil), sec.Data[rel:rel+uint64(d.Len)]...),
			Mnemonic: d.Mnemonic,
			Operands: d.Operands,
		}
		w.buf = append(w.buf, bufItem{secName: sec.Name, inst: inst})
		rel += uint64(d.Len)

		stop := false
		switch {
		case d.IsConditionalJump:
			if d.CondJumpTarget != nil {
				w.queue.Push(w.resolveTarget(*d.CondJumpTarget, sec))
			}
			// continue decoding the fall-through path
		case d.IsCall:
			if d.CallTarget != nil {
				w.queue.Push(w.resolveTarget(*d.CallTarget, sec))
			}
			stop = true
		case d.IsJump:
			if d.JumpTarget != nil {
				w.queue.Push(w.resolveTarget(*d.JumpTarget, sec))
			}
			stop = true
		case d.IsRet:
			stop = true
		}
		if stop {
			break
		}
	}
}

// resolveTarget implements spec §4.6's fallback rule: a target that
// doesn't land in any executable section is re-interpreted as relative to
// the current section's base.
func (w *recursiveWorker) resolveTarget(target decompbin.Address, cur model.Section) decompbin.Address {
	for _, s := range w.execSections {
		if s.ContainsAddr(target) {
			return target
		}
	}
	return cur.BaseAddr + target
}

func (w *recursiveWorker) flush() error {
	for len(w.buf) > 0 {
		name := w.buf[0].secName
		var group []model.Instruction
		var rest []bufItem
		for _, item := range w.buf {
			if item.secName == name {
				group = append(group, item.inst)
			} else {
				rest = append(rest, item)
			}
		}
		if err := w.store.BatchAddInstructions(name, group); err != nil {
			return err
		}
		w.buf = rest
	}
	return nil
}
