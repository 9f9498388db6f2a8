package parser

import (
	"log/slog"
	"regexp"
	"strconv"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
	"github.com/jchristman/haevn/store"
)

// StringParser implements spec §4.7: find NUL-terminated printable runs in
// every non-executable section and collapse their data-fill bytes into a
// single string instruction plus label.
type StringParser struct {
	Store     store.Store
	MinLength int
	Log       *slog.Logger
}

func NewStringParser(st store.Store, minLength int, log *slog.Logger) *StringParser {
	return &StringParser{Store: st, MinLength: minLength, Log: log}
}

type foundString struct {
	addr     uint64
	name     string
	contents []byte
}

func (p *StringParser) Run() error {
	// Idempotence guard: if any string labels already exist for this
	// disassembly, do nothing (spec §4.7).
	existing, err := p.Store.GetStrings()
	if err != nil {
		return err
	}
	if len(existing) != 0 {
		p.Log.Debug("strings already exist for this disassembly, skipping")
		return nil
	}

	sections, err := p.Store.GetSections(false)
	if err != nil {
		return err
	}
	for _, sec := range sections {
		if sec.IsExecutable() {
			continue
		}
		if err := p.findAndAddStrings(sec); err != nil {
			return err
		}
	}
	return nil
}

func pattern(minLength int) *regexp.Regexp {
	n := minLength - 1
	if n < 0 {
		n = 0
	}
	return regexp.MustCompile(`[\x20-\x7e]{` + strconv.Itoa(n) + `,}\x00`)
}

func (p *StringParser) findAndAddStrings(sec model.Section) error {
	re := pattern(p.MinLength)
	matches := re.FindAllIndex(sec.Data, -1)
	if len(matches) == 0 {
		return nil
	}

	var found []foundString
	var ranges []store.AddrRange
	for _, m := range matches {
		start, end := m[0], m[1]
		contents := append([]byte(nil), sec.Data[start:end]...)
		name := string(contents[:len(contents)-1]) // strip trailing NUL
		found = append(found, foundString{addr: uint64(start), name: name, contents: contents})
		ranges = append(ranges, store.AddrRange{Start: uint64(start), End: uint64(end)})
	}

	if err := p.Store.BatchDeleteInstsInAddrRanges(sec.Name, ranges); err != nil {
		return err
	}

	insts := make([]model.Instruction, 0, len(found))
	for _, s := range found {
		insts = append(insts, model.Instruction{
			RAddr:    s.addr,
			AbsAddr:  sec.BaseAddr + decompbin.Address(s.addr),
			SecName:  sec.Name,
			IsText:   false,
			Raw:      s.contents,
			Mnemonic: ".db",
			Disp:     "str",
		})
	}
	if err := p.Store.BatchAddInstructions(sec.Name, insts); err != nil {
		return err
	}

	for _, s := range found {
		if err := p.Store.AddLabel(model.NewStringLabel(s.name, s.addr, sec.Name, s.contents)); err != nil {
			return err
		}
	}
	return nil
}
