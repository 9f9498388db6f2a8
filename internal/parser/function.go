package parser

import (
	"log/slog"

	"github.com/jchristman/haevn/store"
)

// FunctionParser is a placeholder for the function-boundary heuristics the
// original implementation never finished: it satisfies Parser but performs
// no work. A complete version would walk every text instruction and ask an
// arch.Decoder-like heuristics object whether it looks like a function
// start or end, adding Function labels for anything the strategies missed.
type FunctionParser struct {
	Store store.Store
	Log   *slog.Logger
}

func NewFunctionParser(st store.Store, log *slog.Logger) *FunctionParser {
	return &FunctionParser{Store: st, Log: log}
}

func (p *FunctionParser) Run() error {
	p.Log.Debug("function parser has no heuristics implementation yet")
	return nil
}
