// Package parser implements spec §4.7-4.8's post-strategy passes: the
// string parser and the xref parser both run over a completed disassembly
// and enrich it in place. Neither mutates what strategies already decided
// about control flow; they only add labels and rewrite operand metadata.
package parser

import "github.com/jchristman/haevn/store"

// Parser runs a single enrichment pass over the current disassembly.
type Parser interface {
	Run() error
}

// Factory builds a Parser bound to st, plus whatever per-parser config it
// needs (min string length, etc.) supplied by the caller.
type Factory func(st store.Store) Parser
