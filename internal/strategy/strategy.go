// Package strategy implements the two disassembly strategies of spec
// §4.5-4.6: linear sweep and recursive descent.
package strategy

import "github.com/jchristman/haevn/internal/disasmerr"

// Strategy runs a full disassembly pass over every section of the current
// binary, persisting results via the Store supplied at construction.
type Strategy interface {
	Disassemble() error
}

// flushThreshold values, per spec's suggested batch sizes.
const (
	linearFlushThreshold    = 200
	recursiveFlushThreshold = 300
)

// Name identifies a registered strategy, matching the Disassembler.strategy
// configuration value of spec §6.
type Name string

const (
	NameLinear    Name = "linear"
	NameRecursive Name = "recursive"
)

// ErrUnknownStrategy is returned by the orchestrator when config names a
// strategy that isn't "linear" or "recursive" (spec §7).
var ErrUnknownStrategy = disasmerr.ErrUnknownStrategy
