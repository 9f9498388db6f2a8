package arch

import (
	"regexp"
	"strconv"
	"strings"
)

// Non-x86 ISAs classify branches and resolve their targets from the typed
// Op/Args golang.org/x/arch's armasm/arm64asm/ppc64asm decoders expose
// (see arm.go, arm64.go, ppc64.go). scrapeHexOperand remains here only for
// genericOperands' best-effort generic immediate-operand extraction, which
// has no typed-field equivalent worth building for operands outside the
// control-flow path.
var hexLit = regexp.MustCompile(`#?(-?0x[0-9a-fA-F]+)`)

// firstToken returns the opcode mnemonic, the first whitespace-separated
// field of a decoder's String() rendering.
func firstToken(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

// scrapeHexOperand finds the first 0x-prefixed hex literal (optionally
// preceded by '#' and/or '-') in rendered operand text, for
// genericOperands' immediate operands. Decimal literals are not matched.
func scrapeHexOperand(s string) (int64, bool) {
	m := hexLit.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimPrefix(m[1], "0x"), 16, 64)
	if err != nil {
		neg := strings.HasPrefix(m[1], "-")
		digits := strings.TrimPrefix(strings.TrimPrefix(m[1], "-"), "0x")
		uv, perr := strconv.ParseUint(digits, 16, 64)
		if perr != nil {
			return 0, false
		}
		v = int64(uv)
		if neg {
			v = -v
		}
	}
	return v, true
}
