package arch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstToken(t *testing.T) {
	assert.Equal(t, "BL", firstToken("BL 0x1040"))
	assert.Equal(t, "RET", firstToken("RET"))
	assert.Equal(t, "", firstToken(""))
}

func TestScrapeHexOperand(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantOK  bool
	}{
		{"BL 0x1040", 0x1040, true},
		{"B.EQ #0x2000", 0x2000, true},
		{"B.EQ #-0x10", -0x10, true},
		{"RET", 0, false},
	}
	for _, tt := range tests {
		got, ok := scrapeHexOperand(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		if ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
