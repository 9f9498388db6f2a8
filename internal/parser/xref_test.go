package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jchristman/haevn/model"
)

func TestCandidateAddr(t *testing.T) {
	tests := []struct {
		name    string
		op      model.Operand
		wantVal int64
		wantOK  bool
	}{
		{"fp literal", model.Operand{Type: model.OpFP, FP: &model.Lit{Val: 0x20000}}, 0x20000, true},
		{"imm literal", model.Operand{Type: model.OpImm, Imm: &model.Lit{Val: 0x20000}}, 0x20000, true},
		{"mem unindexed", model.Operand{Type: model.OpMem, Mem: &model.Mem{Rel: model.Lit{Val: 0x30000}}}, 0x30000, true},
		{"mem indexed has no candidate", model.Operand{Type: model.OpMem, Mem: &model.Mem{IndexReg: "eax", Rel: model.Lit{Val: 0x30000}}}, 0, false},
		{"reg has no candidate", model.Operand{Type: model.OpReg, Reg: "eax"}, 0, false},
		{"inv has no candidate", model.Operand{Type: model.OpInv}, 0, false},
		{"already has xref", model.Operand{Type: model.OpImm, Imm: &model.Lit{Val: 0x20000}, Xref: &model.LocationRef{}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, ok := candidateAddr(tt.op)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantVal, val)
			}
		})
	}
}
