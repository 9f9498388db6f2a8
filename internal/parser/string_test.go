package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
	"github.com/jchristman/haevn/store/memstore"
)

func TestStringParserFindsAndCollapsesStrings(t *testing.T) {
	st := memstore.New()
	require.NoError(t, st.LoadProject("p"))
	_, err := st.AddDisassembly(model.Disassembly{Name: "d1"})
	require.NoError(t, err)

	data := append([]byte{0x00, 0x00}, append([]byte("hello\x00"), []byte{0xff, 0xff}...)...)
	sec := model.NewSection(".rodata", data, model.Attributes{Read: true}, decompbin.Address(0x2000))
	require.NoError(t, st.AddSection(sec))

	var buf []model.Instruction
	for i, b := range data {
		buf = append(buf, model.NewNonExecByte(sec.Name, uint64(i), sec.BaseAddr+decompbin.Address(i), b))
	}
	require.NoError(t, st.BatchAddInstructions(sec.Name, buf))

	p := NewStringParser(st, 5, noopLogger())
	require.NoError(t, p.Run())

	strs, err := st.GetStrings()
	require.NoError(t, err)
	require.Len(t, strs, 1)
	assert.Equal(t, "hello", strs[0].Name)
	assert.Equal(t, uint64(2), strs[0].Str.RAddr)

	insts, err := st.GetInstructions(sec.Name)
	require.NoError(t, err)
	// The 6 collapsed bytes become 1 instruction; the 2 leading and 2
	// trailing bytes are untouched: 2 + 1 + 2 = 5 total.
	assert.Len(t, insts, 5)
}

func TestStringParserIdempotenceGuard(t *testing.T) {
	st := memstore.New()
	require.NoError(t, st.LoadProject("p"))
	_, err := st.AddDisassembly(model.Disassembly{Name: "d1"})
	require.NoError(t, err)
	require.NoError(t, st.AddLabel(model.NewStringLabel("existing", 0, ".rodata", []byte("existing\x00"))))

	sec := model.NewSection(".rodata", []byte("another\x00"), model.Attributes{Read: true}, decompbin.Address(0x2000))
	require.NoError(t, st.AddSection(sec))

	p := NewStringParser(st, 5, noopLogger())
	require.NoError(t, p.Run())

	insts, err := st.GetInstructions(sec.Name)
	require.NoError(t, err)
	assert.Len(t, insts, 0)
}
