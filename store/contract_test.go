package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
	"github.com/jchristman/haevn/store"
	"github.com/jchristman/haevn/store/memstore"
	"github.com/jchristman/haevn/store/sqlstore"
)

// runContract exercises the same checks against any store.Store
// implementation: disassembly-name uniqueness, ascending absolute
// addresses from GetInstructions, the operand-xref-upsert behavior of
// §4.2, string labels, section lookup by address, and ProjectExists.
func runContract(t *testing.T, st store.Store) {
	t.Helper()
	require.NoError(t, st.LoadProject("proj"))

	d := model.Disassembly{Name: "dis1", BinaryFile: "a.out", Format: model.FormatELF, Arch: model.ArchX86, Mode: model.Mode64}
	ok, err := st.AddDisassembly(d)
	require.NoError(t, err)
	assert.True(t, ok)

	// Duplicate disassembly names must be rejected without mutation.
	ok, err = st.AddDisassembly(d)
	require.NoError(t, err)
	assert.False(t, ok)

	sec := model.NewSection(".text", []byte{0x90, 0x90, 0x90, 0x90}, model.Attributes{Read: true, Execute: true}, decompbin.Address(0x1000))
	require.NoError(t, st.AddSection(sec))

	insts := []model.Instruction{
		model.NewDataByte(".text", 0, decompbin.Address(0x1000), 0x90),
		model.NewDataByte(".text", 1, decompbin.Address(0x1001), 0x90),
	}
	require.NoError(t, st.BatchAddInstructions(".text", insts))

	got, err := st.GetInstructions(".text")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, decompbin.Address(0x1000), got[0].AbsAddr)
	assert.Equal(t, decompbin.Address(0x1001), got[1].AbsAddr)

	// Operand xref upsert: inserting an instruction whose operand carries
	// an unresolved Location must upsert that Location as a label first.
	ref := &model.LocationRef{Name: "loc_00001002", RAddr: 2, SecName: ".text"}
	withXref := model.Instruction{
		RAddr: 2, AbsAddr: decompbin.Address(0x1002), SecName: ".text", IsText: true,
		Raw: []byte{0xe8}, Mnemonic: "call",
		Operands: []model.Operand{{Type: model.OpImm, Imm: &model.Lit{Val: 0x1002}, Xref: ref}},
	}
	require.NoError(t, st.AddInstruction(".text", withXref, false))

	locs, err := st.GetLocations()
	require.NoError(t, err)
	assert.Len(t, locs, 1)
	assert.Equal(t, "loc_00001002", locs[0].Name)

	// Strings round-trip.
	require.NoError(t, st.AddLabel(model.NewStringLabel("hello", 10, ".rodata", []byte("hello\x00"))))
	strs, err := st.GetStrings()
	require.NoError(t, err)
	assert.Len(t, strs, 1)

	// Section-containing-addr lookup.
	foundSec, found, err := st.GetSectionContainingAddr(decompbin.Address(0x1001))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, ".text", foundSec.Name)

	// ProjectExists reflects LoadProject's effect, independent of the
	// memoized in-process identity.
	exists, err := st.ProjectExists("proj")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = st.ProjectExists("nonexistent")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemstoreContract(t *testing.T) {
	runContract(t, memstore.New())
}

func TestSqlstoreContract(t *testing.T) {
	st, err := sqlstore.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()
	runContract(t, st)
}
