package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtsse/dsvcheck/internal/bv"
)

func TestMemoryWriteReadSameWidth(t *testing.T) {
	o := bv.NewConcreteOracle("t_")
	m := NewMemory()
	m.Write(o, bv.Const(0x10, 64), bv.Const(0xdeadbeef, 32))
	v, ok := m.Read(o, bv.Const(0x10, 64), 32, nil).AsUint64()
	require.True(t, ok)
	assert.Equal(t, uint64(0xdeadbeef), v)
}

func TestMemoryReadNarrowerThanWrittenEntry(t *testing.T) {
	o := bv.NewConcreteOracle("t_")
	m := NewMemory()
	m.Write(o, bv.Const(0x10, 64), bv.Const(0x11223344, 32))
	lowByte, ok := m.Read(o, bv.Const(0x10, 64), 8, nil).AsUint64()
	require.True(t, ok)
	assert.Equal(t, uint64(0x44), lowByte)
}

func TestMemorySymbolicAddressKeyedBySymbol(t *testing.T) {
	o := bv.NewConcreteOracle("t_")
	m := NewMemory()
	addr := bv.Symbol("ptr", 64)
	m.Write(o, addr, bv.Const(7, 32))
	v, ok := m.Read(o, addr, 32, nil).AsUint64()
	require.True(t, ok)
	assert.Equal(t, uint64(7), v)
}

func TestMemorySymbolicAddressMissYieldsStableFresh(t *testing.T) {
	o := bv.NewConcreteOracle("t_")
	m := NewMemory()
	addr := bv.Symbol("ptr", 64)
	first := m.Read(o, addr, 32, nil)
	second := m.Read(o, addr, 32, nil)
	assert.False(t, first.IsConst())
	assert.Equal(t, first.Sym, second.Sym, "repeated reads of the same unwritten symbolic address should return the same symbol")
}

func TestMemoryCloneIsIndependent(t *testing.T) {
	o := bv.NewConcreteOracle("t_")
	m := NewMemory()
	m.Write(o, bv.Const(0x10, 64), bv.Const(1, 32))
	c := m.Clone()
	c.Write(o, bv.Const(0x10, 64), bv.Const(2, 32))

	origV, _ := m.Read(o, bv.Const(0x10, 64), 32, nil).AsUint64()
	cloneV, _ := c.Read(o, bv.Const(0x10, 64), 32, nil).AsUint64()
	assert.Equal(t, uint64(1), origV)
	assert.Equal(t, uint64(2), cloneV)
}

func TestMemoryNarrowOverwriteReplacesLowByte(t *testing.T) {
	o := bv.NewConcreteOracle("t_")
	m := NewMemory()
	m.Write(o, bv.Const(0x10, 64), bv.Const(0x11223344, 32))
	m.Write(o, bv.Const(0x10, 64), bv.Const(0xff, 8))
	v, ok := m.Read(o, bv.Const(0x10, 64), 8, nil).AsUint64()
	require.True(t, ok)
	assert.Equal(t, uint64(0xff), v)
}
