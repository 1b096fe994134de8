package operand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/state"
)

func newAddrStore() *state.Store {
	return state.New(bv.NewConcreteOracle("t_"), 64)
}

func TestEffectiveAddressBasePlusDisp(t *testing.T) {
	s := newAddrStore()
	s.WriteReg("rax", bv.Const(0x1000, 64))
	op := Parse("[rax+0x10]")
	addr := EffectiveAddress(s, 0, op)
	v, ok := addr.AsUint64()
	require.True(t, ok)
	assert.Equal(t, uint64(0x1010), v)
}

func TestEffectiveAddressBaseIndexScale(t *testing.T) {
	s := newAddrStore()
	s.WriteReg("rax", bv.Const(0x1000, 64))
	s.WriteReg("rbx", bv.Const(3, 64))
	op := Parse("[rax+rbx*8]")
	addr := EffectiveAddress(s, 0, op)
	v, ok := addr.AsUint64()
	require.True(t, ok)
	assert.Equal(t, uint64(0x1018), v)
}

func TestEffectiveAddressRipRelative(t *testing.T) {
	s := newAddrStore()
	op := Parse("[rip+0x100]")
	addr := EffectiveAddress(s, 0x2000, op)
	v, ok := addr.AsUint64()
	require.True(t, ok)
	assert.Equal(t, uint64(0x2100), v)
}

func TestEffectiveAddressSegmentOverrideAddsSegBase(t *testing.T) {
	s := newAddrStore()
	s.Seg["fs"] = bv.Const(0x7000, 64)
	s.WriteReg("rax", bv.Const(0x28, 64))
	op := Parse("fs:[rax]")
	addr := EffectiveAddress(s, 0, op)
	v, ok := addr.AsUint64()
	require.True(t, ok)
	assert.Equal(t, uint64(0x7028), v)
}

func TestEffectiveAddressSymbolicRegisterStaysSymbolic(t *testing.T) {
	s := newAddrStore()
	s.Reg["rax"] = bv.Symbol("unknown_rax", 64)
	op := Parse("[rax+0x10]")
	addr := EffectiveAddress(s, 0, op)
	assert.False(t, addr.IsConst())
}
