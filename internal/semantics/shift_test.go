package semantics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/state"
)

func TestInterpretShlSetsCFFromEvictedBit(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("rax", bv.Const(0x80, 8))
	Interpret(ctx, "shl al,1")
	v, _ := ctx.Store.ReadReg("al").AsUint64()
	assert.Equal(t, uint64(0), v)
	assert.Equal(t, bv.True, ctx.Store.GetFlag(state.CF))
}

func TestInterpretShiftCountZeroIsNoOpOnFlags(t *testing.T) {
	ctx := newCtx()
	ctx.Store.SetFlag(state.CF, bv.True)
	ctx.Store.WriteReg("rax", bv.Const(0x42, 64))
	Interpret(ctx, "shl rax,0")
	assert.Equal(t, bv.True, ctx.Store.GetFlag(state.CF), "shift by 0 must not touch flags")
	v, _ := ctx.Store.ReadReg("rax").AsUint64()
	assert.Equal(t, uint64(0x42), v)
}

func TestInterpretShiftCountMaskedTo64Width(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("rax", bv.Const(1, 64))
	Interpret(ctx, "shl rax,0x40") // 0x40 & 0x3f == 0, so this is a no-op
	v, _ := ctx.Store.ReadReg("rax").AsUint64()
	assert.Equal(t, uint64(1), v)
}

func TestInterpretShrOFOnlyDefinedForSingleShift(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("rax", bv.Const(0x80, 8))
	Interpret(ctx, "shr al,2")
	assert.Equal(t, bv.Unknown, ctx.Store.GetFlag(state.OF), "OF is only a literal after a single-position shift")
}

func TestInterpretSymbolicShiftCountClearsFlags(t *testing.T) {
	ctx := newCtx()
	ctx.Store.SetFlag(state.CF, bv.True)
	ctx.Store.WriteReg("rax", bv.Const(1, 64))
	ctx.Store.Reg["rcx"] = bv.Symbol("unknown_cl", 64)
	Interpret(ctx, "shl rax,cl")
	assert.Equal(t, bv.Unknown, ctx.Store.GetFlag(state.CF))
	assert.False(t, ctx.Store.ReadReg("rax").IsConst())
}

func TestInterpretRolByWidthIsNoOp(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("rax", bv.Const(0x1234, 16))
	Interpret(ctx, "rol ax,0x10") // rotating a 16-bit value by 16 is a no-op
	v, _ := ctx.Store.ReadReg("ax").AsUint64()
	assert.Equal(t, uint64(0x1234), v)
}

func TestInterpretRorRoundTripsAfterFullRotation(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("rax", bv.Const(0xabcd, 16))
	Interpret(ctx, "ror ax,4")
	Interpret(ctx, "rol ax,4")
	v, _ := ctx.Store.ReadReg("ax").AsUint64()
	assert.Equal(t, uint64(0xabcd), v)
}
