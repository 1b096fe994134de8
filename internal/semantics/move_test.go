package semantics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vtsse/dsvcheck/internal/bv"
)

func TestInterpretLeaComputesAddressWithoutMemoryAccess(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("rax", bv.Const(0x2000, 64))
	Interpret(ctx, "lea rbx,[rax+0x10]")
	assert.Equal(t, uint64(0x2010), reg64(ctx, "rbx"))
}

func TestInterpretXchgSwapsBothOperands(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("rax", bv.Const(1, 64))
	ctx.Store.WriteReg("rbx", bv.Const(2, 64))
	Interpret(ctx, "xchg rax,rbx")
	assert.Equal(t, uint64(2), reg64(ctx, "rax"))
	assert.Equal(t, uint64(1), reg64(ctx, "rbx"))
}

func TestInterpretMovzxZeroExtends(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("al", bv.Const(0xff, 8))
	Interpret(ctx, "movzx eax,al")
	assert.Equal(t, uint64(0xff), reg64(ctx, "eax"))
}

func TestInterpretMovsxSignExtends(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("al", bv.Const(0xff, 8))
	Interpret(ctx, "movsx eax,al")
	assert.Equal(t, uint64(0xffffffff), reg64(ctx, "eax"))
}

func TestInterpretCdqeSignExtendsEaxIntoRax(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("eax", bv.Const(0x80000000, 32))
	Interpret(ctx, "cdqe")
	assert.Equal(t, uint64(0xffffffff80000000), reg64(ctx, "rax"))
}

func TestInterpretPushadPopadRoundTrip(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("rsp", bv.Const(0x7ffff000, 64))
	ctx.Store.WriteReg("eax", bv.Const(0x11, 32))
	ctx.Store.WriteReg("ebx", bv.Const(0x22, 32))
	Interpret(ctx, "pushad")
	Interpret(ctx, "popad")
	assert.Equal(t, uint64(0x11), reg64(ctx, "eax"))
	assert.Equal(t, uint64(0x22), reg64(ctx, "ebx"))
	assert.Equal(t, uint64(0x7ffff000), reg64(ctx, "rsp"))
}

func TestInterpretPushImmWidensToStackWidth(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("rsp", bv.Const(0x7ffff000, 64))
	Interpret(ctx, "push 0x10")
	v, _ := ctx.Store.ReadMem(ctx.Store.ReadReg("rsp"), 64, nil).AsUint64()
	assert.Equal(t, uint64(0x10), v)
}
