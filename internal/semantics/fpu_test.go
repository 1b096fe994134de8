package semantics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vtsse/dsvcheck/internal/bv"
)

func TestInterpretFpuStubsDoNotSuspendOrPanic(t *testing.T) {
	for _, inst := range []string{"fild [rax]", "fld [rax]", "fadd st0,st1"} {
		ctx := newCtx()
		ctx.Store.WriteReg("rax", bv.Const(0x2000, 64))
		res := Interpret(ctx, inst)
		assert.False(t, res.Suspend, inst)
	}
}

func TestInterpretFstpToMemoryWritesFreshValue(t *testing.T) {
	ctx := newCtx()
	ctx.Store.WriteReg("rax", bv.Const(0x2000, 64))
	Interpret(ctx, "fstp [rax]")
	v := ctx.Store.ReadMem(ctx.Store.ReadReg("rax"), 64, nil)
	assert.False(t, v.IsConst())
}

func TestInterpretFstpToRegisterIsNoOp(t *testing.T) {
	ctx := newCtx()
	res := Interpret(ctx, "fstp st0")
	assert.False(t, res.Suspend)
}
