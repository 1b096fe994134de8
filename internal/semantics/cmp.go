package semantics

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/state"
)

func registerCompare(table map[string]Transformer) {
	table["cmp"] = func(ctx *Context, ops []operand.Operand) Result {
		dest := readOperand(ctx, ops[0])
		src := readOperand(ctx, ops[1])
		res := ctx.Store.Oracle.Sub(dest, src)
		setArithFlags(ctx.Store, dest, src, res, false)
		return Result{}
	}

	table["test"] = func(ctx *Context, ops []operand.Operand) Result {
		dest := readOperand(ctx, ops[0])
		src := readOperand(ctx, ops[1])
		res := ctx.Store.Oracle.And(dest, src)
		ctx.Store.SetFlag(state.CF, bv.False)
		ctx.Store.SetFlag(state.OF, bv.False)
		modifyStatusFlags(ctx.Store, res)
		return Result{}
	}
}
