package semantics

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
)

// registerControl implements spec §4.2's "Call/no-op/halt" family and
// the "Stack-frame adjustment" ret rule. jmp itself needs no store
// mutation — the explorer derives its target straight from the
// operand text — but call must push a return address, and ret must
// pop one and report it for classification.
func registerControl(table map[string]Transformer) {
	table["call"] = func(ctx *Context, ops []operand.Operand) Result {
		ret := bv.Const(ctx.NextRip, ctx.Store.W)
		pushVal(ctx, ret)
		return Result{PushedReturn: &ret}
	}

	table["ret"] = func(ctx *Context, ops []operand.Operand) Result {
		target := popVal(ctx, ctx.Store.W)
		if len(ops) == 1 {
			imm := readOperand(ctx, ops[0])
			if imm.IsConst() {
				sp := spRegName(ctx.Store.W)
				newSP := ctx.Store.Oracle.Add(ctx.Store.ReadReg(sp), imm)
				ctx.Store.WriteReg(sp, newSP)
			}
		}
		return Result{RetTarget: &target}
	}

	table["nop"] = func(ctx *Context, ops []operand.Operand) Result { return Result{} }

	table["hlt"] = func(ctx *Context, ops []operand.Operand) Result {
		return Result{Suspend: true}
	}
}
