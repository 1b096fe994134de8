package semantics

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
)

// registerStack implements spec §4.2's "Stack-frame adjustment" family
// beyond the push/pop/leave primitives already covered by
// registerMove: enter allocates a fixed-size local frame on top of a
// saved frame pointer. Nested-level arguments beyond 0 are not part of
// any scenario the original targets, so the display-list copy loop is
// not modeled; the allocation and frame-pointer chaining are.
func registerStack(table map[string]Transformer) {
	table["enter"] = func(ctx *Context, ops []operand.Operand) Result {
		w := ctx.Store.W
		sp := spRegName(w)
		bp := bpRegName(w)

		pushVal(ctx, ctx.Store.ReadReg(bp))
		ctx.Store.WriteReg(bp, ctx.Store.ReadReg(sp))

		if len(ops) > 0 {
			size := readOperand(ctx, ops[0])
			if size.IsConst() {
				newSP := ctx.Store.Oracle.Sub(ctx.Store.ReadReg(sp), bv.Const(size.Val.Uint64(), w))
				ctx.Store.WriteReg(sp, newSP)
			} else {
				ctx.Store.WriteReg(sp, ctx.Store.Oracle.Fresh(w))
			}
		}
		return Result{}
	}
}
