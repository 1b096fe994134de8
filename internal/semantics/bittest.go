package semantics

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/state"
)

// registerBitTest implements spec §4.2's bt rule: resets all flags
// except ZF, and sets CF from the tested bit only when the offset is
// concrete.
func registerBitTest(table map[string]Transformer) {
	table["bt"] = func(ctx *Context, ops []operand.Operand) Result {
		base := readOperand(ctx, ops[0])
		offset := readOperand(ctx, ops[1])
		ctx.Store.ResetAllFlagsExcept(state.ZF)
		if offset.IsConst() {
			idx := uint(offset.Val.Uint64()) % base.Width
			ctx.Store.SetFlag(state.CF, bitAt(ctx.Store.Oracle, base, idx))
		} else {
			ctx.Store.SetFlag(state.CF, bv.Unknown)
		}
		return Result{}
	}
}
