package semantics

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/state"
)

func aRegForWidth(w uint) string {
	switch w {
	case 8:
		return "al"
	case 16:
		return "ax"
	case 32:
		return "eax"
	default:
		return "rax"
	}
}

// registerCAS implements spec §4.2's cmpxchg rule: a three-way ZF
// outcome rather than the usual cmp-then-move, since the comparison's
// own ZF result decides which operand survives.
func registerCAS(table map[string]Transformer) {
	table["cmpxchg"] = func(ctx *Context, ops []operand.Operand) Result {
		dest := readOperand(ctx, ops[0])
		src := readOperand(ctx, ops[1])
		aName := aRegForWidth(dest.Width)
		a := ctx.Store.ReadReg(aName)

		res := ctx.Store.Oracle.Sub(a, dest)
		setArithFlags(ctx.Store, a, dest, res, false)

		switch ctx.Store.GetFlag(state.ZF) {
		case bv.True:
			writeOperand(ctx, ops[0], src)
		case bv.False:
			ctx.Store.WriteReg(aName, dest)
		default:
			writeOperand(ctx, ops[0], ctx.Store.Oracle.Fresh(dest.Width))
			ctx.Store.WriteReg(aName, ctx.Store.Oracle.Fresh(dest.Width))
		}
		return Result{}
	}
}
