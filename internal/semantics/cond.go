package semantics

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/predicate"
)

var conditionCodes = []string{
	"a", "ae", "b", "be", "c", "e", "g", "ge", "l", "le",
	"na", "nae", "nb", "nbe", "nc", "ne", "ng", "nge", "nl", "nle",
	"no", "np", "ns", "nz", "o", "p", "pe", "po", "s", "z",
}

func registerConditional(table map[string]Transformer) {
	for _, cc := range conditionCodes {
		cc := cc
		table["cmov"+cc] = func(ctx *Context, ops []operand.Operand) Result {
			switch predicate.Eval(ctx.Store, cc) {
			case bv.True:
				writeOperand(ctx, ops[0], readOperand(ctx, ops[1]))
			case bv.False:
				// no-op
			default:
				w := operand.EffectiveWidth(ops[0], ctx.Store.W)
				writeOperand(ctx, ops[0], ctx.Store.Oracle.Fresh(w))
			}
			return Result{}
		}
		table["set"+cc] = func(ctx *Context, ops []operand.Operand) Result {
			switch predicate.Eval(ctx.Store, cc) {
			case bv.True:
				writeOperand(ctx, ops[0], bv.Const(1, 8))
			case bv.False:
				writeOperand(ctx, ops[0], bv.Const(0, 8))
			default:
				writeOperand(ctx, ops[0], ctx.Store.Oracle.Fresh(8))
			}
			return Result{}
		}
	}
}
