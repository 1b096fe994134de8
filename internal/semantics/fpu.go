package semantics

import (
	"github.com/vtsse/dsvcheck/internal/operand"
)

// registerFPUStubs implements the supplemental x87-adjacent mnemonics
// named in the original's BAP_RELATED_INST list. Full floating-point
// register-stack semantics are out of scope: fild, fld and fadd change
// nothing in the store, and fstp writes a fresh unknown value to a
// memory destination. None of them touches a register or a flag, so
// an explorer walking code containing them still gets a terminating,
// non-flag-corrupting step instead of falling into the generic
// unknown-mnemonic suspend.
func registerFPUStubs(table map[string]Transformer) {
	table["fild"] = func(ctx *Context, ops []operand.Operand) Result {
		ctx.Store.Oracle.Fresh(64)
		return Result{}
	}
	table["fld"] = func(ctx *Context, ops []operand.Operand) Result {
		ctx.Store.Oracle.Fresh(64)
		return Result{}
	}
	table["fstp"] = func(ctx *Context, ops []operand.Operand) Result {
		if len(ops) > 0 && ops[0].Kind == operand.KindMem {
			w := operand.EffectiveWidth(ops[0], ctx.Store.W)
			writeOperand(ctx, ops[0], ctx.Store.Oracle.Fresh(w))
		}
		return Result{}
	}
	table["fadd"] = func(ctx *Context, ops []operand.Operand) Result {
		return Result{}
	}
}
