package semantics

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/state"
)

func registerArith(table map[string]Transformer) {
	table["add"] = binArith(true, false)
	table["sub"] = binArith(false, false)
	table["adc"] = binArith(true, true)
	table["sbb"] = binArith(false, true)

	table["and"] = binLogic(func(o bv.Oracle, a, b bv.BitVec) bv.BitVec { return o.And(a, b) })
	table["or"] = binLogic(func(o bv.Oracle, a, b bv.BitVec) bv.BitVec { return o.Or(a, b) })
	table["xor"] = binLogic(func(o bv.Oracle, a, b bv.BitVec) bv.BitVec { return o.Xor(a, b) })

	table["inc"] = incDec(true)
	table["dec"] = incDec(false)

	table["neg"] = func(ctx *Context, ops []operand.Operand) Result {
		dest := readOperand(ctx, ops[0])
		res := ctx.Store.Oracle.Neg(dest)
		writeOperand(ctx, ops[0], res)
		// CF = (dest != 0), per spec §4.2's neg rule.
		ctx.Store.SetFlag(state.CF, bv.Not(ctx.Store.Oracle.Eq(dest, bv.Const(0, dest.Width))))
		setOF(ctx.Store, dest, bv.Const(0, dest.Width), res, false)
		modifyStatusFlags(ctx.Store, res)
		return Result{}
	}

	table["not"] = func(ctx *Context, ops []operand.Operand) Result {
		dest := readOperand(ctx, ops[0])
		writeOperand(ctx, ops[0], ctx.Store.Oracle.Not(dest))
		return Result{} // not does not affect flags
	}
}

// binArith implements add/sub/adc/sbb: adc/sbb fold in CF when it is
// concrete, and otherwise make the destination an unknown free symbol
// of the destination width, per spec §4.2's rule for carry-consuming
// arithmetic with an unresolved carry.
func binArith(isAdd, withCarry bool) Transformer {
	return func(ctx *Context, ops []operand.Operand) Result {
		dest := readOperand(ctx, ops[0])
		src := readOperand(ctx, ops[1])
		o := ctx.Store.Oracle

		if withCarry {
			cf := ctx.Store.GetFlag(state.CF)
			if cf == bv.Unknown {
				fresh := o.Fresh(dest.Width)
				writeOperand(ctx, ops[0], fresh)
				ctx.Store.ResetAllFlags()
				return Result{}
			}
			carryVal := bv.Const(0, dest.Width)
			if cf == bv.True {
				carryVal = bv.Const(1, dest.Width)
			}
			var res bv.BitVec
			if isAdd {
				res = o.Add(o.Add(dest, src), carryVal)
			} else {
				res = o.Sub(o.Sub(dest, src), carryVal)
			}
			writeOperand(ctx, ops[0], res)
			setArithFlags(ctx.Store, dest, src, res, isAdd)
			return Result{}
		}

		var res bv.BitVec
		if isAdd {
			res = o.Add(dest, src)
		} else {
			res = o.Sub(dest, src)
		}
		writeOperand(ctx, ops[0], res)
		setArithFlags(ctx.Store, dest, src, res, isAdd)
		return Result{}
	}
}

func binLogic(op func(o bv.Oracle, a, b bv.BitVec) bv.BitVec) Transformer {
	return func(ctx *Context, ops []operand.Operand) Result {
		dest := readOperand(ctx, ops[0])
		src := readOperand(ctx, ops[1])
		res := op(ctx.Store.Oracle, dest, src)
		writeOperand(ctx, ops[0], res)
		setLogicFlags(ctx.Store, res)
		return Result{}
	}
}

func incDec(isInc bool) Transformer {
	return func(ctx *Context, ops []operand.Operand) Result {
		dest := readOperand(ctx, ops[0])
		one := bv.Const(1, dest.Width)
		o := ctx.Store.Oracle
		var res bv.BitVec
		if isInc {
			res = o.Add(dest, one)
		} else {
			res = o.Sub(dest, one)
		}
		writeOperand(ctx, ops[0], res)
		// inc/dec sets OF/ZF/SF/PF but leaves CF untouched (x86 rule).
		setOF(ctx.Store, dest, one, res, isInc)
		modifyStatusFlags(ctx.Store, res)
		return Result{}
	}
}
