package semantics

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/regs"
	"github.com/vtsse/dsvcheck/internal/state"
)

func registerMulDiv(table map[string]Transformer) {
	table["mul"] = func(ctx *Context, ops []operand.Operand) Result {
		src := readOperand(ctx, ops[0])
		w := src.Width
		a := ctx.Store.ReadReg(regs.PairFor(w).Low)
		o := ctx.Store.Oracle
		full := o.UMul(o.ZeroExtend(w, a), src) // width 2w
		writePair(ctx.Store, w, full)
		ctx.Store.ResetAllFlags()
		upperZero := o.Eq(o.Extract(2*w-1, w, full), bv.Const(0, w))
		ctx.Store.SetFlag(state.CF, bv.Not(upperZero))
		ctx.Store.SetFlag(state.OF, bv.Not(upperZero))
		return Result{}
	}

	table["imul"] = func(ctx *Context, ops []operand.Operand) Result {
		o := ctx.Store.Oracle
		switch len(ops) {
		case 1:
			src := readOperand(ctx, ops[0])
			w := src.Width
			a := ctx.Store.ReadReg(regs.PairFor(w).Low)
			full := o.SMul(o.SignExtend(w, a), src)
			writePair(ctx.Store, w, full)
			lowExt := o.SignExtend(2*w, o.Extract(w-1, 0, full))
			overflow := bv.Not(o.Eq(full, lowExt))
			ctx.Store.ResetAllFlags()
			ctx.Store.SetFlag(state.CF, overflow)
			ctx.Store.SetFlag(state.OF, overflow)
			return Result{}
		case 2:
			dest := readOperand(ctx, ops[0])
			src := readOperand(ctx, ops[1])
			return imulTruncated(ctx, ops[0], dest, src)
		default:
			src := readOperand(ctx, ops[1])
			imm := readOperand(ctx, ops[2])
			return imulTruncated(ctx, ops[0], src, imm)
		}
	}

	table["div"] = divLike(false)
	table["idiv"] = divLike(true)
}

func imulTruncated(ctx *Context, dst operand.Operand, a, b bv.BitVec) Result {
	o := ctx.Store.Oracle
	w := a.Width
	full := o.SMul(a, b)
	trunc := o.Extract(w-1, 0, full)
	writeOperand(ctx, dst, trunc)
	wide := o.SignExtend(2*w, trunc)
	overflow := bv.Not(o.Eq(full, wide))
	ctx.Store.ResetAllFlags()
	ctx.Store.SetFlag(state.CF, overflow)
	ctx.Store.SetFlag(state.OF, overflow)
	return Result{}
}

func writePair(s *state.Store, w uint, full bv.BitVec) {
	o := s.Oracle
	pair := regs.PairFor(w)
	s.WriteReg(pair.Low, o.Extract(w-1, 0, full))
	s.WriteReg(pair.High, o.Extract(2*w-1, w, full))
}

func divLike(signed bool) Transformer {
	return func(ctx *Context, ops []operand.Operand) Result {
		src := readOperand(ctx, ops[0])
		w := src.Width
		pair := regs.PairFor(w)
		o := ctx.Store.Oracle
		dividend := o.Concat(ctx.Store.ReadReg(pair.High), ctx.Store.ReadReg(pair.Low))
		var quot, rem bv.BitVec
		if signed {
			quot = o.SDiv(dividend, o.SignExtend(2*w, src))
			rem = o.SMod(dividend, o.SignExtend(2*w, src))
		} else {
			quot = o.UDiv(dividend, o.ZeroExtend(2*w, src))
			rem = o.UMod(dividend, o.ZeroExtend(2*w, src))
		}
		ctx.Store.WriteReg(pair.Low, o.Extract(w-1, 0, quot))
		ctx.Store.WriteReg(pair.High, o.Extract(w-1, 0, rem))
		// div by zero is not caught as an x86 fault (spec §8's
		// documented approximation); the oracle already returns a
		// zero/unknown result for a concrete zero divisor.
		ctx.Store.ResetAllFlags()
		return Result{}
	}
}
