package semantics

import (
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/regs"
)

// registerSignExtend implements spec §4.2's "Sign-extend into double
// register" family: cbw/cwde/cdqe extend A-register in place, and
// cwd/cdq/cqo extend A-register to a doubled-width value writing the
// upper half into D.
func registerSignExtend(table map[string]Transformer) {
	table["cbw"] = singleExtend("al", "ax", 16)
	table["cwde"] = singleExtend("ax", "eax", 32)
	// cdqe is registered in move.go alongside the other A-register
	// widenings it shares a shape with.

	table["cwd"] = doubleExtend(16)
	table["cdq"] = doubleExtend(32)
	table["cqo"] = doubleExtend(64)
}

func singleExtend(src, dst string, dstWidth uint) Transformer {
	return func(ctx *Context, ops []operand.Operand) Result {
		v := ctx.Store.ReadReg(src)
		ctx.Store.WriteReg(dst, ctx.Store.Oracle.SignExtend(dstWidth, v))
		return Result{}
	}
}

func doubleExtend(width uint) Transformer {
	return func(ctx *Context, ops []operand.Operand) Result {
		pair := regs.PairFor(width)
		low := ctx.Store.ReadReg(pair.Low)
		full := ctx.Store.Oracle.SignExtend(2*width, low)
		writePair(ctx.Store, width, full)
		return Result{}
	}
}
