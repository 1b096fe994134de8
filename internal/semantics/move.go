package semantics

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
)

func spRegName(w uint) string {
	switch w {
	case 16:
		return "sp"
	case 32:
		return "esp"
	default:
		return "rsp"
	}
}

func bpRegName(w uint) string {
	switch w {
	case 16:
		return "bp"
	case 32:
		return "ebp"
	default:
		return "rbp"
	}
}

func pushVal(ctx *Context, val bv.BitVec) {
	sp := spRegName(ctx.Store.W)
	byteLen := val.Width / 8
	newSP := ctx.Store.Oracle.Sub(ctx.Store.ReadReg(sp), bv.Const(uint64(byteLen), ctx.Store.W))
	ctx.Store.WriteReg(sp, newSP)
	ctx.Store.WriteMem(newSP, val)
}

func popVal(ctx *Context, width uint) bv.BitVec {
	sp := spRegName(ctx.Store.W)
	addr := ctx.Store.ReadReg(sp)
	val := ctx.Store.ReadMem(addr, width, ctx.Img)
	newSP := ctx.Store.Oracle.Add(addr, bv.Const(uint64(width/8), ctx.Store.W))
	ctx.Store.WriteReg(sp, newSP)
	return val
}

func registerMove(table map[string]Transformer) {
	movLike := func(ctx *Context, ops []operand.Operand) Result {
		val := readOperand(ctx, ops[1])
		writeOperand(ctx, ops[0], val)
		return Result{}
	}
	table["mov"] = movLike
	table["movabs"] = movLike

	table["lea"] = func(ctx *Context, ops []operand.Operand) Result {
		addr := operand.EffectiveAddress(ctx.Store, ctx.Rip, ops[1])
		writeOperand(ctx, ops[0], addr)
		return Result{}
	}

	table["push"] = func(ctx *Context, ops []operand.Operand) Result {
		w := operand.EffectiveWidth(ops[0], ctx.Store.W)
		pushVal(ctx, readSized(ctx, ops[0], w))
		return Result{}
	}

	table["pop"] = func(ctx *Context, ops []operand.Operand) Result {
		w := operand.EffectiveWidth(ops[0], ctx.Store.W)
		writeOperand(ctx, ops[0], popVal(ctx, w))
		return Result{}
	}

	pushaWidth := func(width uint) Transformer {
		order := []string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi"}
		if width == 16 {
			order = []string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di"}
		}
		return func(ctx *Context, ops []operand.Operand) Result {
			spBefore := ctx.Store.ReadReg(spRegName(width))
			for _, r := range order {
				if r == "esp" || r == "sp" {
					pushVal(ctx, spBefore)
					continue
				}
				pushVal(ctx, ctx.Store.ReadReg(r))
			}
			return Result{}
		}
	}
	table["pushad"] = pushaWidth(32)
	table["pusha"] = pushaWidth(16)

	popaWidth := func(width uint) Transformer {
		order := []string{"edi", "esi", "ebp", "esp", "ebx", "edx", "ecx", "eax"}
		if width == 16 {
			order = []string{"di", "si", "bp", "sp", "bx", "dx", "cx", "ax"}
		}
		return func(ctx *Context, ops []operand.Operand) Result {
			for _, r := range order {
				val := popVal(ctx, width)
				if r == "esp" || r == "sp" {
					continue // discarded, matching the Intel-documented skip slot
				}
				ctx.Store.WriteReg(r, val)
			}
			return Result{}
		}
	}
	table["popad"] = popaWidth(32)
	table["popa"] = popaWidth(16)

	table["xchg"] = func(ctx *Context, ops []operand.Operand) Result {
		a := readOperand(ctx, ops[0])
		b := readOperand(ctx, ops[1])
		writeOperand(ctx, ops[0], b)
		writeOperand(ctx, ops[1], a)
		return Result{}
	}

	table["movzx"] = extendMov(false)
	table["movzbl"] = extendMov(false)
	table["movzwl"] = extendMov(false)
	table["movzbq"] = extendMov(false)
	table["movzwq"] = extendMov(false)

	table["movsx"] = extendMov(true)
	table["movsxd"] = extendMov(true)
	table["movsbl"] = extendMov(true)
	table["movswl"] = extendMov(true)
	table["movsbq"] = extendMov(true)
	table["movswq"] = extendMov(true)
	table["cdqe"] = func(ctx *Context, ops []operand.Operand) Result {
		eax := ctx.Store.ReadReg("eax")
		ctx.Store.WriteReg("rax", ctx.Store.Oracle.SignExtend(64, eax))
		return Result{}
	}

	table["leave"] = func(ctx *Context, ops []operand.Operand) Result {
		w := ctx.Store.W
		ctx.Store.WriteReg(spRegName(w), ctx.Store.ReadReg(bpRegName(w)))
		ctx.Store.WriteReg(bpRegName(w), popVal(ctx, w))
		return Result{}
	}
}

// extendMov implements movzx/movsx's mem-or-reg-to-wider-register
// move, per spec §4.2's data-movement family.
func extendMov(signed bool) Transformer {
	return func(ctx *Context, ops []operand.Operand) Result {
		src := readOperand(ctx, ops[1])
		destW := operand.EffectiveWidth(ops[0], ctx.Store.W)
		var val bv.BitVec
		if signed {
			val = ctx.Store.Oracle.SignExtend(destW, src)
		} else {
			val = ctx.Store.Oracle.ZeroExtend(destW, src)
		}
		writeOperand(ctx, ops[0], val)
		return Result{}
	}
}

// readSized reads an operand forcing a given width; used by push,
// since an immediate push operand's written width may differ from the
// operand token's own derived width (push imm32 writes W bytes in
// 64-bit mode).
func readSized(ctx *Context, op operand.Operand, width uint) bv.BitVec {
	v := readOperand(ctx, op)
	if v.Width == width {
		return v
	}
	if v.Width < width {
		return ctx.Store.Oracle.SignExtend(width, v)
	}
	return ctx.Store.Oracle.Extract(width-1, 0, v)
}
