package semantics

import (
	"strings"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/state"
)

func diIndexRegName(w uint) string {
	switch w {
	case 16:
		return "di"
	case 32:
		return "edi"
	default:
		return "rdi"
	}
}

func siIndexRegName(w uint) string {
	switch w {
	case 16:
		return "si"
	case 32:
		return "esi"
	default:
		return "rsi"
	}
}

func advanceIndex(ctx *Context, reg string, byteLen uint) {
	cur := ctx.Store.ReadReg(reg)
	ctx.Store.WriteReg(reg, ctx.Store.Oracle.Add(cur, bv.Const(uint64(byteLen), ctx.Store.W)))
}

// registerStrings implements spec §4.2's string-instruction family:
// one element-sized step per mnemonic (direction-flag reversal is
// outside the core's flag set, so every step advances forward), plus
// the rep/repz/repe/repnz/repne wrapping loop.
func registerStrings(table map[string]Transformer) {
	stosWidth := func(width uint) Transformer {
		return func(ctx *Context, ops []operand.Operand) Result {
			aName := aRegForWidth(width)
			addr := ctx.Store.ReadReg(diIndexRegName(ctx.Store.W))
			ctx.Store.WriteMem(addr, ctx.Store.ReadReg(aName))
			advanceIndex(ctx, diIndexRegName(ctx.Store.W), width/8)
			return Result{}
		}
	}
	table["stosb"] = stosWidth(8)
	table["stosw"] = stosWidth(16)
	table["stosd"] = stosWidth(32)
	table["stosq"] = stosWidth(64)

	lodsWidth := func(width uint) Transformer {
		return func(ctx *Context, ops []operand.Operand) Result {
			aName := aRegForWidth(width)
			addr := ctx.Store.ReadReg(siIndexRegName(ctx.Store.W))
			ctx.Store.WriteReg(aName, ctx.Store.ReadMem(addr, width, ctx.Img))
			advanceIndex(ctx, siIndexRegName(ctx.Store.W), width/8)
			return Result{}
		}
	}
	table["lodsb"] = lodsWidth(8)
	table["lodsw"] = lodsWidth(16)
	table["lodsd"] = lodsWidth(32)
	table["lodsq"] = lodsWidth(64)

	movsWidth := func(width uint) Transformer {
		return func(ctx *Context, ops []operand.Operand) Result {
			srcAddr := ctx.Store.ReadReg(siIndexRegName(ctx.Store.W))
			dstAddr := ctx.Store.ReadReg(diIndexRegName(ctx.Store.W))
			ctx.Store.WriteMem(dstAddr, ctx.Store.ReadMem(srcAddr, width, ctx.Img))
			advanceIndex(ctx, siIndexRegName(ctx.Store.W), width/8)
			advanceIndex(ctx, diIndexRegName(ctx.Store.W), width/8)
			return Result{}
		}
	}
	table["movsb"] = movsWidth(8)
	table["movsw"] = movsWidth(16)
	table["movsd"] = movsWidth(32)
	table["movsq"] = movsWidth(64)

	cmpsWidth := func(width uint) Transformer {
		return func(ctx *Context, ops []operand.Operand) Result {
			srcAddr := ctx.Store.ReadReg(siIndexRegName(ctx.Store.W))
			dstAddr := ctx.Store.ReadReg(diIndexRegName(ctx.Store.W))
			a := ctx.Store.ReadMem(dstAddr, width, ctx.Img)
			b := ctx.Store.ReadMem(srcAddr, width, ctx.Img)
			res := ctx.Store.Oracle.Sub(a, b)
			setArithFlags(ctx.Store, a, b, res, false)
			advanceIndex(ctx, siIndexRegName(ctx.Store.W), width/8)
			advanceIndex(ctx, diIndexRegName(ctx.Store.W), width/8)
			return Result{}
		}
	}
	table["cmpsb"] = cmpsWidth(8)
	table["cmpsw"] = cmpsWidth(16)
	table["cmpsd"] = cmpsWidth(32)
	table["cmpsq"] = cmpsWidth(64)

	scasWidth := func(width uint) Transformer {
		return func(ctx *Context, ops []operand.Operand) Result {
			aName := aRegForWidth(width)
			a := ctx.Store.ReadReg(aName)
			addr := ctx.Store.ReadReg(diIndexRegName(ctx.Store.W))
			b := ctx.Store.ReadMem(addr, width, ctx.Img)
			res := ctx.Store.Oracle.Sub(a, b)
			setArithFlags(ctx.Store, a, b, res, false)
			advanceIndex(ctx, diIndexRegName(ctx.Store.W), width/8)
			return Result{}
		}
	}
	table["scasb"] = scasWidth(8)
	table["scasw"] = scasWidth(16)
	table["scasd"] = scasWidth(32)
	table["scasq"] = scasWidth(64)
}

// repLoop implements the resolved reading of spec §4.2's rep family:
// iterate while RCX != 0, decrementing RCX after each inner step and
// additionally stopping on the zero-flag condition the prefix names.
// A symbolic RCX terminates the loop immediately through Unknown: all
// flags become unknown and each memory operand written out in the
// inner instruction's text gets a fresh value. The implicit
// destinations of an operand-less form (stosb's [RDI], lodsb's AL) and
// the index registers are left as they are.
func repLoop(ctx *Context, innerText string, zfMode int) Result {
	rcx := ctx.Store.ReadReg("rcx")
	if !rcx.IsConst() {
		_, rest, _ := strings.Cut(innerText, " ")
		ops := parseOperands(rest)
		return Unknown(ctx, ops)
	}

	count := rcx.Val.Uint64()
	for count != 0 {
		res := Interpret(ctx, innerText)
		if res.Suspend {
			return res
		}
		count--
		ctx.Store.WriteReg("rcx", bv.Const(count, 64))

		if zfMode != 0 {
			zf := ctx.Store.GetFlag(state.ZF)
			if zf == bv.Unknown {
				break
			}
			if zfMode == 1 && zf == bv.False {
				break
			}
			if zfMode == 2 && zf == bv.True {
				break
			}
		}
	}
	return Result{}
}
