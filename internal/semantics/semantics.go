// Package semantics is the mnemonic-indexed dispatcher of per-
// instruction state transformers described in spec §4.2. Each
// transformer receives the store, the current instruction pointer,
// and the parsed operand list, and mutates the store in place.
package semantics

import (
	"strings"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/config"
	"github.com/vtsse/dsvcheck/internal/extcall"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/state"
)

// Context carries everything a transformer needs besides the operand
// list itself.
type Context struct {
	Store   *state.Store
	Rip     uint64 // address of the instruction being interpreted
	NextRip uint64 // fall-through address, used by call to push a return address
	Img     state.BinaryInfo
	Cfg     config.Config
	Heap    *extcall.Heap
}

// Result reports what a transformer did beyond mutating the store.
type Result struct {
	// Suspend means "stop descending this path": set by hlt and by
	// the unknown-mnemonic fallback (spec §4.2's "Unknown mnemonic").
	Suspend bool

	// RetTarget is set by the ret transformer to the value popped
	// from [SP], before SP was advanced further by an immediate
	// operand — the explorer decides whether it is concrete or
	// symbolic (spec §4.3's ret expansion rule).
	RetTarget *bv.BitVec

	// PushedReturn is set by call to the address it pushed, so
	// the explorer can classify a subsequent ret as returning to the
	// expected frame (spec §5's "ret that leaves the entry frame").
	PushedReturn *bv.BitVec
}

// Transformer is one mnemonic's state transformer.
type Transformer func(ctx *Context, ops []operand.Operand) Result

var table map[string]Transformer

func init() {
	table = map[string]Transformer{}
	registerMove(table)
	registerArith(table)
	registerMulDiv(table)
	registerCompare(table)
	registerConditional(table)
	registerShiftRotate(table)
	registerSignExtend(table)
	registerStack(table)
	registerCAS(table)
	registerBitTest(table)
	registerStrings(table)
	registerControl(table)
	registerFPUStubs(table)
}

// Lookup returns the mnemonic's transformer, stripping the "lock " and
// "data16 " prefixes the original instruction stream may carry (spec's
// canonicalization contract doesn't forbid them, and the original
// implementation explicitly strips both before dispatch).
func Lookup(mnemonic string) (Transformer, bool) {
	mnemonic = strings.TrimPrefix(mnemonic, "lock ")
	mnemonic = strings.TrimPrefix(mnemonic, "data16 ")
	t, ok := table[mnemonic]
	return t, ok
}

// Unknown applies spec §4.2's "Unknown mnemonic" fallback: clears all
// flags, writes fresh unknown symbols to any memory-operand
// destinations, and signals suspend.
func Unknown(ctx *Context, ops []operand.Operand) Result {
	ctx.Store.ResetAllFlags()
	for _, op := range ops {
		if op.Kind == operand.KindMem {
			w := operand.EffectiveWidth(op, ctx.Store.W)
			addr := operand.EffectiveAddress(ctx.Store, ctx.Rip, op)
			ctx.Store.WriteMem(addr, ctx.Store.Oracle.Fresh(w))
		}
	}
	return Result{Suspend: true}
}

// readOperand reads an operand's current value at its effective width.
func readOperand(ctx *Context, op operand.Operand) bv.BitVec {
	w := operand.EffectiveWidth(op, ctx.Store.W)
	switch op.Kind {
	case operand.KindReg:
		return ctx.Store.ReadReg(op.Reg)
	case operand.KindImm:
		return bv.ConstSigned(op.Imm, w)
	case operand.KindMem:
		addr := operand.EffectiveAddress(ctx.Store, ctx.Rip, op)
		return ctx.Store.ReadMem(addr, w, ctx.Img)
	case operand.KindPair:
		hi := ctx.Store.ReadReg(op.PairHi)
		lo := ctx.Store.ReadReg(op.PairLo)
		return ctx.Store.Oracle.Concat(hi, lo)
	}
	return bv.BitVec{}
}

// writeOperand writes val to a register or memory destination operand.
func writeOperand(ctx *Context, op operand.Operand, val bv.BitVec) {
	switch op.Kind {
	case operand.KindReg:
		ctx.Store.WriteReg(op.Reg, val)
	case operand.KindMem:
		addr := operand.EffectiveAddress(ctx.Store, ctx.Rip, op)
		ctx.Store.WriteMem(addr, val)
	case operand.KindPair:
		w := val.Width
		hiW := w / 2
		ctx.Store.WriteReg(op.PairHi, ctx.Store.Oracle.Extract(w-1, hiW, val))
		ctx.Store.WriteReg(op.PairLo, ctx.Store.Oracle.Extract(hiW-1, 0, val))
	}
}
