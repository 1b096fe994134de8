package semantics

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/state"
)

func shiftCountMask(width uint) uint64 {
	if width == 64 {
		return 0x3f
	}
	return 0x1f
}

func bitAt(o bv.Oracle, v bv.BitVec, idx uint) bv.Tri {
	if idx >= v.Width {
		return bv.Unknown
	}
	return o.Eq(o.Extract(idx, idx, v), bv.Const(1, 1))
}

// registerShiftRotate implements spec §4.2's "Shifts/rotates with
// carry semantics" family: shl/sal, shr, sar, ror, rol. A symbolic
// count makes the destination unknown and clears all flags to
// unknown; OF is only ever a literal after a single-position shift or
// rotate, per the Intel manual rule spec §4.2 calls out for rotates
// and this port applies uniformly to the plain shifts as well.
func registerShiftRotate(table map[string]Transformer) {
	table["shl"] = shiftOp(shlRshKind)
	table["sal"] = shiftOp(shlRshKind)
	table["shr"] = shiftOp(shrKind)
	table["sar"] = shiftOp(sarKind)
	table["ror"] = rotateOp(false)
	table["rol"] = rotateOp(true)
}

type shiftKind int

const (
	shlRshKind shiftKind = iota
	shrKind
	sarKind
)

func shiftOp(kind shiftKind) Transformer {
	return func(ctx *Context, ops []operand.Operand) Result {
		dest := readOperand(ctx, ops[0])
		countVal := readOperand(ctx, ops[1])
		o := ctx.Store.Oracle
		w := dest.Width

		if !countVal.IsConst() {
			writeOperand(ctx, ops[0], o.Fresh(w))
			ctx.Store.ResetAllFlags()
			return Result{}
		}
		count := countVal.Val.Uint64() & shiftCountMask(w)
		if count == 0 {
			return Result{}
		}

		countBV := bv.Const(count, w)
		var res bv.BitVec
		var cf bv.Tri
		switch kind {
		case shlRshKind:
			res = o.Shl(dest, countBV)
			if count <= uint64(w) {
				cf = bitAt(o, dest, uint(w-uint(count)))
			}
		case shrKind:
			res = o.Lshr(dest, countBV)
			if count >= 1 && count <= uint64(w) {
				cf = bitAt(o, dest, uint(count-1))
			}
		case sarKind:
			res = o.Ashr(dest, countBV)
			if count >= 1 && count <= uint64(w) {
				cf = bitAt(o, dest, uint(count-1))
			}
		}
		writeOperand(ctx, ops[0], res)
		ctx.Store.SetFlag(state.CF, cf)
		if count == 1 {
			switch kind {
			case shlRshKind:
				ctx.Store.SetFlag(state.OF, xorTri(o.MSB(res), cf))
			case shrKind:
				ctx.Store.SetFlag(state.OF, o.MSB(dest))
			case sarKind:
				ctx.Store.SetFlag(state.OF, bv.False)
			}
		} else {
			ctx.Store.SetFlag(state.OF, bv.Unknown)
		}
		modifyStatusFlags(ctx.Store, res)
		return Result{}
	}
}

func xorTri(a, b bv.Tri) bv.Tri {
	if a == bv.Unknown || b == bv.Unknown {
		return bv.Unknown
	}
	return bv.TriOf((a == bv.True) != (b == bv.True))
}

func rotateOp(left bool) Transformer {
	return func(ctx *Context, ops []operand.Operand) Result {
		dest := readOperand(ctx, ops[0])
		countVal := readOperand(ctx, ops[1])
		o := ctx.Store.Oracle
		w := dest.Width

		if !countVal.IsConst() {
			writeOperand(ctx, ops[0], o.Fresh(w))
			ctx.Store.ResetAllFlags()
			return Result{}
		}
		masked := countVal.Val.Uint64() & shiftCountMask(w)
		effective := masked % uint64(w)
		if effective == 0 {
			return Result{} // no-op, CF/OF unchanged
		}

		var res bv.BitVec
		left1 := bv.Const(effective, w)
		right1 := bv.Const(uint64(w)-effective, w)
		if left {
			res = o.Or(o.Shl(dest, left1), o.Lshr(dest, right1))
		} else {
			res = o.Or(o.Lshr(dest, left1), o.Shl(dest, right1))
		}
		writeOperand(ctx, ops[0], res)

		var cf bv.Tri
		if left {
			cf = bitAt(o, res, 0)
		} else {
			cf = bitAt(o, res, w-1)
		}
		ctx.Store.SetFlag(state.CF, cf)
		if effective == 1 {
			if left {
				ctx.Store.SetFlag(state.OF, xorTri(o.MSB(res), cf))
			} else {
				top2 := o.Extract(w-1, w-2, res)
				hi := bitAt(o, top2, 1)
				next := bitAt(o, top2, 0)
				ctx.Store.SetFlag(state.OF, xorTri(hi, next))
			}
		} else {
			ctx.Store.SetFlag(state.OF, bv.Unknown)
		}
		return Result{}
	}
}
