package semantics

import (
	"math/bits"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/state"
)

// isNeg/isPos read a bitvector's sign bit tri-valued, grounded on
// smt_helper.py's is_neg/is_pos via most_significant_bit.
func isNeg(o bv.Oracle, v bv.BitVec) bv.Tri { return o.MSB(v) }
func isPos(o bv.Oracle, v bv.BitVec) bv.Tri { return bv.Not(o.MSB(v)) }

// setOF implements smt_helper.py's set_OF_flag: for addition, overflow
// iff both operands share a sign and the result doesn't match it; for
// subtraction, iff the operands have different signs and the result
// matches the subtrahend's sign.
func setOF(s *state.Store, dest, src, res bv.BitVec, isAdd bool) {
	o := s.Oracle
	var case1, case2 bv.Tri
	if isAdd {
		case1 = bv.And(bv.And(isNeg(o, dest), isNeg(o, src)), isPos(o, res))
		case2 = bv.And(bv.And(isPos(o, dest), isPos(o, src)), isNeg(o, res))
	} else {
		case1 = bv.And(bv.And(isNeg(o, dest), isPos(o, src)), isPos(o, res))
		case2 = bv.And(bv.And(isPos(o, dest), isNeg(o, src)), isNeg(o, res))
	}
	s.SetFlag(state.OF, bv.Or(case1, case2))
}

// setCF implements smt_helper.py's set_CF_flag: unsigned-less-than for
// subtraction, and the zero-extend-then-add-then-take-MSB technique
// for addition carry detection.
func setCF(s *state.Store, dest, src bv.BitVec, isAdd bool) {
	o := s.Oracle
	if isAdd {
		extDest := o.ZeroExtend(dest.Width+1, dest)
		extSrc := o.ZeroExtend(src.Width+1, src)
		sum := o.Add(extDest, extSrc)
		s.SetFlag(state.CF, o.MSB(sum))
	} else {
		s.SetFlag(state.CF, o.ULT(dest, src))
	}
}

// modifyStatusFlags implements smt_helper.py's modify_status_flags:
// ZF/SF from the result directly, PF from the parity of the low byte.
func modifyStatusFlags(s *state.Store, res bv.BitVec) {
	o := s.Oracle
	s.SetFlag(state.ZF, o.Eq(res, bv.Const(0, res.Width)))
	s.SetFlag(state.SF, o.MSB(res))
	s.SetFlag(state.PF, parityOfLowByte(o, res))
}

func parityOfLowByte(o bv.Oracle, v bv.BitVec) bv.Tri {
	low := v
	if v.Width > 8 {
		low = o.Extract(7, 0, v)
	}
	if !low.IsConst() {
		return bv.Unknown
	}
	// PF is set when the low byte has an even number of set bits.
	return bv.TriOf(bits.OnesCount64(low.Val.Uint64())%2 == 0)
}

func setArithFlags(s *state.Store, dest, src, res bv.BitVec, isAdd bool) {
	setCF(s, dest, src, isAdd)
	if isAdd {
		setOF(s, dest, src, res, true)
	} else {
		setOF(s, dest, src, res, false)
	}
	modifyStatusFlags(s, res)
}

func setLogicFlags(s *state.Store, res bv.BitVec) {
	s.SetFlag(state.CF, bv.False)
	s.SetFlag(state.OF, bv.False)
	modifyStatusFlags(s, res)
}
