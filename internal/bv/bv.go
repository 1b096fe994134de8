// Package bv is the bitvector oracle: a thin adapter over a bitvector
// theory that the rest of the symbolic interpreter treats as injected.
// The only implementation shipped here is an all-concrete stub — it
// const-folds whenever both operands are concrete and otherwise hands
// back a deterministically-named fresh symbol. A solver-backed oracle
// can implement the same Oracle interface without touching any other
// package.
package bv

import (
	"fmt"
	"math/big"
)

// Tri is a three-valued logic result: True, False, or Unknown. Do not
// conflate Unknown with False — callers that need a bool must branch
// on all three values explicitly.
type Tri int

const (
	Unknown Tri = iota
	True
	False
)

func (t Tri) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Bool converts a literal Tri to a bool; ok is false for Unknown.
func (t Tri) Bool() (val bool, ok bool) {
	switch t {
	case True:
		return true, true
	case False:
		return false, true
	default:
		return false, false
	}
}

func TriOf(b bool) Tri {
	if b {
		return True
	}
	return False
}

func Not(t Tri) Tri {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

func And(a, b Tri) Tri {
	if a == False || b == False {
		return False
	}
	if a == True && b == True {
		return True
	}
	return Unknown
}

func Or(a, b Tri) Tri {
	if a == True || b == True {
		return True
	}
	if a == False && b == False {
		return False
	}
	return Unknown
}

// BitVec is a fixed-width machine value: either a concrete literal or
// a named free symbol. Width is in bits.
type BitVec struct {
	Width uint
	Sym   string   // "" for a concrete value
	Val   *big.Int // meaningful only when Sym == ""
}

func (b BitVec) IsConst() bool { return b.Sym == "" }

func (b BitVec) String() string {
	if b.IsConst() {
		return fmt.Sprintf("0x%x:%d", b.Val, b.Width)
	}
	return fmt.Sprintf("%s:%d", b.Sym, b.Width)
}

func mask(width uint) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), width)
	return m.Sub(m, big.NewInt(1))
}

func maskVal(v *big.Int, width uint) *big.Int {
	r := new(big.Int).And(v, mask(width))
	return r
}

// Const builds a concrete bitvector of the given width from an
// unsigned integer, masking to width.
func Const(val uint64, width uint) BitVec {
	return BitVec{Width: width, Val: maskVal(new(big.Int).SetUint64(val), width)}
}

// ConstBig is Const for values that don't fit in a uint64 (xmmword).
func ConstBig(val *big.Int, width uint) BitVec {
	return BitVec{Width: width, Val: maskVal(val, width)}
}

// ConstSigned builds a concrete bitvector from a signed integer,
// wrapping to the two's-complement representation at width.
func ConstSigned(val int64, width uint) BitVec {
	b := big.NewInt(val)
	if val < 0 {
		b.Add(b, new(big.Int).Lsh(big.NewInt(1), width))
	}
	return BitVec{Width: width, Val: maskVal(b, width)}
}

// Symbol builds a named free variable of the given width. Two symbols
// with the same name and width are the same variable.
func Symbol(name string, width uint) BitVec {
	return BitVec{Width: width, Sym: name}
}

// AsUint64 returns the concrete value truncated to 64 bits, with ok
// false for a symbolic value.
func (b BitVec) AsUint64() (uint64, bool) {
	if !b.IsConst() {
		return 0, false
	}
	return b.Val.Uint64(), true
}

// Oracle is the bitvector theory the rest of the interpreter is
// written against. It canonicalizes (const-folds) after every binary
// operation, per the data-model invariant in spec §3.1.
type Oracle interface {
	Fresh(width uint) BitVec

	Add(a, b BitVec) BitVec
	Sub(a, b BitVec) BitVec
	And(a, b BitVec) BitVec
	Or(a, b BitVec) BitVec
	Xor(a, b BitVec) BitVec
	Shl(a, b BitVec) BitVec
	Lshr(a, b BitVec) BitVec
	Ashr(a, b BitVec) BitVec
	Mul(a, b BitVec) BitVec
	SMul(a, b BitVec) BitVec // returns 2*width product
	UMul(a, b BitVec) BitVec // returns 2*width product
	UDiv(a, b BitVec) BitVec
	SDiv(a, b BitVec) BitVec
	UMod(a, b BitVec) BitVec
	SMod(a, b BitVec) BitVec

	Not(a BitVec) BitVec // bitwise negate
	Neg(a BitVec) BitVec // arithmetic (two's-complement) negate

	Extract(hi, lo uint, a BitVec) BitVec
	Concat(parts ...BitVec) BitVec
	SignExtend(toWidth uint, a BitVec) BitVec
	ZeroExtend(toWidth uint, a BitVec) BitVec

	Eq(a, b BitVec) Tri
	ULT(a, b BitVec) Tri
	SLT(a, b BitVec) Tri
	MSB(a BitVec) Tri
	LSB(a BitVec) Tri

	// Sat checks whether the equality assumptions are jointly
	// satisfiable and, if so, returns a witness binding for any
	// symbols that can be determined. The concrete-stub
	// implementation only resolves the trivial cases (both sides
	// concrete, or one side a bare symbol); anything harder is
	// reported satisfiable with an empty model, matching an
	// injected-oracle contract a real solver could refine without
	// changing callers.
	Sat(assumptions []Assumption) (sat bool, model map[string]BitVec)
}

// Assumption is an equality constraint fed to Sat.
type Assumption struct {
	LHS, RHS BitVec
}
