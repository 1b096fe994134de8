package bv

import (
	"fmt"
	"math/big"
	"sync/atomic"
)

// ConcreteOracle is the all-concrete stub sanctioned by spec §9 ("SMT
// oracle is an injected interface, not a hard dependency, so tests may
// use an all-concrete stub"). It const-folds whenever every operand is
// concrete; any symbolic operand yields a deterministically-named
// fresh result, since there is no solver backing symbolic arithmetic.
// A real solver-backed Oracle would instead build an expression node;
// nothing outside this package depends on which happens.
type ConcreteOracle struct {
	counter atomic.Uint64
	prefix  string
}

// NewConcreteOracle builds a stub oracle. prefix namespaces the fresh
// symbols it mints (e.g. by exploration run), so two independent
// oracles seeded the same way produce the same symbol sequence —
// the determinism spec §8 requires of re-executing identical traces.
func NewConcreteOracle(prefix string) *ConcreteOracle {
	return &ConcreteOracle{prefix: prefix}
}

func (o *ConcreteOracle) Fresh(width uint) BitVec {
	n := o.counter.Add(1)
	return Symbol(fmt.Sprintf("%sfresh!%d", o.prefix, n), width)
}

func (o *ConcreteOracle) binFold(a, b BitVec, f func(x, y *big.Int) *big.Int, width uint) BitVec {
	if a.IsConst() && b.IsConst() {
		return BitVec{Width: width, Val: maskVal(f(a.Val, b.Val), width)}
	}
	return o.Fresh(width)
}

func (o *ConcreteOracle) Add(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Add(x, y) }, a.Width)
}

func (o *ConcreteOracle) Sub(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Sub(x, y) }, a.Width)
}

func (o *ConcreteOracle) And(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).And(x, y) }, a.Width)
}

func (o *ConcreteOracle) Or(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Or(x, y) }, a.Width)
}

func (o *ConcreteOracle) Xor(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Xor(x, y) }, a.Width)
}

func (o *ConcreteOracle) Shl(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int {
		return new(big.Int).Lsh(x, uint(y.Uint64()))
	}, a.Width)
}

func (o *ConcreteOracle) Lshr(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int {
		return new(big.Int).Rsh(x, uint(y.Uint64()))
	}, a.Width)
}

func (o *ConcreteOracle) Ashr(a, b BitVec) BitVec {
	if a.IsConst() && b.IsConst() {
		signed := toSigned(a.Val, a.Width)
		shifted := new(big.Int).Rsh(signed, uint(b.Val.Uint64()))
		return ConstSigned(shifted.Int64(), a.Width)
	}
	return o.Fresh(a.Width)
}

func (o *ConcreteOracle) Mul(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) }, a.Width)
}

func (o *ConcreteOracle) SMul(a, b BitVec) BitVec {
	if a.IsConst() && b.IsConst() {
		prod := new(big.Int).Mul(toSigned(a.Val, a.Width), toSigned(b.Val, b.Width))
		w := a.Width + b.Width
		if prod.Sign() < 0 {
			prod.Add(prod, new(big.Int).Lsh(big.NewInt(1), w))
		}
		return ConstBig(prod, w)
	}
	return o.Fresh(a.Width + b.Width)
}

func (o *ConcreteOracle) UMul(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) }, a.Width+b.Width)
}

func (o *ConcreteOracle) UDiv(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int {
		if y.Sign() == 0 {
			return big.NewInt(0)
		}
		return new(big.Int).Div(x, y)
	}, a.Width)
}

func (o *ConcreteOracle) SDiv(a, b BitVec) BitVec {
	if a.IsConst() && b.IsConst() {
		ys := toSigned(b.Val, b.Width)
		if ys.Sign() == 0 {
			return ConstSigned(0, a.Width)
		}
		xs := toSigned(a.Val, a.Width)
		q := new(big.Int).Quo(xs, ys)
		return ConstSigned(q.Int64(), a.Width)
	}
	return o.Fresh(a.Width)
}

func (o *ConcreteOracle) UMod(a, b BitVec) BitVec {
	return o.binFold(a, b, func(x, y *big.Int) *big.Int {
		if y.Sign() == 0 {
			return big.NewInt(0)
		}
		return new(big.Int).Mod(x, y)
	}, a.Width)
}

func (o *ConcreteOracle) SMod(a, b BitVec) BitVec {
	if a.IsConst() && b.IsConst() {
		ys := toSigned(b.Val, b.Width)
		if ys.Sign() == 0 {
			return ConstSigned(0, a.Width)
		}
		xs := toSigned(a.Val, a.Width)
		r := new(big.Int).Rem(xs, ys)
		return ConstSigned(r.Int64(), a.Width)
	}
	return o.Fresh(a.Width)
}

func (o *ConcreteOracle) Not(a BitVec) BitVec {
	if a.IsConst() {
		return BitVec{Width: a.Width, Val: maskVal(new(big.Int).Not(a.Val), a.Width)}
	}
	return o.Fresh(a.Width)
}

func (o *ConcreteOracle) Neg(a BitVec) BitVec {
	if a.IsConst() {
		return BitVec{Width: a.Width, Val: maskVal(new(big.Int).Neg(a.Val), a.Width)}
	}
	return o.Fresh(a.Width)
}

func (o *ConcreteOracle) Extract(hi, lo uint, a BitVec) BitVec {
	width := hi - lo + 1
	if a.IsConst() {
		v := new(big.Int).Rsh(a.Val, lo)
		return BitVec{Width: width, Val: maskVal(v, width)}
	}
	return o.Fresh(width)
}

func (o *ConcreteOracle) Concat(parts ...BitVec) BitVec {
	allConst := true
	totalWidth := uint(0)
	for _, p := range parts {
		totalWidth += p.Width
		if !p.IsConst() {
			allConst = false
		}
	}
	if !allConst {
		return o.Fresh(totalWidth)
	}
	res := new(big.Int)
	for _, p := range parts {
		res.Lsh(res, p.Width)
		res.Or(res, p.Val)
	}
	return BitVec{Width: totalWidth, Val: maskVal(res, totalWidth)}
}

func (o *ConcreteOracle) SignExtend(toWidth uint, a BitVec) BitVec {
	if a.IsConst() {
		return ConstSigned(toSigned(a.Val, a.Width).Int64(), toWidth)
	}
	return o.Fresh(toWidth)
}

func (o *ConcreteOracle) ZeroExtend(toWidth uint, a BitVec) BitVec {
	if a.IsConst() {
		return BitVec{Width: toWidth, Val: maskVal(a.Val, toWidth)}
	}
	return o.Fresh(toWidth)
}

func (o *ConcreteOracle) Eq(a, b BitVec) Tri {
	if a.IsConst() && b.IsConst() {
		return TriOf(a.Val.Cmp(b.Val) == 0)
	}
	if !a.IsConst() && !b.IsConst() && a.Sym == b.Sym && a.Width == b.Width {
		return True
	}
	return Unknown
}

func (o *ConcreteOracle) ULT(a, b BitVec) Tri {
	if a.IsConst() && b.IsConst() {
		return TriOf(a.Val.Cmp(b.Val) < 0)
	}
	return Unknown
}

func (o *ConcreteOracle) SLT(a, b BitVec) Tri {
	if a.IsConst() && b.IsConst() {
		return TriOf(toSigned(a.Val, a.Width).Cmp(toSigned(b.Val, b.Width)) < 0)
	}
	return Unknown
}

func (o *ConcreteOracle) MSB(a BitVec) Tri {
	if a.IsConst() {
		bit := new(big.Int).Rsh(a.Val, a.Width-1)
		return TriOf(bit.Bit(0) == 1)
	}
	return Unknown
}

func (o *ConcreteOracle) LSB(a BitVec) Tri {
	if a.IsConst() {
		return TriOf(a.Val.Bit(0) == 1)
	}
	return Unknown
}

func (o *ConcreteOracle) Sat(assumptions []Assumption) (bool, map[string]BitVec) {
	model := map[string]BitVec{}
	for _, as := range assumptions {
		switch {
		case as.LHS.IsConst() && as.RHS.IsConst():
			if as.LHS.Val.Cmp(as.RHS.Val) != 0 {
				return false, nil
			}
		case !as.LHS.IsConst() && as.RHS.IsConst():
			model[as.LHS.Sym] = as.RHS
		case as.LHS.IsConst() && !as.RHS.IsConst():
			model[as.RHS.Sym] = as.LHS
		default:
			// Two distinct symbols: assume satisfiable, no binding
			// recoverable without a real solver.
		}
	}
	return true, model
}

func toSigned(v *big.Int, width uint) *big.Int {
	signBit := new(big.Int).Lsh(big.NewInt(1), width-1)
	if v.Cmp(signBit) < 0 {
		return new(big.Int).Set(v)
	}
	full := new(big.Int).Lsh(big.NewInt(1), width)
	return new(big.Int).Sub(v, full)
}
