package operand

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/state"
)

// simpleOperator splits a bracket expression into tokens and the
// +/-/* operators joining them, mirroring the original
// implementation's left-to-right formula evaluator (multiplication
// binds first, then a left-to-right fold of +/-). Canonical text per
// spec §6 never has spaces around these operators.
var simpleOperator = regexp.MustCompile(`([+\-*])`)

// EffectiveAddress computes the bitvector address denoted by a memory
// operand's bracket expression, per spec §4.2.1/§4.1.3 and grounded on
// the original implementation's calc_effective_address /
// get_effective_address. rip is the address of the current
// instruction, used to fold "rip+<hex>" operands (spec §6's
// canonicalization contract keeps rip-relative operands in that exact
// form).
func EffectiveAddress(s *state.Store, rip uint64, op Operand) bv.BitVec {
	width := s.W
	if strings.Contains(op.MemExpr, "rip") {
		folded := strings.ReplaceAll(op.MemExpr, "rip", "0x"+strconv.FormatUint(rip, 16))
		addr := evalConstExpr(folded, width)
		return addAddrSeg(s, op.Seg, addr, width)
	}
	addr := calcEffectiveAddress(s, op.MemExpr, width)
	return addAddrSeg(s, op.Seg, addr, width)
}

func addAddrSeg(s *state.Store, seg string, addr bv.BitVec, width uint) bv.BitVec {
	if seg == "" {
		return addr
	}
	base := s.Seg[seg]
	return s.Oracle.Add(base, addr)
}

func tokenize(expr string) []string {
	expr = strings.ReplaceAll(expr, " ", "")
	parts := simpleOperator.Split(expr, -1)
	ops := simpleOperator.FindAllString(expr, -1)
	out := make([]string, 0, len(parts)+len(ops))
	for i, p := range parts {
		if p != "" {
			out = append(out, p)
		}
		if i < len(ops) {
			out = append(out, ops[i])
		}
	}
	return out
}

// evalConstExpr evaluates a +/-/* expression over plain hex/decimal
// literals, used only after rip substitution.
func evalConstExpr(expr string, width uint) bv.BitVec {
	toks := tokenize(expr)
	vals := []bv.BitVec{}
	ops := []string{}
	for _, t := range toks {
		if t == "+" || t == "-" || t == "*" {
			ops = append(ops, t)
			continue
		}
		v, _ := parseImm(t)
		vals = append(vals, bv.ConstSigned(v, width))
	}
	return foldConst(vals, ops)
}

func foldConst(vals []bv.BitVec, ops []string) bv.BitVec {
	if len(vals) == 0 {
		return bv.Const(0, 64)
	}
	// multiplication first
	i := 0
	for i < len(ops) {
		if ops[i] == "*" {
			prod := vals[i].Val.Uint64() * vals[i+1].Val.Uint64()
			vals[i] = bv.Const(prod, vals[i].Width)
			vals = append(vals[:i+1], vals[i+2:]...)
			ops = append(ops[:i], ops[i+1:]...)
			continue
		}
		i++
	}
	res := vals[0]
	for idx, op := range ops {
		rhs := vals[idx+1]
		switch op {
		case "+":
			res = bv.Const(res.Val.Uint64()+rhs.Val.Uint64(), res.Width)
		case "-":
			res = bv.ConstSigned(int64(res.Val.Uint64())-int64(rhs.Val.Uint64()), res.Width)
		}
	}
	return res
}

// calcEffectiveAddress evaluates a register/immediate arithmetic
// expression like "rax+rbx*1+0" against the live store, grounded on
// sym_memory.py's calc_effective_address / eval_simple_formula.
func calcEffectiveAddress(s *state.Store, expr string, width uint) bv.BitVec {
	toks := tokenize(expr)
	vals := make([]bv.BitVec, 0, len(toks))
	ops := make([]string, 0, len(toks))
	for _, t := range toks {
		if t == "+" || t == "-" || t == "*" {
			ops = append(ops, t)
			continue
		}
		vals = append(vals, resolveToken(s, t, width))
	}
	return foldSym(s, vals, ops)
}

func resolveToken(s *state.Store, tok string, width uint) bv.BitVec {
	if v, ok := parseImm(tok); ok {
		return bv.ConstSigned(v, width)
	}
	val := s.ReadReg(tok)
	if val.Width == width {
		return val
	}
	if val.Width < width {
		return s.Oracle.ZeroExtend(width, val)
	}
	return s.Oracle.Extract(width-1, 0, val)
}

func foldSym(s *state.Store, vals []bv.BitVec, ops []string) bv.BitVec {
	if len(vals) == 0 {
		return bv.Const(0, s.W)
	}
	i := 0
	for i < len(ops) {
		if ops[i] == "*" {
			vals[i] = s.Oracle.Mul(vals[i], vals[i+1])
			vals = append(vals[:i+1], vals[i+2:]...)
			ops = append(ops[:i], ops[i+1:]...)
			continue
		}
		i++
	}
	res := vals[0]
	for idx, op := range ops {
		rhs := vals[idx+1]
		switch op {
		case "+":
			res = s.Oracle.Add(res, rhs)
		case "-":
			res = s.Oracle.Sub(res, rhs)
		}
	}
	return res
}
