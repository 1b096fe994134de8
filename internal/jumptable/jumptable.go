// Package jumptable implements the indirect-jump recovery procedure
// spec §4.4 describes: backtrack to the function entry, find the row
// load and its bound, enumerate concrete table entries straight from
// the binary image, then fork and replay the trace suffix once per
// entry to collect the resulting targets.
package jumptable

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/config"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/semantics"
	"github.com/vtsse/dsvcheck/internal/state"
)

// Step is one (address, instruction, pre-state) triple from the
// caller's backtrack trace, oldest first, ending with the indirect
// jump/call itself.
type Step struct {
	Addr     uint64
	InstText string
	Pre      *state.Store
}

// Result is the recovered table: the decoded bound and the distinct
// concrete targets reached by forking at each entry, in read order.
type Result struct {
	Bound   uint64
	Targets []uint64
}

var rowExpr = regexp.MustCompile(`^(0x[0-9a-fA-F]+)\+([a-z][a-z0-9]*)\*([1248])$`)

// boundMnemonics maps each conditional-branch mnemonic spec §4.4 names
// (and its negation, which shares the same underlying comparison) to
// whether it decodes a strict bound (B = N+1) or a non-strict one
// (B = N).
var boundMnemonics = map[string]bool{
	"ja": true, "jna": true,
	"jae": false, "jnae": false,
	"jg": true, "jng": true,
	"jge": false, "jnge": false,
}

// Recover runs the procedure over a backtrack trace that ends at the
// indirect jump/call instruction. It returns ok=false whenever any
// stage of spec §4.4 can't resolve — recorded as an unresolved jump by
// the caller, never a fatal error.
func Recover(trace []Step, cfg config.Config, img state.BinaryInfo) (Result, bool) {
	if len(trace) == 0 {
		return Result{}, false
	}
	if len(trace) > cfg.MaxTracebackCount {
		trace = trace[len(trace)-cfg.MaxTracebackCount:]
	}

	rowIdx, destReg, signed, m, direct := locateRowLoad(trace)
	if rowIdx < 0 {
		return Result{}, false
	}

	base, indexReg, scale, ok := parseRowExpr(m)
	if !ok {
		return Result{}, false
	}

	bound, ok := locateBound(trace, rowIdx, indexReg)
	if !ok {
		return Result{}, false
	}

	entries := make([]uint64, 0, bound)
	seen := make(map[uint64]bool, bound)
	for i := uint64(0); i < bound; i++ {
		addr := base + i*scale
		raw, ok := img.ReadBytes(addr, uint(scale))
		if !ok {
			return Result{}, false
		}
		entry := extendEntry(raw, scale, signed, cfg.AddrWidth)
		if seen[entry] {
			continue
		}
		seen[entry] = true
		entries = append(entries, entry)
	}

	// The direct-indexed form (jmp/call [table+index*scale]) has no
	// separate row-load instruction to replay forward from: the table
	// entry itself is already the branch target, per
	// cfg_helper.py:check_jt_jmp_inst.
	if direct {
		targets := make([]uint64, len(entries))
		copy(targets, entries)
		return Result{Bound: bound, Targets: targets}, true
	}

	targets := make([]uint64, 0, len(entries))
	for _, entry := range entries {
		target, ok := replay(trace, rowIdx, destReg, entry, cfg, img)
		if !ok {
			return Result{}, false
		}
		targets = append(targets, target)
	}

	return Result{Bound: bound, Targets: targets}, true
}

// locateRowLoad scans forward for the first `mov/movzx/movsx reg,
// [base+index*scale]` whose address expression isn't rip-relative. If
// none precedes the indirect jump/call, it falls back to the jump/
// call's own memory operand when that operand is itself indexed
// (base+index*scale) — the direct-indexed form spec §8 scenario 3
// describes, where the table holds targets rather than row values fed
// through further register arithmetic.
func locateRowLoad(trace []Step) (idx int, destReg string, signed bool, memExpr string, direct bool) {
	for i, step := range trace {
		mnemonic, rest, _ := strings.Cut(step.InstText, " ")
		if mnemonic != "mov" && mnemonic != "movzx" && mnemonic != "movsx" {
			continue
		}
		parts := strings.SplitN(rest, ",", 2)
		if len(parts) != 2 {
			continue
		}
		src := operand.Parse(strings.TrimSpace(parts[1]))
		if src.Kind != operand.KindMem || strings.HasPrefix(src.MemExpr, "rip+") || !strings.Contains(src.MemExpr, "+") {
			continue
		}
		dest := operand.Parse(strings.TrimSpace(parts[0]))
		if dest.Kind != operand.KindReg {
			continue
		}
		return i, dest.Reg, mnemonic == "movsx", src.MemExpr, false
	}

	last := trace[len(trace)-1]
	mnemonic, rest, _ := strings.Cut(last.InstText, " ")
	if mnemonic != "jmp" && mnemonic != "call" {
		return -1, "", false, "", false
	}
	if strings.Contains(rest, ",") {
		return -1, "", false, "", false
	}
	op := operand.Parse(strings.TrimSpace(rest))
	if op.Kind != operand.KindMem || strings.HasPrefix(op.MemExpr, "rip+") {
		return -1, "", false, "", false
	}
	if !strings.Contains(op.MemExpr, "*") || !strings.Contains(op.MemExpr, "+") {
		return -1, "", false, "", false
	}
	return len(trace) - 1, "", false, op.MemExpr, true
}

func parseRowExpr(expr string) (base uint64, indexReg string, scale uint64, ok bool) {
	m := rowExpr.FindStringSubmatch(expr)
	if m == nil {
		return 0, "", 0, false
	}
	baseVal, err := strconv.ParseUint(m[1][2:], 16, 64)
	if err != nil {
		return 0, "", 0, false
	}
	scaleVal, _ := strconv.ParseUint(m[3], 10, 64)
	return baseVal, m[2], scaleVal, true
}

// locateBound scans backward from the row load for the nearest
// conditional branch in the ja/jae/jg/jge family (or its negation),
// then for the cmp against indexReg that supplies it with N.
func locateBound(trace []Step, rowIdx int, indexReg string) (uint64, bool) {
	for i := rowIdx - 1; i >= 0; i-- {
		mnemonic, _, _ := strings.Cut(trace[i].InstText, " ")
		strict, ok := boundMnemonics[mnemonic]
		if !ok {
			continue
		}
		n, ok := findCompareImm(trace, i, indexReg)
		if !ok {
			return 0, false
		}
		if strict {
			return n + 1, true
		}
		return n, true
	}
	return 0, false
}

func findCompareImm(trace []Step, beforeIdx int, indexReg string) (uint64, bool) {
	for i := beforeIdx - 1; i >= 0; i-- {
		mnemonic, rest, _ := strings.Cut(trace[i].InstText, " ")
		if mnemonic != "cmp" {
			continue
		}
		parts := strings.SplitN(rest, ",", 2)
		if len(parts) != 2 {
			continue
		}
		dest := operand.Parse(strings.TrimSpace(parts[0]))
		src := operand.Parse(strings.TrimSpace(parts[1]))
		if dest.Kind == operand.KindReg && dest.Reg == indexReg && src.Kind == operand.KindImm {
			return uint64(src.Imm), true
		}
		return 0, false
	}
	return 0, false
}

func extendEntry(raw uint64, scale uint64, signed bool, addrWidth uint) uint64 {
	bits := scale * 8
	if !signed || bits >= uint64(addrWidth) {
		return raw
	}
	signBit := uint64(1) << (bits - 1)
	if raw&signBit == 0 {
		return raw
	}
	return raw | (^uint64(0) << bits)
}

// replay re-executes the trace suffix strictly after the row load, in
// a clone seeded from the row load's pre-state with its destination
// register forced to entry, and returns the concrete value the final
// (indirect jump/call) instruction's operand resolves to.
func replay(trace []Step, rowIdx int, destReg string, entry uint64, cfg config.Config, img state.BinaryInfo) (uint64, bool) {
	clone := trace[rowIdx].Pre.Clone()
	clone.WriteReg(destReg, bv.Const(entry, clone.W))

	last := trace[len(trace)-1]
	for i := rowIdx + 1; i < len(trace)-1; i++ {
		step := trace[i]
		var nextRip uint64
		if i+1 < len(trace) {
			nextRip = trace[i+1].Addr
		}
		ctx := &semantics.Context{Store: clone, Rip: step.Addr, NextRip: nextRip, Img: img, Cfg: cfg}
		semantics.Interpret(ctx, step.InstText)
	}

	_, rest, _ := strings.Cut(last.InstText, " ")
	op := operand.Parse(strings.TrimSpace(rest))
	var val bv.BitVec
	switch op.Kind {
	case operand.KindReg:
		val = clone.ReadReg(op.Reg)
	case operand.KindMem:
		w := operand.EffectiveWidth(op, clone.W)
		addr := operand.EffectiveAddress(clone, last.Addr, op)
		val = clone.ReadMem(addr, w, img)
	case operand.KindImm:
		return uint64(op.Imm), true
	default:
		return 0, false
	}
	if !val.IsConst() {
		return 0, false
	}
	return val.Val.Uint64(), true
}
