// Package explorer implements the forward, single-threaded CFG walk
// spec §4.3 and §5 describe: one store per block, deep-copied on every
// fork, bounded by a global per-address visit count rather than run to
// a fixed point.
package explorer

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/config"
	"github.com/vtsse/dsvcheck/internal/extcall"
	"github.com/vtsse/dsvcheck/internal/iface"
	"github.com/vtsse/dsvcheck/internal/jumptable"
	"github.com/vtsse/dsvcheck/internal/operand"
	"github.com/vtsse/dsvcheck/internal/predicate"
	"github.com/vtsse/dsvcheck/internal/provenance"
	"github.com/vtsse/dsvcheck/internal/regs"
	"github.com/vtsse/dsvcheck/internal/semantics"
	"github.com/vtsse/dsvcheck/internal/state"
)

// argRegs are the SysV ABI integer-argument registers: the natural
// set of "symbols of interest" for provenance tracking, since a
// soundness validator has no caller to tell it what a function's
// parameters mean, only that they arrive fresh in these registers.
var argRegs = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// JTRecord is one entry of spec §6's address_jt_entries_map output.
type JTRecord struct {
	Operand string
	Targets []uint64
}

// Explorer owns the exploration-wide state spec §5 says is shared
// across all paths: the visit-count map, the reached-address set, and
// the jump-table resolution map. Per-path state (the store, the call
// stack) is threaded through explore's arguments instead.
type Explorer struct {
	Prog   *iface.Program
	Img    state.BinaryInfo
	Cfg    config.Config
	Oracle bv.Oracle
	Heap   *extcall.Heap
	Log    *logrus.Entry

	visitCount        map[uint64]int
	Visited           map[uint64]bool
	Blocks            []*Block
	JTEntries         map[uint64]JTRecord
	reportedMnemonics map[string]bool
	Provenance        []string
}

func New(prog *iface.Program, img state.BinaryInfo, cfg config.Config, oracle bv.Oracle, log *logrus.Entry) *Explorer {
	return &Explorer{
		Prog:              prog,
		Img:               img,
		Cfg:               cfg,
		Oracle:            oracle,
		Heap:              extcall.NewHeap(cfg),
		Log:               log,
		visitCount:        map[uint64]int{},
		Visited:           map[uint64]bool{},
		JTEntries:         map[uint64]JTRecord{},
		reportedMnemonics: map[string]bool{},
	}
}

// Run explores from entry with spec §4.5's initial state. Provenance
// tracking seeds from the SysV argument registers: those are the
// function's only inputs, so any flag that later traces back to one
// of them is worth naming in the report.
func (e *Explorer) Run(entry uint64) {
	initial := extcall.Init(e.Oracle, e.Cfg)
	tr := provenance.NewTracker()
	for _, r := range argRegs {
		tr.Mark(r)
	}
	e.explore(entry, initial, nil, nil, tr)
}

func operandText(instText string) string {
	_, rest, _ := strings.Cut(instText, " ")
	return strings.TrimSpace(rest)
}

func (e *Explorer) readJumpOperand(s *state.Store, rip uint64, op operand.Operand) bv.BitVec {
	switch op.Kind {
	case operand.KindReg:
		return s.ReadReg(op.Reg)
	case operand.KindMem:
		w := operand.EffectiveWidth(op, s.W)
		addr := operand.EffectiveAddress(s, rip, op)
		return s.ReadMem(addr, w, e.Img)
	}
	return bv.BitVec{}
}

func operandRaw(op operand.Operand) string {
	switch op.Kind {
	case operand.KindMem:
		if op.Seg != "" {
			return op.Seg + ":[" + op.MemExpr + "]"
		}
		return "[" + op.MemExpr + "]"
	default:
		return op.Reg
	}
}

// explore implements one step of spec §4.3's Created->Interpreted->
// Classified->Expanded state machine; callStack holds the return
// addresses call pushed on this path so ret can tell an ordinary
// return from one that leaves the entry frame.
func (e *Explorer) explore(addr uint64, pre *state.Store, callStack []uint64, parent *Block, tr *provenance.Tracker) {
	if e.visitCount[addr] >= e.Cfg.MaxVisitCount {
		return
	}
	instText, ok := e.Prog.Instruction(addr)
	if !ok {
		return
	}
	e.visitCount[addr]++
	e.Visited[addr] = true

	nextAddr, hasNext := e.Prog.NextAddr(addr)
	post := pre.Clone()
	ctx := &semantics.Context{Store: post, Rip: addr, NextRip: nextAddr, Img: e.Img, Cfg: e.Cfg, Heap: e.Heap}

	mnemonic := mnemonicOf(instText)
	if _, known := semantics.Lookup(mnemonic); !known && !semantics.IsRepPrefix(mnemonic) {
		if !e.reportedMnemonics[mnemonic] {
			e.reportedMnemonics[mnemonic] = true
			e.Log.WithError(ErrUnrecognizedInstruction).Warnf("unrecognized instruction: %s", mnemonic)
		}
	}

	result := semantics.Interpret(ctx, instText)
	e.trackProvenance(tr, mnemonic, instText)
	kind := classify(mnemonic)
	block := &Block{Addr: addr, InstText: instText, Pre: pre, Post: post, Kind: kind, Parent: parent}
	e.Blocks = append(e.Blocks, block)

	switch kind {
	case KindHalt:
		return
	case KindRet:
		e.expandRet(block, result, callStack, tr)
	case KindCall:
		e.expandCall(block, ctx, callStack, nextAddr, hasNext, result, tr)
	case KindCondJump:
		e.expandCondJump(block, mnemonic, nextAddr, hasNext, callStack, tr)
	case KindUncondJump:
		e.expandJump(block, ctx, callStack, tr)
	default:
		if result.Suspend || !hasNext {
			return
		}
		if e.Prog.IsLabelled(nextAddr) {
			// cfg_helper.py's get_next_address returns -1 here: a
			// fall-through landing on a labelled function entry is a
			// boundary, not a continuation of this path.
			e.Log.WithError(ErrNextIsSymbolBoundary).Debugf("fall-through from %#x stops at labelled entry %#x", addr, nextAddr)
			return
		}
		block.Succ = []uint64{nextAddr}
		e.explore(nextAddr, post, callStack, block, tr)
	}
}

// trackProvenance updates tr for mov only (add_new_reg_src): a
// register source propagates into the destination register, and any
// other source (memory, immediate) clears it. Every other mnemonic,
// arithmetic included, leaves tr as it is, since spec §9 already
// treats provenance as reporter annotation, not semantics.
func (e *Explorer) trackProvenance(tr *provenance.Tracker, mnemonic, instText string) {
	if mnemonic != "mov" {
		return
	}
	parts := strings.SplitN(operandText(instText), ",", 2)
	if len(parts) != 2 {
		return
	}
	dest := operand.Parse(strings.TrimSpace(parts[0]))
	src := operand.Parse(strings.TrimSpace(parts[1]))
	if dest.Kind != operand.KindReg {
		return
	}
	if src.Kind != operand.KindReg {
		tr.Clear(dest.Reg)
		return
	}
	tr.Propagate(dest.Reg, src.Reg)
}

func (e *Explorer) expandRet(block *Block, result semantics.Result, callStack []uint64, tr *provenance.Tracker) {
	if result.RetTarget == nil {
		return
	}
	if !result.RetTarget.IsConst() {
		e.Log.WithError(ErrReturnToSymbolicAddress).Infof("return to symbolic address at %#x", block.Addr)
		return
	}
	if len(callStack) == 0 {
		return // ret that leaves the entry frame
	}
	target := result.RetTarget.Val.Uint64()
	rest := callStack[:len(callStack)-1]
	block.Succ = []uint64{target}
	e.explore(target, block.Post, rest, block, tr)
}

func (e *Explorer) expandCall(block *Block, ctx *semantics.Context, callStack []uint64, nextAddr uint64, hasNext bool, result semantics.Result, tr *provenance.Tracker) {
	op := operand.Parse(operandText(block.InstText))

	var target bv.BitVec
	if op.Kind == operand.KindImm {
		target = bv.Const(uint64(op.Imm), block.Post.W)
	} else {
		target = e.readJumpOperand(block.Post, ctx.Rip, op)
	}

	if !target.IsConst() {
		e.tryJumpTable(block, op, callStack, true, nextAddr, hasNext, tr)
		return
	}

	addr := target.Val.Uint64()
	if _, known := e.Prog.Instruction(addr); known {
		block.Succ = []uint64{addr}
		if !hasNext {
			return
		}
		// The frame's return address is the value call actually pushed
		// onto the simulated stack, not a second, independently
		// maintained copy of nextAddr. expandRet pops this frame and
		// follows the value ret read from [SP]; it does not compare
		// that value with the frame's address.
		retAddr := nextAddr
		if result.PushedReturn != nil && result.PushedReturn.IsConst() {
			retAddr = result.PushedReturn.Val.Uint64()
		}
		e.explore(addr, block.Post, pushFrame(callStack, retAddr), block, tr)
		return
	}
	e.applyExternalCall(block, addr, nextAddr, hasNext, callStack, tr)
}

func pushFrame(callStack []uint64, ret uint64) []uint64 {
	out := make([]uint64, len(callStack)+1)
	copy(out, callStack)
	out[len(callStack)] = ret
	return out
}

func (e *Explorer) applyExternalCall(block *Block, target, nextAddr uint64, hasNext bool, callStack []uint64, tr *provenance.Tracker) {
	sym, _ := e.Prog.SymbolAt(target)
	var sizeArg uint64
	if rdi := block.Post.ReadReg("rdi"); rdi.IsConst() {
		sizeArg = rdi.Val.Uint64()
	}
	effect := extcall.Apply(block.Post, e.Heap, sym, sizeArg)
	if effect.Terminated || !hasNext || e.Prog.IsLabelled(nextAddr) {
		return
	}
	for _, r := range regs.CallerSaved {
		tr.Clear(r)
	}
	block.Succ = []uint64{nextAddr}
	e.explore(nextAddr, block.Post, callStack, block, tr)
}

func (e *Explorer) expandCondJump(block *Block, mnemonic string, nextAddr uint64, hasNext bool, callStack []uint64, tr *provenance.Tracker) {
	cc, _ := conditionSuffix(mnemonic)
	verdict := predicate.Eval(block.Post, cc)

	op := operand.Parse(operandText(block.InstText))
	target, hasTarget := uint64(0), false
	if op.Kind == operand.KindImm {
		target, hasTarget = uint64(op.Imm), true
	}
	if hasNext && e.Prog.IsLabelled(nextAddr) {
		hasNext = false
	}

	switch verdict {
	case bv.True:
		if hasTarget {
			block.Succ = []uint64{target}
			e.explore(target, block.Post, callStack, block, tr)
		}
	case bv.False:
		if hasNext {
			block.Succ = []uint64{nextAddr}
			e.explore(nextAddr, block.Post, callStack, block, tr)
		}
	default:
		if note := tr.Explain(cc); note != "" {
			e.Provenance = append(e.Provenance, fmt.Sprintf("%#x: %s", block.Addr, note))
		}
		var succ []uint64
		if hasTarget {
			succ = append(succ, target)
		}
		if hasNext {
			succ = append(succ, nextAddr)
		}
		block.Succ = succ
		if hasTarget {
			e.explore(target, block.Post.Clone(), callStack, block, tr.Clone())
		}
		if hasNext {
			e.explore(nextAddr, block.Post, callStack, block, tr)
		}
	}
}

func (e *Explorer) expandJump(block *Block, ctx *semantics.Context, callStack []uint64, tr *provenance.Tracker) {
	op := operand.Parse(operandText(block.InstText))
	if op.Kind == operand.KindImm {
		target := uint64(op.Imm)
		block.Succ = []uint64{target}
		e.explore(target, block.Post, callStack, block, tr)
		return
	}

	val := e.readJumpOperand(block.Post, ctx.Rip, op)
	if val.IsConst() {
		target := val.Val.Uint64()
		block.Succ = []uint64{target}
		e.explore(target, block.Post, callStack, block, tr)
		return
	}
	e.tryJumpTable(block, op, callStack, false, 0, false, tr)
}

// tryJumpTable implements spec §4.4 end to end for one unresolved
// indirect jump/call: backtrack, recover, fork one successor per
// distinct entry.
func (e *Explorer) tryJumpTable(block *Block, op operand.Operand, callStack []uint64, isCall bool, nextAddr uint64, hasNext bool, tr *provenance.Tracker) {
	trace := e.backtrack(block)
	res, ok := jumptable.Recover(trace, e.Cfg, e.Img)
	if !ok {
		e.Log.WithError(ErrUnresolvedIndirectJump).Warnf("unresolved indirect %s at %#x", kindLabel(isCall), block.Addr)
		return
	}

	opText := operandRaw(op)
	e.JTEntries[block.Addr] = JTRecord{Operand: opText, Targets: res.Targets}
	block.Succ = res.Targets

	for _, t := range res.Targets {
		target := e.resolveTarget(t)
		if isCall {
			if hasNext {
				e.explore(target, block.Post.Clone(), pushFrame(callStack, nextAddr), block, tr.Clone())
			}
			continue
		}
		e.explore(target, block.Post.Clone(), callStack, block, tr.Clone())
	}
}

// resolveTarget snaps a jump-table entry to the instruction address it
// names. A table read out of the binary image occasionally lands a
// few bytes short of the instruction it targets — padding, a prologue
// stub, an address that's actually the middle of a relocation — the
// same gap get_prev_address's caller in cfg_helper.py compensates for
// when consulting address_inst_map. Left unchanged when t is already a
// known instruction address or no instruction is found within the
// configured gap, in which case explore's own Instruction lookup drops
// the path same as before this existed.
func (e *Explorer) resolveTarget(t uint64) uint64 {
	if _, ok := e.Prog.Instruction(t); ok {
		return t
	}
	if prev, ok := e.Prog.PrevInstruction(t, e.Cfg.MaxInstAddrGap); ok {
		return prev
	}
	return t
}

func kindLabel(isCall bool) string {
	if isCall {
		return "call"
	}
	return "jmp"
}

// backtrack walks parent links from block up to MAX_TRACEBACK_COUNT
// ancestors, returning them oldest-first with block itself last.
func (e *Explorer) backtrack(block *Block) []jumptable.Step {
	var rev []jumptable.Step
	cur := block
	for cur != nil && len(rev) <= e.Cfg.MaxTracebackCount {
		rev = append(rev, jumptable.Step{Addr: cur.Addr, InstText: cur.InstText, Pre: cur.Pre})
		cur = cur.Parent
	}
	out := make([]jumptable.Step, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out
}
