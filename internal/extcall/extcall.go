// Package extcall is the external-symbol / library-call abstraction
// surface described in spec §4.5: termination symbols short-circuit
// the path, other external calls clobber caller-saved registers with
// fresh unknowns, and malloc-like allocators hand back a concrete
// bump-allocated heap pointer.
package extcall

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/config"
	"github.com/vtsse/dsvcheck/internal/regs"
	"github.com/vtsse/dsvcheck/internal/state"
)

// TerminationSymbols is the set of library/runtime symbols whose call
// ends the path immediately (spec §4.5). spec.md itself names 8; the
// remainder come from the original implementation's common/lib.py
// TERMINATION_FUNCTIONS (SPEC_FULL.md Part A supplement).
var TerminationSymbols = map[string]struct{}{
	"exit": {}, "_exit": {}, "abort": {}, "__stack_chk_fail": {},
	"error": {}, "err": {}, "__assert_fail": {}, "pthread_exit": {},
	"__overflow": {}, "error_at_line": {}, "errx": {}, "raise": {},
	"g_assertion_message_expr": {}, "g_assertion_message": {},
	"g_abort": {}, "obstack_alloc_failed_handler": {},
}

func IsTermination(symbol string) bool {
	_, ok := TerminationSymbols[symbol]
	return ok
}

// allocatorSymbols are the malloc-family names that get the bump
// allocator treatment instead of a plain unknown return value.
var allocatorSymbols = map[string]struct{}{
	"malloc": {}, "calloc": {}, "realloc": {}, "valloc": {}, "memalign": {},
}

func IsAllocator(symbol string) bool {
	_, ok := allocatorSymbols[symbol]
	return ok
}

// Heap is the concrete bump allocator backing malloc-like calls.
// Grounded in spec §4.5: starts at MIN_HEAP_ADDR, advances by the
// requested size, and is bounded (spec names MAX_MALLOC_SIZE as a
// per-call cap; SPEC_FULL.md Part A additionally computes a real
// upper bound for the region as a whole, since the original
// implementation's MAX_HEAP_ADDR == MIN_HEAP_ADDR is degenerate).
type Heap struct {
	cfg  config.Config
	next uint64
}

func NewHeap(cfg config.Config) *Heap {
	return &Heap{cfg: cfg, next: cfg.MinHeapAddr}
}

// Clone gives a forked path its own allocator cursor, consistent with
// the store-per-block ownership model in spec §5.
func (h *Heap) Clone() *Heap {
	return &Heap{cfg: h.cfg, next: h.next}
}

// Alloc returns a concrete pointer for a requested size, or an
// unknown fresh symbol if the request exceeds MAX_MALLOC_SIZE or would
// run the region past its bound.
func (h *Heap) Alloc(o bv.Oracle, width uint, size uint64) bv.BitVec {
	if size > h.cfg.MaxMallocSize || h.next+size > h.cfg.MaxHeapAddr() {
		return o.Fresh(width)
	}
	ptr := h.next
	h.next += size
	return bv.Const(ptr, width)
}

// CallEffect describes what happened at an external-call site, for
// the explorer to act on.
type CallEffect struct {
	Terminated bool
	ReturnVal  bv.BitVec
}

// Apply implements spec §4.5's two call treatments. sizeArg is the
// concrete allocation size when the callee is an allocator and the
// first argument (by SysV ABI, RDI) resolved to a constant; 0 disables
// the bump-allocator path and falls back to an unknown return value.
func Apply(s *state.Store, heap *Heap, symbol string, sizeArg uint64) CallEffect {
	if IsTermination(symbol) {
		return CallEffect{Terminated: true}
	}

	for _, r := range regs.CallerSaved {
		s.WriteReg(r, s.Oracle.Fresh(64))
	}
	s.ResetAllFlags()

	var ret bv.BitVec
	if IsAllocator(symbol) && sizeArg > 0 {
		ret = heap.Alloc(s.Oracle, s.W, sizeArg)
	} else {
		ret = s.Oracle.Fresh(s.W)
	}
	s.WriteReg("rax", ret)
	return CallEffect{ReturnVal: ret}
}

// Init applies spec §4.5's entry setup: every GPR a fresh symbol, SP
// at the configured constant, segments at their configured value,
// flags unknown, and a single fresh symbol placed at [SP] standing in
// for the return address from the program's caller.
func Init(o bv.Oracle, cfg config.Config) *state.Store {
	s := state.New(o, cfg.AddrWidth)
	for _, p := range regs.Parents {
		s.Reg[p] = o.Fresh(64)
	}
	spReg := stackPointerName(cfg.AddrWidth)
	s.WriteReg(spReg, bv.Const(cfg.InitStackFramePointer(), cfg.AddrWidth))
	for _, seg := range state.SegRegs {
		s.Seg[seg] = bv.Const(cfg.SegmentRegInitVal, cfg.AddrWidth)
	}
	s.ResetAllFlags()
	retAddr := o.Fresh(cfg.AddrWidth)
	s.WriteMem(s.ReadReg(spReg), retAddr)
	return s
}

func stackPointerName(width uint) string {
	switch width {
	case 16:
		return "sp"
	case 32:
		return "esp"
	default:
		return "rsp"
	}
}
