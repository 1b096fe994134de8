// Package state is the symbolic machine state described in spec §3.2
// and §4.1: the register file with sub-register overlay, the
// three-valued flags, segment bases, byte-addressable memory, and the
// auxiliary-memory witness set.
package state

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/regs"
)

// Flags are the five condition codes the core tracks. Unlisted flags
// (AF, DF, IF, TF, ...) are out of the core's scope entirely.
const (
	CF = "CF"
	ZF = "ZF"
	OF = "OF"
	SF = "SF"
	PF = "PF"
)

var allFlags = []string{CF, ZF, OF, SF, PF}

// SegRegs are the six x86 segment registers, per spec §3.2.
var SegRegs = []string{"cs", "ds", "es", "fs", "gs", "ss"}

// Store is one block's symbolic machine state. Stores are never
// shared across blocks; every fork is a deep copy (spec §3.3, §5).
type Store struct {
	Oracle bv.Oracle
	W      uint // address width: 16, 32, or 64

	Reg    map[string]bv.BitVec // 64-bit parent register name -> value
	Flags  map[string]bv.Tri
	Seg    map[string]bv.BitVec
	Mem    *Memory
	AuxMem map[uint64]struct{}
}

// New builds an empty store over the given oracle and address width.
// Callers typically follow this with Init to apply spec §4.5's entry
// setup, or with explicit register assignment for a synthetic test
// state.
func New(o bv.Oracle, w uint) *Store {
	s := &Store{
		Oracle: o,
		W:      w,
		Reg:    map[string]bv.BitVec{},
		Flags:  map[string]bv.Tri{},
		Seg:    map[string]bv.BitVec{},
		Mem:    NewMemory(),
		AuxMem: map[uint64]struct{}{},
	}
	for _, p := range regs.Parents {
		s.Reg[p] = bv.Const(0, 64)
	}
	s.ResetAllFlags()
	for _, seg := range SegRegs {
		s.Seg[seg] = bv.Const(0, w)
	}
	return s
}

// Clone performs the deep copy spec §3.3 and §5 require: mutating the
// returned store never mutates the receiver's REG/FLAGS/SEG/MEM/AUX_MEM.
func (s *Store) Clone() *Store {
	c := &Store{
		Oracle: s.Oracle,
		W:      s.W,
		Reg:    make(map[string]bv.BitVec, len(s.Reg)),
		Flags:  make(map[string]bv.Tri, len(s.Flags)),
		Seg:    make(map[string]bv.BitVec, len(s.Seg)),
		Mem:    s.Mem.Clone(),
		AuxMem: make(map[uint64]struct{}, len(s.AuxMem)),
	}
	for k, v := range s.Reg {
		c.Reg[k] = v
	}
	for k, v := range s.Flags {
		c.Flags[k] = v
	}
	for k, v := range s.Seg {
		c.Seg[k] = v
	}
	for k := range s.AuxMem {
		c.AuxMem[k] = struct{}{}
	}
	return c
}

// ReadReg implements spec §4.1.1: extract bits [o, o+w) of the parent.
func (s *Store) ReadReg(name string) bv.BitVec {
	info, ok := regs.Lookup(name)
	if !ok {
		return bv.BitVec{}
	}
	parent := s.Reg[info.Parent]
	if info.Width == 64 {
		return parent
	}
	return s.Oracle.Extract(info.Offset+info.Width-1, info.Offset, parent)
}

// WriteReg implements spec §4.1.1's write rule: preserve bits outside
// [o, o+w), except that a 32-bit write zero-extends the full 64-bit
// parent (the one x86-64 special case spec §3.2 calls out).
func (s *Store) WriteReg(name string, val bv.BitVec) {
	info, ok := regs.Lookup(name)
	if !ok {
		return
	}
	if info.Width == 64 {
		s.Reg[info.Parent] = val
		return
	}
	if regs.IsZeroExtending64(name) {
		s.Reg[info.Parent] = s.Oracle.ZeroExtend(64, val)
		return
	}
	parent := s.Reg[info.Parent]
	var pieces []bv.BitVec
	if info.Offset+info.Width < 64 {
		pieces = append(pieces, s.Oracle.Extract(63, info.Offset+info.Width, parent))
	}
	pieces = append(pieces, val)
	if info.Offset > 0 {
		pieces = append(pieces, s.Oracle.Extract(info.Offset-1, 0, parent))
	}
	s.Reg[info.Parent] = s.Oracle.Concat(pieces...)
}

// GetFlag reads a condition code; unset flags default to Unknown.
func (s *Store) GetFlag(name string) bv.Tri {
	if v, ok := s.Flags[name]; ok {
		return v
	}
	return bv.Unknown
}

// SetFlag implements spec §4.1.2: accepts a literal Tri (the result of
// having already simplified a boolean expression); anything that
// isn't a literal should be passed as bv.Unknown by the caller.
func (s *Store) SetFlag(name string, val bv.Tri) {
	s.Flags[name] = val
}

func (s *Store) ResetAllFlags() {
	for _, f := range allFlags {
		s.Flags[f] = bv.Unknown
	}
}

func (s *Store) ResetAllFlagsExcept(keep string) {
	for _, f := range allFlags {
		if f != keep {
			s.Flags[f] = bv.Unknown
		}
	}
}

// ReadMem/WriteMem delegate to Memory, resolving the effective address
// through the register file implicitly via the caller (operand
// package); Store itself only knows how to apply an already-computed
// address.
func (s *Store) ReadMem(addr bv.BitVec, width uint, img BinaryInfo) bv.BitVec {
	return s.Mem.Read(s.Oracle, addr, width, img)
}

func (s *Store) WriteMem(addr, val bv.BitVec) {
	s.Mem.Write(s.Oracle, addr, val)
}

// MarkAuxMem records a concrete address as a flag-affecting read
// witness (spec §3.2's AUX_MEM).
func (s *Store) MarkAuxMem(addr bv.BitVec) {
	if addr.IsConst() {
		s.AuxMem[addr.Val.Uint64()] = struct{}{}
	}
}

func (s *Store) IsAuxMem(addr bv.BitVec) bool {
	if !addr.IsConst() {
		return false
	}
	_, ok := s.AuxMem[addr.Val.Uint64()]
	return ok
}
