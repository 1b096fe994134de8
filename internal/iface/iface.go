// Package iface holds the external-collaborator surface spec §6 names:
// the disassembly-derived address maps the core consumes, and the
// binary-image byte oracle it reads through. None of this is produced
// by the core itself — a normalizer/loader feeds it in — so this
// package only defines the shapes and the section-membership/raw-read
// logic the core's state.BinaryInfo interface requires.
package iface

import "fmt"

// CodeSections and DataSections are the fixed section ordering spec
// §6 names.
var (
	CodeSections = []string{".plt.got", ".plt", ".text"}
	DataSections = []string{".rodata", ".data", ".bss"}
)

// Program is the disassembly-derived address_inst_map/address_next_map
// /address_sym_table triple.
type Program struct {
	Inst map[uint64]string // address -> canonical instruction text
	Next map[uint64]uint64 // address -> fall-through address
	Sym  map[uint64]string // function-entry address -> exported symbol name
}

func NewProgram() *Program {
	return &Program{
		Inst: map[uint64]string{},
		Next: map[uint64]uint64{},
		Sym:  map[uint64]string{},
	}
}

func (p *Program) Instruction(addr uint64) (string, bool) {
	t, ok := p.Inst[addr]
	return t, ok
}

func (p *Program) NextAddr(addr uint64) (uint64, bool) {
	n, ok := p.Next[addr]
	return n, ok
}

// SymbolAt returns the exported name if addr is a labelled function
// entry.
func (p *Program) SymbolAt(addr uint64) (string, bool) {
	s, ok := p.Sym[addr]
	return s, ok
}

func (p *Program) IsLabelled(addr uint64) bool {
	_, ok := p.Sym[addr]
	return ok
}

// PrevInstruction scans backward from addr for the nearest known
// instruction address, up to maxGap-1 bytes back, the way
// cfg_helper.py's get_prev_address does for a disassembly whose
// address_inst_map has gaps (data bytes, alignment padding) between
// consecutive instructions. Returns !ok if no instruction starts
// within the window.
func (p *Program) PrevInstruction(addr uint64, maxGap int) (uint64, bool) {
	for gap := uint64(1); gap < uint64(maxGap) && gap <= addr; gap++ {
		cand := addr - gap
		if _, ok := p.Inst[cand]; ok {
			return cand, true
		}
	}
	return 0, false
}

// section is one named region of the program image: a contiguous byte
// range addressed from base.
type section struct {
	name  string
	base  uint64
	bytes []byte
}

func (s section) contains(addr uint64) bool {
	return addr >= s.base && addr < s.base+uint64(len(s.bytes))
}

// BinaryImage implements state.BinaryInfo over a small set of named
// sections loaded into memory. It is read-only once built (spec §5).
type BinaryImage struct {
	rodata, data, text section
}

// NewBinaryImage builds an image from raw section bytes and base
// addresses; bases with a nil/empty byte slice are treated as absent
// sections with no members.
func NewBinaryImage(rodataBase uint64, rodata []byte, dataBase uint64, data []byte, textBase uint64, text []byte) *BinaryImage {
	return &BinaryImage{
		rodata: section{name: ".rodata", base: rodataBase, bytes: rodata},
		data:   section{name: ".data", base: dataBase, bytes: data},
		text:   section{name: ".text", base: textBase, bytes: text},
	}
}

func (b *BinaryImage) InRodata(addr uint64) bool { return b.rodata.contains(addr) }
func (b *BinaryImage) InData(addr uint64) bool   { return b.data.contains(addr) }
func (b *BinaryImage) InText(addr uint64) bool   { return b.text.contains(addr) }

// ReadBytes implements spec §4.1.3's binary-image fallback and §4.4's
// table-entry enumeration: length little-endian bytes at addr, or
// !ok if the range isn't wholly contained in one known section.
func (b *BinaryImage) ReadBytes(addr uint64, length uint) (uint64, bool) {
	for _, s := range []section{b.rodata, b.data, b.text} {
		if !s.contains(addr) {
			continue
		}
		off := addr - s.base
		if off+uint64(length) > uint64(len(s.bytes)) {
			return 0, false
		}
		var v uint64
		for i := uint(0); i < length; i++ {
			v |= uint64(s.bytes[off+uint64(i)]) << (8 * i)
		}
		return v, true
	}
	return 0, false
}

func (b *BinaryImage) String() string {
	return fmt.Sprintf("image{.rodata=%#x+%d .data=%#x+%d .text=%#x+%d}",
		b.rodata.base, len(b.rodata.bytes), b.data.base, len(b.data.bytes), b.text.base, len(b.text.bytes))
}
