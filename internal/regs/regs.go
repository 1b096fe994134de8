// Package regs is the x86-64 register-info table: every legal
// register name, its 64-bit parent, and its (offset, width) slice
// within that parent. This is the table spec §4.1.1 requires for
// sub-register read/write overlay.
package regs

// Info describes one register name's placement within its 64-bit
// parent.
type Info struct {
	Parent string
	Offset uint // bit offset of the low bit of this slice within Parent
	Width  uint // width in bits
}

// Parents lists the sixteen canonical 64-bit general-purpose registers.
var Parents = []string{
	"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

var byte32 = map[string]string{
	"rax": "eax", "rbx": "ebx", "rcx": "ecx", "rdx": "edx",
	"rsi": "esi", "rdi": "edi", "rbp": "ebp", "rsp": "esp",
	"r8": "r8d", "r9": "r9d", "r10": "r10d", "r11": "r11d",
	"r12": "r12d", "r13": "r13d", "r14": "r14d", "r15": "r15d",
}

var byte16 = map[string]string{
	"rax": "ax", "rbx": "bx", "rcx": "cx", "rdx": "dx",
	"rsi": "si", "rdi": "di", "rbp": "bp", "rsp": "sp",
	"r8": "r8w", "r9": "r9w", "r10": "r10w", "r11": "r11w",
	"r12": "r12w", "r13": "r13w", "r14": "r14w", "r15": "r15w",
}

var byte8Low = map[string]string{
	"rax": "al", "rbx": "bl", "rcx": "cl", "rdx": "dl",
	"rsi": "sil", "rdi": "dil", "rbp": "bpl", "rsp": "spl",
	"r8": "r8b", "r9": "r9b", "r10": "r10b", "r11": "r11b",
	"r12": "r12b", "r13": "r13b", "r14": "r14b", "r15": "r15b",
}

// byte8High holds the legacy ah/bh/ch/dh forms, which read/write bits
// [15:8] of their parent rather than [7:0] — the one offset-8 special
// case spec §4.1.1 calls out by name.
var byte8High = map[string]string{
	"rax": "ah", "rbx": "bh", "rcx": "ch", "rdx": "dh",
}

// Table maps every legal register name to its Info. Built once at
// package init.
var Table map[string]Info

func init() {
	Table = make(map[string]Info, 16*5)
	for _, p := range Parents {
		Table[p] = Info{Parent: p, Offset: 0, Width: 64}
		Table[byte32[p]] = Info{Parent: p, Offset: 0, Width: 32}
		Table[byte16[p]] = Info{Parent: p, Offset: 0, Width: 16}
		Table[byte8Low[p]] = Info{Parent: p, Offset: 0, Width: 8}
	}
	for p, name := range byte8High {
		Table[name] = Info{Parent: p, Offset: 8, Width: 8}
	}
}

// Lookup returns the Info for a register name and whether it is known.
func Lookup(name string) (Info, bool) {
	info, ok := Table[name]
	return info, ok
}

// RootOf returns the 64-bit parent register name for any legal
// register name, or "" if name is not a register.
func RootOf(name string) string {
	if info, ok := Table[name]; ok {
		return info.Parent
	}
	return ""
}

// IsZeroExtending64 reports whether a write to this register name
// zero-extends the upper 32 bits of its 64-bit parent — true for
// every 32-bit GPR name, per the x86-64 rule spec §3.2 calls out.
func IsZeroExtending64(name string) bool {
	info, ok := Table[name]
	return ok && info.Width == 32 && info.Offset == 0
}

// Pair describes the width-dependent A/D register pair used by
// mul/imul/div/idiv and the sign-extension family (cwd/cdq/cqo).
type Pair struct {
	High string // receives the remainder / high half
	Low  string // receives the quotient / low half (also the operand register)
}

// PairFor returns the register-pair names for a given operand width,
// per spec §4.1.1's "edx:eax"-style concatenation rule. Widths 8, 16,
// 32, 64 are legal; width 8 is special-cased because mul/div at byte
// width use AX as a single 16-bit pair, not AH:AL separately.
func PairFor(width uint) Pair {
	switch width {
	case 8:
		return Pair{High: "ah", Low: "al"}
	case 16:
		return Pair{High: "dx", Low: "ax"}
	case 32:
		return Pair{High: "edx", Low: "eax"}
	case 64:
		return Pair{High: "rdx", Low: "rax"}
	default:
		return Pair{High: "rdx", Low: "rax"}
	}
}

// CallerSaved lists the x86-64 SysV caller-saved general-purpose
// registers, used by the external-call abstraction (spec §4.5) to
// decide which registers an opaque call clobbers.
var CallerSaved = []string{"rax", "rcx", "rdx", "rsi", "rdi", "r8", "r9", "r10", "r11"}
