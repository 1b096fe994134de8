// Package operand parses a canonical Intel operand token (per the
// instruction-text contract in spec §6) into a register reference, an
// immediate, or an effective-address expression, and derives its
// width per spec §4.2.1.
package operand

import (
	"strconv"
	"strings"

	"github.com/vtsse/dsvcheck/internal/regs"
)

type Kind int

const (
	KindReg Kind = iota
	KindImm
	KindMem
	KindPair
)

// Operand is the parsed form of one canonicalized operand token.
type Operand struct {
	Kind Kind

	Reg string // KindReg

	Imm   int64 // KindImm, sign-extended as written
	Width uint  // explicit width if known from an annotation/register; 0 if it must be inferred from context

	Seg     string // segment override register name, "" if none (KindMem)
	MemExpr string // raw bracket content, canonical form "base+index*scale+disp" (KindMem)

	PairHi, PairLo string // KindPair, e.g. "edx:eax"
}

var sizeWords = map[string]uint{
	"byte": 8, "word": 16, "dword": 32, "qword": 64, "xmmword": 128,
}

var segNames = map[string]bool{"cs": true, "ds": true, "es": true, "fs": true, "gs": true, "ss": true}

// Parse converts one canonicalized operand token into an Operand.
func Parse(tok string) Operand {
	tok = strings.TrimSpace(tok)

	width := uint(0)
	for prefix, w := range sizeWords {
		p := prefix + " ptr "
		if strings.HasPrefix(tok, p) {
			width = w
			tok = strings.TrimPrefix(tok, p)
			break
		}
	}

	if strings.HasSuffix(tok, "]") {
		seg := ""
		body := tok
		if idx := strings.Index(tok, ":["); idx > 0 {
			cand := tok[:idx]
			if segNames[cand] {
				seg = cand
				body = tok[idx+1:]
			}
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(body, "["), "]")
		return Operand{Kind: KindMem, Seg: seg, MemExpr: inner, Width: width}
	}

	if strings.Contains(tok, ":") && !strings.Contains(tok, "[") {
		parts := strings.SplitN(tok, ":", 2)
		return Operand{Kind: KindPair, PairHi: strings.TrimSpace(parts[0]), PairLo: strings.TrimSpace(parts[1])}
	}

	if info, ok := regs.Lookup(tok); ok {
		return Operand{Kind: KindReg, Reg: tok, Width: info.Width}
	}

	if v, ok := parseImm(tok); ok {
		return Operand{Kind: KindImm, Imm: v, Width: width}
	}

	// Unrecognized token: treat as a bare register-like reference so
	// callers fail at a well-defined point (regs.Lookup miss) rather
	// than here.
	return Operand{Kind: KindReg, Reg: tok}
}

func parseImm(tok string) (int64, bool) {
	neg := false
	if strings.HasPrefix(tok, "-") {
		neg = true
		tok = tok[1:]
	}
	var v uint64
	var err error
	if strings.HasPrefix(tok, "0x") {
		v, err = strconv.ParseUint(tok[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(tok, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		return -int64(v), true
	}
	return int64(v), true
}

// EffectiveWidth implements spec §4.2.1's width-derivation order: an
// explicit annotation, then the register-info table, then a register
// pair's summed width, then the fallback address width W.
func EffectiveWidth(op Operand, w uint) uint {
	if op.Width != 0 {
		return op.Width
	}
	switch op.Kind {
	case KindReg:
		if info, ok := regs.Lookup(op.Reg); ok {
			return info.Width
		}
	case KindPair:
		hi, hiok := regs.Lookup(op.PairHi)
		lo, look := regs.Lookup(op.PairLo)
		if hiok && look {
			return hi.Width + lo.Width
		}
	}
	return w
}
