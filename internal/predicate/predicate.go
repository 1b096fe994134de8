// Package predicate implements the fixed condition-code table spec
// §4.2 requires for cmov<cc>/set<cc>/j<cc>: each <cc> decodes to a
// boolean formula over CF/ZF/OF/SF/PF, evaluated tri-valued.
package predicate

import (
	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/state"
)

// formula is a closure over a store's flags, rather than the original
// implementation's runtime string parsing of an expression like
// "CF==0 and ZF==0" — the same condition table, expressed as Go code.
type formula func(s *state.Store) bv.Tri

func flag(s *state.Store, name string) bv.Tri { return s.GetFlag(name) }

var table = map[string]formula{
	"a":  func(s *state.Store) bv.Tri { return bv.And(bv.Not(flag(s, state.CF)), bv.Not(flag(s, state.ZF))) },
	"ae": func(s *state.Store) bv.Tri { return bv.Not(flag(s, state.CF)) },
	"b":  func(s *state.Store) bv.Tri { return flag(s, state.CF) },
	"be": func(s *state.Store) bv.Tri { return bv.Or(flag(s, state.CF), flag(s, state.ZF)) },
	"c":  func(s *state.Store) bv.Tri { return flag(s, state.CF) },
	"e":  func(s *state.Store) bv.Tri { return flag(s, state.ZF) },
	"g":  func(s *state.Store) bv.Tri { return bv.And(bv.Not(flag(s, state.ZF)), eqFlags(s, state.SF, state.OF)) },
	"ge": func(s *state.Store) bv.Tri { return eqFlags(s, state.SF, state.OF) },
	"l":  func(s *state.Store) bv.Tri { return neFlags(s, state.SF, state.OF) },
	"le": func(s *state.Store) bv.Tri { return bv.Or(flag(s, state.ZF), neFlags(s, state.SF, state.OF)) },
	"na": func(s *state.Store) bv.Tri { return bv.Or(flag(s, state.CF), flag(s, state.ZF)) },
	"nae": func(s *state.Store) bv.Tri { return flag(s, state.CF) },
	"nb": func(s *state.Store) bv.Tri { return bv.Not(flag(s, state.CF)) },
	"nbe": func(s *state.Store) bv.Tri { return bv.And(bv.Not(flag(s, state.CF)), bv.Not(flag(s, state.ZF))) },
	"nc": func(s *state.Store) bv.Tri { return bv.Not(flag(s, state.CF)) },
	"ne": func(s *state.Store) bv.Tri { return bv.Not(flag(s, state.ZF)) },
	"ng": func(s *state.Store) bv.Tri { return bv.Or(flag(s, state.ZF), neFlags(s, state.SF, state.OF)) },
	"nge": func(s *state.Store) bv.Tri { return neFlags(s, state.SF, state.OF) },
	"nl": func(s *state.Store) bv.Tri { return eqFlags(s, state.SF, state.OF) },
	"nle": func(s *state.Store) bv.Tri { return bv.And(bv.Not(flag(s, state.ZF)), eqFlags(s, state.SF, state.OF)) },
	"no": func(s *state.Store) bv.Tri { return bv.Not(flag(s, state.OF)) },
	"np": func(s *state.Store) bv.Tri { return bv.Not(flag(s, state.PF)) },
	"ns": func(s *state.Store) bv.Tri { return bv.Not(flag(s, state.SF)) },
	"nz": func(s *state.Store) bv.Tri { return bv.Not(flag(s, state.ZF)) },
	"o":  func(s *state.Store) bv.Tri { return flag(s, state.OF) },
	"p":  func(s *state.Store) bv.Tri { return flag(s, state.PF) },
	"pe": func(s *state.Store) bv.Tri { return flag(s, state.PF) },
	"po": func(s *state.Store) bv.Tri { return bv.Not(flag(s, state.PF)) },
	"s":  func(s *state.Store) bv.Tri { return flag(s, state.SF) },
	"z":  func(s *state.Store) bv.Tri { return flag(s, state.ZF) },
}

func eqFlags(s *state.Store, a, b string) bv.Tri {
	fa, fb := flag(s, a), flag(s, b)
	if fa == bv.Unknown || fb == bv.Unknown {
		return bv.Unknown
	}
	return bv.TriOf(fa == fb)
}

func neFlags(s *state.Store, a, b string) bv.Tri {
	return bv.Not(eqFlags(s, a, b))
}

// Eval evaluates the condition-code suffix cc (e.g. "ge" for "jge")
// against a store's flags. A condition the table doesn't recognize
// evaluates Unknown rather than panicking.
func Eval(s *state.Store, cc string) bv.Tri {
	f, ok := table[cc]
	if !ok {
		return bv.Unknown
	}
	return f(s)
}

// Suffix strips a mnemonic's conditional-jump/set/cmov prefix (j, set,
// cmov) and returns the condition-code suffix.
func Suffix(mnemonic, prefix string) (string, bool) {
	if len(mnemonic) <= len(prefix) || mnemonic[:len(prefix)] != prefix {
		return "", false
	}
	return mnemonic[len(prefix):], true
}
