// Package provenance is an optional reporter annotation layer: it
// does not change any core semantics, it only tracks which registers
// currently carry a value derived from a symbol of interest (usually
// a function argument or a freshly minted return-address symbol) so
// the reporter can explain *why* a flag evaluated Unknown instead of
// just recording that it did.
//
// Grounded on original_source/src/semantics/smt_helper.py's
// get_root_reg/get_bottom_source/check_source_is_sym/add_new_reg_src
// bookkeeping, which the original threads through its symbolic
// executor for the same purpose: deciding whether a cmp/test
// destination "is" one of the tracked symbols rather than an
// unrelated concrete value.
package provenance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vtsse/dsvcheck/internal/regs"
)

// Tracker records, for one exploration path, the set of root (64-bit)
// registers currently believed to carry a value derived from a marked
// symbol. It is path-local state, cloned on fork exactly like
// state.Store, since two forked paths can diverge on which registers
// still carry a tracked value.
type Tracker struct {
	roots map[string]bool
}

// NewTracker returns an empty tracker: no symbol has been marked yet.
func NewTracker() *Tracker {
	return &Tracker{roots: map[string]bool{}}
}

// Clone returns an independent copy, for forking at a conditional
// branch the same way state.Store.Clone is used.
func (t *Tracker) Clone() *Tracker {
	out := make(map[string]bool, len(t.roots))
	for k, v := range t.roots {
		out[k] = v
	}
	return &Tracker{roots: out}
}

// rootOf mirrors get_root_reg: a sub-register name resolves to its
// 64-bit parent; anything else (a memory operand, a flag, an
// immediate literal) has no root register and is ignored.
func rootOf(name string) string {
	return regs.RootOf(name)
}

// Mark seeds reg as a symbol source directly — the origin of a
// provenance chain, e.g. extcall.Init's argument registers or a fresh
// [rsp] return-address symbol.
func (t *Tracker) Mark(reg string) {
	if root := rootOf(reg); root != "" {
		t.roots[root] = true
	}
}

// IsTracked reports whether reg currently carries a value derived
// from a marked symbol (check_source_is_sym's register case).
func (t *Tracker) IsTracked(reg string) bool {
	root := rootOf(reg)
	return root != "" && t.roots[root]
}

// Propagate updates the tracked set after dest is overwritten from
// src in a register-to-register move (add_new_reg_src): dest's
// previous root is dropped, since whatever it held is gone, and src's
// root is (re-)recorded as a live source, since dest was just read
// from it.
func (t *Tracker) Propagate(dest, src string) {
	if root := rootOf(dest); root != "" {
		delete(t.roots, root)
	}
	if root := rootOf(src); root != "" {
		t.roots[root] = true
	}
}

// Clear drops dest from the tracked set without recording a new
// source, for a write whose value is known not to derive from any
// tracked symbol (an immediate load, an external-call clobber).
func (t *Tracker) Clear(dest string) {
	if root := rootOf(dest); root != "" {
		delete(t.roots, root)
	}
}

// Roots returns every currently tracked root register, sorted for
// deterministic reporter output.
func (t *Tracker) Roots() []string {
	out := make([]string, 0, len(t.roots))
	for r := range t.roots {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Explain returns a human-readable provenance note for a flag or
// value that resolved to Unknown, naming the tracked registers live
// at the point of evaluation, or "" if nothing is tracked — an
// Unknown with no tracked provenance is not worth annotating.
func (t *Tracker) Explain(what string) string {
	roots := t.Roots()
	if len(roots) == 0 {
		return ""
	}
	return fmt.Sprintf("%s is unknown; traces to %s", what, strings.Join(roots, ", "))
}
