// Package report is the soundness reporter spec §6's outputs feed:
// the set of unreachable disassembled instructions, the recovered
// jump tables, and the ambiguous-operand-size soundness exceptions.
// Adapted from the teacher's sync.Mutex-guarded, sort.Slice-ordered
// result table.
package report

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vtsse/dsvcheck/internal/explorer"
	"github.com/vtsse/dsvcheck/internal/iface"
)

// Entry is one unreachable disassembled instruction.
type Entry struct {
	Addr     uint64
	InstText string
}

// Report accumulates findings across one or more explorer runs over a
// binary. Safe for concurrent use by a batch driver exploring several
// entry points at once. Unreachable is computed once, over the union
// of every merged explorer's visited set, not per explorer: spec §8
// defines an unreachable instruction as one no block in the *resulting
// CFG* carries, where the resulting CFG is the union across every
// entry point a batch run explores.
type Report struct {
	mu sync.Mutex

	instructions map[uint64]string
	visited      map[uint64]bool
	jumpTables   map[uint64]explorer.JTRecord
	ambiguous    []Entry
	provenance   []string
	fatal        error
}

func New() *Report {
	return &Report{
		instructions: map[uint64]string{},
		visited:      map[uint64]bool{},
		jumpTables:   map[uint64]explorer.JTRecord{},
	}
}

// Seed registers prog's full instruction set so Unreachable has
// something to report against even when a resumed run explores no
// new entries (every entry already completed in an earlier run).
func (r *Report) Seed(prog *iface.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for addr, text := range prog.Inst {
		r.instructions[addr] = text
	}
}

// AddAmbiguous records spec §7 kind 2: the normalizer flagged addr's
// instruction as under-specified by a round-trip assembly check.
func (r *Report) AddAmbiguous(addr uint64, instText string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ambiguous = append(r.ambiguous, Entry{Addr: addr, InstText: instText})
}

// SetFatal records spec §7 kind 6: invalid instruction syntax, which
// escalates past path-local recovery.
func (r *Report) SetFatal(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fatal == nil {
		r.fatal = err
	}
}

func (r *Report) Fatal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatal
}

// Merge folds one explorer's visited set and jump-table map into the
// report's running union. Unreachable is derived from this union, not
// per call, so that an address reached by one entry point but not
// another is never flagged as unreachable just because it falls
// outside a single explorer's path.
func (r *Report) Merge(prog *iface.Program, exp *explorer.Explorer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for addr, text := range prog.Inst {
		r.instructions[addr] = text
	}
	for addr := range exp.Visited {
		r.visited[addr] = true
	}
	for addr, rec := range exp.JTEntries {
		r.jumpTables[addr] = rec
	}
	r.provenance = append(r.provenance, exp.Provenance...)
}

// Unreachable returns the addresses no merged explorer ever visited,
// sorted by address.
func (r *Report) Unreachable() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.instructions))
	for addr, text := range r.instructions {
		if !r.visited[addr] {
			out = append(out, Entry{Addr: addr, InstText: text})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Provenance returns the accumulated provenance notes: optional
// annotations explaining which tracked symbol an Unknown conditional
// flag traced back to (internal/provenance), in merge order.
func (r *Report) Provenance() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.provenance...)
}

func (r *Report) JumpTables() map[uint64]explorer.JTRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uint64]explorer.JTRecord, len(r.jumpTables))
	for k, v := range r.jumpTables {
		out[k] = v
	}
	return out
}

// Log emits the structured log stream spec §6 requires: the literal
// "Unreachable instructions:" marker, one line per address, and the
// "ambiguous operand size" token for every soundness exception.
func (r *Report) Log(log *logrus.Entry) {
	unreachable := r.Unreachable()
	log.Infof("Unreachable instructions: %d", len(unreachable))
	for _, e := range unreachable {
		log.Infof("  %#x: %s", e.Addr, e.InstText)
	}

	r.mu.Lock()
	ambiguous := append([]Entry(nil), r.ambiguous...)
	r.mu.Unlock()
	for _, e := range ambiguous {
		log.Warnf("ambiguous operand size at %#x: %s", e.Addr, e.InstText)
	}

	for addr, rec := range r.JumpTables() {
		log.Infof("jump table at %#x: operand=%s targets=%v", addr, rec.Operand, rec.Targets)
	}

	for _, note := range r.Provenance() {
		log.Debugf("provenance: %s", note)
	}
}
