package report

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/vtsse/dsvcheck/internal/explorer"
)

// Checkpoint holds enough state to resume a batch exploration run
// across many entry points without re-walking entries already done.
// Unlike the teacher's checkpoint, every field here is a concrete
// type, so no gob.Register calls are needed — those exist only to
// disambiguate interface-typed fields, which this report has none of.
type Checkpoint struct {
	Completed  []uint64
	Visited    []uint64
	JumpTables map[uint64]explorer.JTRecord
}

// Snapshot captures the report's current visited-address union
// alongside the list of entry addresses a batch driver has finished
// exploring. It deliberately does not bake in a final unreachable
// list: a later resume merges more entries into the same union, and
// an address unreachable at this checkpoint may become reachable once
// those entries run.
func (r *Report) Snapshot(completed []uint64) *Checkpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	visited := make([]uint64, 0, len(r.visited))
	for addr := range r.visited {
		visited = append(visited, addr)
	}
	return &Checkpoint{
		Completed:  completed,
		Visited:    visited,
		JumpTables: r.JumpTables(),
	}
}

// Restore seeds a freshly created report from a loaded checkpoint, so
// a resumed run's visited union still covers work done before the
// interruption.
func (r *Report) Restore(ckpt *Checkpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, addr := range ckpt.Visited {
		r.visited[addr] = true
	}
	for addr, rec := range ckpt.JumpTables {
		r.jumpTables[addr] = rec
	}
}

func SaveCheckpoint(path string, ckpt *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create checkpoint: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(ckpt); err != nil {
		return fmt.Errorf("report: encode checkpoint: %w", err)
	}
	return nil
}

func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: open checkpoint: %w", err)
	}
	defer f.Close()
	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, fmt.Errorf("report: decode checkpoint: %w", err)
	}
	return &ckpt, nil
}
