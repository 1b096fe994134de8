// Package batch runs several independent explorer.Explorer entries
// concurrently, bounded by a worker limit. Each entry point's
// exploration is itself single-threaded per spec §5; concurrency here
// is across entries, never within one. Adapted from the teacher's
// worker-pool search driver, replacing its channel-fed goroutine pool
// with golang.org/x/sync/errgroup's bounded group.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/config"
	"github.com/vtsse/dsvcheck/internal/explorer"
	"github.com/vtsse/dsvcheck/internal/iface"
	"github.com/vtsse/dsvcheck/internal/report"
)

// Pool bounds how many entry points are explored at once.
type Pool struct {
	NumWorkers int
	checked    atomic.Int64
}

func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{NumWorkers: numWorkers}
}

func (p *Pool) Checked() int64 { return p.checked.Load() }

// Explore runs one Explorer per entry not in skip, merging every
// result into rpt (which is safe for concurrent use), and returns the
// full set of addresses that completed, alreadyDone included.
func (p *Pool) Explore(ctx context.Context, cfg config.Config, prog *iface.Program, img *iface.BinaryImage, entries []uint64, skip map[uint64]bool, rpt *report.Report, log *logrus.Entry, alreadyDone []uint64) ([]uint64, error) {
	rpt.Seed(prog)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.NumWorkers)

	completedCh := make(chan uint64, len(entries))
	for _, entry := range entries {
		if skip[entry] {
			continue
		}
		entry := entry
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			log.Infof("exploring entry %#x", entry)
			oracle := bv.NewConcreteOracle(fmt.Sprintf("sym%x_", entry))
			exp := explorer.New(prog, img, cfg, oracle, log)
			exp.Run(entry)
			rpt.Merge(prog, exp)
			p.checked.Add(1)
			completedCh <- entry
			return nil
		})
	}

	err := g.Wait()
	close(completedCh)

	completed := append([]uint64{}, alreadyDone...)
	for e := range completedCh {
		completed = append(completed, e)
	}
	return completed, err
}
