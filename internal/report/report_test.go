package report

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/config"
	"github.com/vtsse/dsvcheck/internal/explorer"
	"github.com/vtsse/dsvcheck/internal/iface"
)

func TestMergeRecordsUnreachableAndJumpTables(t *testing.T) {
	prog := iface.NewProgram()
	prog.Inst[0x1000] = "mov rax,rbx"
	prog.Inst[0x1004] = "ret"
	prog.Next[0x1000] = 0x1004

	img := iface.NewBinaryImage(0, nil, 0, nil, 0x1000, []byte{0, 0, 0, 0, 0, 0, 0, 0})
	exp := explorer.New(prog, img, config.Defaults(), bv.NewConcreteOracle("t_"), logrus.NewEntry(logrus.New()))
	exp.Visited[0x1000] = true
	exp.JTEntries[0x2000] = explorer.JTRecord{Operand: "rax", Targets: []uint64{0x3000, 0x3010}}

	r := New()
	r.Merge(prog, exp)

	unreachable := r.Unreachable()
	require.Len(t, unreachable, 1)
	assert.Equal(t, uint64(0x1004), unreachable[0].Addr)

	tables := r.JumpTables()
	require.Contains(t, tables, uint64(0x2000))
	assert.Equal(t, []uint64{0x3000, 0x3010}, tables[0x2000].Targets)
}

func TestUnreachableIsSortedByAddress(t *testing.T) {
	r := New()
	prog := iface.NewProgram()
	prog.Inst[0x2000] = "nop"
	prog.Inst[0x1000] = "nop"
	img := iface.NewBinaryImage(0, nil, 0, nil, 0, nil)
	exp := explorer.New(prog, img, config.Defaults(), bv.NewConcreteOracle("t_"), logrus.NewEntry(logrus.New()))

	r.Merge(prog, exp)
	out := r.Unreachable()
	require.Len(t, out, 2)
	assert.Equal(t, uint64(0x1000), out[0].Addr)
	assert.Equal(t, uint64(0x2000), out[1].Addr)
}

func TestMergeUnionsVisitedAcrossMultipleEntries(t *testing.T) {
	prog := iface.NewProgram()
	prog.Inst[0x1000] = "mov rax,rbx" // entry A
	prog.Inst[0x1004] = "ret"
	prog.Inst[0x2000] = "mov rcx,rdx" // entry B
	prog.Inst[0x2004] = "ret"
	prog.Inst[0x3000] = "nop" // reached by nobody

	img := iface.NewBinaryImage(0, nil, 0, nil, 0, nil)
	r := New()

	expA := explorer.New(prog, img, config.Defaults(), bv.NewConcreteOracle("a_"), logrus.NewEntry(logrus.New()))
	expA.Visited[0x1000] = true
	expA.Visited[0x1004] = true
	r.Merge(prog, expA)

	expB := explorer.New(prog, img, config.Defaults(), bv.NewConcreteOracle("b_"), logrus.NewEntry(logrus.New()))
	expB.Visited[0x2000] = true
	expB.Visited[0x2004] = true
	r.Merge(prog, expB)

	unreachable := r.Unreachable()
	require.Len(t, unreachable, 1, "entry A's addresses must not be flagged unreachable by entry B's merge, or vice versa")
	assert.Equal(t, uint64(0x3000), unreachable[0].Addr)
}

func TestMergeAccumulatesProvenanceNotes(t *testing.T) {
	prog := iface.NewProgram()
	prog.Inst[0x1000] = "jz 0x2000"
	prog.Inst[0x2000] = "hlt"
	img := iface.NewBinaryImage(0, nil, 0, nil, 0, nil)
	exp := explorer.New(prog, img, config.Defaults(), bv.NewConcreteOracle("t_"), logrus.NewEntry(logrus.New()))
	exp.Run(0x1000)

	r := New()
	r.Merge(prog, exp)

	require.NotEmpty(t, r.Provenance())
	assert.Contains(t, r.Provenance()[0], "0x1000")
}

func TestAddAmbiguousAccumulates(t *testing.T) {
	r := New()
	r.AddAmbiguous(0x100, "mov ax,1")
	r.AddAmbiguous(0x200, "mov eax,1")
	assert.Len(t, r.ambiguous, 2)
}

func TestSetFatalKeepsFirstError(t *testing.T) {
	r := New()
	r.SetFatal(errors.New("first"))
	r.SetFatal(errors.New("second"))
	assert.EqualError(t, r.Fatal(), "first")
}

func TestCheckpointSaveLoadRoundTrip(t *testing.T) {
	r := New()
	prog := iface.NewProgram()
	prog.Inst[0x3000] = "hlt"
	img := iface.NewBinaryImage(0, nil, 0, nil, 0, nil)
	exp := explorer.New(prog, img, config.Defaults(), bv.NewConcreteOracle("t_"), logrus.NewEntry(logrus.New()))
	exp.JTEntries[0x4000] = explorer.JTRecord{Operand: "rbx", Targets: []uint64{0x5000}}
	r.Merge(prog, exp)

	ckpt := r.Snapshot([]uint64{0x1000, 0x2000})
	path := filepath.Join(t.TempDir(), "ckpt.gob")
	require.NoError(t, SaveCheckpoint(path, ckpt))

	loaded, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0x1000, 0x2000}, loaded.Completed)
	assert.Empty(t, loaded.Visited, "0x3000 was never visited by the merged explorer")

	r2 := New()
	r2.Seed(prog)
	r2.Restore(loaded)
	require.Len(t, r2.Unreachable(), 1)
	assert.Equal(t, uint64(0x3000), r2.Unreachable()[0].Addr)

	tables := r2.JumpTables()
	require.Contains(t, tables, uint64(0x4000))
}

func TestRestoreUnionsVisitedFromCheckpointWithNewMerges(t *testing.T) {
	prog := iface.NewProgram()
	prog.Inst[0x1000] = "mov rax,rbx"
	prog.Inst[0x2000] = "mov rcx,rdx"
	img := iface.NewBinaryImage(0, nil, 0, nil, 0, nil)

	r := New()
	expA := explorer.New(prog, img, config.Defaults(), bv.NewConcreteOracle("a_"), logrus.NewEntry(logrus.New()))
	expA.Visited[0x1000] = true
	r.Merge(prog, expA)
	ckpt := r.Snapshot([]uint64{0x1000})

	r2 := New()
	r2.Seed(prog)
	r2.Restore(ckpt)
	expB := explorer.New(prog, img, config.Defaults(), bv.NewConcreteOracle("b_"), logrus.NewEntry(logrus.New()))
	expB.Visited[0x2000] = true
	r2.Merge(prog, expB)

	assert.Empty(t, r2.Unreachable(), "both entries' visited sets, old and newly merged, must be reflected")
}
