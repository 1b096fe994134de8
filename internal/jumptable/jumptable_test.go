package jumptable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtsse/dsvcheck/internal/bv"
	"github.com/vtsse/dsvcheck/internal/config"
	"github.com/vtsse/dsvcheck/internal/iface"
	"github.com/vtsse/dsvcheck/internal/state"
)

func le64(addrs ...uint64) []byte {
	var out []byte
	for _, a := range addrs {
		for i := 0; i < 8; i++ {
			out = append(out, byte(a>>(8*i)))
		}
	}
	return out
}

func newStoreAt(w uint) *state.Store {
	return state.New(bv.NewConcreteOracle("t_"), w)
}

func TestRecoverEndToEndStrictBound(t *testing.T) {
	cfg := config.Defaults()
	tableBytes := le64(0x5000, 0x5010, 0x5020, 0x5030)
	img := iface.NewBinaryImage(0x3000, tableBytes, 0, nil, 0, nil)

	trace := []Step{
		{Addr: 0x1000, InstText: "cmp rax,3", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1004, InstText: "ja 0x9999", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1008, InstText: "mov rbx,[0x3000+rax*8]", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x100c, InstText: "jmp rbx", Pre: newStoreAt(cfg.AddrWidth)},
	}

	res, ok := Recover(trace, cfg, img)
	require.True(t, ok)
	assert.Equal(t, uint64(4), res.Bound, "ja decodes a strict bound N+1")
	assert.Equal(t, []uint64{0x5000, 0x5010, 0x5020, 0x5030}, res.Targets)
}

func TestRecoverNonStrictBound(t *testing.T) {
	cfg := config.Defaults()
	tableBytes := le64(0x5000, 0x5010, 0x5020)
	img := iface.NewBinaryImage(0x3000, tableBytes, 0, nil, 0, nil)

	trace := []Step{
		{Addr: 0x1000, InstText: "cmp rax,2", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1004, InstText: "jae 0x9999", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1008, InstText: "mov rbx,[0x3000+rax*8]", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x100c, InstText: "jmp rbx", Pre: newStoreAt(cfg.AddrWidth)},
	}

	res, ok := Recover(trace, cfg, img)
	require.True(t, ok)
	assert.Equal(t, uint64(2), res.Bound, "jae decodes a non-strict bound N")
	assert.Equal(t, []uint64{0x5000, 0x5010}, res.Targets)
}

func TestRecoverDirectIndexedJumpWithoutSeparateRowLoad(t *testing.T) {
	cfg := config.Defaults()
	tableBytes := le64(0x5000, 0x5010, 0x5020, 0x5030)
	img := iface.NewBinaryImage(0x3000, tableBytes, 0, nil, 0, nil)

	trace := []Step{
		{Addr: 0x1000, InstText: "cmp rax,3", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1004, InstText: "ja 0x9999", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1008, InstText: "jmp [0x3000+rax*8]", Pre: newStoreAt(cfg.AddrWidth)},
	}

	res, ok := Recover(trace, cfg, img)
	require.True(t, ok, "the indirect jump's own indexed memory operand is a valid row expression")
	assert.Equal(t, uint64(4), res.Bound)
	assert.Equal(t, []uint64{0x5000, 0x5010, 0x5020, 0x5030}, res.Targets)
}

func TestRecoverDirectIndexedCallWithoutSeparateRowLoad(t *testing.T) {
	cfg := config.Defaults()
	tableBytes := le64(0x5000, 0x5010)
	img := iface.NewBinaryImage(0x3000, tableBytes, 0, nil, 0, nil)

	trace := []Step{
		{Addr: 0x1000, InstText: "cmp rax,2", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1004, InstText: "jae 0x9999", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1008, InstText: "call [0x3000+rax*8]", Pre: newStoreAt(cfg.AddrWidth)},
	}

	res, ok := Recover(trace, cfg, img)
	require.True(t, ok)
	assert.Equal(t, uint64(2), res.Bound)
	assert.Equal(t, []uint64{0x5000, 0x5010}, res.Targets)
}

func TestRecoverFailsWithoutRowLoad(t *testing.T) {
	cfg := config.Defaults()
	img := iface.NewBinaryImage(0, nil, 0, nil, 0, nil)
	trace := []Step{
		{Addr: 0x1000, InstText: "mov rax,rbx", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1004, InstText: "jmp rax", Pre: newStoreAt(cfg.AddrWidth)},
	}
	_, ok := Recover(trace, cfg, img)
	assert.False(t, ok)
}

func TestRecoverFailsWithoutBound(t *testing.T) {
	cfg := config.Defaults()
	img := iface.NewBinaryImage(0x3000, le64(0x5000), 0, nil, 0, nil)
	trace := []Step{
		{Addr: 0x1000, InstText: "mov rbx,[0x3000+rax*8]", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1004, InstText: "jmp rbx", Pre: newStoreAt(cfg.AddrWidth)},
	}
	_, ok := Recover(trace, cfg, img)
	assert.False(t, ok, "no preceding bound check means the table can't be recovered")
}

func TestRecoverFailsWhenTableReadRunsPastImage(t *testing.T) {
	cfg := config.Defaults()
	img := iface.NewBinaryImage(0x3000, le64(0x5000), 0, nil, 0, nil) // only 1 entry available
	trace := []Step{
		{Addr: 0x1000, InstText: "cmp rax,3", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1004, InstText: "ja 0x9999", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x1008, InstText: "mov rbx,[0x3000+rax*8]", Pre: newStoreAt(cfg.AddrWidth)},
		{Addr: 0x100c, InstText: "jmp rbx", Pre: newStoreAt(cfg.AddrWidth)},
	}
	_, ok := Recover(trace, cfg, img)
	assert.False(t, ok)
}

func TestRecoverEmptyTraceFails(t *testing.T) {
	cfg := config.Defaults()
	img := iface.NewBinaryImage(0, nil, 0, nil, 0, nil)
	_, ok := Recover(nil, cfg, img)
	assert.False(t, ok)
}
