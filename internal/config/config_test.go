package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchSpecConstants(t *testing.T) {
	d := Defaults()
	assert.Equal(t, uint(64), d.AddrWidth)
	assert.Equal(t, 25, d.MaxVisitCount)
	assert.Equal(t, 20, d.MaxTracebackCount)
	assert.Equal(t, uint64(0x10000000), d.MinHeapAddr)
}

func TestInitStackFramePointerPerWidth(t *testing.T) {
	assert.Equal(t, uint64(1<<48-9), Config{AddrWidth: 64}.InitStackFramePointer())
	assert.Equal(t, uint64(1<<24-5), Config{AddrWidth: 32}.InitStackFramePointer())
	assert.Equal(t, uint64(1<<12-3), Config{AddrWidth: 16}.InitStackFramePointer())
	assert.Equal(t, uint64(1<<48-9), Config{AddrWidth: 128}.InitStackFramePointer(), "unrecognized width falls back to 64-bit")
}

func TestMaxHeapAddrIsRealBound(t *testing.T) {
	c := Config{MinHeapAddr: 0x1000, MaxMallocSize: 0x10}
	assert.Greater(t, c.MaxHeapAddr(), c.MinHeapAddr)
}

func TestBindFlagsAndLoadRoundTrip(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Set("addr-width", "32"))
	require.NoError(t, flags.Set("max-visit-count", "7"))

	v := viper.New()
	require.NoError(t, v.BindPFlags(flags))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, uint(32), cfg.AddrWidth)
	assert.Equal(t, 7, cfg.MaxVisitCount)
	assert.Equal(t, d0(t).MinHeapAddr, cfg.MinHeapAddr, "unset flags keep their bound default")
}

func d0(t *testing.T) Config {
	t.Helper()
	return Defaults()
}
