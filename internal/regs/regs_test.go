package regs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupParent(t *testing.T) {
	info, ok := Lookup("rax")
	require.True(t, ok)
	assert.Equal(t, "rax", info.Parent)
	assert.Equal(t, uint(0), info.Offset)
	assert.Equal(t, uint(64), info.Width)
}

func TestLookupSubRegisters(t *testing.T) {
	for name, want := range map[string]Info{
		"eax": {Parent: "rax", Offset: 0, Width: 32},
		"ax":  {Parent: "rax", Offset: 0, Width: 16},
		"al":  {Parent: "rax", Offset: 0, Width: 8},
		"ah":  {Parent: "rax", Offset: 8, Width: 8},
		"r8d": {Parent: "r8", Offset: 0, Width: 32},
		"r8w": {Parent: "r8", Offset: 0, Width: 16},
		"r8b": {Parent: "r8", Offset: 0, Width: 8},
	} {
		info, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, info, name)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("zmm0")
	assert.False(t, ok)
}

func TestRootOf(t *testing.T) {
	assert.Equal(t, "rax", RootOf("al"))
	assert.Equal(t, "rax", RootOf("ah"))
	assert.Equal(t, "", RootOf("not-a-register"))
}

func TestIsZeroExtending64(t *testing.T) {
	assert.True(t, IsZeroExtending64("eax"))
	assert.False(t, IsZeroExtending64("ax"))
	assert.False(t, IsZeroExtending64("rax"))
	assert.False(t, IsZeroExtending64("ah"))
}

func TestPairFor(t *testing.T) {
	assert.Equal(t, Pair{High: "ah", Low: "al"}, PairFor(8))
	assert.Equal(t, Pair{High: "dx", Low: "ax"}, PairFor(16))
	assert.Equal(t, Pair{High: "edx", Low: "eax"}, PairFor(32))
	assert.Equal(t, Pair{High: "rdx", Low: "rax"}, PairFor(64))
}

func TestCallerSavedHasNoCalleeSaved(t *testing.T) {
	calleeSaved := map[string]bool{"rbx": true, "rbp": true, "r12": true, "r13": true, "r14": true, "r15": true}
	for _, r := range CallerSaved {
		assert.False(t, calleeSaved[r], "caller-saved list should not include callee-saved register %s", r)
	}
}
