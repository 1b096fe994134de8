package iface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramLookups(t *testing.T) {
	p := NewProgram()
	p.Inst[0x1000] = "mov rax,rbx"
	p.Next[0x1000] = 0x1004
	p.Sym[0x1000] = "main"

	text, ok := p.Instruction(0x1000)
	require.True(t, ok)
	assert.Equal(t, "mov rax,rbx", text)

	next, ok := p.NextAddr(0x1000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x1004), next)

	sym, ok := p.SymbolAt(0x1000)
	require.True(t, ok)
	assert.Equal(t, "main", sym)
	assert.True(t, p.IsLabelled(0x1000))
	assert.False(t, p.IsLabelled(0x2000))

	_, ok = p.Instruction(0x9999)
	assert.False(t, ok)
}

func TestPrevInstructionFindsNearestWithinGap(t *testing.T) {
	p := NewProgram()
	p.Inst[0x1000] = "mov rax,rbx"

	addr, ok := p.PrevInstruction(0x1005, 25)
	require.True(t, ok)
	assert.Equal(t, uint64(0x1000), addr)
}

func TestPrevInstructionReturnsNearestNotFarthest(t *testing.T) {
	p := NewProgram()
	p.Inst[0x1000] = "mov rax,rbx"
	p.Inst[0x1003] = "mov rcx,rdx"

	addr, ok := p.PrevInstruction(0x1005, 25)
	require.True(t, ok)
	assert.Equal(t, uint64(0x1003), addr)
}

func TestPrevInstructionFailsOutsideGap(t *testing.T) {
	p := NewProgram()
	p.Inst[0x1000] = "mov rax,rbx"

	_, ok := p.PrevInstruction(0x1000+30, 25)
	assert.False(t, ok)
}

func TestPrevInstructionFailsAtAddressZero(t *testing.T) {
	p := NewProgram()
	_, ok := p.PrevInstruction(0, 25)
	assert.False(t, ok)
}

func TestBinaryImageSectionMembership(t *testing.T) {
	img := NewBinaryImage(
		0x4000, []byte{1, 2, 3, 4},
		0x5000, []byte{5, 6},
		0x1000, []byte{0x90, 0x90, 0x90, 0x90},
	)

	assert.True(t, img.InRodata(0x4000))
	assert.True(t, img.InRodata(0x4003))
	assert.False(t, img.InRodata(0x4004))
	assert.True(t, img.InData(0x5001))
	assert.True(t, img.InText(0x1000))
	assert.False(t, img.InText(0x2000))
}

func TestBinaryImageReadBytesLittleEndian(t *testing.T) {
	img := NewBinaryImage(0x4000, []byte{0xcd, 0xab}, 0, nil, 0, nil)
	v, ok := img.ReadBytes(0x4000, 2)
	require.True(t, ok)
	assert.Equal(t, uint64(0xabcd), v)
}

func TestBinaryImageReadBytesOutOfRangeFails(t *testing.T) {
	img := NewBinaryImage(0x4000, []byte{1, 2}, 0, nil, 0, nil)
	_, ok := img.ReadBytes(0x4000, 4)
	assert.False(t, ok)

	_, ok = img.ReadBytes(0x9000, 1)
	assert.False(t, ok)
}

func TestBinaryImageAbsentSectionHasNoMembers(t *testing.T) {
	img := NewBinaryImage(0, nil, 0, nil, 0, nil)
	assert.False(t, img.InRodata(0))
	assert.False(t, img.InData(0))
	assert.False(t, img.InText(0))
}
