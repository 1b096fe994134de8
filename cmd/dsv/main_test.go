package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProgramJSON(t *testing.T, in programInput) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, json.NewEncoder(f).Encode(in))
	return path
}

func TestLoadProgramParsesInstructionsNextAndSymbols(t *testing.T) {
	in := programInput{
		Instructions: map[string]string{"0x1000": "mov rax,rbx", "0x1004": "ret"},
		Next:         map[string]string{"0x1000": "0x1004"},
		Symbols:      map[string]string{"0x1000": "main"},
		Entries:      []string{"0x1000"},
	}
	path := writeProgramJSON(t, in)

	prog, img, entries, err := loadProgram(path)
	require.NoError(t, err)
	require.NotNil(t, img)

	text, ok := prog.Instruction(0x1000)
	require.True(t, ok)
	assert.Equal(t, "mov rax,rbx", text)

	next, ok := prog.NextAddr(0x1000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x1004), next)

	sym, ok := prog.SymbolAt(0x1000)
	require.True(t, ok)
	assert.Equal(t, "main", sym)

	require.Len(t, entries, 1)
	assert.Equal(t, uint64(0x1000), entries[0])
}

func TestLoadProgramDecodesSections(t *testing.T) {
	in := programInput{
		Instructions: map[string]string{},
		Entries:      []string{},
	}
	in.Sections.Text.Base = "0x2000"
	in.Sections.Text.Bytes = "9090"
	path := writeProgramJSON(t, in)

	_, img, _, err := loadProgram(path)
	require.NoError(t, err)
	assert.True(t, img.InText(0x2000))
	assert.False(t, img.InText(0x3000))
}

func TestLoadProgramRejectsMalformedAddress(t *testing.T) {
	in := programInput{Instructions: map[string]string{"not-an-address": "nop"}}
	path := writeProgramJSON(t, in)
	_, _, _, err := loadProgram(path)
	assert.Error(t, err)
}

func TestLoadProgramMissingFileErrors(t *testing.T) {
	_, _, _, err := loadProgram(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestBuildRootCmdRegistersSubcommands(t *testing.T) {
	root := buildRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["explore"])
	assert.True(t, names["verify"])
	assert.True(t, names["resume"])
}

func TestExploreRequiresInputFlag(t *testing.T) {
	root := buildRootCmd()
	root.SetArgs([]string{"explore"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.Execute()
	assert.Error(t, err)
}
