package explorer

import "errors"

// Sentinel errors for the path-local error kinds spec §7 names. Every
// one of these is recovered to the path level — the explorer drops
// the offending path, logs at the appropriate level, and keeps
// walking every other path. ErrInvalidInstructionSyntax names the
// fatal kind that report.SetFatal records; the explorer itself never
// returns or logs it, so a ret with a non-immediate operand does not
// abort the exploration.
var (
	// ErrUnrecognizedInstruction is spec §7 kind 1: the mnemonic isn't
	// in the dispatch table. Reported once per mnemonic.
	ErrUnrecognizedInstruction = errors.New("explorer: unrecognized instruction")

	// ErrAmbiguousOperandSize is spec §7 kind 2: the normalizer's
	// assembly round-trip flagged the instruction as under-specified.
	ErrAmbiguousOperandSize = errors.New("explorer: ambiguous operand size")

	// ErrUnresolvedIndirectJump is spec §7 kind 3: jump-table recovery
	// failed (no bound, non-constant entries, symbolic base).
	ErrUnresolvedIndirectJump = errors.New("explorer: unresolved indirect jump")

	// ErrReturnToSymbolicAddress is spec §7 kind 4: ret found a
	// non-concrete value at SP.
	ErrReturnToSymbolicAddress = errors.New("explorer: return to symbolic address")

	// ErrInvalidInstructionSyntax is spec §7 kind 6: a fatal decode
	// error (e.g. ret with a non-immediate operand). No code in this
	// package raises it; see the package comment above.
	ErrInvalidInstructionSyntax = errors.New("explorer: invalid instruction syntax")

	// ErrNextIsSymbolBoundary is the sentinel-return idiom SPEC_FULL.md
	// Part D.3 preserves from cfg_helper.py's get_next_address, which
	// returns -1 when address_next_map[address] is itself a
	// address_sym_table entry. Spec §4.3 requires that a fall-through
	// landing on a labelled function entry be treated as an
	// unconditional branch for visit accounting rather than a
	// continuation of the current function.
	ErrNextIsSymbolBoundary = errors.New("explorer: next address is a labelled symbol boundary")
)
