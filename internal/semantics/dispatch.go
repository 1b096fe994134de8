package semantics

import (
	"strings"

	"github.com/vtsse/dsvcheck/internal/operand"
)

var repPrefixes = map[string]int{
	"rep": 0, "repz": 1, "repe": 1, "repnz": 2, "repne": 2,
}

// IsRepPrefix reports whether mnemonic is one of the rep/repz/repe/
// repnz/repne wrapping prefixes dispatch.go handles outside the
// regular mnemonic table.
func IsRepPrefix(mnemonic string) bool {
	_, ok := repPrefixes[mnemonic]
	return ok
}

// Interpret parses one canonical instruction's mnemonic and operand
// list and runs its transformer, per spec §4.2's dispatcher. The
// rep/repz/repe/repnz/repne family is special-cased here rather than
// in the table: its "operand" is itself a full instruction, not a
// comma-separated operand list.
func Interpret(ctx *Context, instText string) Result {
	instText = strings.TrimSpace(instText)
	mnemonic, rest, _ := strings.Cut(instText, " ")

	if mode, ok := repPrefixes[mnemonic]; ok {
		return repLoop(ctx, strings.TrimSpace(rest), mode)
	}

	ops := parseOperands(rest)
	t, ok := Lookup(mnemonic)
	if !ok {
		return Unknown(ctx, ops)
	}
	return t(ctx, ops)
}

func parseOperands(argsStr string) []operand.Operand {
	if argsStr == "" {
		return nil
	}
	parts := strings.Split(argsStr, ",")
	ops := make([]operand.Operand, len(parts))
	for i, p := range parts {
		ops[i] = operand.Parse(strings.TrimSpace(p))
	}
	return ops
}
