package explorer

import "strings"

// mnemonicOf strips the lock/data16 prefixes semantics.Lookup also
// strips, and returns the bare first token of an instruction's text.
func mnemonicOf(instText string) string {
	s := strings.TrimSpace(instText)
	s = strings.TrimPrefix(s, "lock ")
	s = strings.TrimPrefix(s, "data16 ")
	m, _, _ := strings.Cut(strings.TrimSpace(s), " ")
	return m
}

// classify implements spec §4.3's "classified per last-instruction
// kind" step.
func classify(mnemonic string) Kind {
	switch mnemonic {
	case "jmp":
		return KindUncondJump
	case "call":
		return KindCall
	case "ret":
		return KindRet
	case "hlt":
		return KindHalt
	}
	if strings.HasPrefix(mnemonic, "j") && mnemonic != "jmp" {
		if _, ok := conditionSuffix(mnemonic); ok {
			return KindCondJump
		}
	}
	return KindFallThrough
}

func conditionSuffix(mnemonic string) (string, bool) {
	if !strings.HasPrefix(mnemonic, "j") || len(mnemonic) <= 1 {
		return "", false
	}
	cc := mnemonic[1:]
	for _, r := range cc {
		if r < 'a' || r > 'z' {
			return "", false
		}
	}
	return cc, true
}
