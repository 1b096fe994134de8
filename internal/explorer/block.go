package explorer

import "github.com/vtsse/dsvcheck/internal/state"

// Kind classifies a block by its last instruction, per spec §4.3's
// state-machine model.
type Kind int

const (
	KindFallThrough Kind = iota
	KindUncondJump
	KindCall
	KindCondJump
	KindRet
	KindIndirectJump
	KindHalt
	KindUnrecognized
)

func (k Kind) String() string {
	switch k {
	case KindFallThrough:
		return "fall-through"
	case KindUncondJump:
		return "unconditional-jump"
	case KindCall:
		return "call"
	case KindCondJump:
		return "conditional-jump"
	case KindRet:
		return "ret"
	case KindIndirectJump:
		return "indirect-jump"
	case KindHalt:
		return "halt"
	default:
		return "unrecognized"
	}
}

// Block is one node of the explored CFG: the instruction at Addr,
// interpreted from Pre into Post, classified by Kind, with the
// addresses it was found to transfer control to.
type Block struct {
	Addr     uint64
	InstText string
	Pre      *state.Store
	Post     *state.Store
	Kind     Kind
	Succ     []uint64
	Parent   *Block
}
