package externalapi

import "fmt"

// ExecutionStatus records what happened when the execution layer ran a block.
type ExecutionStatus uint8

// Execution statuses
const (
	ExecutionNone ExecutionStatus = iota
	ExecutionSuccess
	ExecutionFailed
)

var executionStatusStrings = map[ExecutionStatus]string{
	ExecutionNone:    "None",
	ExecutionSuccess: "Success",
	ExecutionFailed:  "Failed",
}

func (s ExecutionStatus) String() string {
	if str, ok := executionStatusStrings[s]; ok {
		return str
	}
	return fmt.Sprintf("ExecutionStatus(%d)", uint8(s))
}

// ExecutionStatusFromString returns the status named by s, and false if
// s names none.
func ExecutionStatusFromString(s string) (ExecutionStatus, bool) {
	for status, str := range executionStatusStrings {
		if str == s {
			return status, true
		}
	}
	return ExecutionNone, false
}

// ChainBlockLink is one vertex of the block-link graph.
type ChainBlockLink struct {
	BlockHash           *DomainHash
	Height              uint64
	PreviousBlockHash   *DomainHash
	IsLinked            bool
	IsIrreversibleBlock bool
	ExecutionStatus     ExecutionStatus
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = ChainBlockLink{&DomainHash{}, 0, &DomainHash{}, false, false, ExecutionNone}

// Clone returns a clone of ChainBlockLink
func (l *ChainBlockLink) Clone() *ChainBlockLink {
	return &ChainBlockLink{
		BlockHash:           l.BlockHash,
		Height:              l.Height,
		PreviousBlockHash:   l.PreviousBlockHash,
		IsLinked:            l.IsLinked,
		IsIrreversibleBlock: l.IsIrreversibleBlock,
		ExecutionStatus:     l.ExecutionStatus,
	}
}

// Equal returns whether l equals to other
func (l *ChainBlockLink) Equal(other *ChainBlockLink) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.BlockHash.Equal(other.BlockHash) &&
		l.Height == other.Height &&
		l.PreviousBlockHash.Equal(other.PreviousBlockHash) &&
		l.IsLinked == other.IsLinked &&
		l.IsIrreversibleBlock == other.IsIrreversibleBlock &&
		l.ExecutionStatus == other.ExecutionStatus
}

func (l *ChainBlockLink) String() string {
	return fmt.Sprintf("%s (height %d, previous %s, linked %t)",
		l.BlockHash, l.Height, l.PreviousBlockHash, l.IsLinked)
}
