package testutils

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

// LabelHash returns a hash whose leading bytes spell label. Labels longer
// than a hash are truncated, so tests should keep them short.
func LabelHash(label string) *externalapi.DomainHash {
	var hashBytes [externalapi.DomainHashSize]byte
	copy(hashBytes[:], label)
	return externalapi.NewDomainHashFromByteArray(&hashBytes)
}

// LabelHashes returns the LabelHash of every label
func LabelHashes(labels ...string) []*externalapi.DomainHash {
	hashes := make([]*externalapi.DomainHash, len(labels))
	for i, label := range labels {
		hashes[i] = LabelHash(label)
	}
	return hashes
}

// Link returns an unlinked ChainBlockLink for the labelled block at height,
// pointing at the labelled parent.
func Link(label string, height uint64, parentLabel string) *externalapi.ChainBlockLink {
	return &externalapi.ChainBlockLink{
		BlockHash:         LabelHash(label),
		Height:            height,
		PreviousBlockHash: LabelHash(parentLabel),
	}
}
