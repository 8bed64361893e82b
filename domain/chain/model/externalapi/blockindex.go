package externalapi

// ChainBlockIndex is the canonical block at a finalized height.
type ChainBlockIndex struct {
	Height    uint64
	BlockHash *DomainHash
}
