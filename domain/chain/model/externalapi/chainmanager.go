package externalapi

// ChainManager maintains the block-link graph of any number of chains,
// each identified by a numeric id.
type ChainManager interface {
	CreateChain(chainID uint32, genesisHash *DomainHash) (*Chain, error)
	GetChain(chainID uint32) (*Chain, error)
	GetChainBlockLink(chainID uint32, blockHash *DomainHash) (*ChainBlockLink, error)

	AttachBlockToChain(chainID uint32, link *ChainBlockLink) (BlockAttachOperationStatus, error)
	SetIrreversibleBlock(chainID uint32, blockHash *DomainHash) error
	GetChainBlockIndex(chainID uint32, height uint64) (*ChainBlockIndex, error)
	ComputeDivergencePath(chainID uint32, tipA, tipB *DomainHash) (*DivergencePath, error)

	GetNotExecutedBlocks(chainID uint32, blockHash *DomainHash) ([]*ChainBlockLink, error)
	SetChainBlockLinkExecutionStatus(chainID uint32, blockHash *DomainHash, status ExecutionStatus) error
	SetBestChain(chainID uint32, bestChainHeight uint64, bestChainHash *DomainHash) error
	ResetChainToLastIrreversibleBlock(chainID uint32) (*Chain, error)
	RemoveFailedBranch(chainID uint32, blockHash *DomainHash) (*Chain, error)
	PruneOrphans(chainID uint32) (int, error)
}
