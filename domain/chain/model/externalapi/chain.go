package externalapi

// Chain is the persistent summary of one chain: its genesis, its current
// best tip and its last irreversible block.
type Chain struct {
	ID                          uint32
	GenesisBlockHash            *DomainHash
	BestChainHash               *DomainHash
	BestChainHeight             uint64
	LastIrreversibleBlockHash   *DomainHash
	LastIrreversibleBlockHeight uint64

	// NotLinkedBlocks maps the hex of every missing parent to the hex of
	// the blocks waiting on it. It is a view over the orphan registry and
	// is filled only on chains returned to callers.
	NotLinkedBlocks map[string][]string
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Chain{0, &DomainHash{}, &DomainHash{}, 0, &DomainHash{}, 0, map[string][]string{}}

// Clone returns a clone of Chain
func (c *Chain) Clone() *Chain {
	var notLinkedBlocksClone map[string][]string
	if c.NotLinkedBlocks != nil {
		notLinkedBlocksClone = make(map[string][]string, len(c.NotLinkedBlocks))
		for parent, orphans := range c.NotLinkedBlocks {
			orphansClone := make([]string, len(orphans))
			copy(orphansClone, orphans)
			notLinkedBlocksClone[parent] = orphansClone
		}
	}

	return &Chain{
		ID:                          c.ID,
		GenesisBlockHash:            c.GenesisBlockHash,
		BestChainHash:               c.BestChainHash,
		BestChainHeight:             c.BestChainHeight,
		LastIrreversibleBlockHash:   c.LastIrreversibleBlockHash,
		LastIrreversibleBlockHeight: c.LastIrreversibleBlockHeight,
		NotLinkedBlocks:             notLinkedBlocksClone,
	}
}

// Equal returns whether c equals to other. NotLinkedBlocks is a derived
// view and is not compared.
func (c *Chain) Equal(other *Chain) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.ID == other.ID &&
		c.GenesisBlockHash.Equal(other.GenesisBlockHash) &&
		c.BestChainHash.Equal(other.BestChainHash) &&
		c.BestChainHeight == other.BestChainHeight &&
		c.LastIrreversibleBlockHash.Equal(other.LastIrreversibleBlockHash) &&
		c.LastIrreversibleBlockHeight == other.LastIrreversibleBlockHeight
}
