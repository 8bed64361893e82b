package main

import (
	"context"
	"math/rand"

	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/kaspanet/chainkeeper/domain/chain/utils/hashes"
	"github.com/pkg/errors"
)

type simulationResult struct {
	Generated      int                `json:"generated"`
	NotLinked      int                `json:"notLinked"`
	Linked         int                `json:"linked"`
	MultipleLinked int                `json:"multipleLinked"`
	BestChainFound int                `json:"bestChainFound"`
	PrunedOrphans  int                `json:"prunedOrphans"`
	Chain          *externalapi.Chain `json:"chain"`
}

func simulate(ctx context.Context, chainManager externalapi.ChainManager, conf *simulateConfig) error {
	result, err := runSimulation(ctx, chainManager, conf)
	if err != nil {
		return err
	}
	return printJSON(result)
}

// runSimulation grows a random block tree on top of the chain's best tip.
// Every block extends the newest block, except that with probability
// ForkRate it forks off a random older one. The chain is created with the
// derived genesis when it does not exist yet. Cancelling ctx stops the run
// between two blocks.
func runSimulation(ctx context.Context, chainManager externalapi.ChainManager, conf *simulateConfig) (*simulationResult, error) {
	if conf.Blocks < 0 {
		return nil, errors.Errorf("blocks must not be negative, got %d", conf.Blocks)
	}
	if conf.ForkRate < 0 || conf.ForkRate > 1 {
		return nil, errors.Errorf("fork-rate must be between 0 and 1, got %f", conf.ForkRate)
	}

	chain, err := chainManager.GetChain(conf.ChainID)
	if errors.Is(err, ruleerrors.ErrUnknownChain) {
		chain, err = chainManager.CreateChain(conf.ChainID, hashes.GenesisHash(conf.ChainID))
	}
	if err != nil {
		return nil, err
	}

	random := rand.New(rand.NewSource(conf.Seed))
	blocks := generateBlocks(random, conf, chain)
	if conf.Shuffle {
		random.Shuffle(len(blocks), func(i, j int) {
			blocks[i], blocks[j] = blocks[j], blocks[i]
		})
	}

	result := &simulationResult{Generated: len(blocks)}
	for _, block := range blocks {
		if ctx.Err() != nil {
			return nil, errors.WithStack(ctx.Err())
		}
		status, err := chainManager.AttachBlockToChain(conf.ChainID, block)
		if err != nil {
			return nil, err
		}
		if status.Has(externalapi.StatusNotLinked) {
			result.NotLinked++
		}
		if status.Has(externalapi.StatusLinked) {
			result.Linked++
		}
		if status.Has(externalapi.StatusMultipleLinked) {
			result.MultipleLinked++
		}
		if status.Has(externalapi.StatusBestChainFound) {
			result.BestChainFound++
		}
	}

	if conf.Finalize > 0 {
		result.PrunedOrphans, err = finalizeBelowTip(chainManager, conf.ChainID, conf.Finalize)
		if err != nil {
			return nil, err
		}
	}

	result.Chain, err = chainManager.GetChain(conf.ChainID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func generateBlocks(random *rand.Rand, conf *simulateConfig, chain *externalapi.Chain) []*externalapi.ChainBlockLink {
	// The salt keeps the hashes of consecutive runs over the same chain apart
	salt := uint64(conf.Seed)<<32 ^ chain.BestChainHeight
	base := &externalapi.ChainBlockLink{BlockHash: chain.BestChainHash, Height: chain.BestChainHeight}

	blocks := make([]*externalapi.ChainBlockLink, 0, conf.Blocks)
	for i := 0; i < conf.Blocks; i++ {
		parent := base
		if len(blocks) > 0 {
			parent = blocks[len(blocks)-1]
			if random.Float64() < conf.ForkRate {
				parent = blocks[random.Intn(len(blocks))]
			}
		}

		height := parent.Height + 1
		blocks = append(blocks, &externalapi.ChainBlockLink{
			BlockHash:         hashes.LinkHash(conf.ChainID, parent.BlockHash, height, salt+uint64(i)),
			Height:            height,
			PreviousBlockHash: parent.BlockHash,
		})
	}
	return blocks
}

// finalizeBelowTip makes the best chain block depth blocks below the tip
// irreversible and prunes the orphans that can no longer link.
func finalizeBelowTip(chainManager externalapi.ChainManager, chainID uint32, depth uint64) (int, error) {
	chain, err := chainManager.GetChain(chainID)
	if err != nil {
		return 0, err
	}
	if chain.BestChainHeight < depth || chain.BestChainHeight-depth <= chain.LastIrreversibleBlockHeight {
		return 0, nil
	}
	targetHeight := chain.BestChainHeight - depth

	current := chain.BestChainHash
	for {
		blockLink, err := chainManager.GetChainBlockLink(chainID, current)
		if err != nil {
			return 0, err
		}
		if blockLink.Height == targetHeight {
			break
		}
		current = blockLink.PreviousBlockHash
	}

	err = chainManager.SetIrreversibleBlock(chainID, current)
	if err != nil {
		return 0, err
	}
	return chainManager.PruneOrphans(chainID)
}
