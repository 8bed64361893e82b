package main

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/utils/hashes"
)

func create(chainManager externalapi.ChainManager, conf *createConfig) error {
	genesisHash := hashes.GenesisHash(conf.ChainID)
	if conf.GenesisHash != "" {
		var err error
		genesisHash, err = parseHash("genesis hash", conf.GenesisHash)
		if err != nil {
			return err
		}
	}

	chain, err := chainManager.CreateChain(conf.ChainID, genesisHash)
	if err != nil {
		return err
	}
	return printJSON(chain)
}

type attachResult struct {
	BlockHash *externalapi.DomainHash                `json:"blockHash"`
	Status    externalapi.BlockAttachOperationStatus `json:"status"`
	Chain     *externalapi.Chain                     `json:"chain"`
}

func attach(chainManager externalapi.ChainManager, conf *attachConfig) error {
	blockHash, err := parseHash("block hash", conf.BlockHash)
	if err != nil {
		return err
	}
	previousBlockHash, err := parseHash("previous block hash", conf.PreviousBlockHash)
	if err != nil {
		return err
	}

	status, err := chainManager.AttachBlockToChain(conf.ChainID, &externalapi.ChainBlockLink{
		BlockHash:         blockHash,
		Height:            conf.Height,
		PreviousBlockHash: previousBlockHash,
	})
	if err != nil {
		return err
	}

	chain, err := chainManager.GetChain(conf.ChainID)
	if err != nil {
		return err
	}
	return printJSON(&attachResult{BlockHash: blockHash, Status: status, Chain: chain})
}

func finalize(chainManager externalapi.ChainManager, conf *finalizeConfig) error {
	blockHash, err := parseHash("block hash", conf.BlockHash)
	if err != nil {
		return err
	}

	err = chainManager.SetIrreversibleBlock(conf.ChainID, blockHash)
	if err != nil {
		return err
	}

	chain, err := chainManager.GetChain(conf.ChainID)
	if err != nil {
		return err
	}
	return printJSON(chain)
}

func index(chainManager externalapi.ChainManager, conf *indexConfig) error {
	blockIndex, err := chainManager.GetChainBlockIndex(conf.ChainID, conf.Height)
	if err != nil {
		return err
	}
	return printJSON(blockIndex)
}

func show(chainManager externalapi.ChainManager, conf *showConfig) error {
	chain, err := chainManager.GetChain(conf.ChainID)
	if err != nil {
		return err
	}
	return printJSON(chain)
}

func link(chainManager externalapi.ChainManager, conf *linkConfig) error {
	blockHash, err := parseHash("block hash", conf.BlockHash)
	if err != nil {
		return err
	}

	blockLink, err := chainManager.GetChainBlockLink(conf.ChainID, blockHash)
	if err != nil {
		return err
	}
	return printJSON(blockLink)
}

func diverge(chainManager externalapi.ChainManager, conf *divergeConfig) error {
	tipA, err := parseHash("tip-a", conf.TipA)
	if err != nil {
		return err
	}
	tipB, err := parseHash("tip-b", conf.TipB)
	if err != nil {
		return err
	}

	path, err := chainManager.ComputeDivergencePath(conf.ChainID, tipA, tipB)
	if err != nil {
		return err
	}
	return printJSON(path)
}

type pruneResult struct {
	PrunedOrphans int                `json:"prunedOrphans"`
	Chain         *externalapi.Chain `json:"chain"`
}

func prune(chainManager externalapi.ChainManager, conf *pruneConfig) error {
	prunedCount, err := chainManager.PruneOrphans(conf.ChainID)
	if err != nil {
		return err
	}

	chain, err := chainManager.GetChain(conf.ChainID)
	if err != nil {
		return err
	}
	return printJSON(&pruneResult{PrunedOrphans: prunedCount, Chain: chain})
}

func reset(chainManager externalapi.ChainManager, conf *resetConfig) error {
	chain, err := chainManager.ResetChainToLastIrreversibleBlock(conf.ChainID)
	if err != nil {
		return err
	}
	return printJSON(chain)
}

func removeBranch(chainManager externalapi.ChainManager, conf *removeConfig) error {
	blockHash, err := parseHash("hash", conf.BlockHash)
	if err != nil {
		return err
	}

	chain, err := chainManager.RemoveFailedBranch(conf.ChainID, blockHash)
	if err != nil {
		return err
	}
	return printJSON(chain)
}
