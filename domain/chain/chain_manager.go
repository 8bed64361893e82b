package chain

import (
	"sync"
	"time"

	"github.com/kaspanet/chainkeeper/domain/chain/database"
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/kaspanet/chainkeeper/infrastructure/logger"
	"github.com/pkg/errors"
)

type chainManager struct {
	databaseContext model.DBManager
	config          *Config
	metrics         *metrics

	instances     map[uint32]*chainInstance
	instancesLock *sync.Mutex
}

// instance returns the instance of chainID, loading it on first use. Only
// instances of created chains are kept. For any other id a detached
// instance is returned whose operations fail with ErrUnknownChain.
func (cm *chainManager) instance(chainID uint32) (*chainInstance, error) {
	cm.instancesLock.Lock()
	defer cm.instancesLock.Unlock()

	instance, ok := cm.instances[chainID]
	if ok {
		return instance, nil
	}

	instance = newChainInstance(cm.databaseContext, cm.config, chainID)
	exists, err := instance.chainStore.Has(cm.databaseContext, model.NewStagingArea())
	if err != nil {
		return nil, err
	}
	if !exists {
		instance.isDetached = true
		return instance, nil
	}

	cm.addInstance(instance)
	return instance, nil
}

// instanceForCreation returns the instance of chainID, keeping it even
// though the chain may not exist yet.
func (cm *chainManager) instanceForCreation(chainID uint32) *chainInstance {
	cm.instancesLock.Lock()
	defer cm.instancesLock.Unlock()

	instance, ok := cm.instances[chainID]
	if !ok {
		instance = newChainInstance(cm.databaseContext, cm.config, chainID)
		cm.addInstance(instance)
	}
	return instance
}

func (cm *chainManager) addInstance(instance *chainInstance) {
	log.Debugf("Loading chain %d", instance.id)
	cm.instances[instance.id] = instance
	cm.metrics.loadedChains.Inc()
}

func (cm *chainManager) commit(instance *chainInstance, stagingArea *model.StagingArea) error {
	err := instance.commit(stagingArea)
	if err != nil {
		cm.metrics.failedCommits.Inc()
		return errors.Wrapf(err, "failed committing changes to chain %d", instance.id)
	}
	return nil
}

// CreateChain creates chainID with a single linked, irreversible genesis
// block at height 0
func (cm *chainManager) CreateChain(chainID uint32, genesisHash *externalapi.DomainHash) (*externalapi.Chain, error) {
	instance := cm.instanceForCreation(chainID)
	instance.lock.Lock()
	defer instance.lock.Unlock()

	stagingArea := model.NewStagingArea()
	exists, err := instance.chainStore.Has(cm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Wrapf(ruleerrors.ErrDuplicateChain, "chain %d", chainID)
	}

	chain := &externalapi.Chain{
		ID:                          chainID,
		GenesisBlockHash:            genesisHash,
		BestChainHash:               genesisHash,
		BestChainHeight:             0,
		LastIrreversibleBlockHash:   genesisHash,
		LastIrreversibleBlockHeight: 0,
	}
	instance.chainStore.Stage(stagingArea, chain)
	instance.blockLinkStore.Stage(stagingArea, &externalapi.ChainBlockLink{
		BlockHash:           genesisHash,
		Height:              0,
		PreviousBlockHash:   nil,
		IsLinked:            true,
		IsIrreversibleBlock: true,
		ExecutionStatus:     externalapi.ExecutionNone,
	})
	err = instance.blockIndexStore.Stage(cm.databaseContext, stagingArea, 0, genesisHash)
	if err != nil {
		return nil, err
	}

	err = cm.commit(instance, stagingArea)
	if err != nil {
		return nil, err
	}

	log.Infof("Created chain %d with genesis %s", chainID, genesisHash)
	chain.NotLinkedBlocks = map[string][]string{}
	return chain, nil
}

// GetChain returns the current state of chainID
func (cm *chainManager) GetChain(chainID uint32) (*externalapi.Chain, error) {
	instance, err := cm.instance(chainID)
	if err != nil {
		return nil, err
	}
	instance.lock.RLock()
	defer instance.lock.RUnlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return nil, err
	}
	return instance.chain(stagingArea)
}

// GetChainBlockLink returns the link of blockHash, linked or not
func (cm *chainManager) GetChainBlockLink(chainID uint32, blockHash *externalapi.DomainHash) (
	*externalapi.ChainBlockLink, error) {

	instance, err := cm.instance(chainID)
	if err != nil {
		return nil, err
	}
	instance.lock.RLock()
	defer instance.lock.RUnlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return nil, err
	}

	link, err := instance.blockLinkStore.BlockLink(cm.databaseContext, stagingArea, blockHash)
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(ruleerrors.ErrUnknownBlock, "block %s in chain %d", blockHash, chainID)
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// AttachBlockToChain records link in chainID and links everything that
// became reachable from genesis because of it
func (cm *chainManager) AttachBlockToChain(chainID uint32, link *externalapi.ChainBlockLink) (
	externalapi.BlockAttachOperationStatus, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "AttachBlockToChain")
	defer onEnd()
	start := time.Now()

	instance, err := cm.instance(chainID)
	if err != nil {
		return externalapi.StatusNone, err
	}
	instance.lock.Lock()
	defer instance.lock.Unlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return externalapi.StatusNone, err
	}

	status, err := instance.blockLinker.AttachBlock(stagingArea, link)
	if err != nil {
		return externalapi.StatusNone, err
	}

	err = cm.commit(instance, stagingArea)
	if err != nil {
		return externalapi.StatusNone, err
	}

	cm.metrics.observeAttach(status)
	cm.metrics.attachDuration.Observe(time.Since(start).Seconds())
	return status, nil
}

// SetIrreversibleBlock makes blockHash the last irreversible block of
// chainID and indexes every height up to it
func (cm *chainManager) SetIrreversibleBlock(chainID uint32, blockHash *externalapi.DomainHash) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "SetIrreversibleBlock")
	defer onEnd()
	start := time.Now()

	instance, err := cm.instance(chainID)
	if err != nil {
		return err
	}
	instance.lock.Lock()
	defer instance.lock.Unlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return err
	}

	moved, err := instance.finalityManager.SetIrreversibleBlock(stagingArea, blockHash)
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}

	err = cm.commit(instance, stagingArea)
	if err != nil {
		return err
	}

	cm.metrics.irreversibleMoves.Inc()
	cm.metrics.finalizeDuration.Observe(time.Since(start).Seconds())
	return nil
}

// GetChainBlockIndex returns the canonical block of chainID at a
// finalized height
func (cm *chainManager) GetChainBlockIndex(chainID uint32, height uint64) (*externalapi.ChainBlockIndex, error) {
	instance, err := cm.instance(chainID)
	if err != nil {
		return nil, err
	}
	instance.lock.RLock()
	defer instance.lock.RUnlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return nil, err
	}
	return instance.finalityManager.ChainBlockIndex(stagingArea, height)
}

// ComputeDivergencePath finds where the branches ending at tipA and tipB
// part
func (cm *chainManager) ComputeDivergencePath(chainID uint32, tipA, tipB *externalapi.DomainHash) (
	*externalapi.DivergencePath, error) {

	start := time.Now()

	instance, err := cm.instance(chainID)
	if err != nil {
		return nil, err
	}
	instance.lock.RLock()
	defer instance.lock.RUnlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return nil, err
	}

	path, err := instance.divergenceManager.ComputeDivergencePath(stagingArea, tipA, tipB)
	if err != nil {
		return nil, err
	}
	cm.metrics.divergenceDuration.Observe(time.Since(start).Seconds())
	return path, nil
}

// GetNotExecutedBlocks returns the blocks ending at blockHash that still
// wait for execution, oldest first
func (cm *chainManager) GetNotExecutedBlocks(chainID uint32, blockHash *externalapi.DomainHash) (
	[]*externalapi.ChainBlockLink, error) {

	instance, err := cm.instance(chainID)
	if err != nil {
		return nil, err
	}
	instance.lock.RLock()
	defer instance.lock.RUnlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return nil, err
	}
	return instance.executionManager.NotExecutedBlocks(stagingArea, blockHash)
}

// SetChainBlockLinkExecutionStatus records the execution outcome of blockHash
func (cm *chainManager) SetChainBlockLinkExecutionStatus(chainID uint32, blockHash *externalapi.DomainHash,
	status externalapi.ExecutionStatus) error {

	instance, err := cm.instance(chainID)
	if err != nil {
		return err
	}
	instance.lock.Lock()
	defer instance.lock.Unlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return err
	}

	err = instance.executionManager.SetExecutionStatus(stagingArea, blockHash, status)
	if err != nil {
		return err
	}
	return cm.commit(instance, stagingArea)
}

// SetBestChain moves the best chain of chainID to a linked block of equal
// or greater height
func (cm *chainManager) SetBestChain(chainID uint32, bestChainHeight uint64, bestChainHash *externalapi.DomainHash) error {
	instance, err := cm.instance(chainID)
	if err != nil {
		return err
	}
	instance.lock.Lock()
	defer instance.lock.Unlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return err
	}

	err = instance.bestChainManager.SetBestChain(stagingArea, bestChainHeight, bestChainHash)
	if err != nil {
		return err
	}
	return cm.commit(instance, stagingArea)
}

// ResetChainToLastIrreversibleBlock drops everything chainID learned above
// its last irreversible block and returns the resulting chain
func (cm *chainManager) ResetChainToLastIrreversibleBlock(chainID uint32) (*externalapi.Chain, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ResetChainToLastIrreversibleBlock")
	defer onEnd()

	instance, err := cm.instance(chainID)
	if err != nil {
		return nil, err
	}
	instance.lock.Lock()
	defer instance.lock.Unlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return nil, err
	}

	err = instance.blockLinker.ResetToLastIrreversibleBlock(stagingArea)
	if err != nil {
		return nil, err
	}

	chain, err := instance.chain(stagingArea)
	if err != nil {
		return nil, err
	}

	err = cm.commit(instance, stagingArea)
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// RemoveFailedBranch unlinks blockHash, typically a block whose execution
// failed, and every linked block above it. If the best chain was among
// them, the highest remaining linked block becomes the best chain. It
// returns the resulting chain.
func (cm *chainManager) RemoveFailedBranch(chainID uint32, blockHash *externalapi.DomainHash) (*externalapi.Chain, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "RemoveFailedBranch")
	defer onEnd()

	instance, err := cm.instance(chainID)
	if err != nil {
		return nil, err
	}
	instance.lock.Lock()
	defer instance.lock.Unlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return nil, err
	}

	err = instance.blockLinker.RemoveBranch(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	chain, err := instance.chain(stagingArea)
	if err != nil {
		return nil, err
	}

	err = cm.commit(instance, stagingArea)
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// PruneOrphans drops the orphans of chainID that can no longer be linked
// because they are at or below the last irreversible block. It returns the
// number of orphans dropped.
func (cm *chainManager) PruneOrphans(chainID uint32) (int, error) {
	instance, err := cm.instance(chainID)
	if err != nil {
		return 0, err
	}
	instance.lock.Lock()
	defer instance.lock.Unlock()

	stagingArea := model.NewStagingArea()
	err = instance.requireChain(stagingArea)
	if err != nil {
		return 0, err
	}

	chain, err := instance.chainStore.Chain(cm.databaseContext, stagingArea)
	if err != nil {
		return 0, err
	}

	prunedCount, err := instance.orphanManager.PruneOrphans(stagingArea, chain.LastIrreversibleBlockHeight)
	if err != nil {
		return 0, err
	}
	if prunedCount == 0 {
		return 0, nil
	}

	err = cm.commit(instance, stagingArea)
	if err != nil {
		return 0, err
	}

	log.Infof("Pruned %d orphans of chain %d at or below height %d",
		prunedCount, chainID, chain.LastIrreversibleBlockHeight)
	cm.metrics.prunedOrphans.Add(float64(prunedCount))
	return prunedCount, nil
}
