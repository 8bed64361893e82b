package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kaspanet/chainkeeper/domain/chain"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/kaspanet/chainkeeper/domain/chain/utils/testutils"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/dbfactory"
	"github.com/stretchr/testify/require"
)

func newTestChainManager(t *testing.T) externalapi.ChainManager {
	db, err := dbfactory.Open(dbfactory.Options{Type: dbfactory.TypeMemory, Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	chainManager, err := chain.NewFactory().NewChainManager(chain.DefaultConfig(), db)
	require.NoError(t, err)
	return chainManager
}

func writeFeed(t *testing.T, name string, records ...*linkRecord) string {
	var buffer bytes.Buffer
	for _, record := range records {
		line, err := json.Marshal(record)
		require.NoError(t, err)
		buffer.Write(line)
		buffer.WriteByte('\n')
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buffer.Bytes(), 0600))
	return path
}

func record(chainID uint32, label string, height uint64, parentLabel string) *linkRecord {
	r := &linkRecord{ChainID: chainID, BlockHash: testutils.LabelHash(label), Height: height}
	if parentLabel != "" {
		r.PreviousBlockHash = testutils.LabelHash(parentLabel)
	}
	return r
}

func TestImportFiles(t *testing.T) {
	chainManager := newTestChainManager(t)

	firstFeed := writeFeed(t, "first.jsonl",
		record(1, "g1", 0, ""),
		record(1, "a2", 2, "a1"),
		record(1, "a1", 1, "g1"),
		record(1, "a1", 1, "g1"),
	)
	secondFeed := writeFeed(t, "second.jsonl",
		record(2, "g2", 0, ""),
		record(2, "b1", 1, "g2"),
		record(2, "b2", 2, "b1"),
		record(2, "b2'", 2, "b1"),
	)

	results, err := importFiles(context.Background(), chainManager, []string{firstFeed, secondFeed})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, &importResult{
		Feed: firstFeed, Records: 4, CreatedChains: 1, NotLinked: 1, Linked: 1, BestChainFound: 1, Unchanged: 1,
	}, results[0])
	require.Equal(t, &importResult{
		Feed: secondFeed, Records: 4, CreatedChains: 1, Linked: 3, BestChainFound: 2,
	}, results[1])

	firstChain, err := chainManager.GetChain(1)
	require.NoError(t, err)
	require.Equal(t, uint64(2), firstChain.BestChainHeight)
	require.True(t, firstChain.BestChainHash.Equal(testutils.LabelHash("a2")))

	secondChain, err := chainManager.GetChain(2)
	require.NoError(t, err)
	require.Equal(t, uint64(2), secondChain.BestChainHeight)
	require.True(t, secondChain.BestChainHash.Equal(testutils.LabelHash("b2")))

	// Re-importing a genesis is accepted, a different genesis is not
	_, err = importFiles(context.Background(), chainManager, []string{
		writeFeed(t, "again.jsonl", record(2, "g2", 0, "")),
	})
	require.NoError(t, err)
	_, err = importFiles(context.Background(), chainManager, []string{
		writeFeed(t, "other.jsonl", record(2, "x", 0, "")),
	})
	require.Error(t, err)
}

func TestImportFeedErrors(t *testing.T) {
	chainManager := newTestChainManager(t)

	tests := []struct {
		name string
		feed string
	}{
		{name: "malformed line", feed: "{\"chainId\": 1,"},
		{name: "bad hash", feed: `{"chainId": 1, "blockHash": "00", "height": 0}`},
		{name: "missing block hash", feed: `{"chainId": 1, "height": 0}`},
		{name: "unknown chain", feed: `{"chainId": 7, "blockHash": "` + testutils.LabelHash("a").String() +
			`", "height": 1, "previousBlockHash": "` + testutils.LabelHash("g").String() + `"}`},
		{name: "missing previous block hash", feed: `{"chainId": 7, "blockHash": "` + testutils.LabelHash("a").String() +
			`", "height": 1}`},
	}
	for _, test := range tests {
		_, err := importFeed(context.Background(), chainManager, "feed", strings.NewReader("\n"+test.feed))
		require.Error(t, err, test.name)
		require.Contains(t, err.Error(), "feed:2", test.name)
	}

	_, err := importFeed(context.Background(), chainManager, "feed", strings.NewReader(`{"chainId": 7, "blockHash": "`+
		testutils.LabelHash("a").String()+`", "height": 1, "previousBlockHash": "`+testutils.LabelHash("g").String()+`"}`))
	require.ErrorIs(t, err, ruleerrors.ErrUnknownChain)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = importFeed(ctx, chainManager, "feed", strings.NewReader(`{"chainId": 1}`))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunSimulation(t *testing.T) {
	conf := &simulateConfig{ChainFlags: ChainFlags{ChainID: 3}, Blocks: 60, ForkRate: 0.3, Seed: 11}

	inOrder, err := runSimulation(context.Background(), newTestChainManager(t), conf)
	require.NoError(t, err)
	require.Equal(t, 60, inOrder.Generated)
	require.Equal(t, 60, inOrder.Linked)
	require.Zero(t, inOrder.NotLinked)
	require.Zero(t, inOrder.MultipleLinked)
	require.NotZero(t, inOrder.Chain.BestChainHeight)
	require.Empty(t, inOrder.Chain.NotLinkedBlocks)

	again, err := runSimulation(context.Background(), newTestChainManager(t), conf)
	require.NoError(t, err)
	require.True(t, inOrder.Chain.Equal(again.Chain), "the same seed produced different chains")

	shuffledConf := *conf
	shuffledConf.Shuffle = true
	shuffled, err := runSimulation(context.Background(), newTestChainManager(t), &shuffledConf)
	require.NoError(t, err)
	require.Equal(t, 60, shuffled.Linked+shuffled.NotLinked)
	require.Empty(t, shuffled.Chain.NotLinkedBlocks)
	require.Equal(t, inOrder.Chain.BestChainHeight, shuffled.Chain.BestChainHeight)
}

func TestRunSimulationFinalize(t *testing.T) {
	chainManager := newTestChainManager(t)
	conf := &simulateConfig{ChainFlags: ChainFlags{ChainID: 4}, Blocks: 20, Seed: 1, Finalize: 5}

	result, err := runSimulation(context.Background(), chainManager, conf)
	require.NoError(t, err)
	require.Equal(t, uint64(20), result.Chain.BestChainHeight)
	require.Equal(t, uint64(15), result.Chain.LastIrreversibleBlockHeight)

	blockIndex, err := chainManager.GetChainBlockIndex(4, 15)
	require.NoError(t, err)
	require.True(t, blockIndex.BlockHash.Equal(result.Chain.LastIrreversibleBlockHash))

	// A second run extends the existing chain
	result, err = runSimulation(context.Background(), chainManager, conf)
	require.NoError(t, err)
	require.Equal(t, uint64(40), result.Chain.BestChainHeight)
	require.Equal(t, uint64(35), result.Chain.LastIrreversibleBlockHeight)

	_, err = runSimulation(context.Background(), chainManager, &simulateConfig{ChainFlags: ChainFlags{ChainID: 4}, ForkRate: 2})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runSimulation(ctx, chainManager, conf)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunSubCommand(t *testing.T) {
	chainManager := newTestChainManager(t)
	var buffer bytes.Buffer
	output = &buffer
	defer func() { output = os.Stdout }()

	genesis := testutils.LabelHash("g")
	err := runSubCommand(context.Background(), chainManager, createSubCmd, &createConfig{ChainFlags{5}, genesis.String()})
	require.NoError(t, err)

	buffer.Reset()
	err = runSubCommand(context.Background(), chainManager, attachSubCmd, &attachConfig{
		ChainFlags:        ChainFlags{5},
		BlockHash:         testutils.LabelHash("a").String(),
		Height:            1,
		PreviousBlockHash: genesis.String(),
	})
	require.NoError(t, err)
	require.Contains(t, buffer.String(), `"status": "Linked|BestChainFound"`)

	buffer.Reset()
	err = runSubCommand(context.Background(), chainManager, finalizeSubCmd, &finalizeConfig{ChainFlags{5}, testutils.LabelHash("a").String()})
	require.NoError(t, err)

	buffer.Reset()
	err = runSubCommand(context.Background(), chainManager, indexSubCmd, &indexConfig{ChainFlags{5}, 1})
	require.NoError(t, err)
	require.Contains(t, buffer.String(), testutils.LabelHash("a").String())

	err = runSubCommand(context.Background(), chainManager, indexSubCmd, &indexConfig{ChainFlags{5}, 2})
	require.ErrorIs(t, err, ruleerrors.ErrHeightNotFinalized)

	err = runSubCommand(context.Background(), chainManager, attachSubCmd, &attachConfig{
		ChainFlags:        ChainFlags{5},
		BlockHash:         "zz",
		Height:            1,
		PreviousBlockHash: genesis.String(),
	})
	require.Error(t, err)

	err = runSubCommand(context.Background(), chainManager, attachSubCmd, &attachConfig{
		ChainFlags:        ChainFlags{5},
		BlockHash:         testutils.LabelHash("b").String(),
		Height:            2,
		PreviousBlockHash: testutils.LabelHash("a").String(),
	})
	require.NoError(t, err)

	buffer.Reset()
	err = runSubCommand(context.Background(), chainManager, removeSubCmd, &removeConfig{ChainFlags{5}, testutils.LabelHash("b").String()})
	require.NoError(t, err)
	chain, err := chainManager.GetChain(5)
	require.NoError(t, err)
	require.True(t, chain.BestChainHash.Equal(testutils.LabelHash("a")))

	err = runSubCommand(context.Background(), chainManager, removeSubCmd, &removeConfig{ChainFlags{5}, testutils.LabelHash("a").String()})
	require.ErrorIs(t, err, ruleerrors.ErrIrreversibleBranchRemoval)

	err = runSubCommand(context.Background(), chainManager, "nope", nil)
	require.Error(t, err)
}
