package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/domain/chain/ruleerrors"
	"github.com/kaspanet/chainkeeper/util/panics"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// linkRecord is one line of an import feed. A record without a previous
// block hash at height 0 creates its chain with the record's block as
// genesis.
type linkRecord struct {
	ChainID           uint32                  `json:"chainId"`
	BlockHash         *externalapi.DomainHash `json:"blockHash"`
	Height            uint64                  `json:"height"`
	PreviousBlockHash *externalapi.DomainHash `json:"previousBlockHash"`
}

func (r *linkRecord) isGenesis() bool {
	return r.PreviousBlockHash == nil && r.Height == 0
}

type importResult struct {
	Feed           string `json:"feed"`
	Records        int    `json:"records"`
	CreatedChains  int    `json:"createdChains"`
	NotLinked      int    `json:"notLinked"`
	Linked         int    `json:"linked"`
	BestChainFound int    `json:"bestChainFound"`
	Unchanged      int    `json:"unchanged"`
}

func importFeeds(ctx context.Context, chainManager externalapi.ChainManager, conf *importConfig) error {
	results, err := importFiles(ctx, chainManager, conf.Files)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func importFiles(ctx context.Context, chainManager externalapi.ChainManager, files []string) ([]*importResult, error) {
	results := make([]*importResult, len(files))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		group.Go(func() (err error) {
			defer panics.RecoverToError("import "+file, &err)

			feed, err := os.Open(file)
			if err != nil {
				return errors.WithStack(err)
			}
			defer feed.Close()

			results[i], err = importFeed(groupCtx, chainManager, file, feed)
			return err
		})
	}
	err := group.Wait()
	if err != nil {
		return nil, err
	}
	return results, nil
}

// importFeed attaches the records of feed in order. It stops at the first
// failing record, or as soon as ctx is cancelled.
func importFeed(ctx context.Context, chainManager externalapi.ChainManager, name string, feed io.Reader) (*importResult, error) {
	result := &importResult{Feed: name}

	scanner := bufio.NewScanner(feed)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if ctx.Err() != nil {
			return nil, errors.WithStack(ctx.Err())
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		record := &linkRecord{}
		err := json.Unmarshal(line, record)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", name, lineNumber)
		}
		if record.BlockHash == nil {
			return nil, errors.Errorf("%s:%d: missing blockHash", name, lineNumber)
		}

		err = importRecord(chainManager, record, result)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", name, lineNumber)
		}
		result.Records++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	log.Infof("Imported %d records from %s", result.Records, name)
	return result, nil
}

func importRecord(chainManager externalapi.ChainManager, record *linkRecord, result *importResult) error {
	if record.isGenesis() {
		_, err := chainManager.CreateChain(record.ChainID, record.BlockHash)
		if err == nil {
			result.CreatedChains++
			return nil
		}
		if !errors.Is(err, ruleerrors.ErrDuplicateChain) {
			return err
		}

		// Feeds may repeat the genesis of a chain another feed created
		chain, err := chainManager.GetChain(record.ChainID)
		if err != nil {
			return err
		}
		if !chain.GenesisBlockHash.Equal(record.BlockHash) {
			return errors.Errorf("chain %d already exists with genesis %s",
				record.ChainID, chain.GenesisBlockHash)
		}
		result.Unchanged++
		return nil
	}

	if record.PreviousBlockHash == nil {
		return errors.New("missing previousBlockHash")
	}

	status, err := chainManager.AttachBlockToChain(record.ChainID, &externalapi.ChainBlockLink{
		BlockHash:         record.BlockHash,
		Height:            record.Height,
		PreviousBlockHash: record.PreviousBlockHash,
	})
	if err != nil {
		return err
	}

	switch {
	case status == externalapi.StatusNone:
		result.Unchanged++
	case status.Has(externalapi.StatusNotLinked):
		result.NotLinked++
	default:
		result.Linked++
		if status.Has(externalapi.StatusBestChainFound) {
			result.BestChainFound++
		}
	}
	return nil
}
