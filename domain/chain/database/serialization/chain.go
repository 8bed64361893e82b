package serialization

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	chainFieldID                          protowire.Number = 1
	chainFieldGenesisBlockHash            protowire.Number = 2
	chainFieldBestChainHash               protowire.Number = 3
	chainFieldBestChainHeight             protowire.Number = 4
	chainFieldLastIrreversibleBlockHash   protowire.Number = 5
	chainFieldLastIrreversibleBlockHeight protowire.Number = 6
)

// SerializeChain encodes chain in protobuf wire format. NotLinkedBlocks
// lives in the orphan registry and is not part of the record.
func SerializeChain(chain *externalapi.Chain) []byte {
	b := make([]byte, 0, 3*externalapi.DomainHashSize+32)
	b = appendVarintField(b, chainFieldID, uint64(chain.ID))
	b = appendHashField(b, chainFieldGenesisBlockHash, chain.GenesisBlockHash)
	b = appendHashField(b, chainFieldBestChainHash, chain.BestChainHash)
	b = appendVarintField(b, chainFieldBestChainHeight, chain.BestChainHeight)
	b = appendHashField(b, chainFieldLastIrreversibleBlockHash, chain.LastIrreversibleBlockHash)
	b = appendVarintField(b, chainFieldLastIrreversibleBlockHeight, chain.LastIrreversibleBlockHeight)
	return b
}

// DeserializeChain decodes a chain written by SerializeChain
func DeserializeChain(data []byte) (*externalapi.Chain, error) {
	chain := &externalapi.Chain{}
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, bool, error) {
		var n int
		var err error
		switch num {
		case chainFieldID:
			var id uint64
			id, n, err = consumeVarint(typ, data)
			if err == nil && id > uint64(^uint32(0)) {
				err = errors.Errorf("chain id %d overflows uint32", id)
			}
			chain.ID = uint32(id)
		case chainFieldGenesisBlockHash:
			chain.GenesisBlockHash, n, err = consumeHash(typ, data)
		case chainFieldBestChainHash:
			chain.BestChainHash, n, err = consumeHash(typ, data)
		case chainFieldBestChainHeight:
			chain.BestChainHeight, n, err = consumeVarint(typ, data)
		case chainFieldLastIrreversibleBlockHash:
			chain.LastIrreversibleBlockHash, n, err = consumeHash(typ, data)
		case chainFieldLastIrreversibleBlockHeight:
			chain.LastIrreversibleBlockHeight, n, err = consumeVarint(typ, data)
		default:
			return 0, false, nil
		}
		return n, true, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to deserialize chain")
	}
	if chain.GenesisBlockHash == nil || chain.BestChainHash == nil || chain.LastIrreversibleBlockHash == nil {
		return nil, errors.New("serialized chain is missing a required hash")
	}
	return chain, nil
}
