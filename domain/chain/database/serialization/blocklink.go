package serialization

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	blockLinkFieldBlockHash           protowire.Number = 1
	blockLinkFieldHeight              protowire.Number = 2
	blockLinkFieldPreviousBlockHash   protowire.Number = 3
	blockLinkFieldIsLinked            protowire.Number = 4
	blockLinkFieldIsIrreversibleBlock protowire.Number = 5
	blockLinkFieldExecutionStatus     protowire.Number = 6
)

// SerializeChainBlockLink encodes link in protobuf wire format
func SerializeChainBlockLink(link *externalapi.ChainBlockLink) []byte {
	b := make([]byte, 0, 2*externalapi.DomainHashSize+24)
	b = appendHashField(b, blockLinkFieldBlockHash, link.BlockHash)
	b = appendVarintField(b, blockLinkFieldHeight, link.Height)
	b = appendHashField(b, blockLinkFieldPreviousBlockHash, link.PreviousBlockHash)
	b = appendVarintField(b, blockLinkFieldIsLinked, protowire.EncodeBool(link.IsLinked))
	b = appendVarintField(b, blockLinkFieldIsIrreversibleBlock, protowire.EncodeBool(link.IsIrreversibleBlock))
	b = appendVarintField(b, blockLinkFieldExecutionStatus, uint64(link.ExecutionStatus))
	return b
}

// DeserializeChainBlockLink decodes a link written by SerializeChainBlockLink
func DeserializeChainBlockLink(data []byte) (*externalapi.ChainBlockLink, error) {
	link := &externalapi.ChainBlockLink{}
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, bool, error) {
		var n int
		var err error
		var value uint64
		switch num {
		case blockLinkFieldBlockHash:
			link.BlockHash, n, err = consumeHash(typ, data)
		case blockLinkFieldPreviousBlockHash:
			link.PreviousBlockHash, n, err = consumeHash(typ, data)
		case blockLinkFieldHeight:
			link.Height, n, err = consumeVarint(typ, data)
		case blockLinkFieldIsLinked:
			value, n, err = consumeVarint(typ, data)
			link.IsLinked = protowire.DecodeBool(value)
		case blockLinkFieldIsIrreversibleBlock:
			value, n, err = consumeVarint(typ, data)
			link.IsIrreversibleBlock = protowire.DecodeBool(value)
		case blockLinkFieldExecutionStatus:
			value, n, err = consumeVarint(typ, data)
			if err == nil && value > uint64(externalapi.ExecutionFailed) {
				err = errors.Errorf("unknown execution status %d", value)
			}
			link.ExecutionStatus = externalapi.ExecutionStatus(value)
		default:
			return 0, false, nil
		}
		return n, true, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to deserialize chain block link")
	}
	if link.BlockHash == nil {
		return nil, errors.New("serialized chain block link is missing its block hash")
	}
	return link, nil
}
