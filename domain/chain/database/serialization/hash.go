package serialization

import (
	"encoding/binary"

	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/pkg/errors"
)

// Keys are big-endian so that cursor order follows numeric order.
var byteOrder = binary.BigEndian

// SerializeHash serializes hash to a slice of bytes
func SerializeHash(hash *externalapi.DomainHash) []byte {
	return hash.ByteSlice()
}

// DeserializeHash a slice of bytes to a hash
func DeserializeHash(hashBytes []byte) (*externalapi.DomainHash, error) {
	return externalapi.NewDomainHashFromByteSlice(hashBytes)
}

// SerializeHeight serializes a block height into an index key suffix
func SerializeHeight(height uint64) []byte {
	var heightBytes [8]byte
	byteOrder.PutUint64(heightBytes[:], height)
	return heightBytes[:]
}

// DeserializeHeight deserializes an index key suffix into a block height
func DeserializeHeight(heightBytes []byte) (uint64, error) {
	if len(heightBytes) != 8 {
		return 0, errors.Errorf("invalid height length. Want: 8, got: %d", len(heightBytes))
	}
	return byteOrder.Uint64(heightBytes), nil
}

// SerializeChainID serializes a chain id into a bucket name
func SerializeChainID(chainID uint32) []byte {
	var chainIDBytes [4]byte
	byteOrder.PutUint32(chainIDBytes[:], chainID)
	return chainIDBytes[:]
}
