package hashes

import (
	"encoding/binary"

	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

// LinkHash derives a block hash for a link that carries no block body,
// as used by simulations and tests. Different salts under the same parent
// and height give competing siblings.
func LinkHash(chainID uint32, previousBlockHash *externalapi.DomainHash, height uint64, salt uint64) *externalapi.DomainHash {
	writer := NewLinkHashWriter()

	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], chainID)
	writer.InfallibleWrite(buf[:4])
	if previousBlockHash != nil {
		writer.InfallibleWrite(previousBlockHash.ByteSlice())
	}
	binary.LittleEndian.PutUint64(buf[:], height)
	writer.InfallibleWrite(buf[:])
	binary.LittleEndian.PutUint64(buf[:], salt)
	writer.InfallibleWrite(buf[:])

	return writer.Finalize()
}

// GenesisHash derives the genesis hash of a simulated chain
func GenesisHash(chainID uint32) *externalapi.DomainHash {
	return LinkHash(chainID, nil, 0, 0)
}
