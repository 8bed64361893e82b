package serialization

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const hashesFieldHash protowire.Number = 1

// SerializeHashes encodes hashes as a repeated bytes field
func SerializeHashes(hashes []*externalapi.DomainHash) []byte {
	b := make([]byte, 0, len(hashes)*(externalapi.DomainHashSize+2))
	for _, hash := range hashes {
		b = appendHashField(b, hashesFieldHash, hash)
	}
	return b
}

// DeserializeHashes decodes hashes written by SerializeHashes, keeping their order
func DeserializeHashes(data []byte) ([]*externalapi.DomainHash, error) {
	hashes := make([]*externalapi.DomainHash, 0, len(data)/(externalapi.DomainHashSize+2))
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, bool, error) {
		if num != hashesFieldHash {
			return 0, false, nil
		}
		hash, n, err := consumeHash(typ, data)
		if err == nil && n >= 0 {
			hashes = append(hashes, hash)
		}
		return n, true, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to deserialize hashes")
	}
	return hashes, nil
}
