package serialization

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// fieldHandler consumes the value of one field from data and returns the
// number of bytes it consumed. Fields it does not handle are skipped.
type fieldHandler func(num protowire.Number, typ protowire.Type, data []byte) (n int, handled bool, err error)

func consumeFields(data []byte, handle fieldHandler) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "malformed field tag")
		}
		data = data[n:]

		n, handled, err := handle(num, typ, data)
		if err != nil {
			return err
		}
		if !handled {
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return errors.Wrapf(protowire.ParseError(n), "malformed value of field %d", num)
		}
		data = data[n:]
	}
	return nil
}

func appendHashField(b []byte, num protowire.Number, hash *externalapi.DomainHash) []byte {
	if hash == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, hash.ByteSlice())
}

func appendVarintField(b []byte, num protowire.Number, value uint64) []byte {
	if value == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, value)
}

func consumeHash(typ protowire.Type, data []byte) (*externalapi.DomainHash, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, errors.Errorf("unexpected wire type %d for a hash", typ)
	}
	hashBytes, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, n, nil
	}
	hash, err := externalapi.NewDomainHashFromByteSlice(hashBytes)
	if err != nil {
		return nil, 0, err
	}
	return hash, n, nil
}

func consumeVarint(typ protowire.Type, data []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, errors.Errorf("unexpected wire type %d for a varint", typ)
	}
	value, n := protowire.ConsumeVarint(data)
	return value, n, nil
}
