package guardians

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/wormhole-demo/nft-receiver/internal/clients"
)

// CoreReader reads guardian sets from a deployed Wormhole core contract.
type CoreReader interface {
	GetGuardianSet(ctx context.Context, coreContract common.Address, index uint32) (*clients.GuardianSetTuple, error)
}

// CoreSource resolves guardian sets from the Wormhole core contract on an EVM chain.
type CoreSource struct {
	reader       CoreReader
	coreContract common.Address
}

func NewCoreSource(reader CoreReader, coreContract common.Address) *CoreSource {
	return &CoreSource{reader: reader, coreContract: coreContract}
}

// GuardianSet fetches index from the core contract. The contract returns an
// empty key list for indices it has never stored.
func (s *CoreSource) GuardianSet(ctx context.Context, index uint32) (*GuardianSet, error) {
	tuple, err := s.reader.GetGuardianSet(ctx, s.coreContract, index)
	if err != nil {
		return nil, errors.Wrapf(err, "read guardian set %d", index)
	}
	if len(tuple.Keys) == 0 {
		return nil, errors.Wrapf(ErrUnknownGuardianSet, "index %d", index)
	}
	return &GuardianSet{
		Index:          index,
		Keys:           tuple.Keys,
		ExpirationTime: tuple.ExpirationTime,
	}, nil
}
