package internal

import (
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/wormhole-demo/nft-receiver/internal/guardians"
)

var (
	testEmitter   = vaaLib.Address{12: 0xde, 13: 0xad, 30: 0xbe, 31: 0xef}
	testTimestamp = time.Unix(1_700_000_000, 0)
)

// testGuardians is a guardian set whose private keys the test controls.
type testGuardians struct {
	keys []*ecdsa.PrivateKey
	set  *guardians.GuardianSet
}

func newTestGuardians(t *testing.T, n int, index uint32) *testGuardians {
	t.Helper()
	g := &testGuardians{set: &guardians.GuardianSet{Index: index}}
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		g.keys = append(g.keys, key)
		g.set.Keys = append(g.set.Keys, crypto.PubkeyToAddress(key.PublicKey))
	}
	return g
}

func newTestVAA(guardianSetIndex uint32, sequence uint64, payload string) *vaaLib.VAA {
	return &vaaLib.VAA{
		Version:          SupportedVAAVersion,
		GuardianSetIndex: guardianSetIndex,
		Timestamp:        testTimestamp,
		Nonce:            42,
		EmitterChain:     vaaLib.ChainIDEthereum,
		EmitterAddress:   testEmitter,
		Sequence:         sequence,
		ConsistencyLevel: 1,
		Payload:          []byte(payload),
	}
}

// sign replaces v's signatures with ones from the guardians at indices, in
// the order given.
func (g *testGuardians) sign(t *testing.T, v *vaaLib.VAA, indices ...int) {
	t.Helper()
	digest := SigningDigest(v)
	v.Signatures = nil
	for _, i := range indices {
		sig, err := crypto.Sign(digest.Bytes(), g.keys[i])
		require.NoError(t, err)
		s := &vaaLib.Signature{Index: uint8(i)}
		copy(s.Signature[:], sig)
		v.Signatures = append(v.Signatures, s)
	}
}

func (g *testGuardians) signedBytes(t *testing.T, v *vaaLib.VAA, indices ...int) []byte {
	t.Helper()
	g.sign(t, v, indices...)
	return MarshalVAA(v)
}

func addressOf(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
