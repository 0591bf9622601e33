package internal

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func TestSigningDigestIsDoubleKeccakOfBody(t *testing.T) {
	v := newTestVAA(0, 7, "nft:collection123:tokenA")
	body := SerializeBody(v)

	assert.Len(t, body, bodyHeaderSize+len(v.Payload))
	assert.Equal(t, crypto.Keccak256Hash(crypto.Keccak256(body)), SigningDigest(v))
	assert.Equal(t, v.SigningDigest(), SigningDigest(v))
}

func TestSigningDigestIgnoresSignatures(t *testing.T) {
	g := newTestGuardians(t, 3, 0)
	v := newTestVAA(0, 7, "nft:a:b")
	before := SigningDigest(v)

	g.sign(t, v, 0, 1, 2)
	assert.Equal(t, before, SigningDigest(v))
}

func TestSigningDigestCoversEveryBodyField(t *testing.T) {
	base := SigningDigest(newTestVAA(0, 7, "nft:a:b"))

	v := newTestVAA(0, 8, "nft:a:b")
	assert.NotEqual(t, base, SigningDigest(v))

	v = newTestVAA(0, 7, "nft:a:c")
	assert.NotEqual(t, base, SigningDigest(v))

	v = newTestVAA(0, 7, "nft:a:b")
	v.Nonce++
	assert.NotEqual(t, base, SigningDigest(v))

	v = newTestVAA(0, 7, "nft:a:b")
	v.EmitterAddress[0] = 1
	assert.NotEqual(t, base, SigningDigest(v))

	v = newTestVAA(0, 7, "nft:a:b")
	v.ConsistencyLevel = 15
	assert.NotEqual(t, base, SigningDigest(v))
}
