package internal

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
)

// SerializeBody returns the canonical body bytes guardians sign over.
func SerializeBody(v *vaaLib.VAA) []byte {
	body := make([]byte, bodyHeaderSize, bodyHeaderSize+len(v.Payload))
	binary.BigEndian.PutUint32(body[0:4], uint32(v.Timestamp.Unix()))
	binary.BigEndian.PutUint32(body[4:8], v.Nonce)
	binary.BigEndian.PutUint16(body[8:10], uint16(v.EmitterChain))
	copy(body[10:42], v.EmitterAddress[:])
	binary.BigEndian.PutUint64(body[42:50], v.Sequence)
	body[50] = v.ConsistencyLevel
	return append(body, v.Payload...)
}

// SigningDigest is keccak256(keccak256(body)). Guardians sign the double
// hash; the single hash identifies the body elsewhere in the protocol.
func SigningDigest(v *vaaLib.VAA) common.Hash {
	return DoubleKeccak(SerializeBody(v))
}

// DoubleKeccak hashes b twice with keccak256.
func DoubleKeccak(b []byte) common.Hash {
	return crypto.Keccak256Hash(crypto.Keccak256(b))
}
