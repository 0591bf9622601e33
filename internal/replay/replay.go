// Package replay keeps the registry of consumed Wormhole messages.
//
// A message is identified by its emitter chain, emitter address and
// sequence. Every Registry implementation guarantees that Consume returns
// true for a given identifier at most once across all callers sharing the
// same backing store. Entries are never removed.
package replay

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
)

// MessageIDLength is the size of the binary form of a MessageID.
const MessageIDLength = 2 + 32 + 8

var ErrInvalidMessageID = errors.New("invalid message id")

// MessageID is the replay key of a cross-chain message.
type MessageID struct {
	EmitterChain   vaaLib.ChainID
	EmitterAddress vaaLib.Address
	Sequence       uint64
}

// MessageIDOf returns the identifier of v.
func MessageIDOf(v *vaaLib.VAA) MessageID {
	return MessageID{
		EmitterChain:   v.EmitterChain,
		EmitterAddress: v.EmitterAddress,
		Sequence:       v.Sequence,
	}
}

// String renders the id as chain/emitter/sequence.
func (id MessageID) String() string {
	return fmt.Sprintf("%d/%s/%d", uint16(id.EmitterChain), hex.EncodeToString(id.EmitterAddress[:]), id.Sequence)
}

// Bytes is the fixed width big-endian encoding of the id.
func (id MessageID) Bytes() []byte {
	b := make([]byte, MessageIDLength)
	binary.BigEndian.PutUint16(b[0:2], uint16(id.EmitterChain))
	copy(b[2:34], id.EmitterAddress[:])
	binary.BigEndian.PutUint64(b[34:42], id.Sequence)
	return b
}

// ParseMessageID parses the String form of a MessageID. The emitter may be
// shorter than 32 bytes, in which case it is left-padded.
func ParseMessageID(s string) (MessageID, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return MessageID{}, errors.Wrapf(ErrInvalidMessageID, "%q", s)
	}
	return NewMessageID(parts[0], parts[1], parts[2])
}

// NewMessageID builds a MessageID from its textual components.
func NewMessageID(chain, emitter, sequence string) (MessageID, error) {
	chainID, err := strconv.ParseUint(chain, 10, 16)
	if err != nil {
		return MessageID{}, errors.Wrapf(ErrInvalidMessageID, "chain %q", chain)
	}

	emitterHex := strings.TrimPrefix(strings.ToLower(emitter), "0x")
	if len(emitterHex) > 64 {
		return MessageID{}, errors.Wrapf(ErrInvalidMessageID, "emitter %q", emitter)
	}
	raw, err := hex.DecodeString(strings.Repeat("0", 64-len(emitterHex)) + emitterHex)
	if err != nil {
		return MessageID{}, errors.Wrapf(ErrInvalidMessageID, "emitter %q", emitter)
	}

	seq, err := strconv.ParseUint(sequence, 10, 64)
	if err != nil {
		return MessageID{}, errors.Wrapf(ErrInvalidMessageID, "sequence %q", sequence)
	}

	id := MessageID{EmitterChain: vaaLib.ChainID(chainID), Sequence: seq}
	copy(id.EmitterAddress[:], raw)
	return id, nil
}

// Record describes a consumed message.
type Record struct {
	Digest     common.Hash
	ConsumedAt time.Time
}

// Registry is the persistent set of consumed message ids.
type Registry interface {
	// Consume atomically records id as consumed. It returns true if this call
	// inserted the entry and false if the id had already been consumed.
	Consume(ctx context.Context, id MessageID, digest common.Hash) (bool, error)
	// Lookup returns the consumption record for id, or nil if it was never consumed.
	Lookup(ctx context.Context, id MessageID) (*Record, error)
	Close() error
}

// encodeRecord is the value layout shared by the key-value backends:
// 32 byte digest followed by the consumption time in unix nanoseconds.
func encodeRecord(r Record) []byte {
	b := make([]byte, 32+8)
	copy(b[:32], r.Digest[:])
	binary.BigEndian.PutUint64(b[32:], uint64(r.ConsumedAt.UnixNano()))
	return b
}

func decodeRecord(b []byte) (*Record, error) {
	if len(b) != 40 {
		return nil, errors.Errorf("corrupt replay record of %d bytes", len(b))
	}
	r := &Record{ConsumedAt: time.Unix(0, int64(binary.BigEndian.Uint64(b[32:]))).UTC()}
	copy(r.Digest[:], b[:32])
	return r, nil
}
