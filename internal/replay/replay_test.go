package replay

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
)

func TestMessageIDString(t *testing.T) {
	id := testID(12)
	assert.Equal(t, "2/0000000000000000000000000000000000000000000000000000000000000042/12", id.String())

	parsed, err := ParseMessageID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestNewMessageIDPadsEmitter(t *testing.T) {
	id, err := NewMessageID("1", "0x42", "12")
	require.NoError(t, err)
	assert.Equal(t, vaaLib.ChainIDSolana, id.EmitterChain)
	assert.Equal(t, byte(0x42), id.EmitterAddress[31])
	assert.Equal(t, uint64(12), id.Sequence)
}

func TestParseMessageIDRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"1/42",
		"70000/42/1",
		"1/zz/1",
		"1/" + string(make([]byte, 66)) + "/1",
		"1/42/-1",
	} {
		_, err := ParseMessageID(s)
		assert.ErrorIs(t, err, ErrInvalidMessageID, s)
	}
}

func TestMessageIDBytes(t *testing.T) {
	id := testID(0x0102030405060708)
	b := id.Bytes()
	require.Len(t, b, MessageIDLength)
	assert.Equal(t, []byte{0x00, 0x02}, b[:2])
	assert.Equal(t, byte(0x42), b[33])
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b[34:])
}

func TestMessageIDOf(t *testing.T) {
	v := &vaaLib.VAA{EmitterChain: vaaLib.ChainIDEthereum, Sequence: 3}
	v.EmitterAddress[0] = 0xaa
	id := MessageIDOf(v)
	assert.Equal(t, v.EmitterChain, id.EmitterChain)
	assert.Equal(t, v.EmitterAddress, id.EmitterAddress)
	assert.Equal(t, v.Sequence, id.Sequence)
}

func TestRecordEncoding(t *testing.T) {
	in := Record{Digest: common.HexToHash("0x1234"), ConsumedAt: time.Unix(1700000000, 123).UTC()}
	out, err := decodeRecord(encodeRecord(in))
	require.NoError(t, err)
	assert.Equal(t, in, *out)

	_, err = decodeRecord([]byte{1, 2, 3})
	assert.Error(t, err)
}
