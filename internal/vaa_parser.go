package internal

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/zap"
)

// VAA layout:
//
//	0:     version (1 byte)
//	1-4:   guardian set index (4 bytes)
//	5:     signature count (1 byte)
//	6+:    signatures (66 bytes each: guardian index + 65 byte signature)
//
// Body, after the signatures:
//
//	0-3:   timestamp (4 bytes)
//	4-7:   nonce (4 bytes)
//	8-9:   emitter chain (2 bytes)
//	10-41: emitter address (32 bytes)
//	42-49: sequence (8 bytes)
//	50:    consistency level (1 byte)
//	51+:   payload
const (
	SupportedVAAVersion = 1

	headerLength    = 6
	signatureLength = 66
	bodyHeaderSize  = 51

	// MinVAALength is the smallest buffer that can hold a VAA with no
	// signatures and an empty payload.
	MinVAALength = headerLength + bodyHeaderSize
)

// ParseVAA decodes an untrusted buffer into a VAA. Every length is checked
// against the buffer before slicing; the returned VAA does not alias data.
func ParseVAA(data []byte) (*vaaLib.VAA, error) {
	if len(data) < headerLength {
		return nil, errors.Wrapf(ErrTruncated, "VAA too short: %d bytes", len(data))
	}

	version := data[0]
	if version != SupportedVAAVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}

	guardianSetIndex := binary.BigEndian.Uint32(data[1:5])
	signatureCount := int(data[5])

	signaturesEnd := headerLength + signatureCount*signatureLength
	if len(data) < signaturesEnd {
		return nil, errors.Wrapf(ErrTruncated, "VAA too short for %d signatures: %d bytes", signatureCount, len(data))
	}

	body := data[signaturesEnd:]
	if len(body) < bodyHeaderSize {
		return nil, errors.Wrapf(ErrTruncated, "VAA body too short: %d bytes", len(body))
	}

	signatures := make([]*vaaLib.Signature, signatureCount)
	for i := 0; i < signatureCount; i++ {
		sigStart := headerLength + i*signatureLength
		sig := &vaaLib.Signature{Index: data[sigStart]}
		copy(sig.Signature[:], data[sigStart+1:sigStart+signatureLength])
		signatures[i] = sig
	}

	v := &vaaLib.VAA{
		Version:          version,
		GuardianSetIndex: guardianSetIndex,
		Signatures:       signatures,
		Timestamp:        time.Unix(int64(binary.BigEndian.Uint32(body[0:4])), 0),
		Nonce:            binary.BigEndian.Uint32(body[4:8]),
		EmitterChain:     vaaLib.ChainID(binary.BigEndian.Uint16(body[8:10])),
		Sequence:         binary.BigEndian.Uint64(body[42:50]),
		ConsistencyLevel: body[50],
		Payload:          append([]byte(nil), body[bodyHeaderSize:]...),
	}
	copy(v.EmitterAddress[:], body[10:42])

	return v, nil
}

// MarshalVAA is the inverse of ParseVAA.
func MarshalVAA(v *vaaLib.VAA) []byte {
	buf := make([]byte, headerLength, headerLength+len(v.Signatures)*signatureLength+bodyHeaderSize+len(v.Payload))
	buf[0] = v.Version
	binary.BigEndian.PutUint32(buf[1:5], v.GuardianSetIndex)
	buf[5] = uint8(len(v.Signatures))
	for _, sig := range v.Signatures {
		buf = append(buf, sig.Index)
		buf = append(buf, sig.Signature[:]...)
	}
	return append(buf, SerializeBody(v)...)
}

// LogVAAFull logs all fields of a VAA for debugging
func LogVAAFull(logger *zap.Logger, vaa *vaaLib.VAA, rawBytes []byte) {
	logger.Debug("=== Full VAA Details ===",
		zap.Uint8("version", vaa.Version),
		zap.Uint32("guardianSetIndex", vaa.GuardianSetIndex),
		zap.Int("signatureCount", len(vaa.Signatures)),
		zap.Time("timestamp", vaa.Timestamp),
		zap.Uint32("nonce", vaa.Nonce),
		zap.Uint64("sequence", vaa.Sequence),
		zap.Uint8("consistencyLevel", vaa.ConsistencyLevel),
		zap.Uint16("emitterChain", uint16(vaa.EmitterChain)),
		zap.String("emitterAddress", hex.EncodeToString(vaa.EmitterAddress[:])),
		zap.Int("payloadLength", len(vaa.Payload)),
		zap.String("payloadHex", hex.EncodeToString(vaa.Payload)),
		zap.Int("rawBytesLength", len(rawBytes)),
	)

	for i, sig := range vaa.Signatures {
		logger.Debug("VAA Signature",
			zap.Int("index", i),
			zap.Uint8("guardianIndex", sig.Index),
			zap.String("signature", hex.EncodeToString(sig.Signature[:])),
		)
	}
}
