package internal

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
)

// normalizeEmitterHex removes the 0x prefix, lowercases and left-pads to 64 characters
func normalizeEmitterHex(addr string) string {
	addr = strings.TrimPrefix(strings.TrimSpace(addr), "0x")
	addr = strings.ToLower(addr)
	for len(addr) < 64 {
		addr = "0" + addr
	}
	return addr
}

// ParseEmitterAddress parses a hex emitter address of up to 32 bytes
func ParseEmitterAddress(s string) (vaaLib.Address, error) {
	var addr vaaLib.Address
	normalized := normalizeEmitterHex(s)
	if len(normalized) != 64 {
		return addr, fmt.Errorf("emitter address %q longer than 32 bytes", s)
	}
	raw, err := hex.DecodeString(normalized)
	if err != nil {
		return addr, fmt.Errorf("invalid emitter address %q: %v", s, err)
	}
	copy(addr[:], raw)
	return addr, nil
}

// ParseChainID accepts a numeric Wormhole chain id or a chain name such as "ethereum"
func ParseChainID(s string) (vaaLib.ChainID, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return vaaLib.ChainID(n), nil
	}
	id, err := vaaLib.ChainIDFromString(s)
	if err != nil {
		return vaaLib.ChainIDUnset, fmt.Errorf("unknown chain %q: %v", s, err)
	}
	return id, nil
}

// ParseEmitters parses chain=emitter pairs into an emitter allowlist
func ParseEmitters(pairs []string) (map[vaaLib.ChainID]vaaLib.Address, error) {
	emitters := make(map[vaaLib.ChainID]vaaLib.Address, len(pairs))
	for _, pair := range pairs {
		chain, emitter, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("emitter %q is not in chain=address form", pair)
		}
		chainID, err := ParseChainID(chain)
		if err != nil {
			return nil, err
		}
		addr, err := ParseEmitterAddress(emitter)
		if err != nil {
			return nil, err
		}
		emitters[chainID] = addr
	}
	return emitters, nil
}

// DecodeVAAString decodes a VAA given as hex (with or without 0x) or standard base64
func DecodeVAAString(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty VAA")
	}
	if raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x")); err == nil {
		return raw, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("VAA is neither hex nor base64")
	}
	return raw, nil
}
