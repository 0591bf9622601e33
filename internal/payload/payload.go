// Package payload decodes the application payload carried by a verified VAA
// into a transfer intent.
//
// The wire format is UTF-8 text with colon separated fields:
//
//	nft:asset:metadata
//	nft-to:asset:destination:metadata
//
// asset identifies the source collection and metadata the token within it.
// metadata is always the last field and runs to the end of the payload, so it
// may itself contain colons (ipfs://..., ar://...). The nft-to form names the
// account that receives the wrapped asset; destination must be a bare
// alphanumeric address.
package payload

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	KindNFT = "nft"
	// KindNFTAddressed carries an explicit destination ahead of the metadata.
	KindNFTAddressed = "nft-to"

	fieldSeparator       = ":"
	maxDestinationLength = 66

	// MaxPayloadLength bounds the payload accepted by Decode.
	MaxPayloadLength = 1024
)

var (
	ErrInvalidPayload = errors.New("invalid payload")

	ErrEmptyPayload     = errors.Wrap(ErrInvalidPayload, "payload is empty")
	ErrPayloadTooLong   = errors.Wrap(ErrInvalidPayload, "payload too long")
	ErrNotUTF8          = errors.Wrap(ErrInvalidPayload, "payload is not valid UTF-8")
	ErrMalformedPayload = errors.Wrap(ErrInvalidPayload, "malformed payload")
	ErrUnsupportedKind  = errors.Wrap(ErrInvalidPayload, "unsupported payload kind")
)

// TransferIntent is what a verified payload asks the receiver to mint.
type TransferIntent struct {
	Kind            string
	AssetDescriptor string
	Metadata        string
	// Destination is empty when the payload does not name one.
	Destination string
}

// Decode parses payload bytes into a TransferIntent. It never returns a
// partially populated intent.
func Decode(b []byte) (TransferIntent, error) {
	if len(b) == 0 {
		return TransferIntent{}, ErrEmptyPayload
	}
	if len(b) > MaxPayloadLength {
		return TransferIntent{}, errors.Wrapf(ErrPayloadTooLong, "%d bytes", len(b))
	}
	if !utf8.Valid(b) {
		return TransferIntent{}, ErrNotUTF8
	}

	text := string(b)
	if i := strings.IndexFunc(text, unicode.IsControl); i >= 0 {
		return TransferIntent{}, errors.Wrapf(ErrMalformedPayload, "control character at offset %d", i)
	}

	kind, rest, ok := strings.Cut(text, fieldSeparator)
	if !ok {
		return TransferIntent{}, errors.Wrap(ErrMalformedPayload, "missing asset")
	}

	var fields []string
	switch kind {
	case KindNFT:
		fields = strings.SplitN(rest, fieldSeparator, 2)
	case KindNFTAddressed:
		fields = strings.SplitN(rest, fieldSeparator, 3)
	default:
		return TransferIntent{}, errors.Wrapf(ErrUnsupportedKind, "%q", kind)
	}

	want := 2
	if kind == KindNFTAddressed {
		want = 3
	}
	if len(fields) != want {
		return TransferIntent{}, errors.Wrapf(ErrMalformedPayload, "%s payload needs %d fields after the kind, got %d", kind, want, len(fields))
	}
	for i, f := range fields {
		if strings.TrimSpace(f) == "" {
			return TransferIntent{}, errors.Wrapf(ErrMalformedPayload, "field %d is empty", i+1)
		}
	}

	intent := TransferIntent{Kind: KindNFT, AssetDescriptor: fields[0]}
	if kind == KindNFTAddressed {
		if err := checkDestination(fields[1]); err != nil {
			return TransferIntent{}, err
		}
		intent.Destination = fields[1]
		intent.Metadata = fields[2]
	} else {
		intent.Metadata = fields[1]
	}
	return intent, nil
}

// checkDestination only checks the shape shared by base58 and 0x-hex
// accounts. Minters validate the address for their own chain.
func checkDestination(dest string) error {
	if len(dest) > maxDestinationLength {
		return errors.Wrapf(ErrMalformedPayload, "destination is %d characters", len(dest))
	}
	for _, r := range dest {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return errors.Wrapf(ErrMalformedPayload, "destination contains %q", r)
		}
	}
	return nil
}

// Encode is the inverse of Decode. It does not validate its input.
func Encode(intent TransferIntent) []byte {
	if intent.Destination == "" {
		return []byte(strings.Join([]string{intent.Kind, intent.AssetDescriptor, intent.Metadata}, fieldSeparator))
	}
	kind := intent.Kind
	if kind == KindNFT {
		kind = KindNFTAddressed
	}
	return []byte(strings.Join([]string{kind, intent.AssetDescriptor, intent.Destination, intent.Metadata}, fieldSeparator))
}
