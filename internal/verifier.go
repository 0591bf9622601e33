package internal

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/wormhole-demo/nft-receiver/internal/guardians"
)

// CalculateQuorum returns the number of signatures needed from a guardian
// set of n keys: ceil(2n/3).
func CalculateQuorum(n int) int {
	return (2*n + 2) / 3
}

// CheckGuardianIndexOrder verifies that signature guardian indices are
// strictly increasing and all below setSize. Strict ordering rules out
// duplicate signers without a seen-set.
func CheckGuardianIndexOrder(sigs []*vaaLib.Signature, setSize int) error {
	for i, sig := range sigs {
		if int(sig.Index) >= setSize {
			return errors.Wrapf(ErrGuardianIndexOutOfBounds, "signature %d: index %d, set size %d", i, sig.Index, setSize)
		}
		if i > 0 && sig.Index <= sigs[i-1].Index {
			return errors.Wrapf(ErrGuardianIndexOrder, "signature %d: index %d after %d", i, sig.Index, sigs[i-1].Index)
		}
	}
	return nil
}

// RecoverSigner returns the address that produced sig over digest.
func RecoverSigner(digest common.Hash, sig vaaLib.SignatureData) (common.Address, error) {
	pub, err := crypto.SigToPub(digest.Bytes(), sig[:])
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignatures checks that v carries a quorum of valid signatures over
// digest from gs. now is the verifier's wall clock.
func VerifySignatures(v *vaaLib.VAA, digest common.Hash, gs *guardians.GuardianSet, now time.Time) error {
	if gs == nil {
		return errors.Wrapf(ErrUnknownGuardianSet, "index %d", v.GuardianSetIndex)
	}
	if v.GuardianSetIndex != gs.Index {
		return errors.Wrapf(ErrGuardianSetMismatch, "VAA references %d, got set %d", v.GuardianSetIndex, gs.Index)
	}
	if gs.ExpiredAt(now) || gs.ExpiredAt(v.Timestamp) {
		return errors.Wrapf(ErrGuardianSetExpired, "set %d expired at %d", gs.Index, gs.ExpirationTime)
	}
	if len(gs.Keys) == 0 {
		return errors.Wrapf(ErrNoQuorum, "guardian set %d is empty", gs.Index)
	}

	quorum := CalculateQuorum(len(gs.Keys))
	if len(v.Signatures) < quorum {
		return errors.Wrapf(ErrNoQuorum, "%d signatures, need %d of %d", len(v.Signatures), quorum, len(gs.Keys))
	}

	if err := CheckGuardianIndexOrder(v.Signatures, len(gs.Keys)); err != nil {
		return err
	}

	for _, sig := range v.Signatures {
		signer, err := RecoverSigner(digest, sig.Signature)
		if err != nil {
			return errors.Wrapf(ErrInvalidSignature, "guardian %d: %v", sig.Index, err)
		}
		if signer != gs.Keys[sig.Index] {
			if i := gs.KeyIndex(signer); i >= 0 {
				return errors.Wrapf(ErrInvalidSignature, "guardian %d: signed by guardian %d", sig.Index, i)
			}
			return errors.Wrapf(ErrInvalidSignature, "guardian %d: recovered %s", sig.Index, signer.Hex())
		}
	}

	return nil
}
