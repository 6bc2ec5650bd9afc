// Package sigauth authenticates the pool's delegated operator by secp256k1
// signature recovery. It lets the pool, as a composite custody entity,
// answer an external coordinator's challenge as if it were a simple
// key-holding principal: the coordinator submits a challenge hash and a
// signature, and the pool confirms the signature came from its current
// operator key.
//
// The verification result is data, not an exception: a fixed 4-byte success
// marker or a fixed 4-byte failure marker (the EIP-1271 magic values), so a
// calling verifier can forward the response unchanged.
package sigauth

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the only accepted signature size: 32-byte R, 32-byte S
// and one recovery byte.
const SignatureLength = 65

// Marker is the fixed 4-byte verification response.
type Marker [4]byte

var (
	// MarkerValid is returned when the recovered signer is the operator
	// (EIP-1271 isValidSignature magic value).
	MarkerValid = Marker{0x16, 0x26, 0xba, 0x7e}

	// MarkerInvalid is returned for every verification failure.
	MarkerInvalid = Marker{0xff, 0xff, 0xff, 0xff}
)

// ErrInvalidSignatureLength rejects signatures of any length other than 65
// bytes before recovery is attempted.
var ErrInvalidSignatureLength = errors.New("signature must be 65 bytes")

// OperatorSource yields the identity signatures must recover to. The
// engine's Pool satisfies it, so verification always tracks the current
// operator through two-step transfers.
type OperatorSource interface {
	Operator() common.Address
}

// Verifier checks challenge signatures against an operator source.
type Verifier struct {
	operator OperatorSource
}

// New returns a Verifier bound to the given operator source.
func New(src OperatorSource) *Verifier {
	return &Verifier{operator: src}
}

// RecoverSigner recovers the signing identity from a 65-byte [R || S || V]
// signature over hash. V is accepted in the canonical {27, 28} domain as
// well as the raw {0, 1} domain used by the underlying curve library.
func RecoverSigner(hash common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, ErrInvalidSignatureLength
	}

	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	pub, err := crypto.SigToPub(hash.Bytes(), normalized)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether sig is the operator's signature over hash.
// A wrong-length signature is the caller's input error and is returned as
// such; every other failure mode (unrecoverable signature, wrong signer,
// zero recovered identity, unset operator) is the failure marker.
func (v *Verifier) Verify(hash common.Hash, sig []byte) (Marker, error) {
	if len(sig) != SignatureLength {
		return MarkerInvalid, ErrInvalidSignatureLength
	}

	signer, err := RecoverSigner(hash, sig)
	if err != nil {
		return MarkerInvalid, nil
	}

	// The zero check guards against malformed signatures recovering to the
	// null identity and an unset operator matching them.
	operator := v.operator.Operator()
	if signer == (common.Address{}) || operator == (common.Address{}) {
		return MarkerInvalid, nil
	}
	if signer != operator {
		return MarkerInvalid, nil
	}
	return MarkerValid, nil
}
