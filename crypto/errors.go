package crypto

import "errors"

var (
	errInvalidHashLength    = errors.New("crypto: invalid hash length")
	errInvalidAddressLength = errors.New("crypto: invalid address length")
	errInvalidAddressChar   = errors.New("crypto: invalid address character")
	// ErrInvalidSignature is returned by Signed[T].Verify when the envelope's
	// recomputed hash does not match the embedded hash, or the signature does
	// not verify under the embedded public key.
	ErrInvalidSignature = errors.New("crypto: invalid signature")
)
