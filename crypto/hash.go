// Package crypto implements the signature and hashing primitives shared by
// every other BlockChat package: content hashing, RSA keypairs, address
// derivation and the signed-envelope container.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// HashSize is the length in bytes of a Hash.
const HashSize = 32

// Hash is a SHA-256 digest of a value's canonical encoding. The zero Hash is
// reserved for the genesis block's parent hash.
type Hash [HashSize]byte

// DigestJSON hashes the canonical (JSON) encoding of v. Every peer must
// encode the same logical value to the same bytes, so canonical encoding is
// delegated to encoding/json applied to values whose field order and types
// are fixed by their Go struct definitions.
func DigestJSON(v interface{}) Hash {
	encoded, err := json.Marshal(v)
	if err != nil {
		panic("crypto: canonical encoding failed: " + err.Error())
	}
	return sha256.Sum256(encoded)
}

// Bytes returns a copy of the digest bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}

// String renders the digest as lowercase hex, the wire representation used
// by Signed[T].
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != HashSize {
		return errInvalidHashLength
	}
	copy(h[:], raw)
	return nil
}

// IsZero reports whether h is the default/genesis-parent hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}
