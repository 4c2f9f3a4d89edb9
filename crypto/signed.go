package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
)

// Signed bundles a payload with the public key, signature and content hash
// that authenticate it. The hash is the digest of the canonical
// encoding of Data; the signature is PKCS#1 v1.5 with SHA-256 over that
// hash.
type Signed[T any] struct {
	PublicKey PublicKey `json:"public_key"`
	Signature []byte    `json:"-"`
	Hash      Hash      `json:"hash"`
	Data      T         `json:"data"`
}

type signedWire[T any] struct {
	PublicKey PublicKey `json:"public_key"`
	Signature string    `json:"signature"`
	Hash      Hash      `json:"hash"`
	Data      T         `json:"data"`
}

// MarshalJSON encodes the signature as base64 for the wire.
func (s Signed[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(signedWire[T]{
		PublicKey: s.PublicKey,
		Signature: base64.StdEncoding.EncodeToString(s.Signature),
		Hash:      s.Hash,
		Data:      s.Data,
	})
}

func (s *Signed[T]) UnmarshalJSON(data []byte) error {
	var wire signedWire[T]
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(wire.Signature)
	if err != nil {
		return err
	}
	s.PublicKey = wire.PublicKey
	s.Signature = sig
	s.Hash = wire.Hash
	s.Data = wire.Data
	return nil
}

// Sign computes hash = SHA256(canonical_encode(data)), signs hash with priv
// and returns the resulting envelope, embedding priv's public key.
func Sign[T any](priv PrivateKey, data T) (Signed[T], error) {
	hash := DigestJSON(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv.key, stdcrypto.SHA256, hash[:])
	if err != nil {
		return Signed[T]{}, err
	}
	return Signed[T]{
		PublicKey: priv.PublicKey(),
		Signature: sig,
		Hash:      hash,
		Data:      data,
	}, nil
}

// NewInvalidSigned wraps data in an envelope that is intentionally
// unverifiable: it carries the sentinel invalid public key and an empty
// signature. This is used only for the genesis transaction and block.
func NewInvalidSigned[T any](data T) Signed[T] {
	return Signed[T]{
		PublicKey: InvalidPublicKey,
		Signature: nil,
		Hash:      DigestJSON(data),
		Data:      data,
	}
}

// Verify recomputes the hash of Data and checks it against the embedded
// hash, then verifies the signature under the embedded public key. Either
// mismatch yields ErrInvalidSignature.
func (s Signed[T]) Verify() error {
	if s.PublicKey.IsInvalid() {
		return ErrInvalidSignature
	}
	recomputed := DigestJSON(s.Data)
	if recomputed != s.Hash {
		return ErrInvalidSignature
	}
	if err := rsa.VerifyPKCS1v15(s.PublicKey.rsaKey(), stdcrypto.SHA256, s.Hash[:], s.Signature); err != nil {
		return ErrInvalidSignature
	}
	return nil
}
