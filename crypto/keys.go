package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
)

// KeySize is the RSA modulus size in bits used for every BlockChat keypair.
const KeySize = 2048

// PublicKey is an RSA public key, serialized on the wire as the big-endian
// byte strings of its modulus and exponent:
//
//	{ modulus: base64, public_exponent: base64 }
type PublicKey struct {
	N *big.Int
	E int
}

// InvalidPublicKey is the sentinel public key that never verifies a
// signature and has no corresponding private key. It is only accepted as
// the signer of the genesis transaction/block.
var InvalidPublicKey = PublicKey{N: big.NewInt(0), E: 0}

// IsInvalid reports whether pub is the sentinel invalid public key. A key
// deserialized from a malformed envelope with no modulus at all counts as
// invalid too.
func (pub PublicKey) IsInvalid() bool {
	return pub.N == nil || (pub.E == 0 && pub.N.Sign() == 0)
}

type encodedPublicKey struct {
	Modulus        string `json:"modulus"`
	PublicExponent string `json:"public_exponent"`
}

func (pub PublicKey) MarshalJSON() ([]byte, error) {
	enc := encodedPublicKey{
		Modulus:        base64.StdEncoding.EncodeToString(pub.N.Bytes()),
		PublicExponent: base64.StdEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
	return json.Marshal(enc)
}

func (pub *PublicKey) UnmarshalJSON(data []byte) error {
	var enc encodedPublicKey
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	modulus, err := base64.StdEncoding.DecodeString(enc.Modulus)
	if err != nil {
		return err
	}
	exponent, err := base64.StdEncoding.DecodeString(enc.PublicExponent)
	if err != nil {
		return err
	}
	pub.N = new(big.Int).SetBytes(modulus)
	pub.E = int(new(big.Int).SetBytes(exponent).Int64())
	return nil
}

func (pub PublicKey) rsaKey() *rsa.PublicKey {
	return &rsa.PublicKey{N: pub.N, E: pub.E}
}

// PrivateKey is an RSA private key used to sign outgoing transactions and
// blocks.
type PrivateKey struct {
	key *rsa.PrivateKey
}

// PublicKey returns the public half of priv.
func (priv PrivateKey) PublicKey() PublicKey {
	return PublicKey{N: priv.key.PublicKey.N, E: priv.key.PublicKey.E}
}

// GenerateKeypair produces a fresh RSA-2048 keypair.
func GenerateKeypair() (PrivateKey, PublicKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, KeySize)
	if err != nil {
		return PrivateKey{}, PublicKey{}, err
	}
	priv := PrivateKey{key: key}
	return priv, priv.PublicKey(), nil
}

// PrivateKeyFromRSA wraps an already-generated or deserialized RSA private
// key, used by the keystore when loading a keyfile from disk.
func PrivateKeyFromRSA(key *rsa.PrivateKey) PrivateKey {
	return PrivateKey{key: key}
}

// RSA exposes the underlying key for the keystore's PKCS#1 encoding.
func (priv PrivateKey) RSA() *rsa.PrivateKey {
	return priv.key
}
