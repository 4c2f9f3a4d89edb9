// Package keystore persists RSA private keys encrypted at rest in the geth
// keystore shape: scrypt key derivation, AES-128-CTR encryption and a
// Keccak256-based MAC, versioned JSON, UUID key ids.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blockchat-network/blockchat/crypto"
	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/crypto/sha3"
)

const version = 1

// Scrypt parameters. The "light" set is fast enough for CLI/benchmark
// tooling that creates a key and immediately uses it; the "standard" set
// matches geth's default for long-lived node keyfiles.
const (
	LightScryptN = 1 << 12
	LightScryptP = 6
	StdScryptN   = 1 << 18
	StdScryptP   = 1

	scryptR     = 8
	scryptDKLen = 32
)

// Key is a decrypted keyfile in memory.
type Key struct {
	Id         uuid.UUID
	Address    crypto.Address
	PrivateKey crypto.PrivateKey
}

// NewKey wraps priv into a fresh Key with a random id.
func NewKey(priv crypto.PrivateKey) *Key {
	id, err := uuid.NewRandom()
	if err != nil {
		panic("keystore: failed to generate key id: " + err.Error())
	}
	return &Key{
		Id:         id,
		Address:    crypto.AddressFromPublicKey(priv.PublicKey()),
		PrivateKey: priv,
	}
}

type cipherparamsJSON struct {
	IV string `json:"iv"`
}

type cryptoJSON struct {
	Cipher       string                 `json:"cipher"`
	CipherText   string                 `json:"ciphertext"`
	CipherParams cipherparamsJSON       `json:"cipherparams"`
	KDF          string                 `json:"kdf"`
	KDFParams    map[string]interface{} `json:"kdfparams"`
	MAC          string                 `json:"mac"`
}

type encryptedKeyJSON struct {
	Address string     `json:"address"`
	Crypto  cryptoJSON `json:"crypto"`
	Id      string     `json:"id"`
	Version int        `json:"version"`
}

// EncryptKey encrypts key's private key under passphrase and returns the
// versioned JSON keyfile contents.
func EncryptKey(key *Key, passphrase string, scryptN, scryptP int) ([]byte, error) {
	der := x509.MarshalPKCS1PrivateKey(key.PrivateKey.RSA())

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	derivedKey, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, err
	}
	encryptKey := derivedKey[:16]

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	cipherText, err := aesCTRXOR(encryptKey, der, iv)
	if err != nil {
		return nil, err
	}

	mac := sha3.NewLegacyKeccak256()
	mac.Write(derivedKey[16:32])
	mac.Write(cipherText)
	macSum := mac.Sum(nil)

	out := encryptedKeyJSON{
		Address: key.Address.String(),
		Crypto: cryptoJSON{
			Cipher:       "aes-128-ctr",
			CipherText:   hex.EncodeToString(cipherText),
			CipherParams: cipherparamsJSON{IV: hex.EncodeToString(iv)},
			KDF:          "scrypt",
			KDFParams: map[string]interface{}{
				"n":     scryptN,
				"r":     scryptR,
				"p":     scryptP,
				"dklen": scryptDKLen,
				"salt":  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(macSum),
		},
		Id:      key.Id.String(),
		Version: version,
	}
	return json.Marshal(out)
}

// DecryptKey reverses EncryptKey, failing with ErrDecrypt if passphrase is
// wrong or the file has been tampered with.
func DecryptKey(data []byte, passphrase string) (*Key, error) {
	var enc encryptedKeyJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, err
	}
	if enc.Version != version {
		return nil, fmt.Errorf("keystore: unsupported version %d", enc.Version)
	}
	if enc.Crypto.Cipher != "aes-128-ctr" {
		return nil, fmt.Errorf("keystore: unsupported cipher %q", enc.Crypto.Cipher)
	}

	saltHex, _ := enc.Crypto.KDFParams["salt"].(string)
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("keystore: invalid salt: %w", err)
	}
	n := int(enc.Crypto.KDFParams["n"].(float64))
	r := int(enc.Crypto.KDFParams["r"].(float64))
	p := int(enc.Crypto.KDFParams["p"].(float64))
	dkLen := int(enc.Crypto.KDFParams["dklen"].(float64))

	derivedKey, err := scrypt.Key([]byte(passphrase), salt, n, r, p, dkLen)
	if err != nil {
		return nil, err
	}

	cipherText, err := hex.DecodeString(enc.Crypto.CipherText)
	if err != nil {
		return nil, err
	}

	mac := sha3.NewLegacyKeccak256()
	mac.Write(derivedKey[16:32])
	mac.Write(cipherText)
	if hex.EncodeToString(mac.Sum(nil)) != enc.Crypto.MAC {
		return nil, ErrDecrypt
	}

	iv, err := hex.DecodeString(enc.Crypto.CipherParams.IV)
	if err != nil {
		return nil, err
	}
	der, err := aesCTRXOR(derivedKey[:16], cipherText, iv)
	if err != nil {
		return nil, err
	}
	rsaKey, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("keystore: invalid private key data: %w", err)
	}

	id, err := uuid.Parse(enc.Id)
	if err != nil {
		return nil, err
	}
	addr, err := crypto.ParseAddress(enc.Address)
	if err != nil {
		return nil, err
	}

	priv := crypto.PrivateKeyFromRSA(rsaKey)
	if crypto.AddressFromPublicKey(priv.PublicKey()) != addr {
		return nil, fmt.Errorf("keystore: address does not match decrypted key")
	}

	return &Key{Id: id, Address: addr, PrivateKey: priv}, nil
}

func aesCTRXOR(key, inText, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	stream := cipher.NewCTR(block, iv)
	outText := make([]byte, len(inText))
	stream.XORKeyStream(outText, inText)
	return outText, nil
}

// StoreKey encrypts key under passphrase and writes it to path atomically
// (temp file + rename).
func StoreKey(path string, key *Key, passphrase string, scryptN, scryptP int) error {
	content, err := EncryptKey(key, passphrase, scryptN, scryptP)
	if err != nil {
		return err
	}
	return writeKeyFile(path, content)
}

// LoadKey reads and decrypts the keyfile at path.
func LoadKey(path string, passphrase string) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecryptKey(data, passphrase)
}

func writeKeyFile(file string, content []byte) error {
	const dirPerm = 0700
	if err := os.MkdirAll(filepath.Dir(file), dirPerm); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".tmp")
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	f.Close()
	return os.Rename(f.Name(), file)
}
