package crypto

import (
	"encoding/json"
	"math/big"
)

// AddressSize is the length in bytes of an Address (same as Hash, since an
// address is just a digest of a public key).
const AddressSize = HashSize

// Address is the SHA-256 digest of a public key's canonical encoding,
// displayed in a compact base62 (alphanumeric) form suitable for typing on a
// CLI. The zero Address is the sentinel "invalid address", used only as the
// sender of the genesis transaction and the validator of the genesis block.
type Address [AddressSize]byte

// InvalidAddress is the sentinel accepted only in the genesis position.
var InvalidAddress = Address{}

// AddressFromPublicKey derives the address owning pub.
func AddressFromPublicKey(pub PublicKey) Address {
	return Address(DigestJSON(pub))
}

// IsInvalid reports whether a is the sentinel invalid address.
func (a Address) IsInvalid() bool {
	return a == InvalidAddress
}

// Less reports whether a sorts strictly before b in ascending byte order,
// the total order wallet iteration during validator election relies on.
func (a Address) Less(b Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// String renders the address as base62, compact enough to type on a CLI.
// Leading zero bytes are preserved as leading '0' characters so the
// encoding round-trips for any input, including the all-zero invalid
// address.
func (a Address) String() string {
	leadingZeros := 0
	for _, b := range a {
		if b != 0 {
			break
		}
		leadingZeros++
	}

	n := new(big.Int).SetBytes(a[:])
	if n.Sign() == 0 {
		out := make([]byte, AddressSize)
		for i := range out {
			out[i] = base62Alphabet[0]
		}
		return string(out)
	}

	base := big.NewInt(62)
	mod := new(big.Int)
	var digits []byte
	for n.Sign() > 0 {
		n.DivMod(n, base, mod)
		digits = append(digits, base62Alphabet[mod.Int64()])
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}

	out := make([]byte, 0, leadingZeros+len(digits))
	for i := 0; i < leadingZeros; i++ {
		out = append(out, base62Alphabet[0])
	}
	out = append(out, digits...)
	return string(out)
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	addr, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

var base62Index = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i, c := range base62Alphabet {
		idx[byte(c)] = int8(i)
	}
	return idx
}()

// ParseAddress decodes the base62 form produced by Address.String.
func ParseAddress(s string) (Address, error) {
	if len(s) == 0 {
		return Address{}, errInvalidAddressLength
	}

	leadingZeros := 0
	for leadingZeros < len(s) && s[leadingZeros] == base62Alphabet[0] {
		leadingZeros++
	}

	n := new(big.Int)
	base := big.NewInt(62)
	for i := 0; i < len(s); i++ {
		v := base62Index[s[i]]
		if v < 0 {
			return Address{}, errInvalidAddressChar
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(v)))
	}

	raw := n.Bytes()
	var addr Address
	if len(raw) > AddressSize {
		return Address{}, errInvalidAddressLength
	}
	copy(addr[AddressSize-len(raw):], raw)
	return addr, nil
}
