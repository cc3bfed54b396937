package crypto

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

type (
	// Algorithm identifies the asymmetric key algorithm of a key or signature.
	// The byte value doubles as the tag prepended to the canonical encoding.
	Algorithm byte

	// PublicKey is an algorithm-tagged public key. The zero value is invalid.
	PublicKey struct {
		alg Algorithm
		key []byte
	}

	// Signature is an algorithm-tagged signature over a deploy hash.
	Signature struct {
		alg Algorithm
		sig []byte
	}
)

const (
	Ed25519   Algorithm = 1
	Secp256k1 Algorithm = 2

	Ed25519PublicKeyLength   = ed25519.PublicKeySize
	Secp256k1PublicKeyLength = 33 // compressed

	SignatureLength = 64
)

var ErrInvalidKey = fmt.Errorf("invalid key")

func (a Algorithm) String() string {
	switch a {
	case Ed25519:
		return "ed25519"
	case Secp256k1:
		return "secp256k1"
	default:
		return fmt.Sprintf("unknown(%d)", byte(a))
	}
}

func publicKeyLength(a Algorithm) (int, error) {
	switch a {
	case Ed25519:
		return Ed25519PublicKeyLength, nil
	case Secp256k1:
		return Secp256k1PublicKeyLength, nil
	default:
		return 0, fmt.Errorf("%w: unknown algorithm tag %d", ErrInvalidKey, byte(a))
	}
}

// NewPublicKey validates the raw key length against the algorithm and wraps it.
func NewPublicKey(alg Algorithm, key []byte) (PublicKey, error) {
	want, err := publicKeyLength(alg)
	if err != nil {
		return PublicKey{}, err
	}
	if len(key) != want {
		return PublicKey{}, fmt.Errorf("%w: %s public key must be %d bytes, got %d", ErrInvalidKey, alg, want, len(key))
	}
	return PublicKey{alg: alg, key: bytes.Clone(key)}, nil
}

// ParsePublicKey parses the hex form: algorithm tag byte followed by the raw key.
func ParsePublicKey(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: decoding public key hex: %v", ErrInvalidKey, err)
	}
	return PublicKeyFromBytes(b)
}

// PublicKeyFromBytes decodes the canonical tagged encoding.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	if len(b) == 0 {
		return PublicKey{}, fmt.Errorf("%w: empty public key", ErrInvalidKey)
	}
	return NewPublicKey(Algorithm(b[0]), b[1:])
}

func (pk PublicKey) Algorithm() Algorithm { return pk.alg }

// Key returns the raw (untagged) key bytes.
func (pk PublicKey) Key() []byte { return bytes.Clone(pk.key) }

// Bytes returns the canonical tagged encoding, tag byte first.
func (pk PublicKey) Bytes() []byte {
	out := make([]byte, 0, 1+len(pk.key))
	out = append(out, byte(pk.alg))
	return append(out, pk.key...)
}

func (pk PublicKey) Hex() string { return hex.EncodeToString(pk.Bytes()) }

func (pk PublicKey) IsZero() bool { return pk.alg == 0 && len(pk.key) == 0 }

func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.alg == other.alg && bytes.Equal(pk.key, other.key)
}

// Compare orders public keys by their canonical byte encoding.
func (pk PublicKey) Compare(other PublicKey) int {
	return bytes.Compare(pk.Bytes(), other.Bytes())
}

// AccountHash derives the 32 byte account hash: blake2b-256 over the lowercase
// algorithm name, a zero separator byte and the raw key bytes.
func (pk PublicKey) AccountHash() []byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(pk.alg.String()))
	h.Write([]byte{0})
	h.Write(pk.key)
	return h.Sum(nil)
}

func (pk PublicKey) String() string { return pk.Hex() }

func (pk PublicKey) MarshalJSON() ([]byte, error) {
	return []byte(`"` + pk.Hex() + `"`), nil
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: public key must be a JSON hex string", ErrInvalidKey)
	}
	parsed, err := ParsePublicKey(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// NewSignature validates the raw signature length and wraps it.
func NewSignature(alg Algorithm, sig []byte) (Signature, error) {
	if _, err := publicKeyLength(alg); err != nil {
		return Signature{}, err
	}
	if len(sig) != SignatureLength {
		return Signature{}, fmt.Errorf("%w: %s signature must be %d bytes, got %d", ErrInvalidKey, alg, SignatureLength, len(sig))
	}
	return Signature{alg: alg, sig: bytes.Clone(sig)}, nil
}

// SignatureFromBytes decodes the canonical tagged encoding.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) == 0 {
		return Signature{}, fmt.Errorf("%w: empty signature", ErrInvalidKey)
	}
	return NewSignature(Algorithm(b[0]), b[1:])
}

// ParseSignature parses the hex form: algorithm tag byte followed by 64 raw bytes.
func ParseSignature(s string) (Signature, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: decoding signature hex: %v", ErrInvalidKey, err)
	}
	return SignatureFromBytes(b)
}

func (s Signature) Algorithm() Algorithm { return s.alg }

// Bytes returns the canonical tagged encoding, tag byte first.
func (s Signature) Bytes() []byte {
	out := make([]byte, 0, 1+len(s.sig))
	out = append(out, byte(s.alg))
	return append(out, s.sig...)
}

func (s Signature) Hex() string { return hex.EncodeToString(s.Bytes()) }

func (s Signature) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.Hex() + `"`), nil
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: signature must be a JSON hex string", ErrInvalidKey)
	}
	parsed, err := ParseSignature(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
