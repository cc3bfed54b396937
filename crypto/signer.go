package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// SecretKey holds the private key material for one of the supported algorithms.
// It is created either by GenerateKey or by loading a PEM file.
type SecretKey struct {
	alg Algorithm
	ed  ed25519.PrivateKey
	ec  []byte // 32 byte secp256k1 scalar
}

// GenerateKey creates a fresh secret key for the given algorithm.
func GenerateKey(alg Algorithm) (*SecretKey, error) {
	switch alg {
	case Ed25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating ed25519 key: %w", err)
		}
		return &SecretKey{alg: Ed25519, ed: priv}, nil
	case Secp256k1:
		priv, err := ethcrypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generating secp256k1 key: %w", err)
		}
		return &SecretKey{alg: Secp256k1, ec: ethcrypto.FromECDSA(priv)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm tag %d", ErrInvalidKey, byte(alg))
	}
}

// NewSecretKeyFromSeed builds an ed25519 secret key from a 32 byte seed.
func NewSecretKeyFromSeed(seed []byte) (*SecretKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: ed25519 seed must be %d bytes, got %d", ErrInvalidKey, ed25519.SeedSize, len(seed))
	}
	return &SecretKey{alg: Ed25519, ed: ed25519.NewKeyFromSeed(seed)}, nil
}

// NewSecretKeySecp256k1 builds a secp256k1 secret key from the raw 32 byte scalar.
func NewSecretKeySecp256k1(d []byte) (*SecretKey, error) {
	if _, err := ethcrypto.ToECDSA(d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &SecretKey{alg: Secp256k1, ec: d}, nil
}

func (sk *SecretKey) Algorithm() Algorithm { return sk.alg }

// PublicKey derives the matching public key.
func (sk *SecretKey) PublicKey() PublicKey {
	switch sk.alg {
	case Ed25519:
		pk, _ := NewPublicKey(Ed25519, sk.ed.Public().(ed25519.PublicKey))
		return pk
	case Secp256k1:
		priv, _ := ethcrypto.ToECDSA(sk.ec)
		pk, _ := NewPublicKey(Secp256k1, ethcrypto.CompressPubkey(&priv.PublicKey))
		return pk
	default:
		return PublicKey{}
	}
}

// Sign signs the message. Ed25519 signs the message bytes directly, secp256k1
// signs the sha256 digest of the message.
func (sk *SecretKey) Sign(message []byte) (Signature, error) {
	switch sk.alg {
	case Ed25519:
		return NewSignature(Ed25519, ed25519.Sign(sk.ed, message))
	case Secp256k1:
		priv, err := ethcrypto.ToECDSA(sk.ec)
		if err != nil {
			return Signature{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		digest := sha256.Sum256(message)
		sig, err := ethcrypto.Sign(digest[:], priv)
		if err != nil {
			return Signature{}, fmt.Errorf("signing with secp256k1 key: %w", err)
		}
		// drop the recovery byte, wire format is r||s
		return NewSignature(Secp256k1, sig[:SignatureLength])
	default:
		return Signature{}, fmt.Errorf("%w: unknown algorithm tag %d", ErrInvalidKey, byte(sk.alg))
	}
}

// Verify checks the signature over message against the public key. The
// algorithm tags of key and signature must match.
func Verify(pk PublicKey, sig Signature, message []byte) error {
	if pk.alg != sig.alg {
		return fmt.Errorf("signature algorithm %s does not match key algorithm %s", sig.alg, pk.alg)
	}
	switch pk.alg {
	case Ed25519:
		if !ed25519.Verify(ed25519.PublicKey(pk.key), message, sig.sig) {
			return fmt.Errorf("ed25519 signature verification failed")
		}
		return nil
	case Secp256k1:
		digest := sha256.Sum256(message)
		if !ethcrypto.VerifySignature(pk.key, digest[:], sig.sig) {
			return fmt.Errorf("secp256k1 signature verification failed")
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown algorithm tag %d", ErrInvalidKey, byte(pk.alg))
	}
}
