package crypto

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"os"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	pemTypePKCS8 = "PRIVATE KEY"    // ed25519, PKCS#8
	pemTypeSEC1  = "EC PRIVATE KEY" // secp256k1, SEC 1
)

// ASN.1 structure of a SEC 1 private key. The stdlib cannot parse it for the
// secp256k1 curve, so the DER handling is done here.
type sec1PrivateKey struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

var oidSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}

// LoadSecretKey reads a PEM encoded secret key file. The algorithm is inferred
// from the PEM block type: "PRIVATE KEY" (PKCS#8) for ed25519 and
// "EC PRIVATE KEY" (SEC 1) for secp256k1.
func LoadSecretKey(path string) (*SecretKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secret key file %s: %w", path, err)
	}
	key, err := ParseSecretKeyPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parsing secret key file %s: %w", path, err)
	}
	return key, nil
}

// ParseSecretKeyPEM parses PEM encoded secret key material.
func ParseSecretKeyPEM(data []byte) (*SecretKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: not a PEM encoded key", ErrInvalidKey)
	}
	switch block.Type {
	case pemTypePKCS8:
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing PKCS#8 block: %v", ErrInvalidKey, err)
		}
		ed, ok := parsed.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: PKCS#8 block holds %T, expected ed25519", ErrInvalidKey, parsed)
		}
		return &SecretKey{alg: Ed25519, ed: ed}, nil
	case pemTypeSEC1:
		var sec1 sec1PrivateKey
		if rest, err := asn1.Unmarshal(block.Bytes, &sec1); err != nil || len(rest) != 0 {
			return nil, fmt.Errorf("%w: parsing SEC 1 block", ErrInvalidKey)
		}
		if len(sec1.NamedCurveOID) != 0 && !sec1.NamedCurveOID.Equal(oidSecp256k1) {
			return nil, fmt.Errorf("%w: unsupported curve %v, expected secp256k1", ErrInvalidKey, sec1.NamedCurveOID)
		}
		return NewSecretKeySecp256k1(sec1.PrivateKey)
	default:
		return nil, fmt.Errorf("%w: unsupported PEM block type %q", ErrInvalidKey, block.Type)
	}
}

// EncodePEM returns the PEM encoding of the secret key.
func (sk *SecretKey) EncodePEM() ([]byte, error) {
	switch sk.alg {
	case Ed25519:
		der, err := x509.MarshalPKCS8PrivateKey(sk.ed)
		if err != nil {
			return nil, fmt.Errorf("marshaling ed25519 key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{Type: pemTypePKCS8, Bytes: der}), nil
	case Secp256k1:
		pub, err := uncompressedPublicKey(sk.ec)
		if err != nil {
			return nil, err
		}
		der, err := asn1.Marshal(sec1PrivateKey{
			Version:       1,
			PrivateKey:    sk.ec,
			NamedCurveOID: oidSecp256k1,
			PublicKey:     asn1.BitString{Bytes: pub, BitLength: len(pub) * 8},
		})
		if err != nil {
			return nil, fmt.Errorf("marshaling secp256k1 key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{Type: pemTypeSEC1, Bytes: der}), nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm tag %d", ErrInvalidKey, byte(sk.alg))
	}
}

func uncompressedPublicKey(d []byte) ([]byte, error) {
	priv, err := ethcrypto.ToECDSA(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return ethcrypto.FromECDSAPub(&priv.PublicKey), nil
}

// WriteFile writes the PEM encoding to path with owner-only permissions.
func (sk *SecretKey) WriteFile(path string) error {
	data, err := sk.EncodePEM()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing secret key file %s: %w", path, err)
	}
	return nil
}
