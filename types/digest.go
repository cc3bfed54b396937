package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// DigestLength is the byte length of all hashes in the deploy model.
const DigestLength = 32

// Digest is a blake2b-256 hash.
type Digest [DigestLength]byte

// HashBytes digests data with blake2b-256.
func HashBytes(data []byte) Digest {
	return Digest(blake2b.Sum256(data))
}

// ParseDigest parses a 64 character hex string.
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("digest %q is not hex: %w", s, err)
	}
	if len(b) != DigestLength {
		return Digest{}, fmt.Errorf("digest %q has %d bytes, expected %d", s, len(b), DigestLength)
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

func (d Digest) Bytes() []byte  { return append([]byte{}, d[:]...) }
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding digest: %w", err)
	}
	parsed, err := ParseDigest(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
