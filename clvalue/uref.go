package clvalue

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AccessRights is the bitmask of capabilities granted by a URef.
type AccessRights byte

const (
	AccessNone  AccessRights = 0
	AccessRead  AccessRights = 1
	AccessWrite AccessRights = 2
	AccessAdd   AccessRights = 4

	AccessReadAddWrite = AccessRead | AccessAdd | AccessWrite
)

const (
	urefPrefix        = "uref-"
	accountHashPrefix = "account-hash-"
	hashPrefix        = "hash-"

	addrLength = 32
)

// URefValue is an unforgeable reference: a 32 byte address plus access rights.
type URefValue struct {
	Addr   [addrLength]byte
	Access AccessRights
}

// ParseURef parses the formatted string "uref-<64 hex chars>-<3 digit rights>".
func ParseURef(s string) (URefValue, error) {
	rest, ok := strings.CutPrefix(s, urefPrefix)
	if !ok {
		return URefValue{}, fmt.Errorf("uref %q must start with %q", s, urefPrefix)
	}
	hexPart, rightsPart, ok := strings.Cut(rest, "-")
	if !ok || len(rightsPart) != 3 {
		return URefValue{}, fmt.Errorf("uref %q must end with a 3 digit access rights suffix", s)
	}
	var u URefValue
	if err := decodeAddr(hexPart, u.Addr[:]); err != nil {
		return URefValue{}, fmt.Errorf("uref %q: %w", s, err)
	}
	var rights int
	for _, c := range rightsPart {
		if c < '0' || c > '9' {
			return URefValue{}, fmt.Errorf("uref %q: access rights suffix must be numeric", s)
		}
		rights = rights*10 + int(c-'0')
	}
	if rights > int(AccessReadAddWrite) {
		return URefValue{}, fmt.Errorf("uref %q: access rights %d out of range", s, rights)
	}
	u.Access = AccessRights(rights)
	return u, nil
}

func (u URefValue) String() string {
	return fmt.Sprintf("%s%x-%03d", urefPrefix, u.Addr, u.Access)
}

// Bytes returns the canonical encoding: address followed by the rights byte.
func (u URefValue) Bytes() []byte {
	return append(append([]byte{}, u.Addr[:]...), byte(u.Access))
}

// AccountHash is the 32 byte blake2b hash identifying an account.
type AccountHash [addrLength]byte

// ParseAccountHash parses the formatted string "account-hash-<64 hex chars>".
func ParseAccountHash(s string) (AccountHash, error) {
	rest, ok := strings.CutPrefix(s, accountHashPrefix)
	if !ok {
		return AccountHash{}, fmt.Errorf("account hash %q must start with %q", s, accountHashPrefix)
	}
	var h AccountHash
	if err := decodeAddr(rest, h[:]); err != nil {
		return AccountHash{}, fmt.Errorf("account hash %q: %w", s, err)
	}
	return h, nil
}

func (h AccountHash) String() string {
	return accountHashPrefix + hex.EncodeToString(h[:])
}

// Key tag bytes of the canonical encoding.
const (
	keyTagAccount byte = 0
	keyTagHash    byte = 1
	keyTagURef    byte = 2
)

// KeyValue addresses an entry in global state: an account, a hash or a URef.
type KeyValue struct {
	tag     byte
	account AccountHash
	hash    [addrLength]byte
	uref    URefValue
}

// ParseKey parses a formatted key string: "account-hash-...", "hash-..." or
// "uref-...".
func ParseKey(s string) (KeyValue, error) {
	switch {
	case strings.HasPrefix(s, accountHashPrefix):
		account, err := ParseAccountHash(s)
		if err != nil {
			return KeyValue{}, err
		}
		return KeyValue{tag: keyTagAccount, account: account}, nil
	case strings.HasPrefix(s, urefPrefix):
		uref, err := ParseURef(s)
		if err != nil {
			return KeyValue{}, err
		}
		return KeyValue{tag: keyTagURef, uref: uref}, nil
	case strings.HasPrefix(s, hashPrefix):
		var k KeyValue
		k.tag = keyTagHash
		if err := decodeAddr(strings.TrimPrefix(s, hashPrefix), k.hash[:]); err != nil {
			return KeyValue{}, fmt.Errorf("key %q: %w", s, err)
		}
		return k, nil
	default:
		return KeyValue{}, fmt.Errorf("key %q must start with %q, %q or %q", s, accountHashPrefix, hashPrefix, urefPrefix)
	}
}

func (k KeyValue) String() string {
	switch k.tag {
	case keyTagAccount:
		return k.account.String()
	case keyTagHash:
		return hashPrefix + hex.EncodeToString(k.hash[:])
	case keyTagURef:
		return k.uref.String()
	default:
		return fmt.Sprintf("key(unknown tag %d)", k.tag)
	}
}

// Bytes returns the canonical encoding: tag byte followed by the payload.
func (k KeyValue) Bytes() []byte {
	switch k.tag {
	case keyTagAccount:
		return append([]byte{keyTagAccount}, k.account[:]...)
	case keyTagHash:
		return append([]byte{keyTagHash}, k.hash[:]...)
	case keyTagURef:
		return append([]byte{keyTagURef}, k.uref.Bytes()...)
	default:
		return nil
	}
}

func decodeAddr(s string, dst []byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}
