package clvalue

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/casper-ecosystem/casper-client-go/crypto"
)

// Value is a typed value in canonical form: the type description plus the
// canonical byte encoding of the value. Constructors are the only way to build
// one, so a Value always holds exactly one valid encoding of its logical value.
type Value struct {
	typ Type
	raw []byte
}

func (v Value) Type() Type { return v.typ }

// Data returns a copy of the canonical value bytes (without the type suffix).
func (v Value) Data() []byte { return bytes.Clone(v.raw) }

func (v Value) Equal(other Value) bool {
	return v.typ.Equal(other.typ) && bytes.Equal(v.raw, other.raw)
}

// ToBytes returns the canonical container encoding: u32 length prefix, value
// bytes, then the recursive type encoding.
func (v Value) ToBytes() []byte {
	var buf bytes.Buffer
	writeU32(&buf, uint32(len(v.raw)))
	buf.Write(v.raw)
	buf.Write(v.typ.Bytes())
	return buf.Bytes()
}

// FromBytes decodes a container encoding produced by ToBytes, rejecting
// trailing bytes and non-canonical value encodings.
func FromBytes(b []byte) (Value, error) {
	r := bytes.NewReader(b)
	v, err := readContainer(r)
	if err != nil {
		return Value{}, err
	}
	if r.Len() != 0 {
		return Value{}, fmt.Errorf("%d trailing bytes after value", r.Len())
	}
	return v, nil
}

func readContainer(r *bytes.Reader) (Value, error) {
	length, err := readU32(r)
	if err != nil {
		return Value{}, fmt.Errorf("reading value length: %w", err)
	}
	raw := make([]byte, length)
	if _, err := readFull(r, raw); err != nil {
		return Value{}, fmt.Errorf("reading value bytes: %w", err)
	}
	typ, err := readType(r)
	if err != nil {
		return Value{}, err
	}
	return Decode(typ, raw)
}

// Decode validates that raw is the canonical encoding of a value of type typ
// and wraps it. Trailing bytes and redundant representations are rejected.
func Decode(typ Type, raw []byte) (Value, error) {
	r := bytes.NewReader(raw)
	if err := readValue(typ, r); err != nil {
		return Value{}, fmt.Errorf("decoding %s value: %w", typ, err)
	}
	if r.Len() != 0 {
		return Value{}, fmt.Errorf("decoding %s value: %d trailing bytes", typ, r.Len())
	}
	return Value{typ: typ, raw: bytes.Clone(raw)}, nil
}

// readValue consumes exactly one canonical value of type typ from r.
func readValue(typ Type, r *bytes.Reader) error {
	switch typ.Tag {
	case TagBool:
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b > 1 {
			return fmt.Errorf("bool byte must be 0 or 1, got %d", b)
		}
		return nil
	case TagU8:
		_, err := r.ReadByte()
		return err
	case TagI32, TagU32:
		return skip(r, 4)
	case TagI64, TagU64:
		return skip(r, 8)
	case TagU128:
		return readBig(r, 16)
	case TagU256:
		return readBig(r, 32)
	case TagU512:
		return readBig(r, 64)
	case TagUnit:
		return nil
	case TagString:
		length, err := readU32(r)
		if err != nil {
			return err
		}
		b := make([]byte, length)
		if _, err := readFull(r, b); err != nil {
			return err
		}
		if !utf8.Valid(b) {
			return fmt.Errorf("string bytes are not valid UTF-8")
		}
		return nil
	case TagKey:
		tag, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch tag {
		case keyTagAccount, keyTagHash:
			return skip(r, addrLength)
		case keyTagURef:
			return readURef(r)
		default:
			return fmt.Errorf("unknown key tag %d", tag)
		}
	case TagURef:
		return readURef(r)
	case TagPublicKey:
		tag, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch crypto.Algorithm(tag) {
		case crypto.Ed25519:
			return skip(r, crypto.Ed25519PublicKeyLength)
		case crypto.Secp256k1:
			return skip(r, crypto.Secp256k1PublicKeyLength)
		default:
			return fmt.Errorf("unknown public key algorithm tag %d", tag)
		}
	case TagOption:
		tag, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch tag {
		case 0:
			return nil
		case 1:
			return readValue(*typ.Inner, r)
		default:
			return fmt.Errorf("option tag must be 0 or 1, got %d", tag)
		}
	case TagList:
		count, err := readU32(r)
		if err != nil {
			return err
		}
		for i := uint32(0); i < count; i++ {
			if err := readValue(*typ.Inner, r); err != nil {
				return fmt.Errorf("list item %d: %w", i, err)
			}
		}
		return nil
	case TagByteArray:
		return skip(r, int(typ.Size))
	default:
		return fmt.Errorf("unknown type tag %d", byte(typ.Tag))
	}
}

func readURef(r *bytes.Reader) error {
	if err := skip(r, addrLength); err != nil {
		return err
	}
	access, err := r.ReadByte()
	if err != nil {
		return err
	}
	if AccessRights(access) > AccessReadAddWrite {
		return fmt.Errorf("access rights %d out of range", access)
	}
	return nil
}

// readBig consumes a wide integer: one length byte followed by that many
// little-endian magnitude bytes, minimal form.
func readBig(r *bytes.Reader, maxLen int) error {
	n, err := r.ReadByte()
	if err != nil {
		return err
	}
	if int(n) > maxLen {
		return fmt.Errorf("magnitude length %d exceeds maximum %d", n, maxLen)
	}
	if n == 0 {
		return nil
	}
	b := make([]byte, n)
	if _, err := readFull(r, b); err != nil {
		return err
	}
	if b[n-1] == 0 {
		return fmt.Errorf("non-minimal magnitude: trailing zero byte")
	}
	return nil
}

// Constructors. Each produces the single canonical encoding of its input.

func NewBool(b bool) Value {
	raw := []byte{0}
	if b {
		raw[0] = 1
	}
	return Value{typ: Bool, raw: raw}
}

func NewI32(v int32) Value {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, uint32(v))
	return Value{typ: I32, raw: raw}
}

func NewI64(v int64) Value {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, uint64(v))
	return Value{typ: I64, raw: raw}
}

func NewU8(v uint8) Value {
	return Value{typ: U8, raw: []byte{v}}
}

func NewU32(v uint32) Value {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, v)
	return Value{typ: U32, raw: raw}
}

func NewU64(v uint64) Value {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, v)
	return Value{typ: U64, raw: raw}
}

// NewBigInt builds a wide unsigned integer value of the given type (U128, U256
// or U512). Negative values and values exceeding the type's range fail.
func NewBigInt(typ Type, v *big.Int) (Value, error) {
	var maxLen int
	switch typ.Tag {
	case TagU128:
		maxLen = 16
	case TagU256:
		maxLen = 32
	case TagU512:
		maxLen = 64
	default:
		return Value{}, fmt.Errorf("%s is not a wide integer type", typ)
	}
	if v.Sign() < 0 {
		return Value{}, fmt.Errorf("%s cannot hold negative value %s", typ, v)
	}
	magnitude := v.Bytes() // big-endian, already minimal
	if len(magnitude) > maxLen {
		return Value{}, fmt.Errorf("value %s out of range for %s", v, typ)
	}
	raw := make([]byte, 1+len(magnitude))
	raw[0] = byte(len(magnitude))
	for i, b := range magnitude {
		raw[1+len(magnitude)-1-i] = b // reverse to little-endian
	}
	return Value{typ: typ, raw: raw}, nil
}

func NewUnit() Value {
	return Value{typ: Unit, raw: []byte{}}
}

func NewString(s string) Value {
	var buf bytes.Buffer
	writeString(&buf, s)
	return Value{typ: String, raw: buf.Bytes()}
}

func NewKey(k KeyValue) Value {
	return Value{typ: Key, raw: k.Bytes()}
}

func NewURef(u URefValue) Value {
	return Value{typ: URef, raw: u.Bytes()}
}

// NewAccountHash types the hash as a fixed 32 byte array, matching the wire
// representation used for account hash arguments.
func NewAccountHash(h AccountHash) Value {
	return Value{typ: ByteArrayOf(addrLength), raw: bytes.Clone(h[:])}
}

func NewPublicKey(pk crypto.PublicKey) Value {
	return Value{typ: PublicKey, raw: pk.Bytes()}
}

func NewByteList(b []byte) Value {
	var buf bytes.Buffer
	writeU32(&buf, uint32(len(b)))
	buf.Write(b)
	return Value{typ: ListOf(U8), raw: buf.Bytes()}
}

func NewByteArray(b []byte) Value {
	return Value{typ: ByteArrayOf(uint32(len(b))), raw: bytes.Clone(b)}
}

// NewOptionSome wraps an existing value in a present option.
func NewOptionSome(inner Value) Value {
	raw := make([]byte, 0, 1+len(inner.raw))
	raw = append(raw, 1)
	raw = append(raw, inner.raw...)
	return Value{typ: OptionOf(inner.typ), raw: raw}
}

// NewOptionNone builds an absent option of the given inner type.
func NewOptionNone(inner Type) Value {
	return Value{typ: OptionOf(inner), raw: []byte{0}}
}
