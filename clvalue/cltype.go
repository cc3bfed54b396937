package clvalue

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Tag is the wire identifier of a value type. The numeric values are part of
// the canonical encoding and must not change.
type Tag byte

const (
	TagBool      Tag = 0
	TagI32       Tag = 1
	TagI64       Tag = 2
	TagU8        Tag = 3
	TagU32       Tag = 4
	TagU64       Tag = 5
	TagU128      Tag = 6
	TagU256      Tag = 7
	TagU512      Tag = 8
	TagUnit      Tag = 9
	TagString    Tag = 10
	TagKey       Tag = 11
	TagURef      Tag = 12
	TagOption    Tag = 13
	TagList      Tag = 14
	TagByteArray Tag = 15
	TagPublicKey Tag = 22
)

// Type describes the type of a Value. Option and List carry an inner type,
// ByteArray carries a fixed size.
type Type struct {
	Tag   Tag
	Inner *Type
	Size  uint32
}

var (
	Bool      = Type{Tag: TagBool}
	I32       = Type{Tag: TagI32}
	I64       = Type{Tag: TagI64}
	U8        = Type{Tag: TagU8}
	U32       = Type{Tag: TagU32}
	U64       = Type{Tag: TagU64}
	U128      = Type{Tag: TagU128}
	U256      = Type{Tag: TagU256}
	U512      = Type{Tag: TagU512}
	Unit      = Type{Tag: TagUnit}
	String    = Type{Tag: TagString}
	Key       = Type{Tag: TagKey}
	URef      = Type{Tag: TagURef}
	PublicKey = Type{Tag: TagPublicKey}
)

// OptionOf returns the type of an optional inner value.
func OptionOf(inner Type) Type {
	return Type{Tag: TagOption, Inner: &inner}
}

// ListOf returns the type of a variable length list of inner values.
func ListOf(inner Type) Type {
	return Type{Tag: TagList, Inner: &inner}
}

// ByteArrayOf returns the type of a fixed length byte array.
func ByteArrayOf(size uint32) Type {
	return Type{Tag: TagByteArray, Size: size}
}

func (t Type) Equal(other Type) bool {
	if t.Tag != other.Tag || t.Size != other.Size {
		return false
	}
	if (t.Inner == nil) != (other.Inner == nil) {
		return false
	}
	if t.Inner != nil {
		return t.Inner.Equal(*other.Inner)
	}
	return true
}

// Bytes returns the canonical recursive encoding of the type.
func (t Type) Bytes() []byte {
	var buf bytes.Buffer
	t.write(&buf)
	return buf.Bytes()
}

func (t Type) write(buf *bytes.Buffer) {
	buf.WriteByte(byte(t.Tag))
	switch t.Tag {
	case TagOption, TagList:
		t.Inner.write(buf)
	case TagByteArray:
		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], t.Size)
		buf.Write(size[:])
	}
}

func readType(r *bytes.Reader) (Type, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Type{}, fmt.Errorf("reading type tag: %w", err)
	}
	switch Tag(tag) {
	case TagBool, TagI32, TagI64, TagU8, TagU32, TagU64, TagU128, TagU256, TagU512,
		TagUnit, TagString, TagKey, TagURef, TagPublicKey:
		return Type{Tag: Tag(tag)}, nil
	case TagOption, TagList:
		inner, err := readType(r)
		if err != nil {
			return Type{}, err
		}
		return Type{Tag: Tag(tag), Inner: &inner}, nil
	case TagByteArray:
		var size [4]byte
		if _, err := io.ReadFull(r, size[:]); err != nil {
			return Type{}, fmt.Errorf("reading byte array size: %w", err)
		}
		return ByteArrayOf(binary.LittleEndian.Uint32(size[:])), nil
	default:
		return Type{}, fmt.Errorf("unknown type tag %d", tag)
	}
}

// String renders the type in the simple-arg spelling, e.g. "u512", "opt_u64",
// "byte_array_32".
func (t Type) String() string {
	switch t.Tag {
	case TagBool:
		return "bool"
	case TagI32:
		return "i32"
	case TagI64:
		return "i64"
	case TagU8:
		return "u8"
	case TagU32:
		return "u32"
	case TagU64:
		return "u64"
	case TagU128:
		return "u128"
	case TagU256:
		return "u256"
	case TagU512:
		return "u512"
	case TagUnit:
		return "unit"
	case TagString:
		return "string"
	case TagKey:
		return "key"
	case TagURef:
		return "uref"
	case TagPublicKey:
		return "public_key"
	case TagOption:
		return "opt_" + t.Inner.String()
	case TagList:
		if t.Inner.Tag == TagU8 {
			return "byte_list"
		}
		return "list_" + t.Inner.String()
	case TagByteArray:
		return "byte_array_" + strconv.FormatUint(uint64(t.Size), 10)
	default:
		return fmt.Sprintf("unknown(%d)", byte(t.Tag))
	}
}

// jsonName is the node schema spelling of a simple type.
func (t Type) jsonName() string {
	switch t.Tag {
	case TagBool:
		return "Bool"
	case TagI32:
		return "I32"
	case TagI64:
		return "I64"
	case TagU8:
		return "U8"
	case TagU32:
		return "U32"
	case TagU64:
		return "U64"
	case TagU128:
		return "U128"
	case TagU256:
		return "U256"
	case TagU512:
		return "U512"
	case TagUnit:
		return "Unit"
	case TagString:
		return "String"
	case TagKey:
		return "Key"
	case TagURef:
		return "URef"
	case TagPublicKey:
		return "PublicKey"
	default:
		return ""
	}
}

// MarshalJSON renders the node schema type description: a bare string for
// simple types, {"Option": inner}, {"List": inner} or {"ByteArray": size}.
func (t Type) MarshalJSON() ([]byte, error) {
	switch t.Tag {
	case TagOption:
		return json.Marshal(map[string]Type{"Option": *t.Inner})
	case TagList:
		return json.Marshal(map[string]Type{"List": *t.Inner})
	case TagByteArray:
		return json.Marshal(map[string]uint32{"ByteArray": t.Size})
	default:
		if name := t.jsonName(); name != "" {
			return json.Marshal(name)
		}
		return nil, fmt.Errorf("unknown type tag %d", byte(t.Tag))
	}
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		simple := map[string]Tag{
			"Bool": TagBool, "I32": TagI32, "I64": TagI64, "U8": TagU8,
			"U32": TagU32, "U64": TagU64, "U128": TagU128, "U256": TagU256,
			"U512": TagU512, "Unit": TagUnit, "String": TagString,
			"Key": TagKey, "URef": TagURef, "PublicKey": TagPublicKey,
		}
		tag, ok := simple[name]
		if !ok {
			return fmt.Errorf("unknown type name %q", name)
		}
		*t = Type{Tag: tag}
		return nil
	}
	var composite struct {
		Option    *Type   `json:"Option"`
		List      *Type   `json:"List"`
		ByteArray *uint32 `json:"ByteArray"`
	}
	if err := json.Unmarshal(data, &composite); err != nil {
		return fmt.Errorf("decoding type description: %w", err)
	}
	switch {
	case composite.Option != nil:
		*t = OptionOf(*composite.Option)
	case composite.List != nil:
		*t = ListOf(*composite.List)
	case composite.ByteArray != nil:
		*t = ByteArrayOf(*composite.ByteArray)
	default:
		return fmt.Errorf("unsupported type description %s", data)
	}
	return nil
}
