package clvalue

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/casper-ecosystem/casper-client-go/crypto"
)

// valueJSON is the node schema form of a value. The parsed field is a
// human-readable rendering and is ignored when decoding; cl_type plus bytes
// are authoritative.
type valueJSON struct {
	Type   Type            `json:"cl_type"`
	Bytes  string          `json:"bytes"`
	Parsed json.RawMessage `json:"parsed,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	vj := valueJSON{
		Type:  v.typ,
		Bytes: hex.EncodeToString(v.raw),
	}
	if parsed := v.parsed(); parsed != nil {
		b, err := json.Marshal(parsed)
		if err != nil {
			return nil, err
		}
		vj.Parsed = b
	}
	return json.Marshal(vj)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var vj valueJSON
	if err := json.Unmarshal(data, &vj); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	raw, err := hex.DecodeString(vj.Bytes)
	if err != nil {
		return fmt.Errorf("decoding value bytes: %w", err)
	}
	decoded, err := Decode(vj.Type, raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// parsed renders the value for human consumption. Composite kinds without a
// natural rendering come out as nil.
func (v Value) parsed() any {
	r := bytes.NewReader(v.raw)
	out, err := parsedFrom(v.typ, r)
	if err != nil || r.Len() != 0 {
		return nil
	}
	return out
}

func parsedFrom(typ Type, r *bytes.Reader) (any, error) {
	switch typ.Tag {
	case TagBool:
		b, err := r.ReadByte()
		return b == 1, err
	case TagU8:
		b, err := r.ReadByte()
		return uint64(b), err
	case TagI32:
		var b [4]byte
		if _, err := readFull(r, b[:]); err != nil {
			return nil, err
		}
		return int64(int32(binary.LittleEndian.Uint32(b[:]))), nil
	case TagU32:
		var b [4]byte
		if _, err := readFull(r, b[:]); err != nil {
			return nil, err
		}
		return uint64(binary.LittleEndian.Uint32(b[:])), nil
	case TagI64:
		var b [8]byte
		if _, err := readFull(r, b[:]); err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(b[:])), nil
	case TagU64:
		var b [8]byte
		if _, err := readFull(r, b[:]); err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	case TagU128, TagU256, TagU512:
		n, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		magnitude := make([]byte, n)
		if _, err := readFull(r, magnitude); err != nil {
			return nil, err
		}
		// reverse little-endian magnitude for big.Int
		for i, j := 0, len(magnitude)-1; i < j; i, j = i+1, j-1 {
			magnitude[i], magnitude[j] = magnitude[j], magnitude[i]
		}
		return new(big.Int).SetBytes(magnitude).String(), nil
	case TagUnit:
		return nil, nil
	case TagString:
		return readString(r)
	case TagKey:
		k, err := readKeyValue(r)
		if err != nil {
			return nil, err
		}
		return k.String(), nil
	case TagURef:
		u, err := readURefValue(r)
		if err != nil {
			return nil, err
		}
		return u.String(), nil
	case TagPublicKey:
		tag, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		keyLen := crypto.Ed25519PublicKeyLength
		if crypto.Algorithm(tag) == crypto.Secp256k1 {
			keyLen = crypto.Secp256k1PublicKeyLength
		}
		key := make([]byte, keyLen)
		if _, err := readFull(r, key); err != nil {
			return nil, err
		}
		pk, err := crypto.NewPublicKey(crypto.Algorithm(tag), key)
		if err != nil {
			return nil, err
		}
		return pk.Hex(), nil
	case TagOption:
		tag, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if tag == 0 {
			return nil, nil
		}
		return parsedFrom(*typ.Inner, r)
	case TagList:
		count, err := readU32(r)
		if err != nil {
			return nil, err
		}
		if typ.Inner.Tag == TagU8 {
			b := make([]byte, count)
			if _, err := readFull(r, b); err != nil {
				return nil, err
			}
			return hex.EncodeToString(b), nil
		}
		items := make([]any, 0, count)
		for i := uint32(0); i < count; i++ {
			item, err := parsedFrom(*typ.Inner, r)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case TagByteArray:
		b := make([]byte, typ.Size)
		if _, err := readFull(r, b); err != nil {
			return nil, err
		}
		return hex.EncodeToString(b), nil
	default:
		return nil, fmt.Errorf("unknown type tag %d", byte(typ.Tag))
	}
}

func readURefValue(r *bytes.Reader) (URefValue, error) {
	var u URefValue
	if _, err := readFull(r, u.Addr[:]); err != nil {
		return URefValue{}, err
	}
	access, err := r.ReadByte()
	if err != nil {
		return URefValue{}, err
	}
	u.Access = AccessRights(access)
	return u, nil
}

func readKeyValue(r *bytes.Reader) (KeyValue, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return KeyValue{}, err
	}
	var k KeyValue
	k.tag = tag
	switch tag {
	case keyTagAccount:
		_, err = readFull(r, k.account[:])
	case keyTagHash:
		_, err = readFull(r, k.hash[:])
	case keyTagURef:
		k.uref, err = readURefValue(r)
	default:
		err = fmt.Errorf("unknown key tag %d", tag)
	}
	return k, err
}
