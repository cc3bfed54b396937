package clvalue

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/casper-ecosystem/casper-client-go/crypto"
)

// simpleTypes lists the type names accepted by the simple-arg grammar, for
// error messages. Each also accepts an opt_ prefix.
var simpleTypes = []string{
	"bool", "i32", "i64", "u8", "u32", "u64", "u128", "u256", "u512",
	"unit", "string", "key", "account_hash", "uref", "public_key",
	"byte_list", "byte_array_<n>",
}

// ParseSimple parses one argument of the form NAME:TYPE='VALUE'. The first
// two occurrences of ':' or '=' split the spec; the value must be wrapped in
// single quotes, except for the literal null, which is only valid for opt_
// types and yields an absent option.
func ParseSimple(spec string) (NamedArg, error) {
	parts := splitArg(spec)
	if len(parts) != 3 {
		return NamedArg{}, fmt.Errorf(
			"argument %q must have the form NAME:TYPE='VALUE'", spec)
	}
	name, typeName, value := parts[0], strings.ToLower(strings.TrimSpace(parts[1])), strings.TrimSpace(parts[2])
	if name == "" {
		return NamedArg{}, fmt.Errorf("argument %q has an empty name", spec)
	}

	optional := false
	if inner, ok := strings.CutPrefix(typeName, "opt_"); ok {
		optional = true
		typeName = inner
	}
	innerType, parse, err := simpleParser(typeName)
	if err != nil {
		return NamedArg{}, fmt.Errorf("argument %q: %w", spec, err)
	}

	if value == "null" {
		if !optional {
			return NamedArg{}, fmt.Errorf(
				"argument %q: null is only valid for opt_ types", spec)
		}
		return NamedArg{Name: name, Value: NewOptionNone(innerType)}, nil
	}

	unquoted := strings.Trim(value, "'")
	if unquoted == value {
		return NamedArg{}, fmt.Errorf(
			"argument %q: value must be wrapped in single quotes", spec)
	}
	parsed, err := parse(unquoted)
	if err != nil {
		return NamedArg{}, fmt.Errorf("argument %q: %w", spec, err)
	}
	if optional {
		parsed = NewOptionSome(parsed)
	}
	return NamedArg{Name: name, Value: parsed}, nil
}

// splitArg splits on the first two occurrences of ':' or '=', yielding at
// most three parts.
func splitArg(spec string) []string {
	parts := make([]string, 0, 3)
	rest := spec
	for len(parts) < 2 {
		i := strings.IndexAny(rest, ":=")
		if i < 0 {
			break
		}
		parts = append(parts, rest[:i])
		rest = rest[i+1:]
	}
	return append(parts, rest)
}

func simpleParser(typeName string) (Type, func(string) (Value, error), error) {
	if sizeStr, ok := strings.CutPrefix(typeName, "byte_array_"); ok {
		size, err := strconv.ParseUint(sizeStr, 10, 32)
		if err != nil {
			return Type{}, nil, fmt.Errorf("bad byte array size %q", sizeStr)
		}
		return ByteArrayOf(uint32(size)), func(s string) (Value, error) {
			b, err := hex.DecodeString(s)
			if err != nil {
				return Value{}, fmt.Errorf("decoding byte array: %w", err)
			}
			if uint64(len(b)) != size {
				return Value{}, fmt.Errorf(
					"byte array has %d bytes, expected %d", len(b), size)
			}
			return NewByteArray(b), nil
		}, nil
	}

	switch typeName {
	case "bool":
		return Bool, parseSimpleBool, nil
	case "i32":
		return I32, func(s string) (Value, error) {
			v, err := parseSignedDecimal(s, 32)
			return NewI32(int32(v)), err
		}, nil
	case "i64":
		return I64, func(s string) (Value, error) {
			v, err := parseSignedDecimal(s, 64)
			return NewI64(v), err
		}, nil
	case "u8":
		return U8, func(s string) (Value, error) {
			v, err := parseUnsignedDecimal(s, 8)
			return NewU8(uint8(v)), err
		}, nil
	case "u32":
		return U32, func(s string) (Value, error) {
			v, err := parseUnsignedDecimal(s, 32)
			return NewU32(uint32(v)), err
		}, nil
	case "u64":
		return U64, func(s string) (Value, error) {
			v, err := parseUnsignedDecimal(s, 64)
			return NewU64(v), err
		}, nil
	case "u128":
		return U128, wideParser(U128), nil
	case "u256":
		return U256, wideParser(U256), nil
	case "u512":
		return U512, wideParser(U512), nil
	case "unit":
		return Unit, func(s string) (Value, error) {
			if s != "" {
				return Value{}, fmt.Errorf("unit takes an empty value, got %q", s)
			}
			return NewUnit(), nil
		}, nil
	case "string":
		return String, func(s string) (Value, error) {
			return NewString(s), nil
		}, nil
	case "key":
		return Key, func(s string) (Value, error) {
			k, err := ParseKey(s)
			if err != nil {
				return Value{}, err
			}
			return NewKey(k), nil
		}, nil
	case "account_hash":
		return ByteArrayOf(addrLength), func(s string) (Value, error) {
			h, err := ParseAccountHash(s)
			if err != nil {
				return Value{}, err
			}
			return NewAccountHash(h), nil
		}, nil
	case "uref":
		return URef, func(s string) (Value, error) {
			u, err := ParseURef(s)
			if err != nil {
				return Value{}, err
			}
			return NewURef(u), nil
		}, nil
	case "public_key":
		return PublicKey, func(s string) (Value, error) {
			pk, err := crypto.ParsePublicKey(s)
			if err != nil {
				return Value{}, err
			}
			return NewPublicKey(pk), nil
		}, nil
	case "byte_list":
		return ListOf(U8), func(s string) (Value, error) {
			b, err := hex.DecodeString(s)
			if err != nil {
				return Value{}, fmt.Errorf("decoding byte list: %w", err)
			}
			return NewByteList(b), nil
		}, nil
	default:
		return Type{}, nil, fmt.Errorf("unknown type %q, expected one of %s",
			typeName, strings.Join(simpleTypes, ", "))
	}
}

func parseSimpleBool(s string) (Value, error) {
	switch strings.ToLower(s) {
	case "true", "t":
		return NewBool(true), nil
	case "false", "f":
		return NewBool(false), nil
	default:
		return Value{}, fmt.Errorf("bad bool value %q", s)
	}
}

func parseSignedDecimal(s string, bits int) (int64, error) {
	if strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("integer %q must not have a leading '+'", s)
	}
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("bad integer value %q", s)
	}
	return v, nil
}

func parseUnsignedDecimal(s string, bits int) (uint64, error) {
	if strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("integer %q must not have a leading '+'", s)
	}
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("bad integer value %q", s)
	}
	return v, nil
}

func wideParser(typ Type) func(string) (Value, error) {
	return func(s string) (Value, error) {
		if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
			return Value{}, fmt.Errorf("bad %s value %q", typ, s)
		}
		for _, c := range s {
			if c < '0' || c > '9' {
				return Value{}, fmt.Errorf("bad %s value %q", typ, s)
			}
		}
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return Value{}, fmt.Errorf("bad %s value %q", typ, s)
		}
		return NewBigInt(typ, v)
	}
}
