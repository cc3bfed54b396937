package clvalue

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustBigInt(t *testing.T, typ Type, s string) Value {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	v, err := NewBigInt(typ, n)
	require.NoError(t, err)
	return v
}

func TestValueKnownEncodings(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		data  string
		typ   string
	}{
		{name: "bool false", value: NewBool(false), data: "00"},
		{name: "bool true", value: NewBool(true), data: "01"},
		{name: "i32 negative", value: NewI32(-1), data: "ffffffff"},
		{name: "u32", value: NewU32(7), data: "07000000"},
		{name: "u64", value: NewU64(999), data: "e703000000000000"},
		{name: "u512 motes", value: mustBigInt(t, U512, "2500000000"), data: "0400f90295"},
		{name: "u512 zero", value: mustBigInt(t, U512, "0"), data: "00"},
		{name: "u128 one", value: mustBigInt(t, U128, "1"), data: "0101"},
		{name: "unit", value: NewUnit(), data: ""},
		{name: "string", value: NewString("hello"), data: "0500000068656c6c6f"},
		{name: "byte list", value: NewByteList([]byte{0xca, 0xfe}), data: "02000000cafe"},
		{name: "byte array", value: NewByteArray([]byte{0xca, 0xfe}), data: "cafe"},
		{name: "option none u64", value: NewOptionNone(U64), data: "00"},
		{name: "option some u64", value: NewOptionSome(NewU64(999)), data: "01e703000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.data, hex.EncodeToString(tt.value.Data()))
		})
	}
}

func TestValueContainerRoundTrip(t *testing.T) {
	uref, err := ParseURef("uref-000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f-007")
	require.NoError(t, err)
	key, err := ParseKey("account-hash-000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)

	values := []Value{
		NewBool(true),
		NewI32(-42),
		NewI64(1 << 40),
		NewU8(255),
		NewU32(0),
		NewU64(1<<64 - 1),
		mustBigInt(t, U128, "340282366920938463463374607431768211455"),
		mustBigInt(t, U256, "115792089237316195423570985008687907853269984665640564039457584007913129639935"),
		mustBigInt(t, U512, "0"),
		NewUnit(),
		NewString(""),
		NewString("héllo wörld"),
		NewURef(uref),
		NewKey(key),
		NewByteList(nil),
		NewByteArray(make([]byte, 32)),
		NewOptionNone(String),
		NewOptionSome(NewString("inner")),
		NewOptionSome(NewOptionNone(U8)),
	}
	for _, v := range values {
		t.Run(v.Type().String(), func(t *testing.T) {
			decoded, err := FromBytes(v.ToBytes())
			require.NoError(t, err)
			require.True(t, v.Equal(decoded))
			require.Equal(t, v.ToBytes(), decoded.ToBytes())
		})
	}
}

func TestValueDeterminism(t *testing.T) {
	a := mustBigInt(t, U512, "2500000000")
	b := mustBigInt(t, U512, "2500000000")
	require.Equal(t, a.ToBytes(), b.ToBytes())
}

func TestDecodeRejectsNonCanonical(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		data string
	}{
		{name: "bool byte out of range", typ: Bool, data: "02"},
		{name: "wide int truncated", typ: U512, data: "04abcd"},
		{name: "wide int magnitude too long", typ: U128, data: "11" + "0101010101010101010101010101010101"},
		{name: "option tag out of range", typ: OptionOf(U8), data: "02ff"},
		{name: "trailing bytes", typ: Bool, data: "0100"},
		{name: "truncated u32", typ: U32, data: "0700"},
		{name: "string not utf8", typ: String, data: "01000000ff"},
		{name: "uref rights out of range", typ: URef, data: "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f08"},
		{name: "unknown key tag", typ: Key, data: "03" + "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := hex.DecodeString(tt.data)
			require.NoError(t, err)
			_, err = Decode(tt.typ, raw)
			require.Error(t, err)
		})
	}
}

func TestDecodeRejectsTrailingZeroMagnitude(t *testing.T) {
	// 2 magnitude bytes with a zero in the high position encode 0x0001, whose
	// minimal form is a single byte.
	_, err := Decode(U512, []byte{0x02, 0x01, 0x00})
	require.ErrorContains(t, err, "non-minimal")
}

func TestNewBigIntRange(t *testing.T) {
	overflow := new(big.Int).Lsh(big.NewInt(1), 128)
	_, err := NewBigInt(U128, overflow)
	require.Error(t, err)

	max := new(big.Int).Sub(overflow, big.NewInt(1))
	_, err = NewBigInt(U128, max)
	require.NoError(t, err)

	_, err = NewBigInt(U512, big.NewInt(-1))
	require.Error(t, err)

	_, err = NewBigInt(String, big.NewInt(1))
	require.Error(t, err)
}

func TestValueJSON(t *testing.T) {
	v := NewOptionSome(NewU64(999))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"cl_type":{"Option":"U64"},"bytes":"01e703000000000000","parsed":999}`,
		string(data))

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.True(t, v.Equal(decoded))
}

func TestValueJSONParsedRendering(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		parsed string
	}{
		{name: "bool", value: NewBool(false), parsed: `false`},
		{name: "wide int as string", value: mustBigInt(t, U512, "2500000000"), parsed: `"2500000000"`},
		{name: "string", value: NewString("hi"), parsed: `"hi"`},
		{name: "byte list as hex", value: NewByteList([]byte{0xca, 0xfe}), parsed: `"cafe"`},
		{name: "option none", value: NewOptionNone(U64), parsed: `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			var out struct {
				Parsed json.RawMessage `json:"parsed"`
			}
			require.NoError(t, json.Unmarshal(data, &out))
			if tt.parsed == `null` {
				require.Empty(t, out.Parsed)
				return
			}
			require.JSONEq(t, tt.parsed, string(out.Parsed))
		})
	}
}

func TestValueJSONRejectsBadBytes(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"cl_type":"Bool","bytes":"02"}`), &v)
	require.Error(t, err)
	err = json.Unmarshal([]byte(`{"cl_type":"Bool","bytes":"zz"}`), &v)
	require.Error(t, err)
}
