package clvalue

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewArgsPreservesOrder(t *testing.T) {
	args, err := NewArgs([]string{
		"amount:u512='2500000000'",
		"id:opt_u64='999'",
		"name_01:bool='false'",
	})
	require.NoError(t, err)
	require.Len(t, args, 3)
	require.Equal(t, "amount", args[0].Name)
	require.Equal(t, "id", args[1].Name)
	require.Equal(t, "name_01", args[2].Name)

	amount, ok := args.Get("amount")
	require.True(t, ok)
	require.Equal(t, "0400f90295", hex.EncodeToString(amount.Data()))
	_, ok = args.Get("missing")
	require.False(t, ok)
}

func TestNewArgsRejectsDuplicates(t *testing.T) {
	_, err := NewArgs([]string{"a:u8='1'", "a:u8='2'"})
	require.ErrorContains(t, err, "duplicate argument name")
}

func TestNewArgsAbortsOnFirstBadSpec(t *testing.T) {
	_, err := NewArgs([]string{"a:u8='1'", "b:u8=2"})
	require.Error(t, err)
}

func TestArgsBytesOrderSensitive(t *testing.T) {
	ab, err := NewArgs([]string{"a:u8='1'", "b:u8='2'"})
	require.NoError(t, err)
	ba, err := NewArgs([]string{"b:u8='2'", "a:u8='1'"})
	require.NoError(t, err)
	require.NotEqual(t, ab.Bytes(), ba.Bytes())
}

func TestArgsBytesRoundTrip(t *testing.T) {
	args, err := NewArgs([]string{
		"amount:u512='2500000000'",
		"target:account_hash='account-hash-000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f'",
		"id:opt_u64=null",
	})
	require.NoError(t, err)

	decoded, err := ArgsFromBytes(args.Bytes())
	require.NoError(t, err)
	require.Len(t, decoded, len(args))
	for i := range args {
		require.Equal(t, args[i].Name, decoded[i].Name)
		require.True(t, args[i].Value.Equal(decoded[i].Value))
	}
	require.Equal(t, args.Bytes(), decoded.Bytes())
}

func TestArgsFromBytesRejectsTrailing(t *testing.T) {
	args, err := NewArgs([]string{"a:u8='1'"})
	require.NoError(t, err)
	_, err = ArgsFromBytes(append(args.Bytes(), 0))
	require.ErrorContains(t, err, "trailing")
}

func TestArgsJSONRoundTrip(t *testing.T) {
	args, err := NewArgs([]string{
		"amount:u512='2500000000'",
		"id:opt_u64='999'",
	})
	require.NoError(t, err)

	data, err := json.Marshal(args)
	require.NoError(t, err)
	require.JSONEq(t, `[
		["amount", {"cl_type":"U512","bytes":"0400f90295","parsed":"2500000000"}],
		["id", {"cl_type":{"Option":"U64"},"bytes":"01e703000000000000","parsed":999}]
	]`, string(data))

	var decoded Args
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, args.Bytes(), decoded.Bytes())
}
