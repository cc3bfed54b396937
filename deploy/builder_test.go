package deploy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casper-ecosystem/casper-client-go/clvalue"
	"github.com/casper-ecosystem/casper-client-go/crypto"
	"github.com/casper-ecosystem/casper-client-go/types"
)

func testKey(t *testing.T, seed byte) *crypto.SecretKey {
	t.Helper()
	key, err := crypto.NewSecretKeyFromSeed(bytes.Repeat([]byte{seed}, 32))
	require.NoError(t, err)
	return key
}

func testTransferBuilder(t *testing.T) *Builder {
	t.Helper()
	target, err := ParseTransferTarget("account-hash-" + testHashHex)
	require.NoError(t, err)
	b, err := NewTransferBuilder("casper-test", mustValue(t, "amount:u512='2500000000'"), nil, target, 999)
	require.NoError(t, err)
	return b
}

func TestBuilderBuildsSignedTransfer(t *testing.T) {
	key := testKey(t, 1)
	b, err := testTransferBuilder(t).WithStandardPayment(mustValue(t, "amount:u512='10000'"))
	require.NoError(t, err)
	timestamp, err := types.ParseTimestamp("2020-11-17T00:39:24.072Z")
	require.NoError(t, err)

	deploy, err := b.
		WithSecretKey(key).
		WithTimestamp(timestamp).
		WithTTL(types.DefaultTTL).
		Build()
	require.NoError(t, err)
	require.NoError(t, deploy.VerifyHashes())
	require.NoError(t, deploy.VerifyApprovals())
	require.Len(t, deploy.Approvals, 1)
	require.True(t, deploy.Header.Account.Equal(key.PublicKey()))
	require.Equal(t, uint64(types.DefaultGasPrice), deploy.Header.GasPrice)
	require.True(t, deploy.Session.IsTransfer())
}

func TestBuilderUnsignedWithExplicitAccount(t *testing.T) {
	account := testKey(t, 2).PublicKey()
	b, err := testTransferBuilder(t).WithStandardPayment(mustValue(t, "amount:u512='10000'"))
	require.NoError(t, err)
	deploy, err := b.WithAccount(account).Build()
	require.NoError(t, err)
	require.Empty(t, deploy.Approvals)
	require.True(t, deploy.Header.Account.Equal(account))
}

func TestBuilderMissingAccount(t *testing.T) {
	b, err := testTransferBuilder(t).WithStandardPayment(mustValue(t, "amount:u512='1'"))
	require.NoError(t, err)
	_, err = b.Build()
	require.ErrorIs(t, err, ErrMissingAccount)
}

func TestBuilderMissingPayment(t *testing.T) {
	_, err := testTransferBuilder(t).WithSecretKey(testKey(t, 1)).Build()
	require.ErrorIs(t, err, ErrMissingPayment)
}

func TestBuilderTransferMissingTargetFailsBeforeHashing(t *testing.T) {
	args, err := clvalue.NewArgs([]string{"amount:u512='1'", "id:opt_u64='1'"})
	require.NoError(t, err)
	payment, err := types.NewStandardPayment(mustValue(t, "amount:u512='1'"))
	require.NoError(t, err)
	b := NewBuilder("casper-test", types.NewTransfer(args))
	_, err = b.WithSecretKey(testKey(t, 1)).WithPayment(payment).Build()
	require.ErrorIs(t, err, ErrInvalidTransfer)
}

func TestBuilderDependenciesReachHeader(t *testing.T) {
	dep := types.HashBytes([]byte("dep"))
	b, err := testTransferBuilder(t).WithStandardPayment(mustValue(t, "amount:u512='1'"))
	require.NoError(t, err)
	deploy, err := b.
		WithSecretKey(testKey(t, 1)).
		WithDependencies([]types.Digest{dep, dep}).
		Build()
	require.NoError(t, err)
	require.Equal(t, []types.Digest{dep}, deploy.Header.Dependencies)
}
