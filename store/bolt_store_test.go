package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casper-ecosystem/casper-client-go/clvalue"
	"github.com/casper-ecosystem/casper-client-go/crypto"
	"github.com/casper-ecosystem/casper-client-go/types"
)

func initStore(t *testing.T) *DeployStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "deploys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func testDeploy(t *testing.T, chainName string) *types.Deploy {
	t.Helper()
	key, err := crypto.GenerateKey(crypto.Ed25519)
	require.NoError(t, err)

	amount, err := clvalue.ParseSimple("amount:u512='10000'")
	require.NoError(t, err)
	payment, err := types.NewStandardPayment(amount.Value)
	require.NoError(t, err)
	session := types.NewStoredContractByName("counter", "increment", clvalue.Args{})

	d, err := types.NewDeploy(types.DeployParams{
		Account:   key.PublicKey(),
		Timestamp: types.Now(),
		TTL:       types.DefaultTTL,
		GasPrice:  types.DefaultGasPrice,
		ChainName: chainName,
	}, payment, session)
	require.NoError(t, err)
	signed, err := d.Sign(key)
	require.NoError(t, err)
	return signed
}

func TestPutAndGet(t *testing.T) {
	s := initStore(t)
	d := testDeploy(t, "casper-test")

	require.NoError(t, s.Put(d))

	loaded, found, err := s.Get(d.Hash)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, d.Hash, loaded.Hash)
	require.Equal(t, d.Header, loaded.Header)
	require.Equal(t, d.Approvals, loaded.Approvals)
}

func TestGetMissing(t *testing.T) {
	s := initStore(t)

	_, found, err := s.Get(types.Digest{1, 2, 3})
	require.NoError(t, err)
	require.False(t, found)
}

func TestPutOverwritesSameHash(t *testing.T) {
	s := initStore(t)
	d := testDeploy(t, "casper-test")
	require.NoError(t, s.Put(d))

	key, err := crypto.GenerateKey(crypto.Secp256k1)
	require.NoError(t, err)
	resigned, err := d.Sign(key)
	require.NoError(t, err)
	require.NoError(t, s.Put(resigned))

	loaded, found, err := s.Get(d.Hash)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded.Approvals, 2)
}

func TestDelete(t *testing.T) {
	s := initStore(t)
	d := testDeploy(t, "casper-test")
	require.NoError(t, s.Put(d))
	require.NoError(t, s.Delete(d.Hash))

	_, found, err := s.Get(d.Hash)
	require.NoError(t, err)
	require.False(t, found)
}

func TestEach(t *testing.T) {
	s := initStore(t)
	d1 := testDeploy(t, "chain-one")
	d2 := testDeploy(t, "chain-two")
	require.NoError(t, s.Put(d1))
	require.NoError(t, s.Put(d2))

	chains := map[string]bool{}
	require.NoError(t, s.Each(func(d *types.Deploy) error {
		chains[d.Header.ChainName] = true
		return nil
	}))
	require.Equal(t, map[string]bool{"chain-one": true, "chain-two": true}, chains)
}
