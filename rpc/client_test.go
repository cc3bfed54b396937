package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/casper-ecosystem/casper-client-go/clvalue"
	"github.com/casper-ecosystem/casper-client-go/crypto"
	"github.com/casper-ecosystem/casper-client-go/deploy"
	"github.com/casper-ecosystem/casper-client-go/types"
)

func testClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRetry(2, time.Millisecond, 2*time.Millisecond)}, opts...)
	client, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return client
}

func testSignedDeploy(t *testing.T) *types.Deploy {
	t.Helper()
	key, err := crypto.NewSecretKeyFromSeed(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	amount, err := clvalue.ParseSimple("amount:u512='2500000000'")
	require.NoError(t, err)
	payment, err := clvalue.ParseSimple("amount:u512='10000'")
	require.NoError(t, err)
	target, err := deploy.ParseTransferTarget(
		"account-hash-000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)
	builder, err := deploy.NewTransferBuilder("casper-test", amount.Value, nil, target, 1)
	require.NoError(t, err)
	builder, err = builder.WithStandardPayment(payment.Value)
	require.NoError(t, err)
	d, err := builder.WithSecretKey(key).Build()
	require.NoError(t, err)
	return d
}

func TestPutDeploy(t *testing.T) {
	d := testSignedDeploy(t)
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rpc", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Version string          `json:"jsonrpc"`
			ID      uint64          `json:"id"`
			Method  string          `json:"method"`
			Params  json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "2.0", req.Version)
		require.Equal(t, MethodPutDeploy, req.Method)

		var params struct {
			Deploy types.Deploy `json:"deploy"`
		}
		require.NoError(t, json.Unmarshal(req.Params, &params))
		require.Equal(t, d.Hash, params.Deploy.Hash)

		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"api_version":"1.5.6","deploy_hash":"%s"}}`,
			req.ID, d.Hash)
	})

	result, err := client.PutDeploy(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, d.Hash, result.DeployHash)
}

func TestPutDeployRejectsUnsignedLocally(t *testing.T) {
	d := testSignedDeploy(t)
	d.Approvals = nil
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unsigned deploy must not reach the node")
	})
	_, err := client.PutDeploy(context.Background(), d)
	require.ErrorIs(t, err, types.ErrInvalidDeploy)
}

func TestNodeErrorSurfacedVerbatimAndNotRetried(t *testing.T) {
	var attempts int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		var req struct {
			ID uint64 `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32602,"message":"invalid params"}}`, req.ID)
	})

	_, err := client.GetStatus(context.Background())
	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	require.EqualValues(t, -32602, nodeErr.Code)
	require.Equal(t, "invalid params", nodeErr.Message)
	require.Equal(t, 1, attempts, "node errors must not be retried")
}

func TestIDMismatchNotRetried(t *testing.T) {
	var attempts int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":424242,"result":{}}`)
	})

	_, err := client.GetPeers(context.Background())
	require.ErrorIs(t, err, ErrIDMismatch)
	require.Equal(t, 1, attempts)
}

func TestTransportErrorsRetriedThenUnreachable(t *testing.T) {
	var attempts int
	var ids []string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		ids = append(ids, string(req.ID))
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetStatus(context.Background())
	require.ErrorIs(t, err, ErrUnreachable)
	require.Equal(t, 3, attempts)
	for _, id := range ids[1:] {
		require.Equal(t, ids[0], id, "request id must stay stable across retries")
	}
	require.Contains(t, err.Error(), "id="+ids[0])
}

func TestConnectionRefusedIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	addr := srv.URL
	srv.Close()

	client, err := New(addr, WithRetry(1, time.Millisecond, time.Millisecond))
	require.NoError(t, err)
	_, err = client.GetPeers(context.Background())
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestOversizeResponseTruncated(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID uint64 `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"padding":%q}}`,
			req.ID, strings.Repeat("x", 2048))
	}, WithMaxBodySize(1024))

	_, err := client.GetStatus(context.Background())
	require.ErrorIs(t, err, ErrTruncated)
}

func TestQueryBalance(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
			Params struct {
				PurseIdentifier PurseIdentifier `json:"purse_identifier"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, MethodQueryBalance, req.Method)
		require.NotEmpty(t, req.Params.PurseIdentifier.MainPurseUnderPublicKey)
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"api_version":"1.5.6","balance":"1000000"}}`, req.ID)
	})

	key, err := crypto.NewSecretKeyFromSeed(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	result, err := client.QueryBalance(context.Background(), PurseByPublicKey(key.PublicKey()))
	require.NoError(t, err)
	require.Equal(t, "1000000", result.Balance)
}

func TestGetDeployRoundTrip(t *testing.T) {
	d := testSignedDeploy(t)
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64 `json:"id"`
			Params struct {
				DeployHash types.Digest `json:"deploy_hash"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, d.Hash, req.Params.DeployHash)

		deployJSON, err := json.Marshal(d)
		require.NoError(t, err)
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"api_version":"1.5.6","deploy":%s}}`,
			req.ID, deployJSON)
	})

	result, err := client.GetDeploy(context.Background(), d.Hash, false)
	require.NoError(t, err)
	require.Equal(t, d.Hash, result.Deploy.Hash)
	require.NoError(t, result.Deploy.VerifyApprovals())
}
