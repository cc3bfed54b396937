package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casper-ecosystem/casper-client-go/deploy"
)

const testContractHash = "0101010101010101010101010101010101010101010101010101010101010101"

func execCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := New()
	buf := bytes.NewBuffer(nil)
	app.baseCmd.SetOut(buf)
	app.baseCmd.SetErr(io.Discard)
	app.baseCmd.SetArgs(append(args, "--log-file", "discard"))
	err := app.Execute(context.Background())
	return buf.String(), err
}

func generateTestKey(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := execCommand(t, "keygen", dir)
	require.NoError(t, err)
	return filepath.Join(dir, secretKeyFileName)
}

func TestKeygen(t *testing.T) {
	dir := t.TempDir()
	out, err := execCommand(t, "keygen", dir, "--algorithm", "secp256k1")
	require.NoError(t, err)
	require.Contains(t, out, "public key:   02")
	require.Contains(t, out, "account hash: account-hash-")
	require.FileExists(t, filepath.Join(dir, secretKeyFileName))
	require.FileExists(t, filepath.Join(dir, publicKeyHexFileName))

	_, err = execCommand(t, "keygen", dir, "--algorithm", "secp256k1")
	require.ErrorContains(t, err, "exists")
}

func TestMakeDeployToFile(t *testing.T) {
	keyFile := generateTestKey(t)
	outFile := filepath.Join(t.TempDir(), "deploy.json")

	_, err := execCommand(t, "make-deploy",
		"--chain-name", "casper-test",
		"--secret-key", keyFile,
		"--session-hash", testContractHash,
		"--session-entry-point", "store",
		"--session-arg", "name_01:bool='false'",
		"--payment-amount", "10000",
		"--output", outFile,
	)
	require.NoError(t, err)

	d, err := deploy.ReadFile(outFile)
	require.NoError(t, err)
	require.NoError(t, d.VerifyApprovals())
	require.Len(t, d.Approvals, 1)
	require.Equal(t, "casper-test", d.Header.ChainName)
}

func TestMakeDeployRejectsAmbiguousSession(t *testing.T) {
	keyFile := generateTestKey(t)
	_, err := execCommand(t, "make-deploy",
		"--chain-name", "casper-test",
		"--secret-key", keyFile,
		"--session-hash", testContractHash,
		"--session-name", "counter",
		"--session-entry-point", "store",
		"--payment-amount", "10000",
	)
	require.ErrorContains(t, err, "exactly one")
}

func TestSignDeployAddsSecondApproval(t *testing.T) {
	keyFile := generateTestKey(t)
	secondKey := generateTestKey(t)
	dir := t.TempDir()
	unsigned := filepath.Join(dir, "deploy.json")
	signed := filepath.Join(dir, "signed.json")

	_, err := execCommand(t, "make-deploy",
		"--chain-name", "casper-test",
		"--secret-key", keyFile,
		"--session-hash", testContractHash,
		"--session-entry-point", "store",
		"--payment-amount", "10000",
		"--output", unsigned,
	)
	require.NoError(t, err)

	_, err = execCommand(t, "sign-deploy",
		"--input", unsigned,
		"--secret-key", secondKey,
		"--output", signed,
	)
	require.NoError(t, err)

	d, err := deploy.ReadFile(signed)
	require.NoError(t, err)
	require.Len(t, d.Approvals, 2)
	require.NoError(t, d.VerifyApprovals())
}

func TestMakeTransferRequiresTarget(t *testing.T) {
	keyFile := generateTestKey(t)
	_, err := execCommand(t, "make-transfer",
		"--chain-name", "casper-test",
		"--secret-key", keyFile,
		"--amount", "2500000000",
		"--transfer-id", "42",
		"--payment-amount", "10000",
	)
	require.ErrorContains(t, err, "target")
}

func TestTransferSubmitsToNode(t *testing.T) {
	var submitted map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params struct {
				Deploy map[string]any `json:"deploy"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "account_put_deploy", req.Method)
		submitted = req.Params.Deploy

		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]any{
				"api_version": "1.0.0",
				"deploy_hash": req.Params.Deploy["hash"],
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	keyFile := generateTestKey(t)
	out, err := execCommand(t, "transfer",
		"--node-address", srv.URL,
		"--chain-name", "casper-test",
		"--secret-key", keyFile,
		"--amount", "2500000000",
		"--target", "account-hash-"+testContractHash,
		"--transfer-id", "42",
		"--payment-amount", "10000",
	)
	require.NoError(t, err)
	require.NotNil(t, submitted)
	require.Contains(t, out, "deploy_hash")
	require.Contains(t, strings.ToLower(out), submitted["hash"].(string))
}

func TestPutDeployFromFile(t *testing.T) {
	keyFile := generateTestKey(t)
	deployFile := filepath.Join(t.TempDir(), "deploy.json")
	_, err := execCommand(t, "make-deploy",
		"--chain-name", "casper-test",
		"--secret-key", keyFile,
		"--session-hash", testContractHash,
		"--session-entry-point", "store",
		"--payment-amount", "10000",
		"--output", deployFile,
	)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Params struct {
				Deploy struct {
					Hash string `json:"hash"`
				} `json:"deploy"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]any{"api_version": "1.0.0", "deploy_hash": req.Params.Deploy.Hash},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	out, err := execCommand(t, "put-deploy",
		"--node-address", srv.URL,
		"--input", deployFile,
	)
	require.NoError(t, err)
	require.Contains(t, out, "deploy_hash")
}

func TestGetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "info_get_status", req.Method)
		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]any{"api_version": "1.0.0", "chainspec_name": "casper-test"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	out, err := execCommand(t, "get-status", "--node-address", srv.URL)
	require.NoError(t, err)
	require.Contains(t, out, "casper-test")
}

func TestTransferRecordsDeployInStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Params struct {
				Deploy struct {
					Hash string `json:"hash"`
				} `json:"deploy"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]any{"api_version": "1.0.0", "deploy_hash": req.Params.Deploy.Hash},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	keyFile := generateTestKey(t)
	storeFile := filepath.Join(t.TempDir(), "deploys.db")
	_, err := execCommand(t, "transfer",
		"--node-address", srv.URL,
		"--deploy-store", storeFile,
		"--chain-name", "casper-test",
		"--secret-key", keyFile,
		"--amount", "2500000000",
		"--target", "account-hash-"+testContractHash,
		"--transfer-id", "42",
		"--payment-amount", "10000",
	)
	require.NoError(t, err)

	out, err := execCommand(t, "list-deploys", "--deploy-store", storeFile)
	require.NoError(t, err)
	require.Contains(t, out, "casper-test")
	require.Contains(t, out, "approvals=1")
}

func TestLoggerConfigFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "logger-config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("defaultLevel: debug\nformat: json\noutputPath: discard\n"), 0600))

	dir := t.TempDir()
	_, err := execCommand(t, "keygen", dir, "--logger-config", cfgFile)
	require.NoError(t, err)

	_, err = execCommand(t, "keygen", t.TempDir(), "--logger-config", filepath.Join(dir, "no-such-file.yaml"))
	require.ErrorContains(t, err, "opening logger configuration file")
}

func TestQueryBalanceRequiresExactlyOnePurse(t *testing.T) {
	_, err := execCommand(t, "query-balance")
	require.ErrorContains(t, err, "exactly one")

	_, err = execCommand(t, "query-balance",
		"--public-key", "01"+strings.Repeat("aa", 32),
		"--purse-uref", "uref-"+testContractHash+"-007",
	)
	require.ErrorContains(t, err, "exactly one")
}
