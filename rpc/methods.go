package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/casper-ecosystem/casper-client-go/crypto"
	"github.com/casper-ecosystem/casper-client-go/types"
)

// RPC method names understood by the node.
const (
	MethodPutDeploy       = "account_put_deploy"
	MethodGetDeploy       = "info_get_deploy"
	MethodGetStatus       = "info_get_status"
	MethodGetPeers        = "info_get_peers"
	MethodQueryBalance    = "query_balance"
	MethodGetAccountInfo  = "state_get_account_info"
	MethodSpeculativeExec = "speculative_exec"
)

type (
	putDeployParams struct {
		Deploy *types.Deploy `json:"deploy"`
	}

	// PutDeployResult echoes the hash the node accepted.
	PutDeployResult struct {
		APIVersion string       `json:"api_version"`
		DeployHash types.Digest `json:"deploy_hash"`
	}

	getDeployParams struct {
		DeployHash         types.Digest `json:"deploy_hash"`
		FinalizedApprovals bool         `json:"finalized_approvals,omitempty"`
	}

	// GetDeployResult carries the stored deploy and its execution results.
	// The execution results are node-defined and passed through unparsed.
	GetDeployResult struct {
		APIVersion       string          `json:"api_version"`
		Deploy           types.Deploy    `json:"deploy"`
		ExecutionResults json.RawMessage `json:"execution_results,omitempty"`
	}

	// StatusResult is the node's self-reported status.
	StatusResult struct {
		APIVersion       string          `json:"api_version"`
		ChainspecName    string          `json:"chainspec_name"`
		OurPublicSigning json.RawMessage `json:"our_public_signing_key,omitempty"`
		LastAddedBlock   json.RawMessage `json:"last_added_block_info,omitempty"`
		Uptime           string          `json:"uptime,omitempty"`
	}

	// Peer is one entry of the node's peer list.
	Peer struct {
		NodeID  string `json:"node_id"`
		Address string `json:"address"`
	}

	PeersResult struct {
		APIVersion string `json:"api_version"`
		Peers      []Peer `json:"peers"`
	}

	queryBalanceParams struct {
		PurseIdentifier PurseIdentifier `json:"purse_identifier"`
		StateIdentifier json.RawMessage `json:"state_identifier,omitempty"`
	}

	// PurseIdentifier names the purse whose balance is queried: exactly one
	// field is set.
	PurseIdentifier struct {
		MainPurseUnderPublicKey   string `json:"main_purse_under_public_key,omitempty"`
		MainPurseUnderAccountHash string `json:"main_purse_under_account_hash,omitempty"`
		PurseURef                 string `json:"purse_uref,omitempty"`
	}

	QueryBalanceResult struct {
		APIVersion string `json:"api_version"`
		Balance    string `json:"balance"`
	}

	accountInfoParams struct {
		AccountIdentifier string          `json:"account_identifier"`
		BlockIdentifier   json.RawMessage `json:"block_identifier,omitempty"`
	}

	AccountInfoResult struct {
		APIVersion string          `json:"api_version"`
		Account    json.RawMessage `json:"account"`
	}

	speculativeExecParams struct {
		Deploy          *types.Deploy   `json:"deploy"`
		BlockIdentifier json.RawMessage `json:"block_identifier,omitempty"`
	}

	SpeculativeExecResult struct {
		APIVersion      string          `json:"api_version"`
		BlockHash       types.Digest    `json:"block_hash"`
		ExecutionResult json.RawMessage `json:"execution_result"`
	}
)

// PutDeploy submits a deploy for execution. The deploy is validated locally
// before any network traffic.
func (c *Client) PutDeploy(ctx context.Context, deploy *types.Deploy) (*PutDeployResult, error) {
	if err := validateForSubmission(deploy); err != nil {
		return nil, err
	}
	var result PutDeployResult
	if err := c.call(ctx, MethodPutDeploy, putDeployParams{Deploy: deploy}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDeploy fetches a stored deploy by hash.
func (c *Client) GetDeploy(ctx context.Context, hash types.Digest, finalizedApprovals bool) (*GetDeployResult, error) {
	var result GetDeployResult
	params := getDeployParams{DeployHash: hash, FinalizedApprovals: finalizedApprovals}
	if err := c.call(ctx, MethodGetDeploy, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetStatus(ctx context.Context) (*StatusResult, error) {
	var result StatusResult
	if err := c.call(ctx, MethodGetStatus, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetPeers(ctx context.Context) (*PeersResult, error) {
	var result PeersResult
	if err := c.call(ctx, MethodGetPeers, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QueryBalance reads the motes balance of a purse.
func (c *Client) QueryBalance(ctx context.Context, purse PurseIdentifier) (*QueryBalanceResult, error) {
	var result QueryBalanceResult
	if err := c.call(ctx, MethodQueryBalance, queryBalanceParams{PurseIdentifier: purse}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAccountInfo fetches the account record for a public key or a formatted
// account hash.
func (c *Client) GetAccountInfo(ctx context.Context, accountIdentifier string) (*AccountInfoResult, error) {
	var result AccountInfoResult
	params := accountInfoParams{AccountIdentifier: accountIdentifier}
	if err := c.call(ctx, MethodGetAccountInfo, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SpeculativeExec executes a deploy without committing it.
func (c *Client) SpeculativeExec(ctx context.Context, deploy *types.Deploy) (*SpeculativeExecResult, error) {
	if err := validateForSubmission(deploy); err != nil {
		return nil, err
	}
	var result SpeculativeExecResult
	if err := c.call(ctx, MethodSpeculativeExec, speculativeExecParams{Deploy: deploy}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PurseByPublicKey identifies the main purse of a public key's account.
func PurseByPublicKey(pk crypto.PublicKey) PurseIdentifier {
	return PurseIdentifier{MainPurseUnderPublicKey: pk.Hex()}
}

// validateForSubmission rejects a deploy locally before any network call.
func validateForSubmission(deploy *types.Deploy) error {
	if err := deploy.VerifyHashes(); err != nil {
		return err
	}
	if err := deploy.VerifyApprovals(); err != nil {
		return err
	}
	if len(deploy.Approvals) == 0 {
		return fmt.Errorf("%w: deploy has no approvals", types.ErrInvalidDeploy)
	}
	return deploy.ValidSize()
}
