package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casper-ecosystem/casper-client-go/clvalue"
	"github.com/casper-ecosystem/casper-client-go/crypto"
	"github.com/casper-ecosystem/casper-client-go/rpc"
	"github.com/casper-ecosystem/casper-client-go/types"
)

// newGetDeployCmd creates the command that retrieves a stored deploy by hash.
func newGetDeployCmd(baseConfig *baseConfiguration) *cobra.Command {
	var finalizedApprovals bool
	var cmd = &cobra.Command{
		Use:   "get-deploy DEPLOY_HASH",
		Short: "Retrieves a deploy from the network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := types.ParseDigest(args[0])
			if err != nil {
				return fmt.Errorf("parsing deploy hash: %w", err)
			}
			client, err := baseConfig.client()
			if err != nil {
				return err
			}
			result, err := client.GetDeploy(cmd.Context(), hash, finalizedApprovals)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().BoolVar(&finalizedApprovals, "finalized-approvals", false, "return the approval set that was finalized in a block instead of the originally received one")
	return cmd
}

func newGetStatusCmd(baseConfig *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "get-status",
		Short: "Retrieves the status of the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := baseConfig.client()
			if err != nil {
				return err
			}
			result, err := client.GetStatus(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func newGetPeersCmd(baseConfig *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "get-peers",
		Short: "Retrieves the peers of the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := baseConfig.client()
			if err != nil {
				return err
			}
			result, err := client.GetPeers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

// newQueryBalanceCmd creates the command that queries a purse balance. The
// purse is named by a public key, an account hash or a purse URef, exactly
// one of which must be given.
func newQueryBalanceCmd(baseConfig *baseConfiguration) *cobra.Command {
	var publicKey, accountHash, purseURef string
	var cmd = &cobra.Command{
		Use:   "query-balance",
		Short: "Retrieves the balance of a purse",
		RunE: func(cmd *cobra.Command, args []string) error {
			purse, err := purseIdentifier(publicKey, accountHash, purseURef)
			if err != nil {
				return err
			}
			client, err := baseConfig.client()
			if err != nil {
				return err
			}
			result, err := client.QueryBalance(cmd.Context(), purse)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&publicKey, "public-key", "", "hex-encoded public key of the account whose main purse to query")
	cmd.Flags().StringVar(&accountHash, "account-hash", "", "account hash (account-hash-<hex>) whose main purse to query")
	cmd.Flags().StringVar(&purseURef, "purse-uref", "", "purse to query as uref-<hex>-<rights>")
	return cmd
}

func purseIdentifier(publicKey, accountHash, purseURef string) (rpc.PurseIdentifier, error) {
	var set int
	for _, v := range []string{publicKey, accountHash, purseURef} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return rpc.PurseIdentifier{}, fmt.Errorf("exactly one of --public-key, --account-hash or --purse-uref must be given")
	}

	switch {
	case publicKey != "":
		pk, err := crypto.ParsePublicKey(publicKey)
		if err != nil {
			return rpc.PurseIdentifier{}, fmt.Errorf("parsing public key: %w", err)
		}
		return rpc.PurseByPublicKey(pk), nil
	case accountHash != "":
		if _, err := clvalue.ParseAccountHash(accountHash); err != nil {
			return rpc.PurseIdentifier{}, fmt.Errorf("parsing account hash: %w", err)
		}
		return rpc.PurseIdentifier{MainPurseUnderAccountHash: accountHash}, nil
	default:
		if _, err := clvalue.ParseURef(purseURef); err != nil {
			return rpc.PurseIdentifier{}, fmt.Errorf("parsing purse uref: %w", err)
		}
		return rpc.PurseIdentifier{PurseURef: purseURef}, nil
	}
}

// newAccountInfoCmd creates the command that retrieves an account from
// global state. The account is named by a hex public key or an
// account-hash-<hex> string.
func newAccountInfoCmd(baseConfig *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "account-info ACCOUNT_IDENTIFIER",
		Short: "Retrieves an account from the network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := baseConfig.client()
			if err != nil {
				return err
			}
			result, err := client.GetAccountInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}
