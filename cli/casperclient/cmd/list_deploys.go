package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casper-ecosystem/casper-client-go/store"
	"github.com/casper-ecosystem/casper-client-go/types"
)

// newListDeploysCmd creates the command that lists the deploys recorded in
// the local deploy store.
func newListDeploysCmd(baseConfig *baseConfiguration) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "list-deploys",
		Short: "Lists the deploys recorded in the local deploy store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseConfig.DeployStore == "" {
				return fmt.Errorf("--%s is required", flagNameDeployStore)
			}
			s, err := store.New(baseConfig.DeployStore)
			if err != nil {
				return fmt.Errorf("opening deploy store: %w", err)
			}
			defer s.Close()

			return s.Each(func(d *types.Deploy) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  approvals=%d\n",
					hex.EncodeToString(d.Hash[:]), d.Header.Timestamp, d.Header.ChainName, len(d.Approvals))
				return err
			})
		},
	}
	return cmd
}
