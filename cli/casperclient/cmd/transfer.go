package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casper-ecosystem/casper-client-go/logger"
)

type transferConfig struct {
	Base     *baseConfiguration
	Deploy   deployFlags
	Transfer transferFlags
	Payment  paymentFlags
}

// newTransferCmd creates the command that constructs, signs and submits a
// native transfer in one step.
func newTransferCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &transferConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "transfer",
		Short: "Transfers funds between purses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return transferRunFun(cmd, config)
		},
	}
	config.Deploy.addCmdFlags(cmd, true)
	config.Transfer.addCmdFlags(cmd)
	config.Payment.addCmdFlags(cmd)
	if err := cmd.MarkFlagRequired(flagNameSecretKey); err != nil {
		panic(err)
	}
	return cmd
}

func transferRunFun(cmd *cobra.Command, config *transferConfig) error {
	d, err := buildTransfer(&config.Deploy, &config.Transfer, &config.Payment)
	if err != nil {
		return err
	}

	client, err := config.Base.client()
	if err != nil {
		return err
	}
	result, err := client.PutDeploy(cmd.Context(), d)
	if err != nil {
		return fmt.Errorf("submitting transfer: %w", err)
	}
	config.Base.Logger().Info("transfer submitted",
		logger.Deploy(result.DeployHash[:]), logger.Node(config.Base.NodeAddress))
	config.Base.recordDeploy(d)
	return printJSON(cmd, result)
}
