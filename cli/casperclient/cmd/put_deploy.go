package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casper-ecosystem/casper-client-go/logger"
	"github.com/casper-ecosystem/casper-client-go/types"
)

type putDeployConfig struct {
	Base    *baseConfiguration
	Input   string
	Deploy  deployFlags
	Session sessionFlags
	Payment paymentFlags
}

// newPutDeployCmd creates the command that submits a deploy to the node.
// The deploy is either read from a file (--input) or constructed and signed
// from the session/payment flags.
func newPutDeployCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &putDeployConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "put-deploy",
		Short: "Creates a deploy and sends it to the network for execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return putDeployRunFun(cmd, config)
		},
	}
	cmd.Flags().StringVarP(&config.Input, flagNameInput, "i", "", "path of a previously saved deploy file to send instead of constructing one")
	config.Deploy.addCmdFlags(cmd, false)
	config.Session.addCmdFlags(cmd)
	config.Payment.addCmdFlags(cmd)
	return cmd
}

func putDeployRunFun(cmd *cobra.Command, config *putDeployConfig) error {
	var d *types.Deploy
	var err error
	if config.Input != "" {
		if d, err = readDeployFile(config.Input); err != nil {
			return err
		}
	} else {
		if config.Deploy.SecretKey == "" {
			return fmt.Errorf("--%s is required when no --%s file is given", flagNameSecretKey, flagNameInput)
		}
		if d, err = buildDeploy(&config.Deploy, &config.Session, &config.Payment); err != nil {
			return err
		}
	}

	client, err := config.Base.client()
	if err != nil {
		return err
	}
	result, err := client.PutDeploy(cmd.Context(), d)
	if err != nil {
		return fmt.Errorf("submitting deploy: %w", err)
	}
	config.Base.Logger().Info("deploy submitted",
		logger.Deploy(result.DeployHash[:]), logger.Node(config.Base.NodeAddress))
	config.Base.recordDeploy(d)
	return printJSON(cmd, result)
}
