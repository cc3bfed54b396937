package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casper-ecosystem/casper-client-go/crypto"
	"github.com/casper-ecosystem/casper-client-go/logger"
	"github.com/casper-ecosystem/casper-client-go/types"
)

type makeDeployConfig struct {
	Base    *baseConfiguration
	Deploy  deployFlags
	Session sessionFlags
	Payment paymentFlags
	Out     outputFlags
}

// newMakeDeployCmd creates the command that constructs a deploy without
// submitting it. The deploy is signed when a secret key is given.
func newMakeDeployCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &makeDeployConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "make-deploy",
		Short: "Creates a deploy and outputs it to a file or stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return makeDeployRunFun(cmd, config)
		},
	}
	config.Deploy.addCmdFlags(cmd, true)
	config.Session.addCmdFlags(cmd)
	config.Payment.addCmdFlags(cmd)
	config.Out.addCmdFlags(cmd)
	return cmd
}

func makeDeployRunFun(cmd *cobra.Command, config *makeDeployConfig) error {
	d, err := buildDeploy(&config.Deploy, &config.Session, &config.Payment)
	if err != nil {
		return err
	}
	config.Base.Logger().Info("deploy created",
		logger.Deploy(d.Hash[:]), logger.Chain(d.Header.ChainName))
	return config.Out.write(cmd, d)
}

// buildDeploy assembles and, when a secret key was given, signs a deploy
// from the command line parameters.
func buildDeploy(df *deployFlags, sf *sessionFlags, pf *paymentFlags) (*types.Deploy, error) {
	params, key, err := df.params()
	if err != nil {
		return nil, err
	}
	session, err := sf.item()
	if err != nil {
		return nil, err
	}
	payment, err := pf.item()
	if err != nil {
		return nil, err
	}
	d, err := types.NewDeploy(params, payment, session)
	if err != nil {
		return nil, err
	}
	return signIfKeyGiven(d, key)
}

func signIfKeyGiven(d *types.Deploy, key *crypto.SecretKey) (*types.Deploy, error) {
	if key == nil {
		return d, nil
	}
	signed, err := d.Sign(key)
	if err != nil {
		return nil, fmt.Errorf("signing deploy: %w", err)
	}
	return signed, nil
}
