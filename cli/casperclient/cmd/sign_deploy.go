package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casper-ecosystem/casper-client-go/crypto"
	"github.com/casper-ecosystem/casper-client-go/logger"
)

type signDeployConfig struct {
	Base      *baseConfiguration
	Input     string
	SecretKey string
	Out       outputFlags
}

// newSignDeployCmd creates the command that adds an approval to a stored
// deploy. The deploy hash is not recomputed, only verified.
func newSignDeployCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &signDeployConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "sign-deploy",
		Short: "Reads a deploy from a file, signs it and outputs it to a file or stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signDeployRunFun(cmd, config)
		},
	}
	cmd.Flags().StringVarP(&config.Input, flagNameInput, "i", "", "path of the deploy file to sign")
	cmd.Flags().StringVarP(&config.SecretKey, flagNameSecretKey, "k", "", "path to the PEM-encoded secret key file")
	config.Out.addCmdFlags(cmd)
	for _, name := range []string{flagNameInput, flagNameSecretKey} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	return cmd
}

func signDeployRunFun(cmd *cobra.Command, config *signDeployConfig) error {
	d, err := readDeployFile(config.Input)
	if err != nil {
		return err
	}
	key, err := crypto.LoadSecretKey(config.SecretKey)
	if err != nil {
		return fmt.Errorf("loading secret key: %w", err)
	}
	signed, err := d.Sign(key)
	if err != nil {
		return fmt.Errorf("signing deploy: %w", err)
	}
	config.Base.Logger().Info("deploy signed",
		logger.Deploy(signed.Hash[:]), "approvals", len(signed.Approvals))
	return config.Out.write(cmd, signed)
}
