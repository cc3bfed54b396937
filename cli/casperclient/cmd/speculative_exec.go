package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casper-ecosystem/casper-client-go/logger"
)

type speculativeExecConfig struct {
	Base  *baseConfiguration
	Input string
}

// newSpeculativeExecCmd creates the command that executes a stored deploy
// against the node's speculative execution endpoint without committing it.
func newSpeculativeExecCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &speculativeExecConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "speculative-exec",
		Short: "Executes a deploy without committing its effects to global state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return speculativeExecRunFun(cmd, config)
		},
	}
	cmd.Flags().StringVarP(&config.Input, flagNameInput, "i", "", "path of the deploy file to execute")
	if err := cmd.MarkFlagRequired(flagNameInput); err != nil {
		panic(err)
	}
	return cmd
}

func speculativeExecRunFun(cmd *cobra.Command, config *speculativeExecConfig) error {
	d, err := readDeployFile(config.Input)
	if err != nil {
		return err
	}
	client, err := config.Base.client()
	if err != nil {
		return err
	}
	result, err := client.SpeculativeExec(cmd.Context(), d)
	if err != nil {
		return fmt.Errorf("executing deploy: %w", err)
	}
	config.Base.Logger().Info("deploy executed speculatively", logger.Deploy(d.Hash[:]))
	return printJSON(cmd, result)
}
