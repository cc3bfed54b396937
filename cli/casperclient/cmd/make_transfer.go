package cmd

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/casper-ecosystem/casper-client-go/clvalue"
	"github.com/casper-ecosystem/casper-client-go/deploy"
	"github.com/casper-ecosystem/casper-client-go/logger"
	"github.com/casper-ecosystem/casper-client-go/types"
)

const (
	flagNameAmount     = "amount"
	flagNameTarget     = "target"
	flagNameTransferID = "transfer-id"
	flagNameSource     = "source"
)

type (
	// transferFlags covers the native transfer session arguments.
	transferFlags struct {
		Amount     string
		Target     string
		TransferID uint64
		Source     string
	}

	makeTransferConfig struct {
		Base     *baseConfiguration
		Deploy   deployFlags
		Transfer transferFlags
		Payment  paymentFlags
		Out      outputFlags
	}
)

func (f *transferFlags) addCmdFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Amount, flagNameAmount, "a", "", "number of motes to transfer")
	cmd.Flags().StringVarP(&f.Target, flagNameTarget, "t", "", "recipient: hex public key, account-hash-<hex> or uref-<hex>-<rights>")
	cmd.Flags().Uint64VarP(&f.TransferID, flagNameTransferID, "i", 0, "user-defined identifier permanently associated with the transfer")
	cmd.Flags().StringVar(&f.Source, flagNameSource, "", "source purse as uref-<hex>-<rights> (default: the account's main purse)")
	for _, name := range []string{flagNameAmount, flagNameTarget, flagNameTransferID} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

func (f *transferFlags) item() (types.ExecutableDeployItem, error) {
	amount, ok := new(big.Int).SetString(f.Amount, 10)
	if !ok {
		return types.ExecutableDeployItem{}, fmt.Errorf("invalid %s value %q", flagNameAmount, f.Amount)
	}
	amountValue, err := clvalue.NewBigInt(clvalue.U512, amount)
	if err != nil {
		return types.ExecutableDeployItem{}, fmt.Errorf("invalid %s value %q: %w", flagNameAmount, f.Amount, err)
	}
	target, err := deploy.ParseTransferTarget(f.Target)
	if err != nil {
		return types.ExecutableDeployItem{}, fmt.Errorf("parsing %s: %w", flagNameTarget, err)
	}
	var source *clvalue.URefValue
	if f.Source != "" {
		uref, err := clvalue.ParseURef(f.Source)
		if err != nil {
			return types.ExecutableDeployItem{}, fmt.Errorf("parsing %s: %w", flagNameSource, err)
		}
		source = &uref
	}
	args, err := deploy.NewTransferArgs(amountValue, source, target, f.TransferID)
	if err != nil {
		return types.ExecutableDeployItem{}, err
	}
	return deploy.NewTransferItem(args)
}

// newMakeTransferCmd creates the command that constructs a native transfer
// deploy without submitting it.
func newMakeTransferCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &makeTransferConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "make-transfer",
		Short: "Creates a transfer deploy and outputs it to a file or stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return makeTransferRunFun(cmd, config)
		},
	}
	config.Deploy.addCmdFlags(cmd, true)
	config.Transfer.addCmdFlags(cmd)
	config.Payment.addCmdFlags(cmd)
	config.Out.addCmdFlags(cmd)
	return cmd
}

func makeTransferRunFun(cmd *cobra.Command, config *makeTransferConfig) error {
	d, err := buildTransfer(&config.Deploy, &config.Transfer, &config.Payment)
	if err != nil {
		return err
	}
	config.Base.Logger().Info("transfer deploy created",
		logger.Deploy(d.Hash[:]), logger.Chain(d.Header.ChainName))
	return config.Out.write(cmd, d)
}

func buildTransfer(df *deployFlags, tf *transferFlags, pf *paymentFlags) (*types.Deploy, error) {
	params, key, err := df.params()
	if err != nil {
		return nil, err
	}
	session, err := tf.item()
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
