package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casper-ecosystem/casper-client-go/crypto"
	"github.com/casper-ecosystem/casper-client-go/deploy"
	"github.com/casper-ecosystem/casper-client-go/types"
)

const (
	flagNameSecretKey  = "secret-key"
	flagNameAccount    = "session-account"
	flagNameChainName  = "chain-name"
	flagNameTimestamp  = "timestamp"
	flagNameTTL        = "ttl"
	flagNameGasPrice   = "gas-price"
	flagNameDependency = "dependency"

	flagNameOutput = "output"
	flagNameForce  = "force"
	flagNameFormat = "format"

	flagNameInput = "input"
)

type (
	// deployFlags covers the deploy header and signing key.
	deployFlags struct {
		SecretKey    string
		Account      string
		ChainName    string
		Timestamp    string
		TTL          string
		GasPrice     uint64
		Dependencies []string
	}

	// sessionFlags maps the --session-* flag surface onto deploy.SessionParams.
	sessionFlags struct {
		Path        string
		Hash        string
		Name        string
		PackageHash string
		PackageName string
		EntryPoint  string
		Version     string
		Args        []string
		ArgsJSON    string
	}

	// paymentFlags maps the --payment-* flag surface onto deploy.PaymentParams.
	paymentFlags struct {
		Amount      string
		Path        string
		Hash        string
		Name        string
		PackageHash string
		PackageName string
		EntryPoint  string
		Version     string
		Args        []string
		ArgsJSON    string
	}

	// outputFlags selects where and how a constructed deploy is written.
	outputFlags struct {
		Output string
		Force  bool
		Format string
	}
)

// addCmdFlags registers the deploy header flags. markChainRequired is false
// for commands that can also read a complete deploy from a file, there the
// chain name is validated at construction time instead.
func (f *deployFlags) addCmdFlags(cmd *cobra.Command, markChainRequired bool) {
	cmd.Flags().StringVarP(&f.SecretKey, flagNameSecretKey, "k", "", "path to the PEM-encoded secret key file")
	cmd.Flags().StringVar(&f.Account, flagNameAccount, "", "hex-encoded public key of the account (defaults to the public key of --secret-key)")
	cmd.Flags().StringVar(&f.ChainName, flagNameChainName, "", "name of the chain, to avoid the deploy from being accidentally or maliciously included in a different chain")
	cmd.Flags().StringVar(&f.Timestamp, flagNameTimestamp, "", "RFC3339 timestamp of the deploy (default: now)")
	cmd.Flags().StringVar(&f.TTL, flagNameTTL, "", "time the deploy will remain valid for, e.g. 30m (default: 30m, max: 18h)")
	cmd.Flags().Uint64Var(&f.GasPrice, flagNameGasPrice, types.DefaultGasPrice, "conversion rate between the cost of Wasm opcodes and motes")
	cmd.Flags().StringArrayVar(&f.Dependencies, flagNameDependency, nil, "hex-encoded hash of a deploy this deploy depends on, may be repeated")
	if markChainRequired {
		if err := cmd.MarkFlagRequired(flagNameChainName); err != nil {
			panic(err)
		}
	}
}

func (f *deployFlags) params() (types.DeployParams, *crypto.SecretKey, error) {
	var key *crypto.SecretKey
	if f.SecretKey != "" {
		var err error
		if key, err = crypto.LoadSecretKey(f.SecretKey); err != nil {
			return types.DeployParams{}, nil, fmt.Errorf("loading secret key: %w", err)
		}
	}

	params := types.DeployParams{
		ChainName: f.ChainName,
		Timestamp: types.Now(),
		TTL:       types.DefaultTTL,
		GasPrice:  f.GasPrice,
	}

	switch {
	case f.Account != "":
		account, err := crypto.ParsePublicKey(f.Account)
		if err != nil {
			return types.DeployParams{}, nil, fmt.Errorf("parsing %s: %w", flagNameAccount, err)
		}
		params.Account = account
	case key != nil:
		params.Account = key.PublicKey()
	default:
		return types.DeployParams{}, nil, fmt.Errorf("either --%s or --%s must be given", flagNameSecretKey, flagNameAccount)
	}

	if f.Timestamp != "" {
		ts, err := types.ParseTimestamp(f.Timestamp)
		if err != nil {
			return types.DeployParams{}, nil, fmt.Errorf("parsing %s: %w", flagNameTimestamp, err)
		}
		params.Timestamp = ts
	}
	if f.TTL != "" {
		ttl, err := types.ParseTTL(f.TTL)
		if err != nil {
			return types.DeployParams{}, nil, fmt.Errorf("parsing %s: %w", flagNameTTL, err)
		}
		params.TTL = ttl
	}
	for _, dep := range f.Dependencies {
		digest, err := types.ParseDigest(dep)
		if err != nil {
			return types.DeployParams{}, nil, fmt.Errorf("parsing %s %q: %w", flagNameDependency, dep, err)
		}
		params.Dependencies = append(params.Dependencies, digest)
	}

	return params, key, nil
}

func (f *sessionFlags) addCmdFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Path, "session-path", "", "path to the compiled Wasm session code")
	cmd.Flags().StringVar(&f.Hash, "session-hash", "", "hex-encoded hash of the stored contract to call")
	cmd.Flags().StringVar(&f.Name, "session-name", "", "name of the stored contract (associated with the executing account) to call")
	cmd.Flags().StringVar(&f.PackageHash, "session-package-hash", "", "hex-encoded hash of the stored package to call")
	cmd.Flags().StringVar(&f.PackageName, "session-package-name", "", "name of the stored package to call")
	cmd.Flags().StringVar(&f.EntryPoint, "session-entry-point", "", "name of the method to call in the stored contract")
	cmd.Flags().StringVar(&f.Version, "session-version", "", "version of the called package (default: highest enabled)")
	cmd.Flags().StringArrayVar(&f.Args, "session-arg", nil, "session argument as name:type='value', may be repeated")
	cmd.Flags().StringVar(&f.ArgsJSON, "session-args-json", "", "session arguments as a JSON array of [name, {cl_type, bytes}] pairs")
}

func (f *sessionFlags) item() (types.ExecutableDeployItem, error) {
	params := deploy.SessionParams{
		Path:        f.Path,
		Hash:        f.Hash,
		Name:        f.Name,
		PackageHash: f.PackageHash,
		PackageName: f.PackageName,
		EntryPoint:  f.EntryPoint,
		Version:     f.Version,
		ArgsSimple:  f.Args,
		ArgsJSON:    f.ArgsJSON,
	}
	return params.Item()
}

func (f *paymentFlags) addCmdFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Amount, "payment-amount", "", "amount of motes to pay for execution, uses the standard payment contract")
	cmd.Flags().StringVar(&f.Path, "payment-path", "", "path to the compiled Wasm payment code")
	cmd.Flags().StringVar(&f.Hash, "payment-hash", "", "hex-encoded hash of the stored contract to use as payment")
	cmd.Flags().StringVar(&f.Name, "payment-name", "", "name of the stored contract (associated with the executing account) to use as payment")
	cmd.Flags().StringVar(&f.PackageHash, "payment-package-hash", "", "hex-encoded hash of the stored package to use as payment")
	cmd.Flags().StringVar(&f.PackageName, "payment-package-name", "", "name of the stored package to use as payment")
	cmd.Flags().StringVar(&f.EntryPoint, "payment-entry-point", "", "name of the method to call in the stored payment contract")
	cmd.Flags().StringVar(&f.Version, "payment-version", "", "version of the called payment package (default: highest enabled)")
	cmd.Flags().StringArrayVar(&f.Args, "payment-arg", nil, "payment argument as name:type='value', may be repeated")
	cmd.Flags().StringVar(&f.ArgsJSON, "payment-args-json", "", "payment arguments as a JSON array of [name, {cl_type, bytes}] pairs")
}

func (f *paymentFlags) item() (types.ExecutableDeployItem, error) {
	params := deploy.PaymentParams{
		Amount:      f.Amount,
		Path:        f.Path,
		Hash:        f.Hash,
		Name:        f.Name,
		PackageHash: f.PackageHash,
		PackageName: f.PackageName,
		EntryPoint:  f.EntryPoint,
		Version:     f.Version,
		ArgsSimple:  f.Args,
		ArgsJSON:    f.ArgsJSON,
	}
	return params.Item()
}

func (f *outputFlags) addCmdFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Output, flagNameOutput, "o", "", "path of the output file (default: stdout)")
	cmd.Flags().BoolVar(&f.Force, flagNameForce, false, "overwrite the output file if it already exists")
	cmd.Flags().StringVar(&f.Format, flagNameFormat, string(deploy.FormatJSON), "output file format, one of: json, cbor")
}

func (f *outputFlags) format() (deploy.Format, error) {
	switch deploy.Format(f.Format) {
	case deploy.FormatJSON:
		return deploy.FormatJSON, nil
	case deploy.FormatCBOR:
		return deploy.FormatCBOR, nil
	}
	return "", fmt.Errorf("unknown %s value %q", flagNameFormat, f.Format)
}

// write stores the deploy to the output file, or prints the JSON rendering
// to stdout when no output file was given.
func (f *outputFlags) write(cmd *cobra.Command, d *types.Deploy) error {
	format, err := f.format()
	if err != nil {
		return err
	}
	if f.Output == "" {
		data, err := deploy.Marshal(d, deploy.FormatJSON)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return deploy.WriteFile(f.Output, d, format, f.Force)
}

func readDeployFile(path string) (*types.Deploy, error) {
	if path == "" {
		return nil, fmt.Errorf("--%s is required", flagNameInput)
	}
	d, err := deploy.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deploy from %s: %w", path, err)
	}
	return d, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
