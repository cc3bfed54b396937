package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/casper-ecosystem/casper-client-go/logger"
	"github.com/casper-ecosystem/casper-client-go/rpc"
	"github.com/casper-ecosystem/casper-client-go/store"
	"github.com/casper-ecosystem/casper-client-go/types"
)

const (
	// The prefix for configuration keys inside environment.
	envPrefix = "CASPER"

	flagNameNodeAddress = "node-address"
	flagNameRPCTimeout  = "timeout"
	flagNameDeployStore = "deploy-store"
	flagNameLoggerCfg   = "logger-config"
	flagNameLogOutput   = "log-file"
	flagNameLogLevel    = "log-level"
	flagNameLogFormat   = "log-format"

	defaultNodeAddress = "http://localhost:7777"
)

type (
	casperClientApp struct {
		baseCmd    *cobra.Command
		baseConfig *baseConfiguration
	}

	baseConfiguration struct {
		NodeAddress string
		RPCTimeout  string
		DeployStore string

		log *slog.Logger
	}
)

// New creates a new casper-client application
func New() *casperClientApp {
	baseCmd, baseConfig := newBaseCmd()
	return &casperClientApp{baseCmd, baseConfig}
}

// Execute adds all child commands and runs the application
func (a *casperClientApp) Execute(ctx context.Context) error {
	a.baseCmd.AddCommand(newMakeDeployCmd(a.baseConfig))
	a.baseCmd.AddCommand(newSignDeployCmd(a.baseConfig))
	a.baseCmd.AddCommand(newPutDeployCmd(a.baseConfig))
	a.baseCmd.AddCommand(newMakeTransferCmd(a.baseConfig))
	a.baseCmd.AddCommand(newTransferCmd(a.baseConfig))
	a.baseCmd.AddCommand(newSpeculativeExecCmd(a.baseConfig))
	a.baseCmd.AddCommand(newGetDeployCmd(a.baseConfig))
	a.baseCmd.AddCommand(newGetStatusCmd(a.baseConfig))
	a.baseCmd.AddCommand(newGetPeersCmd(a.baseConfig))
	a.baseCmd.AddCommand(newQueryBalanceCmd(a.baseConfig))
	a.baseCmd.AddCommand(newAccountInfoCmd(a.baseConfig))
	a.baseCmd.AddCommand(newListDeploysCmd(a.baseConfig))
	a.baseCmd.AddCommand(newKeygenCmd(a.baseConfig))
	return a.baseCmd.ExecuteContext(ctx)
}

func newBaseCmd() (*cobra.Command, *baseConfiguration) {
	config := &baseConfiguration{}
	// baseCmd represents the base command when called without any subcommands
	var baseCmd = &cobra.Command{
		Use:           "casper-client",
		Short:         "A client for interacting with the Casper network",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Binding cobra and viper in PersistentPreRunE on the base command
			// makes the env bindings available to every subcommand that does
			// not define its own PersistentPreRunE.
			if err := initializeConfig(cmd, config); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			return nil
		},
	}
	config.addConfigurationFlags(baseCmd)

	return baseCmd, config
}

func (r *baseConfiguration) addConfigurationFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&r.NodeAddress, flagNameNodeAddress, "n", defaultNodeAddress, "address of the node's JSON-RPC server")
	cmd.PersistentFlags().StringVar(&r.RPCTimeout, flagNameRPCTimeout, "", "per-request timeout, e.g. 10s (default: no timeout)")
	cmd.PersistentFlags().StringVar(&r.DeployStore, flagNameDeployStore, "", "path of a local deploy store file, submitted deploys are recorded there when set")

	cmd.PersistentFlags().String(flagNameLoggerCfg, "", "logger configuration file (YAML)")
	// do not set default values for these flags as then we can easily determine whether to load the value from cfg file or not
	cmd.PersistentFlags().String(flagNameLogOutput, "", "log file path or one of the special values: stdout, stderr, discard")
	cmd.PersistentFlags().String(flagNameLogLevel, "", "logging level, one of: DEBUG, INFO, WARN, ERROR")
	cmd.PersistentFlags().String(flagNameLogFormat, "", "log format, one of: text, json, console")
}

func initializeConfig(cmd *cobra.Command, config *baseConfiguration) error {
	var errs []error

	if err := config.initializeViper(cmd); err != nil {
		errs = append(errs, fmt.Errorf("reading configuration: %w", err))
	}

	if err := config.initLogger(cmd); err != nil {
		errs = append(errs, fmt.Errorf("initializing logger: %w", err))
	}

	return errors.Join(errs...)
}

// initializeViper reads in ENV variables if set.
func (r *baseConfiguration) initializeViper(cmd *cobra.Command) error {
	v := viper.New()

	// When we bind flags to environment variables expect that the
	// environment variables are prefixed, e.g. a flag like --timeout
	// binds to an environment variable CASPER_TIMEOUT. This helps
	// avoid conflicts.
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// Bind the current command's flags to viper
	if err := bindFlags(cmd, v); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	return nil
}

// Bind each cobra flag to its associated viper configuration (environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindFlagErr []error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --node-address to CASPER_NODE_ADDRESS
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				bindFlagErr = append(bindFlagErr, fmt.Errorf("binding env to flag %q: %w", f.Name, err))
				return
			}
		}

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				bindFlagErr = append(bindFlagErr, fmt.Errorf("setting flag %q value: %w", f.Name, err))
				return
			}
		}
	})

	return errors.Join(bindFlagErr...)
}

/*
initLogger creates the logger based on configuration flags in "cmd".
*/
func (r *baseConfiguration) initLogger(cmd *cobra.Command) error {
	cfg := &logger.LogConfiguration{}

	if cmd.Flags().Changed(flagNameLoggerCfg) {
		cfgFile, err := cmd.Flags().GetString(flagNameLoggerCfg)
		if err != nil {
			return fmt.Errorf("failed to read %s flag value: %w", flagNameLoggerCfg, err)
		}
		f, err := os.Open(filepath.Clean(cfgFile))
		if err != nil {
			return fmt.Errorf("opening logger configuration file: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return fmt.Errorf("decoding logger configuration (%s): %w", cfgFile, err)
		}
	}

	// flags override values loaded from cfg file.
	// NB! these flags mustn't have default values in Cobra cmd definition!
	getFlagValueIfSet := func(flagName string, value *string) error {
		if cmd.Flags().Changed(flagName) {
			var err error
			if *value, err = cmd.Flags().GetString(flagName); err != nil {
				return fmt.Errorf("failed to read %s flag value: %w", flagName, err)
			}
		}
		return nil
	}

	if err := getFlagValueIfSet(flagNameLogLevel, &cfg.Level); err != nil {
		return err
	}
	if err := getFlagValueIfSet(flagNameLogFormat, &cfg.Format); err != nil {
		return err
	}
	if err := getFlagValueIfSet(flagNameLogOutput, &cfg.OutputPath); err != nil {
		return err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	r.log = log
	return nil
}

// Logger returns the application logger, falling back to a discarding
// logger when configuration has not run (ie in tests).
func (r *baseConfiguration) Logger() *slog.Logger {
	if r.log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.log
}

func (r *baseConfiguration) client() (*rpc.Client, error) {
	opts := []rpc.Option{rpc.WithLogger(r.Logger())}
	if r.RPCTimeout != "" {
		timeout, err := time.ParseDuration(r.RPCTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", flagNameRPCTimeout, r.RPCTimeout, err)
		}
		opts = append(opts, rpc.WithTimeout(timeout))
	}
	return rpc.New(r.NodeAddress, opts...)
}

// recordDeploy stores the deploy into the local deploy store, when one is
// configured. Failures are logged but do not fail the command, the deploy
// has already been accepted by the node at this point.
func (r *baseConfiguration) recordDeploy(d *types.Deploy) {
	if r.DeployStore == "" {
		return
	}
	s, err := store.New(r.DeployStore)
	if err != nil {
		r.Logger().Warn("opening deploy store", logger.Error(err))
		return
	}
	defer func() {
		if err := s.Close(); err != nil {
			r.Logger().Warn("closing deploy store", logger.Error(err))
		}
	}()
	if err := s.Put(d); err != nil {
		r.Logger().Warn("recording deploy", logger.Error(err), logger.Deploy(d.Hash[:]))
		return
	}
	r.Logger().Debug("deploy recorded", logger.Deploy(d.Hash[:]), "store", s.Path())
}
