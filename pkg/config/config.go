package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Base configuration flags

	// FlagRootDir is a flag for specifying the root directory
	FlagRootDir = "home"

	// Mint configuration flags

	// FlagRecipient is a flag for specifying the recipient address certificates are minted to
	FlagRecipient = "certmint.mint.recipient"
	// FlagPacingInterval is a flag for specifying the delay between batch submissions
	FlagPacingInterval = "certmint.mint.pacing_interval"
	// FlagConfirmationPollInterval is a flag for specifying the confirmation poll interval
	FlagConfirmationPollInterval = "certmint.mint.confirmation_poll_interval"
	// FlagSubmitTimeout is a flag for specifying the timeout of one mint submission
	FlagSubmitTimeout = "certmint.mint.submit_timeout"

	// Ledger configuration flags

	// FlagLedgerURL is a flag for specifying the ledger JSON-RPC endpoint
	FlagLedgerURL = "certmint.ledger.url"
	// FlagLedgerContract is a flag for specifying the certificate contract address
	FlagLedgerContract = "certmint.ledger.contract_address"
	// FlagLedgerGasLimit is a flag for specifying the gas limit per mint transaction
	FlagLedgerGasLimit = "certmint.ledger.gas_limit"

	// Generator configuration flags

	// FlagGeneratorAddress is a flag for specifying the certificate generation endpoint
	FlagGeneratorAddress = "certmint.generator.address"
	// FlagGeneratorTimeout is a flag for specifying the generation request timeout
	FlagGeneratorTimeout = "certmint.generator.timeout"

	// Signer configuration flags

	// FlagSignerType is a flag for specifying the signer type
	FlagSignerType = "certmint.signer.type"
	// FlagSignerPath is a flag for specifying the signer key directory
	FlagSignerPath = "certmint.signer.path"

	// RPC configuration flags

	// FlagRPCAddress is a flag for specifying the RPC server listen address
	FlagRPCAddress = "certmint.rpc.address"

	// Instrumentation configuration flags

	// FlagPrometheus is a flag for enabling Prometheus metrics
	FlagPrometheus = "certmint.instrumentation.prometheus"
	// FlagPrometheusListenAddr is a flag for specifying the Prometheus listen address
	FlagPrometheusListenAddr = "certmint.instrumentation.prometheus_listen_addr"
	// FlagMaxOpenConnections is a flag for specifying the maximum number of open connections
	FlagMaxOpenConnections = "certmint.instrumentation.max_open_connections"

	// Logging configuration flags

	// FlagLogLevel is a flag for specifying the log level
	FlagLogLevel = "certmint.log.level"
	// FlagLogFormat is a flag for specifying the log format
	FlagLogFormat = "certmint.log.format"
)

// DurationWrapper is a wrapper for time.Duration that implements
// encoding.TextMarshaler and encoding.TextUnmarshaler needed for YAML
// marshalling/unmarshalling of time.Duration
type DurationWrapper struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler to format the duration as text
func (d DurationWrapper) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler to parse the duration from text
func (d *DurationWrapper) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Config stores certmint configuration.
type Config struct {
	// Base configuration
	RootDir string `mapstructure:"-" yaml:"-"`

	// Mint orchestrator configuration
	Mint MintConfig `mapstructure:"mint" yaml:"mint"`

	// Ledger configuration
	Ledger LedgerConfig `mapstructure:"ledger" yaml:"ledger"`

	// Generation endpoint configuration
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator"`

	// Signer configuration
	Signer SignerConfig `mapstructure:"signer" yaml:"signer"`

	// RPC configuration
	RPC RPCConfig `mapstructure:"rpc" yaml:"rpc"`

	// Instrumentation configuration
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`

	// Logging configuration
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// MintConfig contains the orchestrator parameters.
type MintConfig struct {
	// Recipient is the address issued certificates are minted to. When empty,
	// the signer's own address is used, matching a wallet minting to itself.
	Recipient string `mapstructure:"recipient" yaml:"recipient" comment:"Address certificates are minted to. Defaults to the signer address."`

	// PacingInterval is the fixed delay between two batch submissions.
	PacingInterval DurationWrapper `mapstructure:"pacing_interval" yaml:"pacing_interval" comment:"Delay between consecutive submissions in one batch run. Examples: \"1s\", \"500ms\"."`

	// ConfirmationPollInterval is how often an outstanding transaction is
	// polled for inclusion.
	ConfirmationPollInterval DurationWrapper `mapstructure:"confirmation_poll_interval" yaml:"confirmation_poll_interval" comment:"Interval between confirmation polls for an outstanding transaction."`

	// SubmitTimeout caps the duration of one mint submission call.
	SubmitTimeout DurationWrapper `mapstructure:"submit_timeout" yaml:"submit_timeout" comment:"Timeout of a single mint submission, including the signature request."`
}

// LedgerConfig contains the ledger client parameters.
type LedgerConfig struct {
	URL             string `mapstructure:"url" yaml:"url" comment:"JSON-RPC endpoint of the ledger node."`
	ContractAddress string `mapstructure:"contract_address" yaml:"contract_address" comment:"Deployed certificate token contract address."`
	GasLimit        uint64 `mapstructure:"gas_limit" yaml:"gas_limit" comment:"Gas limit per mint transaction."`
}

// GeneratorConfig contains the certificate generation endpoint parameters.
type GeneratorConfig struct {
	Address string          `mapstructure:"address" yaml:"address" comment:"Base URL of the certificate generation service."`
	Timeout DurationWrapper `mapstructure:"timeout" yaml:"timeout" comment:"Timeout for one generation request."`
}

// SignerConfig contains all signer configuration parameters
type SignerConfig struct {
	SignerType string `mapstructure:"type" yaml:"type" comment:"Type of signer to use (file, noop)"`
	SignerPath string `mapstructure:"path" yaml:"path" comment:"Directory containing the signer key file"`
}

// RPCConfig contains all RPC server configuration parameters
type RPCConfig struct {
	Address string `mapstructure:"address" yaml:"address" comment:"Address to bind the RPC server to (host:port)"`
}

// LogConfig contains all logging configuration parameters
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" comment:"Log level (debug, info, warn, error)"`
	Format string `mapstructure:"format" yaml:"format" comment:"Log format (text, json)"`
}

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// Prometheus enables presenting metrics over a prometheus endpoint.
	Prometheus bool `mapstructure:"prometheus" yaml:"prometheus" comment:"Enable Prometheus metrics"`

	// PrometheusListenAddr is the address to listen for Prometheus collector connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr" yaml:"prometheus_listen_addr" comment:"Prometheus metrics listen address"`

	// MaxOpenConnections is the maximum number of simultaneous connections.
	MaxOpenConnections int `mapstructure:"max_open_connections" yaml:"max_open_connections" comment:"Maximum simultaneous metrics connections"`
}

// IsPrometheusEnabled reports whether the prometheus endpoint should be served.
func (c *InstrumentationConfig) IsPrometheusEnabled() bool {
	return c != nil && c.Prometheus && c.PrometheusListenAddr != ""
}

// Validate checks that the configuration is complete enough to run the
// orchestrator, aggregating all problems found.
func (c Config) Validate() error {
	var errs error
	if c.Ledger.URL == "" {
		errs = multierror.Append(errs, fmt.Errorf("ledger.url must not be empty"))
	}
	if c.Ledger.ContractAddress == "" {
		errs = multierror.Append(errs, fmt.Errorf("ledger.contract_address must not be empty"))
	}
	if c.Generator.Address == "" {
		errs = multierror.Append(errs, fmt.Errorf("generator.address must not be empty"))
	}
	if c.Mint.PacingInterval.Duration <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("mint.pacing_interval must be positive"))
	}
	if c.Mint.ConfirmationPollInterval.Duration <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("mint.confirmation_poll_interval must be positive"))
	}
	return errs
}

// AddGlobalFlags registers the basic configuration flags that are common
// across commands.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(FlagLogLevel, DefaultConfig.Log.Level, "Set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String(FlagLogFormat, DefaultConfig.Log.Format, "Set the log format (text, json)")
	cmd.PersistentFlags().String(FlagRootDir, DefaultRootDir(), "Root directory for application data")
}

// AddFlags adds certmint configuration options to a cobra Command.
func AddFlags(cmd *cobra.Command) {
	def := DefaultConfig

	// Mint configuration flags
	cmd.Flags().String(FlagRecipient, def.Mint.Recipient, "address certificates are minted to (defaults to the signer address)")
	cmd.Flags().Duration(FlagPacingInterval, def.Mint.PacingInterval.Duration, "delay between consecutive batch submissions")
	cmd.Flags().Duration(FlagConfirmationPollInterval, def.Mint.ConfirmationPollInterval.Duration, "interval between confirmation polls")
	cmd.Flags().Duration(FlagSubmitTimeout, def.Mint.SubmitTimeout.Duration, "timeout of a single mint submission")

	// Ledger configuration flags
	cmd.Flags().String(FlagLedgerURL, def.Ledger.URL, "ledger JSON-RPC endpoint")
	cmd.Flags().String(FlagLedgerContract, def.Ledger.ContractAddress, "certificate token contract address")
	cmd.Flags().Uint64(FlagLedgerGasLimit, def.Ledger.GasLimit, "gas limit per mint transaction")

	// Generator configuration flags
	cmd.Flags().String(FlagGeneratorAddress, def.Generator.Address, "certificate generation service base URL")
	cmd.Flags().Duration(FlagGeneratorTimeout, def.Generator.Timeout.Duration, "generation request timeout")

	// Signer configuration flags
	cmd.Flags().String(FlagSignerType, def.Signer.SignerType, "type of signer to use (file, noop)")
	cmd.Flags().String(FlagSignerPath, def.Signer.SignerPath, "directory containing the signer key file")

	// RPC configuration flags
	cmd.Flags().String(FlagRPCAddress, def.RPC.Address, "RPC server listen address (host:port)")

	// Instrumentation configuration flags
	instrDef := DefaultInstrumentationConfig()
	cmd.Flags().Bool(FlagPrometheus, instrDef.Prometheus, "enable Prometheus metrics")
	cmd.Flags().String(FlagPrometheusListenAddr, instrDef.PrometheusListenAddr, "Prometheus metrics listen address")
	cmd.Flags().Int(FlagMaxOpenConnections, instrDef.MaxOpenConnections, "maximum number of simultaneous connections for metrics")
}

// Load loads the configuration in the following order of precedence:
// 1. DefaultConfig (lowest priority)
// 2. YAML configuration file in the root directory
// 3. Command line flags (highest priority)
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()

	config := DefaultConfig

	rootDir, _ := cmd.Flags().GetString(FlagRootDir)
	if rootDir != "" {
		config.RootDir = rootDir
	}

	v.SetConfigName(ConfigBaseName)
	v.SetConfigType(ConfigExtension)
	if config.RootDir != "" {
		v.AddConfigPath(config.RootDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) {
			return config, fmt.Errorf("error reading YAML configuration: %w", err)
		}
	}

	var flagErrs error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		flagName := strings.TrimPrefix(f.Name, "certmint.")
		if err := v.BindPFlag(flagName, f); err != nil {
			flagErrs = multierror.Append(flagErrs, err)
		}
	})
	if flagErrs != nil {
		return config, fmt.Errorf("unable to bind flags: %w", flagErrs)
	}

	if err := v.Unmarshal(&config, func(c *mapstructure.DecoderConfig) {
		c.TagName = "mapstructure"
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			durationWrapperHook,
		)
	}); err != nil {
		return config, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// durationWrapperHook decodes "1s"-style strings into DurationWrapper values.
func durationWrapperHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if t == reflect.TypeOf(DurationWrapper{}) && f.Kind() == reflect.String {
		if str, ok := data.(string); ok {
			duration, err := time.ParseDuration(str)
			if err != nil {
				return nil, err
			}
			return DurationWrapper{Duration: duration}, nil
		}
	}
	return data, nil
}
