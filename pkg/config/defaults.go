package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultDirPerm is the default permissions used when creating directories.
	DefaultDirPerm = 0o750

	// ConfigBaseName is the base name of the certmint configuration file without extension.
	ConfigBaseName = "certmint"

	// ConfigExtension is the file extension for the configuration file without the leading dot.
	ConfigExtension = "yaml"

	// Version is the current certmint version.
	// Please keep updated with each new release
	Version = "0.3.1"

	// DefaultLedgerURL is the default JSON-RPC endpoint of the ledger node.
	DefaultLedgerURL = "http://localhost:8545"

	// DefaultGeneratorAddress is the default base URL of the certificate
	// generation service.
	DefaultGeneratorAddress = "http://localhost:8080"

	// DefaultPacingInterval is the default delay between batch submissions.
	DefaultPacingInterval = 1 * time.Second

	// DefaultConfirmationPollInterval is the default interval between
	// confirmation polls for an outstanding transaction.
	DefaultConfirmationPollInterval = 2 * time.Second

	// DefaultSubmitTimeout is the default timeout of one mint submission.
	DefaultSubmitTimeout = 60 * time.Second

	// DefaultGasLimit is the default gas limit per mint transaction.
	DefaultGasLimit = 500_000

	// DefaultLogLevel is the default log level for the application.
	DefaultLogLevel = "info"
)

// DefaultRootDir returns the default root directory for certmint
func DefaultRootDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".certmint")
}

// DefaultConfig keeps default values of Config
var DefaultConfig = Config{
	RootDir: DefaultRootDir(),
	Mint: MintConfig{
		Recipient:                "",
		PacingInterval:           DurationWrapper{DefaultPacingInterval},
		ConfirmationPollInterval: DurationWrapper{DefaultConfirmationPollInterval},
		SubmitTimeout:            DurationWrapper{DefaultSubmitTimeout},
	},
	Ledger: LedgerConfig{
		URL:      DefaultLedgerURL,
		GasLimit: DefaultGasLimit,
	},
	Generator: GeneratorConfig{
		Address: DefaultGeneratorAddress,
		Timeout: DurationWrapper{30 * time.Second},
	},
	Signer: SignerConfig{
		SignerType: "file",
		SignerPath: "signer",
	},
	RPC: RPCConfig{
		Address: "127.0.0.1:7331",
	},
	Instrumentation: DefaultInstrumentationConfig(),
	Log: LogConfig{
		Level:  DefaultLogLevel,
		Format: "text",
	},
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		MaxOpenConnections:   3,
	}
}
