package commands

import (
	"github.com/spf13/cobra"

	"github.com/certforge/certmint/pkg/config"
)

// RootCmd is the root command for certmint
var RootCmd = &cobra.Command{
	Use:   "certmint",
	Short: "Certificate token issuance orchestrator",
	Long: `
Certmint drives batch issuance of certificate tokens on an EVM ledger: it
requests certificate generation, submits one signed mint transaction per
item, and tracks each transaction until it is confirmed or fails.
If the --home flag is not specified, certmint stores its configuration and
signing key under "~/.certmint".
`,
}

func init() {
	config.AddGlobalFlags(RootCmd)
}
