package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/certforge/certmint/pkg/config"
)

// GitSHA is set at build time
var GitSHA string

// Version is set at build time
var Version = config.Version

// VersionCmd prints version information.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
		fmt.Fprintf(w, "\ncertmint version:\t%v\n", Version)
		if GitSHA != "" {
			fmt.Fprintf(w, "certmint git sha:\t%v\n", GitSHA)
		}
		fmt.Fprintln(w, "")
		return w.Flush()
	},
}
