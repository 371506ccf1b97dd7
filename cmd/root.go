package cmd

import (
	"fmt"
	"os"

	"github.com/alanpinnt/wpmigrate/cmd/replace"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "wpmigrate",
		Short: "serialization-aware database search and replace",
		Long: fmt.Sprintf(`wpmigrate (v%s)

Replaces a substring across all text columns of a site database while
keeping PHP-serialized values intact: every serialized cell is decoded,
rewritten and re-encoded with exact byte-length prefixes instead of being
corrupted by a naive substring replace.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of wpmigrate",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wpmigrate v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(replace.ReplaceCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
