package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPriceOracle/internal/storage/database"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for oracled including the Go version and the compiled-in database backends.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "oracled version %s\n", rootCmd.Version)
		fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Database backends: %v\n", database.Backends())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
