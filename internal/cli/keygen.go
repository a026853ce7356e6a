package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPriceOracle/internal/auth"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a signing key",
	Long: `Generate a secp256k1 key pair for signing RPC requests and print the
private key, the public key and the principal the server derives from it.
Use the principal as the oracle admin and the private key as
[feeder] private_key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := auth.GenerateKey()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "private_key: %s\n", key.PrivateKeyHex())
		fmt.Fprintf(out, "public_key:  %s\n", key.PublicKeyHex())
		fmt.Fprintf(out, "principal:   %s\n", key.Principal())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
