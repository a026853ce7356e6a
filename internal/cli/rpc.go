package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPriceOracle/internal/auth"
	"github.com/LeJamon/goPriceOracle/internal/rpc"
)

var (
	rpcURL     string
	rpcKey     string
	rpcTimeout time.Duration
)

// rpcCmd calls a method on a running daemon
var rpcCmd = &cobra.Command{
	Use:   "rpc <method> [params]",
	Short: "Call a JSON-RPC method on a running server",
	Long: `Call a JSON-RPC method on a running oracled server and print the result.

params is a JSON object, e.g.
  oracled rpc twap '{"asset":"BTC","records":5}'

Requests are signed when a private key is given with --key or the
ORACLED_RPC_KEY environment variable. Guest methods need no key.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRPC,
}

func init() {
	rootCmd.AddCommand(rpcCmd)

	rpcCmd.Flags().StringVar(&rpcURL, "url", "http://127.0.0.1:5005", "server base URL")
	rpcCmd.Flags().StringVar(&rpcKey, "key", "", "hex private key used to sign the request")
	rpcCmd.Flags().DurationVar(&rpcTimeout, "timeout", 30*time.Second, "request timeout")
}

func runRPC(cmd *cobra.Command, args []string) error {
	method := args[0]

	var params interface{}
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("params must be valid JSON")
		}
		params = json.RawMessage(args[1])
	}

	opts := []rpc.ClientOption{}
	key := rpcKey
	if key == "" {
		key = os.Getenv("ORACLED_RPC_KEY")
	}
	if key != "" {
		kp, err := auth.ParsePrivateKey(key)
		if err != nil {
			return err
		}
		opts = append(opts, rpc.WithKey(kp))
	}
	client := rpc.NewClient(rpcURL, opts...)

	ctx, cancel := context.WithTimeout(cmd.Context(), rpcTimeout)
	defer cancel()

	var result json.RawMessage
	if err := client.Call(ctx, method, params, &result); err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
	return nil
}
