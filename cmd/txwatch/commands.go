package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	k8syaml "sigs.k8s.io/yaml"

	"github.com/vultisig/bigchain-connection/connection"
	"github.com/vultisig/bigchain-connection/libhttp"
)

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "txwatch",
		Short:         "Ledger REST API client",
		Long:          "Query a ledger REST API, post transactions and wait for them to become valid",
		SilenceUsage: true,
	}

	root.AddCommand(a.statusCmd())
	root.AddCommand(a.getTxCmd())
	root.AddCommand(a.getBlockCmd())
	root.AddCommand(a.blocksCmd())
	root.AddCommand(a.outputsCmd())
	root.AddCommand(a.txsCmd())
	root.AddCommand(a.votesCmd())
	root.AddCommand(a.searchCmd())
	root.AddCommand(a.postCmd())
	root.AddCommand(a.pollCmd())
	root.AddCommand(a.configCmd())
	return root
}

func printBody(w io.Writer, res *libhttp.Response) error {
	_, err := fmt.Fprintln(w, string(res.Body))
	return err
}

// singleArgCmd builds a command calling fn with its only argument and
// printing the response body.
func (a *app) singleArgCmd(
	use, short string,
	fn func(cmd *cobra.Command, arg string) (*libhttp.Response, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			res, err := fn(cmd, args[0])
			if err != nil {
				return err
			}
			return printBody(cmd.OutOrStdout(), res)
		}),
	}
}

func (a *app) statusCmd() *cobra.Command {
	return a.singleArgCmd("status <tx-id>", "Show the status of a transaction",
		func(cmd *cobra.Command, txID string) (*libhttp.Response, error) {
			return a.conn.GetStatus(cmd.Context(), txID)
		})
}

func (a *app) getTxCmd() *cobra.Command {
	return a.singleArgCmd("get-tx <tx-id>", "Fetch a transaction",
		func(cmd *cobra.Command, txID string) (*libhttp.Response, error) {
			return a.conn.GetTransaction(cmd.Context(), txID)
		})
}

func (a *app) getBlockCmd() *cobra.Command {
	return a.singleArgCmd("get-block <block-id>", "Fetch a block",
		func(cmd *cobra.Command, blockID string) (*libhttp.Response, error) {
			return a.conn.GetBlock(cmd.Context(), blockID)
		})
}

func (a *app) votesCmd() *cobra.Command {
	return a.singleArgCmd("votes <block-id>", "List the votes for a block",
		func(cmd *cobra.Command, blockID string) (*libhttp.Response, error) {
			return a.conn.ListVotes(cmd.Context(), blockID)
		})
}

func (a *app) searchCmd() *cobra.Command {
	return a.singleArgCmd("search <text>", "Search assets",
		func(cmd *cobra.Command, search string) (*libhttp.Response, error) {
			return a.conn.SearchAssets(cmd.Context(), search)
		})
}

func (a *app) blocksCmd() *cobra.Command {
	var params connection.ListBlocksParams

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "List blocks containing a transaction",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			res, err := a.conn.ListBlocks(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printBody(cmd.OutOrStdout(), res)
		}),
	}

	cmd.Flags().StringVar(&params.TransactionID, "tx-id", "", "Transaction ID")
	cmd.Flags().StringVar(&params.Status, "status", "", "Block status filter")
	return cmd
}

func (a *app) outputsCmd() *cobra.Command {
	var publicKey string
	var unspent, raw bool

	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "List the outputs of a public key",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			params := connection.ListOutputsParams{PublicKey: publicKey}
			if cmd.Flags().Changed("unspent") {
				params.Unspent = &unspent
			}
			res, err := a.conn.ListOutputs(cmd.Context(), params, !raw)
			if err != nil {
				return err
			}
			if raw {
				a.logger.WithField("status_code", res.StatusCode).Debug("outputs listed")
			}
			return printBody(cmd.OutOrStdout(), res)
		}),
	}

	cmd.Flags().StringVar(&publicKey, "public-key", "", "Owner public key")
	cmd.Flags().BoolVar(&unspent, "unspent", false, "Only unspent (true) or only spent (false) outputs")
	cmd.Flags().BoolVar(&raw, "raw", false, "Accept non-JSON responses")
	return cmd
}

func (a *app) txsCmd() *cobra.Command {
	var params connection.ListTransactionsParams

	cmd := &cobra.Command{
		Use:   "txs",
		Short: "List the transactions of an asset",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			res, err := a.conn.ListTransactions(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printBody(cmd.OutOrStdout(), res)
		}),
	}

	cmd.Flags().StringVar(&params.AssetID, "asset-id", "", "Asset ID")
	cmd.Flags().StringVar(&params.Operation, "operation", "", "CREATE or TRANSFER")
	return cmd
}

func (a *app) postCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "post <file>",
		Short: "Post a signed transaction read from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			tx, err := readTransaction(args[0])
			if err != nil {
				return err
			}

			res, err := a.conn.PostTransaction(cmd.Context(), tx)
			if err != nil {
				return err
			}
			if !wait {
				return printBody(cmd.OutOrStdout(), res)
			}

			posted, err := libhttp.Decode[postedTransaction](res)
			if err != nil {
				return fmt.Errorf("libhttp.Decode: %w", err)
			}
			if posted.ID == "" {
				return errors.New("posted transaction has no id")
			}
			return watchAll(cmd.Context(), a.logger, a.conn, []string{posted.ID}, 1, cmd.OutOrStdout())
		}),
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the transaction is valid")
	return cmd
}

type postedTransaction struct {
	ID string `json:"id"`
}

// readTransaction reads a transaction document. YAML is converted to JSON.
func readTransaction(path string) (json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}
	js, err := k8syaml.YAMLToJSON(b)
	if err != nil {
		return nil, fmt.Errorf("yaml.YAMLToJSON: %w", err)
	}
	return js, nil
}

func (a *app) pollCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "poll <tx-id>...",
		Short: "Wait until transactions are valid and print them",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			limit := a.cfg.Concurrency
			if concurrency > 0 {
				limit = concurrency
			}
			return watchAll(cmd.Context(), a.logger, a.conn, args, limit, cmd.OutOrStdout())
		}),
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent polls, defaults to the configured value")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			b, err := yaml.Marshal(a.cfg.Redacted())
			if err != nil {
				return fmt.Errorf("yaml.Marshal: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}),
	}
}
