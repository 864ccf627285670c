package cmd

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/chinmay1088/mempool/api"
	"github.com/spf13/cobra"
)

var historyFlags = struct {
	pages int
	all   bool
}{}

var historyCmd = &cobra.Command{
	Use:   "history <address>",
	Short: "Page through the confirmed history of an address",
	Long: `List the confirmed transactions of an address, newest first, following the
server's pages of 25 transactions.

Examples:
  mempool history bc1q...             # First page
  mempool history bc1q... --pages 4   # Up to 100 transactions
  mempool history bc1q... --all       # Everything`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyFlags.pages, "pages", 1, "number of pages to fetch")
	historyCmd.Flags().BoolVar(&historyFlags.all, "all", false, "fetch every page")
}

func runHistory(cmd *cobra.Command, args []string) error {
	client, cfg, err := commandClient(cmd)
	if err != nil {
		return err
	}
	addr, err := parseAddressArg(cfg, args[0])
	if err != nil {
		return err
	}
	pages := historyFlags.pages
	if historyFlags.all {
		pages = 0
	} else if pages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}

	txs, more, err := collectHistory(cmd.Context(), client, addr, pages)
	if err != nil {
		return err
	}
	if globalFlags.jsonOutput {
		return printJSON(txs)
	}

	address := addr.EncodeAddress()
	for i, tx := range txs {
		fmt.Printf("%4d. %s  %s  %s\n", i+1, tx.Txid, formatStatus(tx.Status), formatBTC(netValue(tx, address)))
	}
	fmt.Printf("%s %d transactions\n", label("Shown"), len(txs))
	if more {
		fmt.Printf("%s --pages %d\n", label("Next"), len(txs)/api.AddressTxsPageSize+1)
	}
	return nil
}

// collectHistory fetches up to maxPages pages, or all of them when maxPages
// is 0, and reports whether a full last page suggests more history.
func collectHistory(ctx context.Context, client *api.Client, addr btcutil.Address, maxPages int) ([]api.AddressTx, bool, error) {
	var (
		all   []api.AddressTx
		after *chainhash.Hash
	)
	for page := 1; ; page++ {
		txs, err := client.GetAddressTxs(ctx, addr, after)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get page %d: %w", page, err)
		}
		all = append(all, txs...)
		full := len(txs) >= api.AddressTxsPageSize
		if !full {
			return all, false, nil
		}
		if maxPages > 0 && page >= maxPages {
			return all, true, nil
		}
		last := txs[len(txs)-1].Txid
		after = &last
	}
}
