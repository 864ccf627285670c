package cmd

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/chinmay1088/mempool/api"
	"github.com/chinmay1088/mempool/chains/bitcoin"
	"github.com/chinmay1088/mempool/internal/config"
	"github.com/spf13/cobra"
)

func parseAddressArg(cfg *config.Config, arg string) (btcutil.Address, error) {
	params, err := bitcoin.ParamsForNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	return bitcoin.ParseAddress(arg, params)
}

var addressFlags = struct {
	txs     bool
	mempool bool
}{}

var addressCmd = &cobra.Command{
	Use:   "address <address>",
	Short: "Show the balance and history of an address",
	Long: `Show the confirmed and unconfirmed balance of an address.

Examples:
  mempool address bc1q...               # Balance and counts
  mempool address bc1q... --txs         # Plus the newest 25 confirmed transactions
  mempool address bc1q... --mempool     # Plus unconfirmed transactions`,
	Args: cobra.ExactArgs(1),
	RunE: runAddress,
}

func init() {
	addressCmd.Flags().BoolVar(&addressFlags.txs, "txs", false, "list the newest transactions")
	addressCmd.Flags().BoolVar(&addressFlags.mempool, "mempool", false, "list unconfirmed transactions")
}

func runAddress(cmd *cobra.Command, args []string) error {
	client, cfg, err := commandClient(cmd)
	if err != nil {
		return err
	}
	addr, err := parseAddressArg(cfg, args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	info, err := client.GetAddress(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to get address: %w", err)
	}
	var txs, pending []api.AddressTx
	if addressFlags.txs {
		txs, err = client.GetAddressTxs(ctx, addr, nil)
		if err != nil {
			return fmt.Errorf("failed to get transactions: %w", err)
		}
	}
	if addressFlags.mempool {
		pending, err = client.GetAddressMempoolTxs(ctx, addr)
		if err != nil {
			return fmt.Errorf("failed to get mempool transactions: %w", err)
		}
	}

	if globalFlags.jsonOutput {
		return printJSON(struct {
			api.AddressInfo
			Txs     []api.AddressTx `json:"txs,omitempty"`
			Mempool []api.AddressTx `json:"mempool_txs,omitempty"`
		}{info, txs, pending})
	}

	fmt.Printf("%s %s\n", label("Address"), info.Address)
	fmt.Printf("%s %s\n", label("Confirmed"), formatBTC(info.ChainStats.Balance()))
	fmt.Printf("%s %s\n", label("Unconfirmed"), formatBTC(info.MempoolStats.Balance()))
	fmt.Printf("%s %s\n", label("Total"), formatBTC(info.Balance()))
	fmt.Printf("%s %d\n", label("Transactions"), info.TxCount())

	for _, tx := range append(pending, txs...) {
		fmt.Printf("  %s  %s  %s\n", tx.Txid, formatStatus(tx.Status), formatBTC(netValue(tx, info.Address)))
	}
	return nil
}

// netValue is what tx paid to address minus what it spent from it
func netValue(tx api.AddressTx, address string) btcutil.Amount {
	var net btcutil.Amount
	for _, out := range tx.Vout {
		if out.ScriptpubkeyAddress == address {
			net += out.Value
		}
	}
	for _, in := range tx.Vin {
		if in.Prevout != nil && in.Prevout.ScriptpubkeyAddress == address {
			net -= in.Prevout.Value
		}
	}
	return net
}

var utxoCmd = &cobra.Command{
	Use:   "utxo <address>",
	Short: "List the unspent outputs of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := commandClient(cmd)
		if err != nil {
			return err
		}
		addr, err := parseAddressArg(cfg, args[0])
		if err != nil {
			return err
		}
		utxos, err := client.GetAddressUtxos(cmd.Context(), addr)
		if err != nil {
			return fmt.Errorf("failed to get utxos: %w", err)
		}
		if globalFlags.jsonOutput {
			return printJSON(utxos)
		}
		var total btcutil.Amount
		for _, utxo := range utxos {
			total += utxo.Value
			fmt.Printf("  %s:%d  %s  %s\n", utxo.Txid, utxo.Vout, formatBTC(utxo.Value), formatStatus(utxo.Status))
		}
		fmt.Printf("%s %d outputs, %s\n", label("Total"), len(utxos), formatBTC(total))
		return nil
	},
}
