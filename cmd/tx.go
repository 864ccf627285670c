package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/chinmay1088/mempool/api"
	"github.com/chinmay1088/mempool/chains/bitcoin"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func parseTxid(arg string) (chainhash.Hash, error) {
	hash, err := chainhash.NewHashFromStr(strings.TrimSpace(arg))
	if err != nil || len(strings.TrimSpace(arg)) != chainhash.MaxHashStringSize {
		return chainhash.Hash{}, fmt.Errorf("invalid txid %q", arg)
	}
	return *hash, nil
}

var txFlags = struct {
	raw bool
}{}

var txCmd = &cobra.Command{
	Use:   "tx <txid>",
	Short: "Show a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runTx,
}

func init() {
	txCmd.Flags().BoolVar(&txFlags.raw, "raw", false, "print the raw transaction hex")
}

func runTx(cmd *cobra.Command, args []string) error {
	client, _, err := commandClient(cmd)
	if err != nil {
		return err
	}
	txid, err := parseTxid(args[0])
	if err != nil {
		return err
	}

	if txFlags.raw {
		msgTx, err := client.GetTxRaw(cmd.Context(), txid)
		if err != nil {
			return fmt.Errorf("failed to get transaction: %w", err)
		}
		raw, err := bitcoin.EncodeRawTransaction(msgTx)
		if err != nil {
			return err
		}
		fmt.Println(raw)
		return nil
	}

	tx, err := client.GetTx(cmd.Context(), txid)
	if err != nil {
		return fmt.Errorf("failed to get transaction: %w", err)
	}
	if globalFlags.jsonOutput {
		return printJSON(tx)
	}
	printTx(tx)
	return nil
}

func printTx(tx api.TxInfo) {
	fmt.Printf("%s %s\n", label("Txid"), tx.Txid)
	fmt.Printf("%s %s\n", label("Status"), formatStatus(tx.Status))
	if tx.Status.Confirmed {
		fmt.Printf("%s %s\n", label("Time"), formatTime(tx.Status.Time()))
	}
	fmt.Printf("%s %d vB, %d WU\n", label("Size"), tx.VSize(), tx.Weight)
	fmt.Printf("%s %s (%.1f sat/vB)\n", label("Fee"), formatBTC(tx.Fee), tx.FeeRate())

	fmt.Println(color.CyanString("Inputs"))
	for _, in := range tx.Vin {
		switch {
		case in.IsCoinbase:
			fmt.Println("  coinbase")
		case in.Prevout != nil:
			fmt.Printf("  %s:%d  %s  %s\n", in.Txid, in.Vout, in.Prevout.ScriptpubkeyAddress, formatBTC(in.Prevout.Value))
		default:
			fmt.Printf("  %s:%d\n", in.Txid, in.Vout)
		}
	}
	fmt.Println(color.CyanString("Outputs"))
	for i, out := range tx.Vout {
		dest := out.ScriptpubkeyAddress
		if dest == "" {
			dest = out.ScriptpubkeyType
		}
		fmt.Printf("  %d  %s  %s\n", i, dest, formatBTC(out.Value))
	}
}

var txStatusCmd = &cobra.Command{
	Use:   "tx-status <txid>",
	Short: "Show the confirmation status of a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := commandClient(cmd)
		if err != nil {
			return err
		}
		txid, err := parseTxid(args[0])
		if err != nil {
			return err
		}
		status, err := client.GetTxStatus(cmd.Context(), txid)
		if err != nil {
			return fmt.Errorf("failed to get transaction status: %w", err)
		}
		if globalFlags.jsonOutput {
			return printJSON(status)
		}
		fmt.Println(formatStatus(status))
		if status.Confirmed {
			proof, err := client.GetTxMerkleProof(cmd.Context(), txid)
			if err != nil {
				return fmt.Errorf("failed to get merkle proof: %w", err)
			}
			fmt.Printf("%s position %d, %d hashes\n", label("Merkle proof"), proof.Pos, len(proof.Merkle))
		}
		return nil
	},
}

var outspendsCmd = &cobra.Command{
	Use:   "outspends <txid> [vout]",
	Short: "Show which outputs of a transaction are spent",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := commandClient(cmd)
		if err != nil {
			return err
		}
		txid, err := parseTxid(args[0])
		if err != nil {
			return err
		}

		var spends []api.OutputStatus
		first := 0
		if len(args) == 2 {
			var vout uint32
			if _, err := fmt.Sscanf(args[1], "%d", &vout); err != nil {
				return fmt.Errorf("invalid output index %q", args[1])
			}
			spend, err := client.GetTxOutspend(cmd.Context(), txid, vout)
			if err != nil {
				return fmt.Errorf("failed to get outspend: %w", err)
			}
			spends = []api.OutputStatus{spend}
			first = int(vout)
		} else {
			spends, err = client.GetTxOutspends(cmd.Context(), txid)
			if err != nil {
				return fmt.Errorf("failed to get outspends: %w", err)
			}
		}

		if globalFlags.jsonOutput {
			return printJSON(spends)
		}
		for i, spend := range spends {
			if !spend.Spent || spend.Txid == nil {
				fmt.Printf("  %d  %s\n", first+i, color.GreenString("unspent"))
				continue
			}
			vin := uint32(0)
			if spend.Vin != nil {
				vin = *spend.Vin
			}
			fmt.Printf("  %d  %s by %s:%d\n", first+i, color.YellowString("spent"), spend.Txid, vin)
		}
		return nil
	},
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast <hex|->",
	Short: "Broadcast a signed raw transaction",
	Long: `Broadcast a signed raw transaction. Pass the hex directly or - to read it
from standard input. The transaction is decoded locally before it is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: runBroadcast,
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	client, _, err := commandClient(cmd)
	if err != nil {
		return err
	}
	rawHex := args[0]
	if rawHex == "-" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, 4<<20))
		if err != nil {
			return fmt.Errorf("failed to read transaction: %w", err)
		}
		rawHex = string(data)
	}

	msgTx, err := bitcoin.DecodeRawTransaction(rawHex)
	if err != nil {
		return err
	}
	txid, err := client.BroadcastTx(cmd.Context(), msgTx)
	if err != nil {
		return fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	if globalFlags.jsonOutput {
		return printJSON(map[string]any{"txid": txid})
	}
	fmt.Printf("✅ Broadcast %s\n", txid)
	return nil
}
