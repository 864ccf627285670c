package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/chinmay1088/mempool/api"
	"github.com/spf13/cobra"
)

var tipCmd = &cobra.Command{
	Use:   "tip",
	Short: "Show the height and hash of the chain tip",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := commandClient(cmd)
		if err != nil {
			return err
		}
		height, err := client.GetTipHeight(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get tip height: %w", err)
		}
		hash, err := client.GetTipHash(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get tip hash: %w", err)
		}
		if globalFlags.jsonOutput {
			return printJSON(map[string]any{"height": height, "hash": hash})
		}
		fmt.Printf("%s %d\n", label("Height"), height)
		fmt.Printf("%s %s\n", label("Hash"), hash)
		return nil
	},
}

var blockFlags = struct {
	txids bool
}{}

var blockCmd = &cobra.Command{
	Use:   "block <hash|height>",
	Short: "Show a block by hash or height",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlock,
}

func init() {
	blockCmd.Flags().BoolVar(&blockFlags.txids, "txids", false, "list the transaction ids of the block")
}

// resolveBlockHash accepts a 64 character hash or a height
func resolveBlockHash(ctx context.Context, client *api.Client, arg string) (chainhash.Hash, error) {
	if len(arg) == chainhash.MaxHashStringSize {
		hash, err := chainhash.NewHashFromStr(arg)
		if err != nil {
			return chainhash.Hash{}, fmt.Errorf("invalid block hash: %w", err)
		}
		return *hash, nil
	}
	height, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("expected a block hash or height, got %q", arg)
	}
	hash, err := client.GetBlockHash(ctx, uint32(height))
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("failed to get block hash at %d: %w", height, err)
	}
	return hash, nil
}

func runBlock(cmd *cobra.Command, args []string) error {
	client, _, err := commandClient(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	hash, err := resolveBlockHash(ctx, client, args[0])
	if err != nil {
		return err
	}

	block, err := client.GetBlock(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to get block: %w", err)
	}
	status, err := client.GetBlockStatus(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to get block status: %w", err)
	}
	var txids []chainhash.Hash
	if blockFlags.txids {
		txids, err = client.GetBlockTxids(ctx, hash)
		if err != nil {
			return fmt.Errorf("failed to get block txids: %w", err)
		}
	}

	if globalFlags.jsonOutput {
		return printJSON(struct {
			api.BlockSummary
			Status api.BlockStatus   `json:"status"`
			Txids  []chainhash.Hash `json:"txids,omitempty"`
		}{block, status, txids})
	}

	fmt.Printf("%s %d\n", label("Height"), block.Height)
	fmt.Printf("%s %s\n", label("Hash"), block.ID)
	if block.PreviousBlockHash != nil {
		fmt.Printf("%s %s\n", label("Previous"), block.PreviousBlockHash)
	}
	fmt.Printf("%s %s\n", label("Time"), formatTime(block.Time()))
	fmt.Printf("%s %d\n", label("Transactions"), block.TxCount)
	fmt.Printf("%s %d bytes, %d WU\n", label("Size"), block.Size, block.Weight)
	fmt.Printf("%s %s\n", label("Merkle root"), block.MerkleRoot)
	fmt.Printf("%s %.0f\n", label("Difficulty"), block.Difficulty)
	fmt.Printf("%s %t\n", label("Best chain"), status.InBestChain)
	for _, txid := range txids {
		fmt.Println("  " + txid.String())
	}
	return nil
}

var blocksCmd = &cobra.Command{
	Use:   "blocks [height]",
	Short: "List the 10 blocks ending at height, or at the tip",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := commandClient(cmd)
		if err != nil {
			return err
		}
		var start *uint32
		if len(args) == 1 {
			height, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid height %q", args[0])
			}
			h := uint32(height)
			start = &h
		}
		blocks, err := client.GetBlocks(cmd.Context(), start)
		if err != nil {
			return fmt.Errorf("failed to get blocks: %w", err)
		}
		if globalFlags.jsonOutput {
			return printJSON(blocks)
		}
		for _, block := range blocks {
			fmt.Printf("%7d  %s  %s  %5d txs\n",
				block.Height,
				block.ID,
				formatTime(block.Time()),
				block.TxCount,
			)
		}
		return nil
	},
}
