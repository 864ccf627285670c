package cmd

import (
	"fmt"
	"time"

	"github.com/chinmay1088/mempool/api"
	"github.com/chinmay1088/mempool/chains/bitcoin"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var feesFlags = struct {
	inputs   int
	outputs  int
	priority string
}{}

var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Show recommended fee rates",
	Long: `Show the recommended fee rates in sat/vB and what a native segwit
transaction of the given shape would cost at each of them.

Examples:
  mempool fees                          # 1 input, 2 outputs
  mempool fees --inputs 3 --outputs 1   # consolidate 3 inputs
  mempool fees --priority economy       # print only the economy estimate`,
	Args: cobra.NoArgs,
	RunE: runFees,
}

func init() {
	feesCmd.Flags().IntVar(&feesFlags.inputs, "inputs", 1, "P2WPKH inputs of the estimated transaction")
	feesCmd.Flags().IntVar(&feesFlags.outputs, "outputs", 2, "P2WPKH outputs of the estimated transaction")
	feesCmd.Flags().StringVar(&feesFlags.priority, "priority", "", "only show one priority: fastest, halfhour, hour, economy or minimum")
}

func runFees(cmd *cobra.Command, args []string) error {
	client, _, err := commandClient(cmd)
	if err != nil {
		return err
	}
	if feesFlags.inputs < 1 || feesFlags.outputs < 1 {
		return fmt.Errorf("inputs and outputs must be at least 1")
	}

	fees, err := client.GetRecommendedFees(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get fees: %w", err)
	}

	priorities := []bitcoin.Priority{
		bitcoin.PriorityFastest,
		bitcoin.PriorityHalfHour,
		bitcoin.PriorityHour,
		bitcoin.PriorityEconomy,
		bitcoin.PriorityMinimum,
	}
	if feesFlags.priority != "" {
		p, err := bitcoin.ParsePriority(feesFlags.priority)
		if err != nil {
			return err
		}
		priorities = []bitcoin.Priority{p}
	}

	if globalFlags.jsonOutput {
		if feesFlags.priority == "" {
			return printJSON(fees)
		}
		rate := bitcoin.FeeRateFor(fees, priorities[0])
		return printJSON(map[string]any{
			"priority": priorities[0].String(),
			"rate":     rate,
			"fee":      bitcoin.EstimateFee(feesFlags.inputs, feesFlags.outputs, rate),
		})
	}

	vsize := bitcoin.EstimateVSize(feesFlags.inputs, feesFlags.outputs)
	fmt.Printf("Fee estimates for %d-in %d-out (%d vB):\n", feesFlags.inputs, feesFlags.outputs, vsize)
	for _, p := range priorities {
		rate := bitcoin.FeeRateFor(fees, p)
		fmt.Printf("  %s %4d sat/vB  %s\n",
			label(p.String()),
			rate,
			formatBTC(bitcoin.EstimateFee(feesFlags.inputs, feesFlags.outputs, rate)),
		)
	}
	return nil
}

var mempoolFlags = struct {
	blocks int
	recent bool
}{}

var mempoolCmd = &cobra.Command{
	Use:   "mempool",
	Short: "Show mempool statistics and projected blocks",
	Args:  cobra.NoArgs,
	RunE:  runMempool,
}

func init() {
	mempoolCmd.Flags().IntVar(&mempoolFlags.blocks, "blocks", 3, "projected blocks to show")
	mempoolCmd.Flags().BoolVar(&mempoolFlags.recent, "recent", false, "also list the most recent transactions")
}

type mempoolSummary struct {
	Stats      api.MempoolStats          `json:"stats"`
	Blocks     []api.MempoolBlock        `json:"blocks"`
	Difficulty *api.DifficultyAdjustment `json:"difficulty"`
	Recent     []api.MempoolRecentTx     `json:"recent,omitempty"`
}

func runMempool(cmd *cobra.Command, args []string) error {
	client, _, err := commandClient(cmd)
	if err != nil {
		return err
	}

	var summary mempoolSummary
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		stats, err := client.GetMempool(ctx)
		summary.Stats = stats
		return err
	})
	g.Go(func() error {
		blocks, err := client.GetMempoolBlocks(ctx)
		summary.Blocks = blocks
		return err
	})
	g.Go(func() error {
		da, err := client.GetDifficultyAdjustment(ctx)
		if err != nil {
			// not every backend serves difficulty adjustments
			return nil
		}
		summary.Difficulty = &da
		return nil
	})
	if mempoolFlags.recent {
		g.Go(func() error {
			recent, err := client.GetMempoolRecent(ctx)
			summary.Recent = recent
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to get mempool: %w", err)
	}
	if len(summary.Blocks) > mempoolFlags.blocks && mempoolFlags.blocks >= 0 {
		summary.Blocks = summary.Blocks[:mempoolFlags.blocks]
	}

	if globalFlags.jsonOutput {
		return printJSON(summary)
	}

	fmt.Printf("%s %d\n", label("Transactions"), summary.Stats.Count)
	fmt.Printf("%s %.2f MvB\n", label("Size"), float64(summary.Stats.VSize)/1_000_000)
	fmt.Printf("%s %s\n", label("Total fees"), formatBTC(summary.Stats.TotalFee))

	for i, block := range summary.Blocks {
		feeRange := ""
		if n := len(block.FeeRange); n > 0 {
			feeRange = fmt.Sprintf("%.1f-%.1f", block.FeeRange[0], block.FeeRange[n-1])
		}
		fmt.Printf("%s %5d txs  median %.1f sat/vB  range %s\n",
			label(fmt.Sprintf("Block +%d", i+1)),
			block.NTx,
			block.MedianFee,
			feeRange,
		)
	}

	if da := summary.Difficulty; da != nil {
		change := color.GreenString("%+.2f%%", da.DifficultyChange)
		if da.DifficultyChange < 0 {
			change = color.RedString("%+.2f%%", da.DifficultyChange)
		}
		fmt.Printf("%s %s in %d blocks (%s)\n",
			label("Retarget"),
			change,
			da.RemainingBlocks,
			formatTime(time.UnixMilli(da.EstimatedRetargetDate)),
		)
	}

	for _, tx := range summary.Recent {
		fmt.Printf("  %s  %s  %d sat\n", tx.Txid, formatBTC(tx.Value), tx.Fee)
	}
	return nil
}
