package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/chinmay1088/mempool/api"
	"github.com/chinmay1088/mempool/chains/bitcoin"
	"github.com/fatih/color"
)

// printJSON writes v to stdout, indented
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func formatBTC(amount btcutil.Amount) string {
	return color.GreenString(bitcoin.FormatAmount(amount))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatStatus(status api.Status) string {
	if !status.Confirmed {
		return color.YellowString("unconfirmed")
	}
	if status.BlockHeight != nil {
		return color.GreenString("confirmed in block %d", *status.BlockHeight)
	}
	return color.GreenString("confirmed")
}

func label(s string) string {
	return color.CyanString("%-16s", s)
}
