package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/chinmay1088/mempool/chains/bitcoin"
	"github.com/chinmay1088/mempool/wallet"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var scanFlags = struct {
	xpub        string
	path        string
	passphrase  bool
	branch      string
	gapLimit    uint32
	concurrency int
	csv         bool
	exportJSON  bool
	outDir      string
}{}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a BIP84 wallet for used addresses",
	Long: `Scan the receive and change addresses of a native segwit (BIP84) account
until the gap limit of consecutive unused addresses is reached, then print
the active addresses and the account balance.

The account comes from a BIP39 mnemonic typed at the prompt, or from an
account-level extended public key with --xpub for a watch-only scan.

Examples:
  mempool scan                                  # prompts for the mnemonic
  mempool scan --xpub zpub6r...                 # watch-only
  mempool scan --branch receive --gap-limit 50
  mempool -n signet scan --xpub tpub... --csv --export-json`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFlags.xpub, "xpub", "", "account extended public key (xpub, zpub, tpub, vpub)")
	scanCmd.Flags().StringVar(&scanFlags.path, "path", "", "account derivation path (default m/84'/coin'/0')")
	scanCmd.Flags().BoolVar(&scanFlags.passphrase, "passphrase", false, "prompt for a BIP39 passphrase")
	scanCmd.Flags().StringVar(&scanFlags.branch, "branch", "both", "branches to scan: receive, change or both")
	scanCmd.Flags().Uint32Var(&scanFlags.gapLimit, "gap-limit", 0, "consecutive unused addresses that end a scan")
	scanCmd.Flags().IntVar(&scanFlags.concurrency, "concurrency", 0, "addresses queried at once")
	scanCmd.Flags().BoolVar(&scanFlags.csv, "csv", false, "export the result to CSV")
	scanCmd.Flags().BoolVar(&scanFlags.exportJSON, "export-json", false, "export the result to JSON")
	scanCmd.Flags().StringVar(&scanFlags.outDir, "out", "", "export directory (default ~/.mempool/exports)")
}

func scanBranches(name string) ([]uint32, error) {
	switch strings.ToLower(name) {
	case "receive", "external":
		return []uint32{wallet.BranchExternal}, nil
	case "change", "internal":
		return []uint32{wallet.BranchChange}, nil
	case "both", "":
		return []uint32{wallet.BranchExternal, wallet.BranchChange}, nil
	default:
		return nil, fmt.Errorf("unknown branch %q", name)
	}
}

// readSecret reads a line without echo from a terminal, or plainly from a pipe
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func loadAccount(network string) (*wallet.Account, error) {
	params, err := bitcoin.ParamsForNetwork(network)
	if err != nil {
		return nil, err
	}
	if scanFlags.xpub != "" {
		return wallet.NewAccountFromExtendedKey(scanFlags.xpub, params)
	}

	mnemonic, err := readSecret("Enter your recovery phrase: ")
	if err != nil {
		return nil, fmt.Errorf("failed to read recovery phrase: %w", err)
	}
	passphrase := ""
	if scanFlags.passphrase {
		passphrase, err = readSecret("Enter your passphrase: ")
		if err != nil {
			return nil, fmt.Errorf("failed to read passphrase: %w", err)
		}
	}
	path := scanFlags.path
	if path == "" {
		path = wallet.DefaultAccountPath(params)
	}
	return wallet.NewAccountFromMnemonicPath(mnemonic, passphrase, path, params)
}

func runScan(cmd *cobra.Command, args []string) error {
	client, cfg, err := commandClient(cmd)
	if err != nil {
		return err
	}
	branches, err := scanBranches(scanFlags.branch)
	if err != nil {
		return err
	}
	account, err := loadAccount(cfg.Network)
	if err != nil {
		return err
	}
	accountKey, err := account.ExtendedPublicKey()
	if err != nil {
		return err
	}

	gapLimit := cfg.GapLimit
	if scanFlags.gapLimit > 0 {
		gapLimit = scanFlags.gapLimit
	}
	concurrency := cfg.Concurrency
	if scanFlags.concurrency > 0 {
		concurrency = scanFlags.concurrency
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan]Scanning...[reset]"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	names := map[uint32]string{wallet.BranchExternal: "receive", wallet.BranchChange: "change"}
	scanner := wallet.NewScanner(client,
		wallet.WithGapLimit(gapLimit),
		wallet.WithConcurrency(concurrency),
		wallet.WithProgress(func(p wallet.ScanProgress) {
			bar.Describe(fmt.Sprintf("[cyan]Scanning %s addresses[reset] (%d active)", names[p.Branch], p.Active))
			_ = bar.Set(int(p.Scanned))
		}),
	)

	var results []*wallet.ScanResult
	for _, branch := range branches {
		_ = bar.Set(0)
		result, err := scanner.Scan(cmd.Context(), account, branch)
		if err != nil {
			_ = bar.Exit()
			return err
		}
		results = append(results, result)
	}
	_ = bar.Finish()

	export := newScanExport(cfg.Network, accountKey, results)
	if globalFlags.jsonOutput {
		if err := printJSON(export); err != nil {
			return err
		}
	} else {
		for _, result := range results {
			fmt.Printf("%s %d scanned, %d active\n", label(names[result.Branch]), result.Scanned, len(result.Addresses))
			for _, activity := range result.Addresses {
				fmt.Printf("  %4d  %s  %3d txs  %s\n",
					activity.Index,
					activity.Address,
					len(activity.Txs),
					formatBTC(activity.Balance()),
				)
			}
		}
		fmt.Printf("%s %s\n", label("Balance"), formatBTC(export.Balance))
	}

	if scanFlags.csv || scanFlags.exportJSON {
		exportDir, err := prepareExportDirectory(scanFlags.outDir)
		if err != nil {
			return fmt.Errorf("failed to prepare export directory: %w", err)
		}
		written, err := writeExportFiles(export, exportDir, scanFlags.csv, scanFlags.exportJSON)
		if err != nil {
			return err
		}
		for _, path := range written {
			fmt.Fprintf(os.Stderr, "📁 %s %s\n", color.GreenString("Exported"), path)
		}
	}
	return nil
}
