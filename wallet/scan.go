package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/chinmay1088/mempool/api"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultGapLimit     = 20
	DefaultConcurrency  = 5
	DefaultMaxAddresses = 1000
)

// AddressActivity is an address of the account with at least one transaction
type AddressActivity struct {
	Index    uint32           `json:"index"`
	Address  string           `json:"address"`
	Txs      []api.AddressTx  `json:"-"`
	Txids    []chainhash.Hash `json:"txids"`
	Received btcutil.Amount   `json:"received"`
	Sent     btcutil.Amount   `json:"sent"`
}

// Balance returns received minus sent, counting unconfirmed transactions
func (a AddressActivity) Balance() btcutil.Amount {
	return a.Received - a.Sent
}

// ScanResult is the outcome of scanning one branch
type ScanResult struct {
	Branch     uint32            `json:"branch"`
	Addresses  []AddressActivity `json:"addresses"`
	LastActive *uint32           `json:"last_active"`
	Scanned    uint32            `json:"scanned"`
}

// Balance sums the balances of every active address
func (r *ScanResult) Balance() btcutil.Amount {
	var total btcutil.Amount
	for _, a := range r.Addresses {
		total += a.Balance()
	}
	return total
}

// ScanProgress is reported after every batch
type ScanProgress struct {
	Branch  uint32
	Scanned uint32
	Active  int
	Unused  uint32
}

// Scanner walks the addresses of an account until the gap limit is reached
type Scanner struct {
	client       *api.Client
	gapLimit     uint32
	concurrency  int
	maxAddresses uint32
	logger       *slog.Logger
	progress     func(ScanProgress)
}

// ScanOption configures a Scanner
type ScanOption func(*Scanner)

// WithGapLimit sets how many consecutive unused addresses end a scan
func WithGapLimit(n uint32) ScanOption {
	return func(s *Scanner) {
		if n > 0 {
			s.gapLimit = n
		}
	}
}

// WithConcurrency sets how many addresses are queried at once
func WithConcurrency(n int) ScanOption {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithMaxAddresses caps the number of addresses scanned per branch
func WithMaxAddresses(n uint32) ScanOption {
	return func(s *Scanner) {
		if n > 0 {
			s.maxAddresses = n
		}
	}
}

func WithLogger(logger *slog.Logger) ScanOption {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithProgress registers a callback run after each batch, on the scanning goroutine
func WithProgress(fn func(ScanProgress)) ScanOption {
	return func(s *Scanner) {
		s.progress = fn
	}
}

// NewScanner creates a Scanner querying client
func NewScanner(client *api.Client, opts ...ScanOption) *Scanner {
	s := &Scanner{
		client:       client,
		gapLimit:     DefaultGapLimit,
		concurrency:  DefaultConcurrency,
		maxAddresses: DefaultMaxAddresses,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Scan walks branch of account from index 0 in batches of the configured
// concurrency. It stops once gap limit consecutive addresses after the last
// active one are unused, or when the address cap is hit. Any client error
// aborts the scan.
func (s *Scanner) Scan(ctx context.Context, account *Account, branch uint32) (*ScanResult, error) {
	if branch > BranchChange {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBranch, branch)
	}
	result := &ScanResult{Branch: branch}
	var unused uint32

	for result.Scanned < s.maxAddresses && unused < s.gapLimit {
		batch := uint32(s.concurrency)
		if remaining := s.maxAddresses - result.Scanned; batch > remaining {
			batch = remaining
		}
		start := result.Scanned
		found := make([]AddressActivity, batch)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for i := range batch {
			index := start + i
			g.Go(func() error {
				activity, err := s.scanAddress(gctx, account, branch, index)
				if err != nil {
					return err
				}
				found[i] = activity
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("scan of branch %d failed: %w", branch, err)
		}

		// results are consumed in index order so the gap count stays consecutive
		for _, activity := range found {
			result.Scanned++
			if len(activity.Txs) == 0 {
				unused++
				if unused >= s.gapLimit {
					break
				}
				continue
			}
			unused = 0
			last := activity.Index
			result.LastActive = &last
			result.Addresses = append(result.Addresses, activity)
		}

		s.logger.Debug("scanned batch",
			"branch", branch,
			"scanned", result.Scanned,
			"active", len(result.Addresses),
			"unused", unused,
		)
		if s.progress != nil {
			s.progress(ScanProgress{
				Branch:  branch,
				Scanned: result.Scanned,
				Active:  len(result.Addresses),
				Unused:  unused,
			})
		}
	}
	return result, nil
}

func (s *Scanner) scanAddress(ctx context.Context, account *Account, branch, index uint32) (AddressActivity, error) {
	addr, err := account.Address(branch, index)
	if err != nil {
		return AddressActivity{}, err
	}
	txs, err := s.addressHistory(ctx, addr)
	if err != nil {
		return AddressActivity{}, fmt.Errorf("address %d/%d (%s): %w", branch, index, addr, err)
	}
	activity := AddressActivity{
		Index:   index,
		Address: addr.EncodeAddress(),
		Txs:     txs,
	}
	for _, tx := range txs {
		activity.Txids = append(activity.Txids, tx.Txid)
		for _, out := range tx.Vout {
			if out.ScriptpubkeyAddress == activity.Address {
				activity.Received += out.Value
			}
		}
		for _, in := range tx.Vin {
			if in.Prevout != nil && in.Prevout.ScriptpubkeyAddress == activity.Address {
				activity.Sent += in.Prevout.Value
			}
		}
	}
	return activity, nil
}

// addressHistory fetches every page of the address history
func (s *Scanner) addressHistory(ctx context.Context, addr btcutil.Address) ([]api.AddressTx, error) {
	var (
		all   []api.AddressTx
		after *chainhash.Hash
	)
	for {
		page, err := s.client.GetAddressTxs(ctx, addr, after)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < api.AddressTxsPageSize {
			return all, nil
		}
		last := page[len(page)-1].Txid
		after = &last
	}
}
