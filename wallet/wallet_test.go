package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/chinmay1088/mempool/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// BIP84 test vector
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testAccount(t *testing.T) *Account {
	t.Helper()
	account, err := NewAccountFromMnemonic(testMnemonic, "", &chaincfg.MainNetParams)
	require.NoError(t, err)
	return account
}

func TestAccountAddresses(t *testing.T) {
	account := testAccount(t)
	assert.Equal(t, "m/84'/0'/0'", account.Path())

	tests := []struct {
		branch, index uint32
		address       string
	}{
		{BranchExternal, 0, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"},
		{BranchExternal, 1, "bc1qnjg0jd8228aq7egyzacy8cys3knf9xvrerkf9g"},
		{BranchChange, 0, "bc1q8c6fshw2dlwun7ekn9qwf37cu2rn755upcp6el"},
	}
	for _, tt := range tests {
		addr, err := account.Address(tt.branch, tt.index)
		require.NoError(t, err)
		assert.Equal(t, tt.address, addr.EncodeAddress())
	}

	_, err := account.Address(2, 0)
	require.ErrorIs(t, err, ErrInvalidBranch)
	_, err = account.Address(BranchExternal, 1<<31)
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestAccountConcurrentAddresses(t *testing.T) {
	account := testAccount(t)
	want := make([]string, 16)
	for i := range want {
		addr, err := testAccount(t).Address(BranchExternal, uint32(i))
		require.NoError(t, err)
		want[i] = addr.EncodeAddress()
	}

	got := make([]string, len(want))
	var wg sync.WaitGroup
	for i := range want {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr, err := account.Address(BranchExternal, uint32(i))
			if err != nil {
				t.Errorf("address %d: %v", i, err)
				return
			}
			got[i] = addr.EncodeAddress()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, want, got)
	assert.Equal(t, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", got[0])
}

func TestAccountFromExtendedKey(t *testing.T) {
	account := testAccount(t)
	xpub, err := account.ExtendedPublicKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(xpub, "xpub"))

	watchOnly, err := NewAccountFromExtendedKey(xpub, &chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.Empty(t, watchOnly.Path())
	for index := range uint32(5) {
		want, err := account.Address(BranchChange, index)
		require.NoError(t, err)
		got, err := watchOnly.Address(BranchChange, index)
		require.NoError(t, err)
		assert.Equal(t, want.EncodeAddress(), got.EncodeAddress())
	}

	_, err = NewAccountFromExtendedKey("xpub-garbage", &chaincfg.MainNetParams)
	require.Error(t, err)
}

func TestAccountFromSLIP132PrivateKey(t *testing.T) {
	master, err := hdkeychain.NewMaster(bip39.NewSeed(testMnemonic, ""), &chaincfg.MainNetParams)
	require.NoError(t, err)
	path, err := ParsePath("m/84'/0'/0'")
	require.NoError(t, err)
	key := master
	for _, child := range path {
		key, err = key.Derive(child)
		require.NoError(t, err)
	}
	zprv, err := key.CloneWithVersion([]byte{0x04, 0xb2, 0x43, 0x0c})
	require.NoError(t, err)

	account, err := NewAccountFromExtendedKey(zprv.String(), &chaincfg.MainNetParams)
	require.NoError(t, err)
	addr, err := account.Address(BranchExternal, 0)
	require.NoError(t, err)
	assert.Equal(t, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", addr.EncodeAddress())
}

func TestAccountTestnet(t *testing.T) {
	account, err := NewAccountFromMnemonic(testMnemonic, "", &chaincfg.TestNet3Params)
	require.NoError(t, err)
	assert.Equal(t, "m/84'/1'/0'", account.Path())
	addr, err := account.Address(BranchExternal, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr.EncodeAddress(), "tb1q"))
	assert.True(t, addr.IsForNet(&chaincfg.TestNet3Params))
}

func TestInvalidMnemonic(t *testing.T) {
	_, err := NewAccountFromMnemonic("abandon abandon abandon", "", &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrInvalidMnemonic)

	// wrong checksum word
	bad := strings.Replace(testMnemonic, "about", "abandon", 1)
	_, err = NewAccountFromMnemonic(bad, "", &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrInvalidMnemonic)

	// extra whitespace is not an error
	_, err = NewAccountFromMnemonic("  "+strings.ReplaceAll(testMnemonic, " ", "\n ")+" ", "", &chaincfg.MainNetParams)
	require.NoError(t, err)
}

func TestParsePath(t *testing.T) {
	indexes, err := ParsePath("m/84'/0h/0'/1/7")
	require.NoError(t, err)
	assert.Equal(t, []uint32{84 + 1<<31, 1 << 31, 1 << 31, 1, 7}, indexes)

	indexes, err = ParsePath("m")
	require.NoError(t, err)
	assert.Empty(t, indexes)

	for _, bad := range []string{"", "84'/0'", "m/x", "m/2147483648", "m//1"} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

// fakeHistory serves address histories keyed by address, 25 per page
type fakeHistory struct {
	mu       sync.Mutex
	txs      map[string][]api.AddressTx
	failAddr string
	requests atomic.Int32
}

func (f *fakeHistory) Send(ctx context.Context, method api.Method, rawURL string, body []byte) ([]byte, error) {
	f.requests.Add(1)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(u.Path, "/")
	// /api/address/{address}/txs
	if len(parts) != 5 || parts[2] != "address" || parts[4] != "txs" {
		return nil, fmt.Errorf("unexpected request %s", rawURL)
	}
	addr := parts[3]
	if addr == f.failAddr {
		return nil, errors.New("connection reset")
	}

	f.mu.Lock()
	history := f.txs[addr]
	f.mu.Unlock()

	start := 0
	if after := u.Query().Get("after_txid"); after != "" {
		for i, tx := range history {
			if tx.Txid.String() == after {
				start = i + 1
			}
		}
	}
	end := min(start+api.AddressTxsPageSize, len(history))
	page := history[start:end]
	if page == nil {
		page = []api.AddressTx{}
	}
	return json.Marshal(page)
}

func fundingTx(t *testing.T, n int, addr string, value btcutil.Amount) api.AddressTx {
	t.Helper()
	return api.AddressTx{
		Txid: chainhash.HashH([]byte(fmt.Sprintf("%s-%d", addr, n))),
		Vout: []api.Vout{{ScriptpubkeyAddress: addr, Value: value}},
	}
}

func newScanClient(t *testing.T, f *fakeHistory) *api.Client {
	t.Helper()
	client, err := api.NewClient("https://service.example/api", f)
	require.NoError(t, err)
	return client
}

func addressAt(t *testing.T, account *Account, branch, index uint32) string {
	t.Helper()
	addr, err := account.Address(branch, index)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

func TestScanStopsAtConsecutiveGap(t *testing.T) {
	account := testAccount(t)
	f := &fakeHistory{txs: map[string][]api.AddressTx{}}
	for _, index := range []uint32{0, 1, 3} {
		addr := addressAt(t, account, BranchExternal, index)
		f.txs[addr] = []api.AddressTx{fundingTx(t, 0, addr, 1000)}
	}

	var reports []ScanProgress
	scanner := NewScanner(newScanClient(t, f),
		WithGapLimit(3),
		WithConcurrency(2),
		WithProgress(func(p ScanProgress) {
			reports = append(reports, p)
		}),
	)
	result, err := scanner.Scan(context.Background(), account, BranchExternal)
	require.NoError(t, err)

	// 0 1 active, 2 unused, 3 active, then 4 5 6 unused
	assert.Equal(t, uint32(7), result.Scanned)
	require.NotNil(t, result.LastActive)
	assert.Equal(t, uint32(3), *result.LastActive)
	require.Len(t, result.Addresses, 3)
	assert.Equal(t, []uint32{0, 1, 3}, []uint32{
		result.Addresses[0].Index,
		result.Addresses[1].Index,
		result.Addresses[2].Index,
	})
	assert.Equal(t, btcutil.Amount(3000), result.Balance())
	assert.Equal(t, int32(8), f.requests.Load())

	require.Len(t, reports, 4)
	assert.Equal(t, ScanProgress{Branch: BranchExternal, Scanned: 7, Active: 3, Unused: 3}, reports[3])
}

func TestScanFollowsPages(t *testing.T) {
	account := testAccount(t)
	addr := addressAt(t, account, BranchChange, 0)
	other := addressAt(t, account, BranchChange, 5)

	var history []api.AddressTx
	for n := range 27 {
		history = append(history, fundingTx(t, n, addr, 10))
	}
	spend := fundingTx(t, 99, other, 5)
	spend.Vin = []api.Vin{{Prevout: &api.Vout{ScriptpubkeyAddress: addr, Value: 10}}}
	history = append(history, spend)

	f := &fakeHistory{txs: map[string][]api.AddressTx{addr: history}}
	scanner := NewScanner(newScanClient(t, f), WithGapLimit(2), WithConcurrency(1))
	result, err := scanner.Scan(context.Background(), account, BranchChange)
	require.NoError(t, err)

	require.Len(t, result.Addresses, 1)
	activity := result.Addresses[0]
	assert.Len(t, activity.Txs, 28)
	assert.Len(t, activity.Txids, 28)
	assert.Equal(t, btcutil.Amount(270), activity.Received)
	assert.Equal(t, btcutil.Amount(10), activity.Sent)
	assert.Equal(t, btcutil.Amount(260), activity.Balance())
	// two pages for index 0, one each for 1 and 2
	assert.Equal(t, int32(4), f.requests.Load())
}

func TestScanEmptyAccount(t *testing.T) {
	f := &fakeHistory{}
	result, err := NewScanner(newScanClient(t, f)).Scan(context.Background(), testAccount(t), BranchExternal)
	require.NoError(t, err)
	assert.Nil(t, result.LastActive)
	assert.Empty(t, result.Addresses)
	assert.Equal(t, uint32(DefaultGapLimit), result.Scanned)
}

func TestScanMaxAddresses(t *testing.T) {
	account := testAccount(t)
	f := &fakeHistory{txs: map[string][]api.AddressTx{}}
	for index := range uint32(10) {
		addr := addressAt(t, account, BranchExternal, index)
		f.txs[addr] = []api.AddressTx{fundingTx(t, 0, addr, 1)}
	}
	scanner := NewScanner(newScanClient(t, f), WithMaxAddresses(4), WithConcurrency(3))
	result, err := scanner.Scan(context.Background(), account, BranchExternal)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), result.Scanned)
	assert.Len(t, result.Addresses, 4)
}

func TestScanAbortsOnClientError(t *testing.T) {
	account := testAccount(t)
	f := &fakeHistory{failAddr: addressAt(t, account, BranchExternal, 2)}
	_, err := NewScanner(newScanClient(t, f)).Scan(context.Background(), account, BranchExternal)
	require.Error(t, err)
	var transportErr *api.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "address-txs", transportErr.Endpoint)
}

func TestScanInvalidBranch(t *testing.T) {
	_, err := NewScanner(newScanClient(t, &fakeHistory{})).Scan(context.Background(), testAccount(t), 7)
	require.ErrorIs(t, err, ErrInvalidBranch)
}
