package bitcoin

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/chinmay1088/mempool/api"
	"github.com/shopspring/decimal"
)

// Priority selects one of the recommended fee rates
type Priority int

const (
	PriorityFastest Priority = iota
	PriorityHalfHour
	PriorityHour
	PriorityEconomy
	PriorityMinimum
)

var priorityNames = map[Priority]string{
	PriorityFastest:  "fastest",
	PriorityHalfHour: "halfhour",
	PriorityHour:     "hour",
	PriorityEconomy:  "economy",
	PriorityMinimum:  "minimum",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority parses a priority name as printed by Priority.String
func ParsePriority(name string) (Priority, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range priorityNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", name)
}

// FeeRateFor picks the rate in sat/vB for priority. Unknown priorities get the fastest rate.
func FeeRateFor(fees api.RecommendedFees, priority Priority) uint64 {
	switch priority {
	case PriorityHalfHour:
		return fees.HalfHourFee
	case PriorityHour:
		return fees.HourFee
	case PriorityEconomy:
		return fees.EconomyFee
	case PriorityMinimum:
		return fees.MinimumFee
	default:
		return fees.FastestFee
	}
}

// FormatAmount renders amount as BTC with all eight decimals
func FormatAmount(amount btcutil.Amount) string {
	return decimal.New(int64(amount), -8).StringFixed(8) + " BTC"
}

// ParseAmount parses a BTC amount such as "0.0001" into satoshis
func ParseAmount(btc string) (btcutil.Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(btc))
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %w", err)
	}
	sats := d.Shift(8)
	if !sats.Equal(sats.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than 8 decimals", btc)
	}
	if sats.IsNegative() || sats.GreaterThan(decimal.NewFromInt(btcutil.MaxSatoshi)) {
		return 0, fmt.Errorf("amount %s out of range", btc)
	}
	return btcutil.Amount(sats.IntPart()), nil
}
