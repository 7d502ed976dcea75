package util

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"bookchain/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultDecimals is the number of decimals of the native token
const DefaultDecimals = 18

// displayDecimals is the precision used by FormatAmount
const displayDecimals = 6

const isoDateLayout = "2006-01-02"

// DateOption is a selectable booking day
type DateOption struct {
	Value string // YYYY-MM-DD
	Label string // 02 January 2006
}

// FormatUnits formats an integer amount in the smallest unit as a decimal string
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}

	negative := value.Sign() < 0
	abs := new(big.Int).Abs(value)
	digits := abs.String()

	if decimals > 0 {
		if len(digits) <= decimals {
			digits = strings.Repeat("0", decimals-len(digits)+1) + digits
		}
		integer := digits[:len(digits)-decimals]
		fraction := strings.TrimRight(digits[len(digits)-decimals:], "0")
		digits = integer
		if fraction != "" {
			digits = integer + "." + fraction
		}
	}

	if negative {
		return "-" + digits
	}
	return digits
}

// ParseUnits parses a decimal string into the smallest unit.
// Fraction digits beyond the precision are rounded half-up.
func ParseUnits(value string, decimals int) (*big.Int, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if decimals < 0 {
		return nil, fmt.Errorf("invalid decimals: %d", decimals)
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	integer, fraction, _ := strings.Cut(s, ".")
	if integer == "" && fraction == "" {
		return nil, fmt.Errorf("invalid amount: %q", value)
	}
	if !isDigits(integer) || !isDigits(fraction) {
		return nil, fmt.Errorf("invalid amount: %q", value)
	}

	roundUp := false
	if len(fraction) > decimals {
		roundUp = fraction[decimals] >= '5'
		fraction = fraction[:decimals]
	}
	fraction += strings.Repeat("0", decimals-len(fraction))

	digits := strings.TrimLeft(integer+fraction, "0")
	if digits == "" {
		digits = "0"
	}

	result, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", value)
	}
	if roundUp {
		result.Add(result, big.NewInt(1))
	}
	if negative {
		result.Neg(result)
	}

	return result, nil
}

// FormatAmount formats an amount with at most six decimals, dropping trailing zeros
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= displayDecimals {
		return FormatUnits(amount, decimals)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals-displayDecimals)), nil)
	quotient, remainder := new(big.Int).QuoRem(new(big.Int).Abs(amount), scale, new(big.Int))

	// Round half-up at the sixth decimal
	if new(big.Int).Lsh(remainder, 1).Cmp(scale) >= 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	if amount.Sign() < 0 {
		quotient.Neg(quotient)
	}

	return FormatUnits(quotient, displayDecimals)
}

// FormatUTCDate formats unix seconds as a UTC date, e.g. "31 October 2025"
func FormatUTCDate(seconds uint64) string {
	return time.Unix(int64(seconds), 0).UTC().Format("02 January 2006")
}

// FormatUTCTimeRange formats a unix seconds range as "13:00–14:30 UTC"
func FormatUTCTimeRange(start, end uint64) string {
	from := time.Unix(int64(start), 0).UTC().Format("15:04")
	to := time.Unix(int64(end), 0).UTC().Format("15:04")
	return fmt.Sprintf("%s–%s UTC", from, to)
}

// DateOptions returns the next days starting today (UTC)
func DateOptions(now time.Time, days int) []DateOption {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	options := make([]DateOption, 0, days)
	for i := 0; i < days; i++ {
		d := today.AddDate(0, 0, i)
		options = append(options, DateOption{
			Value: d.Format(isoDateLayout),
			Label: d.Format("02 January 2006"),
		})
	}
	return options
}

// UTCDayRange returns the [start, end) unix seconds of a YYYY-MM-DD day in UTC
func UTCDayRange(isoDate string) (uint64, uint64, error) {
	day, err := time.ParseInLocation(isoDateLayout, strings.TrimSpace(isoDate), time.UTC)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", isoDate)
	}
	if day.Unix() < 0 {
		return 0, 0, fmt.Errorf("invalid date %q: before 1970", isoDate)
	}

	start := uint64(day.Unix())
	return start, start + 24*60*60, nil
}

// ShortAddress abbreviates an address as 0x12345678...abcdef12
func ShortAddress(addr common.Address) string {
	return models.Abbreviate(addr.Hex())
}

// HoursCeil returns the number of started hours in a duration of seconds
func HoursCeil(seconds uint64) uint64 {
	return (seconds + 3600 - 1) / 3600
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
