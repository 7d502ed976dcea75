package util

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ether(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test amount " + s)
	}
	return v
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount *big.Int
		want   string
	}{
		{"zero", big.NewInt(0), "0"},
		{"one token", ether("1000000000000000000"), "1"},
		{"hundred tokens", ether("100000000000000000000"), "100"},
		{"tenth", ether("100000000000000000"), "0.1"},
		{"trailing zeros trimmed", ether("10500000000000000000"), "10.5"},
		{"rounded to six decimals", ether("123456789000000000"), "0.123457"},
		{"rounds to zero", ether("400000000000"), "0"},
		{"rounds up to a micro unit", ether("500000000000"), "0.000001"},
		{"nil", nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.amount, DefaultDecimals))
		})
	}
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "1.5", FormatUnits(ether("1500000000000000000"), 18))
	assert.Equal(t, "0.000000000000000001", FormatUnits(big.NewInt(1), 18))
	assert.Equal(t, "-2.25", FormatUnits(big.NewInt(-225), 2))
	assert.Equal(t, "42", FormatUnits(big.NewInt(42), 0))
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in      string
		dec     int
		want    string
		wantErr bool
	}{
		{in: "1", dec: 18, want: "1000000000000000000"},
		{in: "0.1", dec: 18, want: "100000000000000000"},
		{in: ".5", dec: 18, want: "500000000000000000"},
		{in: "2.", dec: 2, want: "200"},
		{in: " 3.25 ", dec: 2, want: "325"},
		{in: "1.005", dec: 2, want: "101"},
		{in: "1.004", dec: 2, want: "100"},
		{in: "-1.5", dec: 1, want: "-15"},
		{in: "0", dec: 18, want: "0"},
		{in: "", dec: 18, wantErr: true},
		{in: ".", dec: 18, wantErr: true},
		{in: "1.2.3", dec: 18, wantErr: true},
		{in: "abc", dec: 18, wantErr: true},
		{in: "1e18", dec: 18, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnits(tt.in, tt.dec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatUTCDate(t *testing.T) {
	// 2025-10-31T00:00:00Z
	assert.Equal(t, "31 October 2025", FormatUTCDate(1761868800))
	// 2025-03-05T23:59:59Z keeps the two-digit day
	assert.Equal(t, "05 March 2025", FormatUTCDate(1741219199))
}

func TestFormatUTCTimeRange(t *testing.T) {
	start := uint64(time.Date(2025, 10, 31, 13, 0, 0, 0, time.UTC).Unix())
	end := uint64(time.Date(2025, 10, 31, 14, 30, 0, 0, time.UTC).Unix())
	assert.Equal(t, "13:00–14:30 UTC", FormatUTCTimeRange(start, end))
}

func TestDateOptions(t *testing.T) {
	// Late evening west of UTC is already the next UTC day
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2025, 12, 30, 21, 0, 0, 0, loc)

	opts := DateOptions(now, 14)
	require.Len(t, opts, 14)
	assert.Equal(t, DateOption{Value: "2025-12-31", Label: "31 December 2025"}, opts[0])
	assert.Equal(t, DateOption{Value: "2026-01-01", Label: "01 January 2026"}, opts[1])
	assert.Equal(t, "2026-01-13", opts[13].Value)
}

func TestUTCDayRange(t *testing.T) {
	start, end, err := UTCDayRange("2025-10-31")
	require.NoError(t, err)
	assert.Equal(t, uint64(1761868800), start)
	assert.Equal(t, uint64(1761868800+86400), end)

	_, _, err = UTCDayRange("31/10/2025")
	assert.Error(t, err)

	_, _, err = UTCDayRange("1969-12-31")
	assert.Error(t, err)
}

func TestHoursCeil(t *testing.T) {
	assert.Equal(t, uint64(0), HoursCeil(0))
	assert.Equal(t, uint64(1), HoursCeil(1))
	assert.Equal(t, uint64(1), HoursCeil(3600))
	assert.Equal(t, uint64(2), HoursCeil(3601))
	assert.Equal(t, uint64(24), HoursCeil(86400))
}

func TestShortAddress(t *testing.T) {
	addr := common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	assert.Equal(t, "0x12345678...12345678", ShortAddress(addr))
}
