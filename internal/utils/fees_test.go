package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformFee(t *testing.T) {
	cases := []struct {
		name    string
		total   int64
		bps     int
		wantFee int64
	}{
		{"five percent even", 10000, 500, 500},
		{"rounds down", 999, 500, 49},
		{"one cent", 1, 500, 0},
		{"zero total", 0, 500, 0},
		{"zero bps", 10000, 0, 0},
		{"full fee", 10000, 10000, 10000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee, payout := PlatformFee(tc.total, tc.bps)
			assert.Equal(t, tc.wantFee, fee)
			assert.Equal(t, tc.total, fee+payout, "fee and payout must sum to the total")
		})
	}
}

func TestPlatformFeeNegativeTotal(t *testing.T) {
	fee, payout := PlatformFee(-100, 500)
	assert.Zero(t, fee)
	assert.Equal(t, int64(-100), payout)
}
