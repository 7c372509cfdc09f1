package utils

// PlatformFee splits an order total into the marketplace's cut and the
// grower payout.  feeBps is the fee in basis points (500 = 5%).  The fee
// rounds down, so the payout absorbs the remainder and
// fee + payout == total always holds.
func PlatformFee(totalCents int64, feeBps int) (fee, payout int64) {
	if totalCents <= 0 || feeBps <= 0 {
		return 0, totalCents
	}
	fee = totalCents * int64(feeBps) / 10000
	return fee, totalCents - fee
}
