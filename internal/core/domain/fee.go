package domain

import "github.com/shopspring/decimal"

// transferFeeRate is 1%.
var transferFeeRate = decimal.New(1, -2)

// TransferFee returns amount × 1% rounded half-up to a whole currency unit.
// Only transfers carry a fee.
func TransferFee(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(transferFeeRate).Round(0).IntPart()
}
