package coin

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// NativeMetadata is the metadata of the native asset.
var NativeMetadata = Metadata{
	Decimals: 9,
	Name:     "Sui",
	Symbol:   "SUI",
}

// Metadata holds the display info of an asset type. Balances are always
// expressed in base units, Decimals tells how to convert them to display
// units and vice versa.
type Metadata struct {
	ID          string `json:"id"`
	Decimals    uint8  `json:"decimals"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl"`
}

// FormatAmount converts the given amount in base units into a string in
// display units, with exactly Decimals fractional digits.
func (m Metadata) FormatAmount(amount *big.Int) string {
	exp := int32(m.Decimals)
	return decimal.NewFromBigInt(amountOrZero(amount), -exp).StringFixed(exp)
}

// ParseAmount converts the given amount in display units into base units.
func (m Metadata) ParseAmount(str string) (*big.Int, error) {
	d, err := decimal.NewFromString(str)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if d.Sign() < 0 {
		return nil, ErrNegativeAmount
	}

	amount := d.Shift(int32(m.Decimals))
	if !amount.IsInteger() {
		return nil, ErrTooManyDecimals
	}
	return amount.BigInt(), nil
}
