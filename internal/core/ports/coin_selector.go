package ports

import (
	"math/big"

	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

// CoinSelector is the abstraction for any kind of service intended to return a
// subset of the given coins with target asset type, covering the target amount
// based on a specific strategy.
type CoinSelector interface {
	// SelectCoins implements a certain coin selection strategy.
	SelectCoins(
		coins []*domain.Coin, targetAmount *big.Int, targetType coin.AssetType,
	) (selectedCoins []*domain.Coin, change *big.Int, err error)
}
