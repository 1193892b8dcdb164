package greedy_selector

import (
	"fmt"
	"math/big"

	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/core/ports"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

var (
	ErrMissingTargetAmount    = fmt.Errorf("missing target amount")
	ErrTargetAmountNotReached = fmt.Errorf("not found enough coins to cover target amount")
)

type selector struct{}

func NewGreedyCoinSelector() ports.CoinSelector {
	return &selector{}
}

// SelectCoins returns the minimal combined set of spendable coins of the
// target type covering the target amount, plus the change.
// The largest coins are picked first until one covers the missing amount on
// its own.
func (s *selector) SelectCoins(
	coins []*domain.Coin, targetAmount *big.Int, targetType coin.AssetType,
) ([]*domain.Coin, *big.Int, error) {
	if targetAmount == nil {
		return nil, nil, ErrMissingTargetAmount
	}

	coinsByID := make(map[string]*domain.Coin)
	targetCoins := make([]coin.Coin, 0, len(coins))
	for _, c := range coins {
		if !c.IsSpendable() || !c.IsOfType(targetType) {
			continue
		}
		if _, ok := coinsByID[c.ID]; ok {
			continue
		}
		coinsByID[c.ID] = c
		targetCoins = append(targetCoins, c.Coin)
	}

	selected := coin.SelectMinimalCombinedSet(targetCoins, targetAmount)
	if len(selected) <= 0 {
		return nil, nil, ErrTargetAmountNotReached
	}

	selectedCoins := make([]*domain.Coin, 0, len(selected))
	for _, c := range selected {
		selectedCoins = append(selectedCoins, coinsByID[c.ID])
	}

	change := new(big.Int).Sub(coin.TotalBalance(selected), targetAmount)
	return selectedCoins, change, nil
}
