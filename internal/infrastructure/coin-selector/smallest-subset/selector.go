package smallestsubset_selector

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/core/ports"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

var (
	ErrMissingTargetAmount    = fmt.Errorf("missing target amount")
	ErrTargetAmountNotReached = fmt.Errorf("not found enough coins to cover target amount")
)

type selector struct{}

func NewSmallestSubsetCoinSelector() ports.CoinSelector {
	return &selector{}
}

func (s *selector) SelectCoins(
	coins []*domain.Coin, targetAmount *big.Int, targetType coin.AssetType,
) ([]*domain.Coin, *big.Int, error) {
	if targetAmount == nil {
		return nil, nil, ErrMissingTargetAmount
	}

	targetCoins := make([]*domain.Coin, 0)
	for i := range coins {
		c := coins[i]
		if c.IsSpendable() && c.IsOfType(targetType) {
			targetCoins = append(targetCoins, c)
		}
	}
	sort.SliceStable(targetCoins, func(i, j int) bool {
		return targetCoins[i].Balance.Cmp(targetCoins[j].Balance) > 0
	})

	indexes := selectCoins(targetAmount, targetCoins)
	if len(indexes) <= 0 {
		return nil, nil, ErrTargetAmountNotReached
	}

	totalAmount := new(big.Int)
	selectedCoins := make([]*domain.Coin, 0)
	for _, v := range indexes {
		totalAmount.Add(totalAmount, targetCoins[v].Balance)
		selectedCoins = append(selectedCoins, targetCoins[v])
	}

	change := totalAmount.Sub(totalAmount, targetAmount)
	return selectedCoins, change, nil
}

// selectCoins returns the index of the coins that are going to be selected.
// The goal of this strategy is to select as less coins as possible covering
// the target amount.
func selectCoins(targetAmount *big.Int, coins []*domain.Coin) []int {
	values := make([]*big.Int, 0, len(coins))
	for _, c := range coins {
		values = append(values, c.Balance)
	}

	list := getBestCombination(values, targetAmount)

	// list contains values, the indexes holding them must be calculated.
	return findIndexes(list, values)
}

func findIndexes(list []*big.Int, values []*big.Int) []int {
	var indexes []int
loop:
	for _, v := range list {
		for i, v1 := range values {
			if v.Cmp(v1) == 0 {
				if isIndexOccupied(i, indexes) {
					continue
				}
				indexes = append(indexes, i)
				continue loop
			}
		}
	}
	return indexes
}

func isIndexOccupied(i int, list []int) bool {
	for _, v := range list {
		if v == i {
			return true
		}
	}
	return false
}

// getBestCombination attempts to select as less items as possible
// covering the given target amount.
// The strategy here is to try finding exactly 1 coin covering the given target
// amount or, otherwise, progressively increase the number of coins until
// finding a combination that satisfies the criteria.
// If a combination exceeds the target amount, it is returned straightaway if
// its total amount is lower than 10 times the target one.
// Otherwise, if no combination satisfies this last criteria, the very first
// one found is returned.
func getBestCombination(items []*big.Int, target *big.Int) []*big.Int {
	maxTotal := new(big.Int).Mul(target, big.NewInt(10))
	combinations := [][]*big.Int{}
	for i := 1; i < len(items)+1; i++ {
		combinations = append(combinations, getCombination(items, i, 0, nil)...)
		for j := 0; j < len(combinations); j++ {
			total := sum(combinations[j])
			if total.Cmp(target) < 0 {
				continue
			}
			if total.Cmp(maxTotal) <= 0 {
				return combinations[j]
			}
		}
	}

	for _, combo := range combinations {
		if sum(combo).Cmp(target) >= 0 {
			return combo
		}
	}

	return []*big.Int{}
}

// getCombination returns all combinations of size elements from the src slice.
func getCombination(
	src []*big.Int, size, offset int, combination []*big.Int,
) [][]*big.Int {
	result := [][]*big.Int{}
	if size == 0 {
		temp := make([]*big.Int, len(combination))
		copy(temp, combination)
		return append(result, temp)
	}
	for i := offset; i <= len(src)-size; i++ {
		combination = append(combination, src[i])
		result = append(result, getCombination(src, size-1, i+1, combination)...)
		combination = combination[:len(combination)-1]
	}
	return result
}

func sum(items []*big.Int) *big.Int {
	total := new(big.Int)
	for _, v := range items {
		total.Add(total, v)
	}
	return total
}
