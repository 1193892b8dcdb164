package coin

import (
	"math/big"
	"sort"
)

// SortByBalance returns a copy of the given coins sorted by balance in
// ascending order. Coins with the same balance keep their relative order.
func SortByBalance(coins []Coin) []Coin {
	sorted := make([]Coin, len(coins))
	copy(sorted, coins)
	sort.SliceStable(sorted, func(i, j int) bool {
		return balanceOf(sorted[i]).Cmp(balanceOf(sorted[j])) < 0
	})
	return sorted
}

// TotalBalance returns the sum of the balances of the given coins.
func TotalBalance(coins []Coin) *big.Int {
	total := new(big.Int)
	for _, c := range coins {
		total.Add(total, balanceOf(c))
	}
	return total
}

// FindSmallestSufficient returns the coin with the smallest balance greater
// than or equal to target, skipping those whose id is in exclude.
// It's a best single fit lookup, the returned boolean is false if no coin
// covers the target on its own.
func FindSmallestSufficient(
	coins []Coin, target *big.Int, exclude ...string,
) (Coin, bool) {
	return findFirstSufficient(
		SortByBalance(filterOut(coins, exclude)), amountOrZero(target),
	)
}

// SelectCoinsWithBalanceAtLeast returns, in ascending order, all the coins
// whose balance is greater than or equal to amount, skipping those whose id is
// in exclude.
func SelectCoinsWithBalanceAtLeast(
	coins []Coin, amount *big.Int, exclude ...string,
) []Coin {
	amount = amountOrZero(amount)
	list := make([]Coin, 0, len(coins))
	for _, c := range filterOut(coins, exclude) {
		if balanceOf(c).Cmp(amount) >= 0 {
			list = append(list, c)
		}
	}
	return SortByBalance(list)
}

// SelectMinimalCombinedSet returns a set of coins, sorted by balance in
// ascending order, whose combined balance is greater than or equal to target.
// Coins whose id is in exclude are never selected.
//
// An empty list is returned if the total balance of the coins is lower than
// target, and all the coins are returned if it's exactly the target.
// Otherwise the strategy is greedy: as long as the target is not reached, if
// a remaining coin covers the missing amount on its own, the smallest of them
// is selected and the selection stops, otherwise the remaining coin with the
// largest balance is selected.
// The strategy favors a single close match when one exists and consumes big
// coins first otherwise. The result is not guaranteed to be the one with the
// least coins or the least change.
func SelectMinimalCombinedSet(
	coins []Coin, target *big.Int, exclude ...string,
) []Coin {
	target = amountOrZero(target)
	remaining := SortByBalance(filterOut(coins, exclude))

	total := TotalBalance(remaining)
	switch total.Cmp(target) {
	case -1:
		return []Coin{}
	case 0:
		return remaining
	}

	selected := make([]Coin, 0)
	sum := new(big.Int)
	for sum.Cmp(target) < 0 && len(remaining) > 0 {
		missing := new(big.Int).Sub(target, sum)
		if c, ok := findFirstSufficient(remaining, missing); ok {
			selected = append(selected, c)
			break
		}

		largest := remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
		selected = append(selected, largest)
		sum.Add(sum, balanceOf(largest))
	}

	return SortByBalance(selected)
}

// findFirstSufficient expects coins to be sorted in ascending order.
func findFirstSufficient(coins []Coin, target *big.Int) (Coin, bool) {
	for _, c := range coins {
		if balanceOf(c).Cmp(target) >= 0 {
			return c, true
		}
	}
	return Coin{}, false
}

func filterOut(coins []Coin, exclude []string) []Coin {
	if len(exclude) == 0 {
		return coins
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	list := make([]Coin, 0, len(coins))
	for _, c := range coins {
		if _, ok := excluded[c.ID]; ok {
			continue
		}
		list = append(list, c)
	}
	return list
}

func amountOrZero(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return amount
}
