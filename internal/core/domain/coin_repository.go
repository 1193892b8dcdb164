package domain

import (
	"context"
)

const (
	CoinAdded CoinEventType = iota
	CoinLocked
	CoinUnlocked
	CoinSpent
	CoinUpdated
)

var (
	coinTypeString = map[CoinEventType]string{
		CoinAdded:    "CoinAdded",
		CoinLocked:   "CoinLocked",
		CoinUnlocked: "CoinUnlocked",
		CoinSpent:    "CoinSpent",
		CoinUpdated:  "CoinUpdated",
	}
)

type CoinEventType int

func (t CoinEventType) String() string {
	return coinTypeString[t]
}

// CoinEvent holds info about an event occured within the repository.
type CoinEvent struct {
	EventType CoinEventType
	Coins     []CoinInfo
}

// CoinRepository is the abstraction for any kind of database intended to
// persist Coins.
type CoinRepository interface {
	// AddCoins adds the provided coins to the repository by preventing
	// duplicates.
	// Generates a CoinAdded event if successfull.
	AddCoins(ctx context.Context, coins []*Coin) (int, error)
	// GetCoinsByID returns the coins identified by the given ids.
	GetCoinsByID(ctx context.Context, ids []string) ([]*Coin, error)
	// GetAllCoins returns the entire coin set, included those locked or
	// already spent.
	GetAllCoins(ctx context.Context) ([]*Coin, error)
	// GetCoinsForOwner returns the list of all coins for the given owner.
	GetCoinsForOwner(ctx context.Context, owner string) ([]*Coin, error)
	// GetSpendableCoinsForOwner returns the list of unlocked and unspent coins
	// for the given owner.
	GetSpendableCoinsForOwner(ctx context.Context, owner string) ([]*Coin, error)
	// GetLockedCoinsForOwner returns the list of all currently locked coins
	// for the given owner.
	GetLockedCoinsForOwner(ctx context.Context, owner string) ([]*Coin, error)
	// GetBalanceForOwner returns the spendable and locked balances per each
	// asset type for the given owner.
	GetBalanceForOwner(ctx context.Context, owner string) (map[string]*Balance, error)
	// LockCoins updates the status of the given list of coins to "locked".
	// Generates a CoinLocked event if successfull.
	LockCoins(
		ctx context.Context, ids []string, timestamp, expiryTimestamp int64,
	) (int, error)
	// UnlockCoins updates the status of the given list of coins to "unlocked".
	// Generates a CoinUnlocked event if successfull.
	UnlockCoins(ctx context.Context, ids []string) (int, error)
	// SpendCoins updates the status of the given list of coins to "spent".
	// Generates a CoinSpent event if successfull.
	SpendCoins(ctx context.Context, ids []string, status CoinStatus) (int, error)
	// UpdateCoins refreshes the stored coins with the version, digest and
	// balance of the given ones, as reported by the ledger. Unknown coins are
	// ignored. See Coin.Refresh.
	// Generates a CoinUpdated event if successfull.
	UpdateCoins(ctx context.Context, coins []*Coin) (int, error)
	// DeleteCoinsForOwner deletes every coin associated to the given owner
	// from the repository.
	DeleteCoinsForOwner(ctx context.Context, owner string) error
	// GetEventChannel returns the channel of CoinEvents.
	GetEventChannel() chan CoinEvent
}

// BalanceOf computes the balance per asset type of the given coins, spent ones
// excluded.
func BalanceOf(coins []*Coin) map[string]*Balance {
	balance := make(map[string]*Balance)
	for _, c := range coins {
		if c.IsSpent() {
			continue
		}

		if _, ok := balance[c.Type]; !ok {
			balance[c.Type] = NewBalance()
		}
		b := balance[c.Type]
		if c.IsLocked() {
			b.Locked.Add(b.Locked, c.Balance)
		} else {
			b.Spendable.Add(b.Spendable, c.Balance)
		}
	}
	return balance
}
