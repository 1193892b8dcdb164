package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/vulpemventures/coinpay/pkg/coin"
)

var (
	ErrCoinAlreadySpent = fmt.Errorf("coin is already spent")
	ErrMissingTxDigest  = fmt.Errorf("missing tx digest")
	ErrMissingOwner     = fmt.Errorf("missing coin owner")
)

// CoinInfo is a light view of a coin owned by an account.
type CoinInfo struct {
	coin.Coin
	Owner       string
	Version     string
	Digest      string
	SpentStatus CoinStatus
}

// CoinStatus holds info about the tx that spent a coin.
type CoinStatus struct {
	TxDigest  string
	Timestamp int64
}

// Balance holds info about the balance of a list of coins with the same asset
// type.
type Balance struct {
	Spendable *big.Int
	Locked    *big.Int
}

func NewBalance() *Balance {
	return &Balance{new(big.Int), new(big.Int)}
}

func (b *Balance) Total() *big.Int {
	return new(big.Int).Add(b.Spendable, b.Locked)
}

// Coin is the data structure representing a coin object owned by an account,
// with extra info like whether it is spent or locked.
type Coin struct {
	coin.Coin
	Owner               string
	Version             string
	Digest              string
	LockTimestamp       int64
	LockExpiryTimestamp int64
	SpentStatus         CoinStatus
}

func NewCoin(owner string, c coin.Coin, version, digest string) (*Coin, error) {
	if owner == "" {
		return nil, ErrMissingOwner
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	assetType, _ := c.AssetType()
	normalizedOwner, err := coin.NormalizeAddress(owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner: %w", err)
	}

	return &Coin{
		Coin: coin.Coin{
			ID:      c.ID,
			Type:    assetType.String(),
			Balance: new(big.Int).Set(c.Balance),
		},
		Owner:   normalizedOwner,
		Version: version,
		Digest:  digest,
	}, nil
}

// IsSpent returns whether the coin has been spent.
func (c *Coin) IsSpent() bool {
	return c.SpentStatus != CoinStatus{}
}

// IsLocked returns whether the coin is locked.
func (c *Coin) IsLocked() bool {
	return c.LockTimestamp > 0
}

// IsSpendable returns whether the coin can be selected for a new payment.
func (c *Coin) IsSpendable() bool {
	return !c.IsSpent() && !c.IsLocked()
}

// CanUnlock returns whether a locked coin can be unlocked.
func (c *Coin) CanUnlock() bool {
	if !c.IsLocked() {
		return true
	}
	return !time.Now().Before(time.Unix(c.LockExpiryTimestamp, 0))
}

// Info returns a light view of the current coin.
func (c *Coin) Info() CoinInfo {
	return CoinInfo{c.Coin, c.Owner, c.Version, c.Digest, c.SpentStatus}
}

// Spend marks the coin as spent by the given tx. A spent coin is never locked.
func (c *Coin) Spend(status CoinStatus) error {
	if c.IsSpent() {
		return nil
	}
	if status.TxDigest == "" {
		return ErrMissingTxDigest
	}
	if status.Timestamp == 0 {
		status.Timestamp = time.Now().Unix()
	}

	c.SpentStatus = status
	c.LockTimestamp = 0
	c.LockExpiryTimestamp = 0
	return nil
}

// Lock marks the current coin as locked until the given expiry.
func (c *Coin) Lock(timestamp, expiryTimestamp int64) error {
	if c.IsSpent() {
		return ErrCoinAlreadySpent
	}
	if !c.IsLocked() {
		c.LockTimestamp = timestamp
		c.LockExpiryTimestamp = expiryTimestamp
	}
	return nil
}

// Unlock marks the current locked coin as unlocked. Use force to release the
// lock before its expiry.
func (c *Coin) Unlock(force bool) {
	if !force && !c.CanUnlock() {
		return
	}

	c.LockTimestamp = 0
	c.LockExpiryTimestamp = 0
}

// Refresh updates the coin with the state reported by the ledger and returns
// whether anything changed. A spent coin reported at a different version has
// been mutated by a tx and is spendable again with its new balance. The lock
// of a coin is left untouched.
func (c *Coin) Refresh(version, digest string, balance *big.Int) bool {
	if balance == nil {
		return false
	}
	if c.IsSpent() {
		if c.Version == version {
			return false
		}
		c.SpentStatus = CoinStatus{}
	} else if c.Version == version && c.Balance.Cmp(balance) == 0 {
		return false
	}

	c.Version = version
	c.Digest = digest
	c.Balance = new(big.Int).Set(balance)
	return true
}

// CoinRecords returns the plain coin snapshots of the given list.
func CoinRecords(coins []*Coin) []coin.Coin {
	list := make([]coin.Coin, 0, len(coins))
	for _, c := range coins {
		list = append(list, c.Coin)
	}
	return list
}
