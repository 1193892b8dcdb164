package application

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/core/ports"
	greedy_selector "github.com/vulpemventures/coinpay/internal/infrastructure/coin-selector/greedy"
	ss_selector "github.com/vulpemventures/coinpay/internal/infrastructure/coin-selector/smallest-subset"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

const (
	CoinSelectionStrategyGreedy = iota
	CoinSelectionStrategySmallestSubset
)

var (
	ErrInvalidOwner     = fmt.Errorf("invalid owner address")
	ErrInvalidRecipient = fmt.Errorf("invalid recipient address")
	ErrZeroAmount       = fmt.Errorf("amount must be greater than zero")
	ErrCoinsNotLocked   = fmt.Errorf("some coins could not be locked")

	coinSelectorByType = map[int]CoinSelectorFactory{
		CoinSelectionStrategyGreedy:         greedy_selector.NewGreedyCoinSelector,
		CoinSelectionStrategySmallestSubset: ss_selector.NewSmallestSubsetCoinSelector,
	}

	DefaultCoinSelector = greedy_selector.NewGreedyCoinSelector()
)

type CoinSelectorFactory func() ports.CoinSelector

// CoinInfo holds the coins of an owner split by status.
type CoinInfo struct {
	Spendable Coins
	Locked    Coins
}

// SyncInfo holds the result of a sync of the coins of an owner with the
// ledger.
type SyncInfo struct {
	Added   int
	Updated int
	Spent   int
}

// Payment holds the info to build a payment plan for an owner.
type Payment struct {
	AssetType string
	Amount    *big.Int
	Recipient string
	GasBudget uint64
}

func (p Payment) validate() (coin.AssetType, string, error) {
	assetType, err := coin.ParseAssetType(p.AssetType)
	if err != nil {
		return coin.AssetType{}, "", err
	}
	if p.Amount == nil {
		return coin.AssetType{}, "", coin.ErrMissingAmount
	}
	if p.Amount.Sign() < 0 {
		return coin.AssetType{}, "", coin.ErrNegativeAmount
	}
	if p.Recipient == "" {
		return coin.AssetType{}, "", coin.ErrMissingRecipient
	}
	recipient, err := coin.NormalizeAddress(p.Recipient)
	if err != nil {
		return coin.AssetType{}, "", ErrInvalidRecipient
	}
	return assetType, recipient, nil
}

// PaymentInfo is a payment plan whose coins are locked until ExpirationDate.
type PaymentInfo struct {
	Plan           *coin.PaymentPlan
	Digest         string
	ExpirationDate int64
}

type Coins []*domain.Coin

func (c Coins) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, cc := range c {
		ids = append(ids, cc.ID)
	}
	return ids
}

func (c Coins) Info() []domain.CoinInfo {
	info := make([]domain.CoinInfo, 0, len(c))
	for _, cc := range c {
		info = append(info, cc.Info())
	}
	return info
}

type CoinsInfo []domain.CoinInfo

func (c CoinsInfo) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, cc := range c {
		ids = append(ids, cc.ID)
	}
	return ids
}

type CoinIDs []string

func (c CoinIDs) String() string {
	return fmt.Sprintf("[%s]", strings.Join(c, ", "))
}

func normalizeOwner(owner string) (string, error) {
	normalized, err := coin.NormalizeAddress(owner)
	if err != nil {
		return "", ErrInvalidOwner
	}
	return normalized, nil
}
