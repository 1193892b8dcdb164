package application_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math/big"

	"github.com/stretchr/testify/mock"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

var (
	ctx      = context.Background()
	usdcType = "0xabc::usdc::USDC"
)

// ports.LedgerClient
type mockLedgerClient struct {
	mock.Mock
}

func (m *mockLedgerClient) Start() error { return nil }
func (m *mockLedgerClient) Stop()        {}

func (m *mockLedgerClient) GetCoins(
	ctx context.Context, owner string, assetType coin.AssetType,
) ([]*domain.Coin, error) {
	args := m.Called(ctx, owner, assetType)
	var res []*domain.Coin
	if a := args.Get(0); a != nil {
		res = a.([]*domain.Coin)
	}
	return res, args.Error(1)
}

func (m *mockLedgerClient) GetCoinMetadata(
	ctx context.Context, assetType coin.AssetType,
) (*coin.Metadata, error) {
	args := m.Called(ctx, assetType)
	var res *coin.Metadata
	if a := args.Get(0); a != nil {
		res = a.(*coin.Metadata)
	}
	return res, args.Error(1)
}

func newCoin(
	owner, id, assetType string, balance int64,
) *domain.Coin {
	c, err := domain.NewCoin(owner, coin.Coin{
		ID:      id,
		Type:    assetType,
		Balance: big.NewInt(balance),
	}, "1", randomHex(32))
	if err != nil {
		panic(err)
	}
	return c
}

// withVersion returns a copy of the given coin as reported by the ledger at
// another version.
func withVersion(c *domain.Coin, version string, balance int64) *domain.Coin {
	cc := *c
	cc.Version = version
	cc.Digest = randomHex(32)
	cc.Balance = big.NewInt(balance)
	return &cc
}

func randomOwner() string {
	return "0x" + randomHex(32)
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	rand.Read(b)
	return b
}
