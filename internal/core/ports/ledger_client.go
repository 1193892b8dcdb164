package ports

import (
	"context"

	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

// LedgerClient is the abstraction for any kind of service representing a
// full node of the ledger. It lets fetch the coin objects owned by an account.
type LedgerClient interface {
	// Start starts the service.
	Start() error
	// Stop stops the service.
	Stop()

	// GetCoins returns all the coins of the given asset type owned by the given
	// account. If assetType is the zero value, coins of any type are returned.
	GetCoins(
		ctx context.Context, owner string, assetType coin.AssetType,
	) ([]*domain.Coin, error)
	// GetCoinMetadata returns the display info of the given asset type.
	GetCoinMetadata(
		ctx context.Context, assetType coin.AssetType,
	) (*coin.Metadata, error)
}
