package coin_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

func TestParseAssetType(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		short, err := coin.ParseAssetType("0x2::sui::SUI")
		require.NoError(t, err)
		long, err := coin.ParseAssetType(
			"0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI",
		)
		require.NoError(t, err)
		require.True(t, short.Equal(long))
		require.True(t, short.IsNative())
		require.Equal(t, "sui", short.Module)
		require.Equal(t, "SUI", short.Symbol())
		require.Equal(
			t,
			"0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI",
			short.String(),
		)

		generic, err := coin.ParseAssetType("0xA::lp::LP<0x2::sui::SUI, 0xb::usdc::USDC>")
		require.NoError(t, err)
		require.Equal(t, "lp", generic.Module)
		require.Equal(t, "LP<0x2::sui::SUI, 0xb::usdc::USDC>", generic.Name)
		require.Equal(t, "LP", generic.Symbol())
		require.False(t, generic.IsNative())

		usdc := coin.MustParseAssetType("0xabc::usdc::USDC")
		require.False(t, usdc.Equal(short))
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			assetType   string
			expectedErr error
		}{
			{"", coin.ErrMissingAssetType},
			{"0x2::sui", coin.ErrInvalidAssetType},
			{"0x2::::SUI", coin.ErrInvalidAssetType},
			{"::sui::SUI", coin.ErrInvalidAssetType},
			{"0xzz::sui::SUI", coin.ErrInvalidNamespace},
			{"0x::sui::SUI", coin.ErrInvalidNamespace},
		}
		for _, tt := range tests {
			_, err := coin.ParseAssetType(tt.assetType)
			require.ErrorIs(t, err, tt.expectedErr, tt.assetType)
		}

		require.Panics(t, func() { coin.MustParseAssetType("sui") })
	})
}

func TestCoinTypeArg(t *testing.T) {
	t.Parallel()

	require.True(t, coin.IsCoinType("0x2::coin::Coin<0x2::sui::SUI>"))
	require.Equal(t, "0x2::sui::SUI", coin.CoinTypeArg("0x2::coin::Coin<0x2::sui::SUI>"))
	require.Equal(
		t, "0xabc::lp::LP<0x2::sui::SUI>",
		coin.CoinTypeArg("0x2::coin::Coin<0xabc::lp::LP<0x2::sui::SUI>>"),
	)

	require.False(t, coin.IsCoinType("0x2::staking_pool::StakedSui"))
	require.Empty(t, coin.CoinTypeArg("0x2::staking_pool::StakedSui"))
}
