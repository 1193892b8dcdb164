package application_test

import (
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinpay/internal/core/application"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/infrastructure/storage/db/inmemory"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

func TestSyncCoins(t *testing.T) {
	owner := randomOwner()
	coins := []*domain.Coin{
		newCoin(owner, "0xc1", coin.NativeAssetTypeArg, 100),
		newCoin(owner, "0xc2", coin.NativeAssetTypeArg, 200),
		newCoin(owner, "0xc3", usdcType, 300),
	}

	ledger := &mockLedgerClient{}
	ledger.On("GetCoins", mock.Anything, owner, coin.AssetType{}).
		Return(coins, nil).Once()
	ledger.On("GetCoins", mock.Anything, owner, coin.AssetType{}).
		Return(coins[1:], nil).Once()

	repoManager := inmemory.NewRepoManager()
	svc := application.NewCoinService(repoManager, ledger, nil)

	info, err := svc.SyncCoins(ctx, owner, false)
	require.NoError(t, err)
	require.Equal(t, 3, info.Added)
	require.Zero(t, info.Spent)

	info, err = svc.SyncCoins(ctx, owner, false)
	require.NoError(t, err)
	require.Zero(t, info.Added)
	require.Equal(t, 1, info.Spent)

	stored, err := repoManager.CoinRepository().GetCoinsByID(ctx, []string{"0xc1"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.True(t, stored[0].IsSpent())

	ledger.AssertExpectations(t)
}

func TestSyncCoinsRefreshesChangedCoins(t *testing.T) {
	owner, recipient := randomOwner(), randomOwner()
	c := newCoin(owner, "0xa1", coin.NativeAssetTypeArg, 100)

	ledger := &mockLedgerClient{}
	ledger.On("GetCoins", mock.Anything, owner, coin.AssetType{}).
		Return([]*domain.Coin{c}, nil).Once()
	ledger.On("GetCoins", mock.Anything, owner, coin.AssetType{}).
		Return([]*domain.Coin{withVersion(c, "2", 30)}, nil).Twice()
	ledger.On("GetCoins", mock.Anything, owner, coin.AssetType{}).
		Return([]*domain.Coin{withVersion(c, "3", 10)}, nil).Once()

	repoManager := inmemory.NewRepoManager()
	svc := application.NewCoinService(repoManager, ledger, nil)
	paymentSvc, err := application.NewPaymentService(
		repoManager, coin.NativeAssetType, coinExpiryDuration, nil,
	)
	require.NoError(t, err)

	info, err := svc.SyncCoins(ctx, owner, false)
	require.NoError(t, err)
	require.Equal(t, 1, info.Added)

	info, err = svc.SyncCoins(ctx, owner, false)
	require.NoError(t, err)
	require.Zero(t, info.Added)
	require.Equal(t, 1, info.Updated)
	require.Zero(t, info.Spent)

	stored, err := repoManager.CoinRepository().GetCoinsByID(ctx, []string{"0xa1"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "2", stored[0].Version)
	require.Equal(t, "30", stored[0].Balance.String())

	// Plans are funded with the refreshed balance.
	_, err = paymentSvc.BuildPayment(ctx, owner, application.Payment{
		AssetType: coin.NativeAssetTypeArg,
		Amount:    big.NewInt(80),
		Recipient: recipient,
		GasBudget: 10,
	})
	require.ErrorIs(t, err, coin.ErrInsufficientTransferFunds)

	payment, err := paymentSvc.BuildPayment(ctx, owner, application.Payment{
		AssetType: coin.NativeAssetTypeArg,
		Amount:    big.NewInt(10),
		Recipient: recipient,
		GasBudget: 10,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"0xa1"}, payment.Plan.InputCoins)

	_, err = paymentSvc.MarkSpent(ctx, payment.Plan.CoinIDs(), "0xdigest")
	require.NoError(t, err)

	// Until the ledger reports a new version the coin stays spent.
	info, err = svc.SyncCoins(ctx, owner, false)
	require.NoError(t, err)
	require.Zero(t, info.Updated)
	spendable, err := repoManager.CoinRepository().GetSpendableCoinsForOwner(
		ctx, owner,
	)
	require.NoError(t, err)
	require.Empty(t, spendable)

	info, err = svc.SyncCoins(ctx, owner, false)
	require.NoError(t, err)
	require.Equal(t, 1, info.Updated)
	spendable, err = repoManager.CoinRepository().GetSpendableCoinsForOwner(
		ctx, owner,
	)
	require.NoError(t, err)
	require.Len(t, spendable, 1)
	require.Equal(t, "3", spendable[0].Version)
	require.Equal(t, "10", spendable[0].Balance.String())

	ledger.AssertExpectations(t)
}

func TestSyncCoinsWithRescan(t *testing.T) {
	owner, recipient := randomOwner(), randomOwner()
	coins := []*domain.Coin{
		newCoin(owner, "0xc1", coin.NativeAssetTypeArg, 100),
		newCoin(owner, "0xc2", coin.NativeAssetTypeArg, 200),
		newCoin(owner, "0xc3", coin.NativeAssetTypeArg, 1000),
	}

	ledger := &mockLedgerClient{}
	ledger.On("GetCoins", mock.Anything, owner, coin.AssetType{}).
		Return(coins, nil)

	selectionLock := &sync.Mutex{}
	repoManager := inmemory.NewRepoManager()
	svc := application.NewCoinService(repoManager, ledger, selectionLock)
	paymentSvc, err := application.NewPaymentService(
		repoManager, coin.NativeAssetType, coinExpiryDuration, selectionLock,
	)
	require.NoError(t, err)

	info, err := svc.SyncCoins(ctx, owner, false)
	require.NoError(t, err)
	require.Equal(t, 3, info.Added)

	payment := application.Payment{
		AssetType: coin.NativeAssetTypeArg,
		Amount:    big.NewInt(150),
		Recipient: recipient,
		GasBudget: 50,
	}
	first, err := paymentSvc.BuildPayment(ctx, owner, payment)
	require.NoError(t, err)
	require.Equal(t, []string{"0xc1", "0xc2"}, first.Plan.InputCoins)

	info, err = svc.SyncCoins(ctx, owner, true)
	require.NoError(t, err)
	require.Equal(t, 3, info.Added)

	// Locks survive the rescan, so the coins of the first plan can't be
	// selected again.
	requireLocked(t, repoManager, "0xc1", "0xc2")
	locked, err := repoManager.CoinRepository().GetLockedCoinsForOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, locked, 2)
	for _, c := range locked {
		require.Equal(t, first.ExpirationDate, c.LockExpiryTimestamp)
	}

	second, err := paymentSvc.BuildPayment(ctx, owner, payment)
	require.NoError(t, err)
	require.Equal(t, []string{"0xc3"}, second.Plan.InputCoins)

	_, err = paymentSvc.MarkSpent(ctx, second.Plan.CoinIDs(), "0xdigest")
	require.NoError(t, err)

	// Spent marks survive a rescan reporting the coin at the same version.
	_, err = svc.SyncCoins(ctx, owner, true)
	require.NoError(t, err)
	stored, err := repoManager.CoinRepository().GetCoinsByID(ctx, []string{"0xc3"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.True(t, stored[0].IsSpent())
	require.Equal(t, "0xdigest", stored[0].SpentStatus.TxDigest)
}

func TestFailingSyncCoins(t *testing.T) {
	owner := randomOwner()
	ledger := &mockLedgerClient{}
	ledger.On("GetCoins", mock.Anything, owner, coin.AssetType{}).
		Return(nil, fmt.Errorf("connection refused"))

	svc := application.NewCoinService(inmemory.NewRepoManager(), ledger, nil)

	info, err := svc.SyncCoins(ctx, owner, false)
	require.Error(t, err)
	require.Nil(t, info)

	info, err = svc.SyncCoins(ctx, "not an address", false)
	require.ErrorIs(t, err, application.ErrInvalidOwner)
	require.Nil(t, info)
}

func TestListCoinsAndBalance(t *testing.T) {
	owner := randomOwner()
	repoManager := inmemory.NewRepoManager()
	_, err := repoManager.CoinRepository().AddCoins(ctx, []*domain.Coin{
		newCoin(owner, "0xc1", coin.NativeAssetTypeArg, 100),
		newCoin(owner, "0xc2", coin.NativeAssetTypeArg, 200),
		newCoin(owner, "0xc3", usdcType, 300),
		newCoin(owner, "0xc4", coin.NativeAssetTypeArg, 50),
	})
	require.NoError(t, err)
	_, err = repoManager.CoinRepository().LockCoins(
		ctx, []string{"0xc4"}, 1, 2,
	)
	require.NoError(t, err)

	svc := application.NewCoinService(repoManager, &mockLedgerClient{}, nil)

	info, err := svc.ListCoins(ctx, owner, "", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"0xc1", "0xc2", "0xc3"}, info.Spendable.IDs())
	require.Equal(t, []string{"0xc4"}, info.Locked.IDs())

	info, err = svc.ListCoins(ctx, owner, coin.NativeAssetTypeArg, big.NewInt(150))
	require.NoError(t, err)
	require.Equal(t, []string{"0xc2"}, info.Spendable.IDs())
	require.Equal(t, []string{"0xc4"}, info.Locked.IDs())

	info, err = svc.ListCoins(ctx, owner, usdcType, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"0xc3"}, info.Spendable.IDs())
	require.Empty(t, info.Locked)

	_, err = svc.ListCoins(ctx, owner, "sui", nil)
	require.ErrorIs(t, err, coin.ErrInvalidAssetType)

	balance, err := svc.GetBalance(ctx, owner)
	require.NoError(t, err)
	require.Len(t, balance, 2)
	native := balance[coin.NativeAssetType.String()]
	require.Equal(t, "300", native.Spendable.String())
	require.Equal(t, "50", native.Locked.String())
	usdc := balance[coin.MustParseAssetType(usdcType).String()]
	require.Equal(t, "300", usdc.Total().String())
}

func TestGetCoinMetadata(t *testing.T) {
	usdcMetadata := &coin.Metadata{Decimals: 6, Symbol: "USDC", Name: "USD Coin"}

	ledger := &mockLedgerClient{}
	ledger.On("GetCoinMetadata", mock.Anything, coin.NativeAssetType).
		Return(nil, fmt.Errorf("connection refused"))
	ledger.On("GetCoinMetadata", mock.Anything, coin.MustParseAssetType(usdcType)).
		Return(usdcMetadata, nil)
	ledger.On("GetCoinMetadata", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("not found"))

	svc := application.NewCoinService(inmemory.NewRepoManager(), ledger, nil)

	metadata, err := svc.GetCoinMetadata(ctx, coin.NativeAssetTypeArg)
	require.NoError(t, err)
	require.Equal(t, coin.NativeMetadata, *metadata)

	metadata, err = svc.GetCoinMetadata(ctx, usdcType)
	require.NoError(t, err)
	require.Equal(t, usdcMetadata, metadata)

	metadata, err = svc.GetCoinMetadata(ctx, "0xdef::unknown::UNK")
	require.Error(t, err)
	require.Nil(t, metadata)
}
