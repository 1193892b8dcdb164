package db_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/core/ports"
	dbbadger "github.com/vulpemventures/coinpay/internal/infrastructure/storage/db/badger"
	"github.com/vulpemventures/coinpay/internal/infrastructure/storage/db/inmemory"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

var (
	ctx           = context.Background()
	owner         = randomOwner()
	wrongOwner    = randomOwner()
	newCoins      []*domain.Coin
	coinIDs       []string
	balanceByType map[string]*domain.Balance
	txDigest      = randomHex(32)
)

func TestCoinRepository(t *testing.T) {
	repositories, err := newCoinRepositories(
		func(repoType string) ports.CoinEventHandler {
			return func(event domain.CoinEvent) {
				t.Logf("received event from %s repo: %+v\n", repoType, event)
			}
		},
	)
	require.NoError(t, err)

	for name, repo := range repositories {
		t.Run(name, func(t *testing.T) {
			testCoinRepository(t, repo)
		})
	}
}

func testCoinRepository(t *testing.T, repo domain.CoinRepository) {
	newCoins, coinIDs, balanceByType = randomCoinsForOwner(owner)
	testAddAndGetCoins(t, repo)

	testGetBalanceForOwner(t, repo)

	testLockCoins(t, repo)

	testUnlockCoins(t, repo)

	testSpendCoins(t, repo)

	testUpdateCoins(t, repo)

	testDeleteCoins(t, repo)
}

func testAddAndGetCoins(t *testing.T, repo domain.CoinRepository) {
	t.Run("add_coins and get_coins", func(t *testing.T) {
		count, err := repo.AddCoins(ctx, newCoins)
		require.NoError(t, err)
		require.Equal(t, len(newCoins), count)

		count, err = repo.AddCoins(ctx, newCoins)
		require.NoError(t, err)
		require.Zero(t, count)

		coins, err := repo.GetAllCoins(ctx)
		require.NoError(t, err)
		require.Len(t, coins, len(newCoins))

		coins, err = repo.GetCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, coins, len(newCoins))

		coins, err = repo.GetCoinsForOwner(ctx, wrongOwner)
		require.NoError(t, err)
		require.Empty(t, coins)

		coins, err = repo.GetSpendableCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, coins, len(newCoins))

		coins, err = repo.GetLockedCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Empty(t, coins)

		coins, err = repo.GetCoinsByID(ctx, coinIDs)
		require.NoError(t, err)
		require.Len(t, coins, len(newCoins))
		for i, c := range coins {
			require.Equal(t, newCoins[i].ID, c.ID)
			require.Equal(t, newCoins[i].Type, c.Type)
			require.Equal(t, newCoins[i].Balance.String(), c.Balance.String())
			require.Equal(t, newCoins[i].Digest, c.Digest)
		}

		otherIDs := []string{randomID()}
		coins, err = repo.GetCoinsByID(ctx, otherIDs)
		require.NoError(t, err)
		require.Empty(t, coins)

		allIDs := append(append([]string{}, coinIDs...), otherIDs...)
		coins, err = repo.GetCoinsByID(ctx, allIDs)
		require.NoError(t, err)
		require.Len(t, coins, len(newCoins))
	})
}

func testGetBalanceForOwner(t *testing.T, repo domain.CoinRepository) {
	t.Run("get_balance_for_owner", func(t *testing.T) {
		coinBalance, err := repo.GetBalanceForOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, coinBalance, len(balanceByType))
		for assetType, balance := range coinBalance {
			expected := balanceByType[assetType]
			require.NotNil(t, expected)
			require.Equal(t, expected.Spendable.String(), balance.Spendable.String())
			require.Zero(t, balance.Locked.Sign())
		}

		coinBalance, err = repo.GetBalanceForOwner(ctx, wrongOwner)
		require.NoError(t, err)
		require.Empty(t, coinBalance)
	})
}

func testLockCoins(t *testing.T, repo domain.CoinRepository) {
	t.Run("lock_coins", func(t *testing.T) {
		now := time.Now()
		count, err := repo.LockCoins(
			ctx, coinIDs, now.Unix(), now.Add(time.Minute).Unix(),
		)
		require.NoError(t, err)
		require.Equal(t, len(newCoins), count)

		count, err = repo.LockCoins(
			ctx, coinIDs, now.Unix(), now.Add(time.Minute).Unix(),
		)
		require.NoError(t, err)
		require.Zero(t, count)

		coins, err := repo.GetLockedCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, coins, len(newCoins))
		for _, c := range coins {
			require.Equal(t, now.Unix(), c.LockTimestamp)
			require.Equal(t, now.Add(time.Minute).Unix(), c.LockExpiryTimestamp)
		}

		coins, err = repo.GetSpendableCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Empty(t, coins)

		coinBalance, err := repo.GetBalanceForOwner(ctx, owner)
		require.NoError(t, err)
		for assetType, balance := range coinBalance {
			expected := balanceByType[assetType]
			require.Zero(t, balance.Spendable.Sign())
			require.Equal(t, expected.Spendable.String(), balance.Locked.String())
		}
	})
}

func testUnlockCoins(t *testing.T, repo domain.CoinRepository) {
	t.Run("unlock_coins", func(t *testing.T) {
		count, err := repo.UnlockCoins(ctx, coinIDs)
		require.NoError(t, err)
		require.Equal(t, len(newCoins), count)

		count, err = repo.UnlockCoins(ctx, coinIDs)
		require.NoError(t, err)
		require.Zero(t, count)

		coins, err := repo.GetLockedCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Empty(t, coins)

		coins, err = repo.GetSpendableCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, coins, len(newCoins))

		coinBalance, err := repo.GetBalanceForOwner(ctx, owner)
		require.NoError(t, err)
		for assetType, balance := range coinBalance {
			expected := balanceByType[assetType]
			require.Equal(t, expected.Total().String(), balance.Spendable.String())
			require.Zero(t, balance.Locked.Sign())
		}
	})
}

func testSpendCoins(t *testing.T, repo domain.CoinRepository) {
	t.Run("spend_coins", func(t *testing.T) {
		_, err := repo.SpendCoins(ctx, coinIDs, domain.CoinStatus{})
		require.ErrorIs(t, err, domain.ErrMissingTxDigest)

		status := domain.CoinStatus{TxDigest: txDigest}
		count, err := repo.SpendCoins(ctx, coinIDs, status)
		require.NoError(t, err)
		require.Equal(t, len(newCoins), count)

		count, err = repo.SpendCoins(ctx, coinIDs, status)
		require.NoError(t, err)
		require.Zero(t, count)

		count, err = repo.LockCoins(ctx, coinIDs, time.Now().Unix(), 0)
		require.NoError(t, err)
		require.Zero(t, count)

		coins, err := repo.GetSpendableCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Empty(t, coins)

		coins, err = repo.GetCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, coins, len(newCoins))
		for _, c := range coins {
			require.True(t, c.IsSpent())
			require.Equal(t, txDigest, c.SpentStatus.TxDigest)
		}

		coinBalance, err := repo.GetBalanceForOwner(ctx, owner)
		require.NoError(t, err)
		require.Empty(t, coinBalance)
	})
}

func testUpdateCoins(t *testing.T, repo domain.CoinRepository) {
	t.Run("update_coins", func(t *testing.T) {
		refreshed := func(id, version string, balance int64) *domain.Coin {
			return &domain.Coin{
				Coin: coin.Coin{
					ID:      id,
					Type:    newCoins[0].Type,
					Balance: big.NewInt(balance),
				},
				Owner:   owner,
				Version: version,
				Digest:  "digest" + version,
			}
		}

		// Spent coins reported at the same version stay spent.
		count, err := repo.UpdateCoins(ctx, []*domain.Coin{
			refreshed(coinIDs[0], "1", 7),
		})
		require.NoError(t, err)
		require.Zero(t, count)

		count, err = repo.UpdateCoins(ctx, []*domain.Coin{
			refreshed(coinIDs[0], "2", 7),
			refreshed(randomID(), "2", 7),
		})
		require.NoError(t, err)
		require.Equal(t, 1, count)

		coins, err := repo.GetSpendableCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, coins, 1)
		require.Equal(t, coinIDs[0], coins[0].ID)
		require.Equal(t, "2", coins[0].Version)
		require.Equal(t, "digest2", coins[0].Digest)
		require.Equal(t, "7", coins[0].Balance.String())

		count, err = repo.UpdateCoins(ctx, []*domain.Coin{
			refreshed(coinIDs[0], "2", 7),
		})
		require.NoError(t, err)
		require.Zero(t, count)

		count, err = repo.UpdateCoins(ctx, []*domain.Coin{
			refreshed(coinIDs[0], "2", 5),
		})
		require.NoError(t, err)
		require.Equal(t, 1, count)

		coins, err = repo.GetCoinsByID(ctx, coinIDs[:1])
		require.NoError(t, err)
		require.Len(t, coins, 1)
		require.Equal(t, "5", coins[0].Balance.String())
		require.True(t, coins[0].IsSpendable())
	})
}

func testDeleteCoins(t *testing.T, repo domain.CoinRepository) {
	t.Run("delete_coins_for_owner", func(t *testing.T) {
		err := repo.DeleteCoinsForOwner(ctx, wrongOwner)
		require.NoError(t, err)

		coins, err := repo.GetCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, coins, len(newCoins))

		err = repo.DeleteCoinsForOwner(ctx, owner)
		require.NoError(t, err)

		coins, err = repo.GetCoinsForOwner(ctx, owner)
		require.NoError(t, err)
		require.Empty(t, coins)

		coins, err = repo.GetCoinsByID(ctx, coinIDs)
		require.NoError(t, err)
		require.Empty(t, coins)
	})
}

func newCoinRepositories(
	handlerFactory func(repoType string) ports.CoinEventHandler,
) (map[string]domain.CoinRepository, error) {
	inmemoryRepoManager := inmemory.NewRepoManager()
	badgerRepoManager, err := dbbadger.NewRepoManager("", nil)
	if err != nil {
		return nil, err
	}
	handlers := []ports.CoinEventHandler{
		handlerFactory("badger"), handlerFactory("inmemory"),
	}

	repoManagers := []ports.RepoManager{badgerRepoManager, inmemoryRepoManager}

	for i, handler := range handlers {
		repoManager := repoManagers[i]
		repoManager.RegisterHandlerForCoinEvent(domain.CoinAdded, handler)
		repoManager.RegisterHandlerForCoinEvent(domain.CoinLocked, handler)
		repoManager.RegisterHandlerForCoinEvent(domain.CoinUnlocked, handler)
		repoManager.RegisterHandlerForCoinEvent(domain.CoinSpent, handler)
	}
	return map[string]domain.CoinRepository{
		"inmemory": inmemoryRepoManager.CoinRepository(),
		"badger":   badgerRepoManager.CoinRepository(),
	}, nil
}
