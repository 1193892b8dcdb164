package application

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/core/ports"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

// spentExternallyTxDigest is used to mark as spent the coins that disappeared
// from the ledger without being spent by a payment built by this service.
const spentExternallyTxDigest = "external"

// CoinService is responsible for operations related to the coins owned by
// accounts:
//   - Sync the coins of an owner with the ledger.
//   - List the spendable and locked coins of an owner.
//   - Get the balance of an owner, grouped by asset type.
//   - Get the display info of an asset type.
//
// The service doesn't register any handler for repository events, the coin
// set is refreshed only on demand.
type CoinService struct {
	repoManager  ports.RepoManager
	ledgerClient ports.LedgerClient

	// selectionLock is shared with the payment service, a rescan must not
	// interleave with the selection and locking of coins.
	selectionLock *sync.Mutex

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

// NewCoinService returns a new coin service. A nil selectionLock is replaced
// with a new one.
func NewCoinService(
	repoManager ports.RepoManager, ledgerClient ports.LedgerClient,
	selectionLock *sync.Mutex,
) *CoinService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("coin service: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("coin service: %s", format)
		log.WithError(err).Warnf(format, a...)
	}
	if selectionLock == nil {
		selectionLock = &sync.Mutex{}
	}

	return &CoinService{repoManager, ledgerClient, selectionLock, logFn, warnFn}
}

// SyncCoins fetches all the coins owned by the given account from the ledger
// and reconciles them with the stored ones:
//   - new coins are added.
//   - stored coins reported with a different version or balance are
//     refreshed. Spent ones reported at a new version are spendable again.
//   - stored unspent coins no longer owned on ledger are marked as spent.
//
// With rescan, the coins of the owner are replaced with those reported by the
// ledger. Locks of the coins still owned are kept, and so are the spent marks
// of coins reported at the same version.
func (cs *CoinService) SyncCoins(
	ctx context.Context, owner string, rescan bool,
) (*SyncInfo, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}

	ledgerCoins, err := cs.ledgerClient.GetCoins(ctx, owner, coin.AssetType{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coins from ledger: %w", err)
	}

	if rescan {
		return cs.rescanCoins(ctx, owner, ledgerCoins)
	}

	coinRepo := cs.repoManager.CoinRepository()
	storedCoins, err := coinRepo.GetCoinsForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	ledgerCoinsByID := make(map[string]*domain.Coin, len(ledgerCoins))
	for _, c := range ledgerCoins {
		ledgerCoinsByID[c.ID] = c
	}

	removedCoins := make([]string, 0)
	for _, c := range storedCoins {
		if c.IsSpent() {
			continue
		}
		if _, ok := ledgerCoinsByID[c.ID]; !ok {
			removedCoins = append(removedCoins, c.ID)
		}
	}

	updated, err := coinRepo.UpdateCoins(ctx, ledgerCoins)
	if err != nil {
		return nil, err
	}
	if updated > 0 {
		cs.log("refreshed %d coin(s) of owner %s", updated, owner)
	}

	added, err := coinRepo.AddCoins(ctx, ledgerCoins)
	if err != nil {
		return nil, err
	}
	if added > 0 {
		cs.log("added %d new coin(s) for owner %s", added, owner)
	}

	spent := 0
	if len(removedCoins) > 0 {
		spent, err = coinRepo.SpendCoins(ctx, removedCoins, domain.CoinStatus{
			TxDigest: spentExternallyTxDigest,
		})
		if err != nil {
			return nil, err
		}
		cs.log(
			"marked %d coin(s) of owner %s as spent %s",
			spent, owner, CoinIDs(removedCoins),
		)
	}

	return &SyncInfo{Added: added, Updated: updated, Spent: spent}, nil
}

func (cs *CoinService) rescanCoins(
	ctx context.Context, owner string, ledgerCoins []*domain.Coin,
) (*SyncInfo, error) {
	cs.selectionLock.Lock()
	defer cs.selectionLock.Unlock()

	coinRepo := cs.repoManager.CoinRepository()
	storedCoins, err := coinRepo.GetCoinsForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	storedCoinsByID := make(map[string]*domain.Coin, len(storedCoins))
	for _, c := range storedCoins {
		storedCoinsByID[c.ID] = c
	}

	coins := make([]*domain.Coin, 0, len(ledgerCoins))
	keptLocks := 0
	for _, lc := range ledgerCoins {
		c := *lc
		if sc, ok := storedCoinsByID[c.ID]; ok {
			if sc.IsLocked() {
				c.LockTimestamp = sc.LockTimestamp
				c.LockExpiryTimestamp = sc.LockExpiryTimestamp
				keptLocks++
			}
			if sc.IsSpent() && sc.Version == c.Version {
				c.SpentStatus = sc.SpentStatus
			}
		}
		coins = append(coins, &c)
	}

	if err := coinRepo.DeleteCoinsForOwner(ctx, owner); err != nil {
		return nil, err
	}
	cs.log("dropped coins of owner %s for rescan", owner)

	added, err := coinRepo.AddCoins(ctx, coins)
	if err != nil {
		return nil, err
	}
	cs.log(
		"added %d coin(s) for owner %s, %d still locked", added, owner, keptLocks,
	)

	return &SyncInfo{Added: added}, nil
}

// ListCoins returns the spendable and locked coins of the given owner.
// If assetType is defined, only coins of that type are returned. If
// minBalance is defined, only the spendable coins with balance greater than
// or equal to it are returned.
func (cs *CoinService) ListCoins(
	ctx context.Context, owner, assetType string, minBalance *big.Int,
) (*CoinInfo, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	var filterType coin.AssetType
	if assetType != "" {
		if filterType, err = coin.ParseAssetType(assetType); err != nil {
			return nil, err
		}
	}

	coinRepo := cs.repoManager.CoinRepository()
	spendableCoins, err := coinRepo.GetSpendableCoinsForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	lockedCoins, err := coinRepo.GetLockedCoinsForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	spendableCoins = filterByType(spendableCoins, filterType)
	lockedCoins = filterByType(lockedCoins, filterType)

	if minBalance != nil {
		coinsByID := make(map[string]*domain.Coin, len(spendableCoins))
		for _, c := range spendableCoins {
			coinsByID[c.ID] = c
		}
		records := coin.SelectCoinsWithBalanceAtLeast(
			domain.CoinRecords(spendableCoins), minBalance,
		)
		spendableCoins = make([]*domain.Coin, 0, len(records))
		for _, r := range records {
			spendableCoins = append(spendableCoins, coinsByID[r.ID])
		}
	}

	return &CoinInfo{
		Spendable: spendableCoins,
		Locked:    lockedCoins,
	}, nil
}

// GetBalance returns the spendable and locked balances of the given owner,
// grouped by asset type.
func (cs *CoinService) GetBalance(
	ctx context.Context, owner string,
) (map[string]*domain.Balance, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	return cs.repoManager.CoinRepository().GetBalanceForOwner(ctx, owner)
}

// GetCoinMetadata returns the display info of the given asset type.
// The well known metadata of the native asset is returned in case the ledger
// is not reachable.
func (cs *CoinService) GetCoinMetadata(
	ctx context.Context, assetType string,
) (*coin.Metadata, error) {
	t, err := coin.ParseAssetType(assetType)
	if err != nil {
		return nil, err
	}

	metadata, err := cs.ledgerClient.GetCoinMetadata(ctx, t)
	if err != nil {
		if t.IsNative() {
			cs.warn(err, "failed to fetch native asset metadata, using defaults")
			m := coin.NativeMetadata
			return &m, nil
		}
		return nil, err
	}
	return metadata, nil
}

func filterByType(coins []*domain.Coin, assetType coin.AssetType) []*domain.Coin {
	if assetType.IsZero() {
		return coins
	}
	list := make([]*domain.Coin, 0, len(coins))
	for _, c := range coins {
		if c.IsOfType(assetType) {
			list = append(list, c)
		}
	}
	return list
}
