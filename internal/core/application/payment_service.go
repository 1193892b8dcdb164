package application

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/core/ports"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

// PaymentService is responsible for operations related to payments of an
// owner:
//   - Build a payment plan to transfer some amount of an asset to a recipient. The coins of the plan, gas coin included, are temporary locked to prevent double spending them.
//   - Select a subset of the coins of an owner to cover a target amount. The selected coins are temporary locked as well.
//   - Unlock previously locked coins.
//   - Mark coins as spent once the tx spending them is executed on ledger.
//
// The service registers 1 handler for the following coin event:
//   - domain.CoinLocked - whenever one or more coins are locked, the service spawns a so-called unlocker, a goroutine wating for X seconds before unlocking them if necessary. The operation is just skipped if the coins have been spent meanwhile.
//
// The service guarantees that any locked coin is eventually unlocked ASAP
// after the waiting time expires.
// Therefore, at startup, it makes sure to unlock any still-locked coin that
// can be unlocked, and to spawn the required number of unlockers for those
// whose waiting time didn't expire yet.
type PaymentService struct {
	repoManager        ports.RepoManager
	assembler          *coin.Assembler
	coinExpiryDuration time.Duration

	// selectionLock serializes coin selection and locking so that concurrent
	// requests never select the same coins. It is shared with the coin
	// service to exclude rescans.
	selectionLock *sync.Mutex

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

// NewPaymentService returns a new payment service. A nil selectionLock is
// replaced with a new one.
func NewPaymentService(
	repoManager ports.RepoManager, nativeAssetType coin.AssetType,
	coinExpiryDuration time.Duration, selectionLock *sync.Mutex,
) (*PaymentService, error) {
	assembler, err := coin.NewAssembler(nativeAssetType)
	if err != nil {
		return nil, err
	}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("payment service: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("payment service: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	if selectionLock == nil {
		selectionLock = &sync.Mutex{}
	}

	svc := &PaymentService{
		repoManager, assembler, coinExpiryDuration, selectionLock, logFn, warnFn,
	}
	svc.registerHandlerForCoinEvents()
	go svc.scheduleCoinUnlocker()

	return svc, nil
}

// BuildPayment builds a payment plan for the given owner out of its spendable
// coins and locks all of them until the returned expiration date.
// Errors of the plan assembler are returned unchanged.
func (ps *PaymentService) BuildPayment(
	ctx context.Context, owner string, payment Payment,
) (*PaymentInfo, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	assetType, recipient, err := payment.validate()
	if err != nil {
		return nil, err
	}

	ps.selectionLock.Lock()
	defer ps.selectionLock.Unlock()

	coins, err := ps.repoManager.CoinRepository().GetSpendableCoinsForOwner(
		ctx, owner,
	)
	if err != nil {
		return nil, err
	}

	plan, err := ps.assembler.BuildPayment(coin.PaymentRequest{
		Coins:     domain.CoinRecords(coins),
		AssetType: assetType,
		Amount:    payment.Amount,
		Recipient: recipient,
		GasBudget: payment.GasBudget,
	})
	if err != nil {
		paymentFailuresCounter.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	digest, err := plan.Digest()
	if err != nil {
		return nil, err
	}

	expirationDate, err := ps.lockCoins(ctx, owner, plan.CoinIDs())
	if err != nil {
		return nil, err
	}

	paymentPlansCounter.WithLabelValues(string(plan.Kind)).Inc()
	planInputsHistogram.Observe(float64(len(plan.InputCoins)))

	return &PaymentInfo{
		Plan:           plan,
		Digest:         digest,
		ExpirationDate: expirationDate,
	}, nil
}

// SelectCoins selects a subset of the spendable coins of the given owner,
// covering the target amount, with the given strategy. The selected coins are
// locked until the returned expiration date.
func (ps *PaymentService) SelectCoins(
	ctx context.Context, owner, assetType string, targetAmount *big.Int,
	coinSelectionStrategy int,
) (Coins, *big.Int, int64, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, nil, -1, err
	}
	targetType, err := coin.ParseAssetType(assetType)
	if err != nil {
		return nil, nil, -1, err
	}
	if targetAmount == nil || targetAmount.Sign() <= 0 {
		return nil, nil, -1, ErrZeroAmount
	}

	ps.selectionLock.Lock()
	defer ps.selectionLock.Unlock()

	coins, err := ps.repoManager.CoinRepository().GetSpendableCoinsForOwner(
		ctx, owner,
	)
	if err != nil {
		return nil, nil, -1, err
	}

	coinSelector := DefaultCoinSelector
	if factory, ok := coinSelectorByType[coinSelectionStrategy]; ok {
		coinSelector = factory()
	}

	coins, change, err := coinSelector.SelectCoins(coins, targetAmount, targetType)
	if err != nil {
		return nil, nil, -1, err
	}

	expirationDate, err := ps.lockCoins(ctx, owner, Coins(coins).IDs())
	if err != nil {
		return nil, nil, -1, err
	}

	return coins, change, expirationDate, nil
}

// UnlockCoins releases the lock of the given coins before their expiration.
func (ps *PaymentService) UnlockCoins(
	ctx context.Context, ids []string,
) (int, error) {
	count, err := ps.repoManager.CoinRepository().UnlockCoins(ctx, ids)
	if err != nil {
		return -1, err
	}
	if count > 0 {
		lockedCoinsCounter.WithLabelValues("unlock").Add(float64(count))
		ps.log("unlocked %d coin(s) %s", count, CoinIDs(ids))
	}
	return count, nil
}

// MarkSpent marks the given coins as spent by the given tx.
func (ps *PaymentService) MarkSpent(
	ctx context.Context, ids []string, txDigest string,
) (int, error) {
	count, err := ps.repoManager.CoinRepository().SpendCoins(
		ctx, ids, domain.CoinStatus{TxDigest: txDigest},
	)
	if err != nil {
		return -1, err
	}
	if count > 0 {
		ps.log("marked %d coin(s) as spent by tx %s", count, txDigest)
	}
	return count, nil
}

// lockCoins locks all the given coins or none of them. If some coin can't be
// locked, those just locked are released and ErrCoinsNotLocked is returned.
func (ps *PaymentService) lockCoins(
	ctx context.Context, owner string, ids []string,
) (int64, error) {
	coinRepo := ps.repoManager.CoinRepository()
	now := time.Now()
	lockExpiration := now.Add(ps.coinExpiryDuration)
	count, err := coinRepo.LockCoins(
		ctx, ids, now.Unix(), lockExpiration.Unix(),
	)
	if err != nil {
		return -1, err
	}

	if count != len(ids) {
		err := fmt.Errorf(
			"%w: locked %d out of %d", ErrCoinsNotLocked, count, len(ids),
		)
		if count > 0 {
			ps.releaseCoins(ctx, ids, now.Unix(), lockExpiration.Unix())
		}
		ps.warn(err, "failed to lock coins of owner %s %s", owner, CoinIDs(ids))
		return -1, err
	}

	lockedCoinsCounter.WithLabelValues("lock").Add(float64(count))
	ps.log("locked %d coin(s) for owner %s %s", count, owner, CoinIDs(ids))
	return lockExpiration.Unix(), nil
}

// releaseCoins unlocks those of the given coins that hold the given lock.
func (ps *PaymentService) releaseCoins(
	ctx context.Context, ids []string, timestamp, expiryTimestamp int64,
) {
	coinRepo := ps.repoManager.CoinRepository()
	coins, err := coinRepo.GetCoinsByID(ctx, ids)
	if err != nil {
		ps.warn(err, "failed to get coins to release")
		return
	}

	toUnlock := make([]string, 0, len(coins))
	for _, c := range coins {
		if c.LockTimestamp == timestamp &&
			c.LockExpiryTimestamp == expiryTimestamp {
			toUnlock = append(toUnlock, c.ID)
		}
	}
	if len(toUnlock) <= 0 {
		return
	}
	if _, err := coinRepo.UnlockCoins(ctx, toUnlock); err != nil {
		ps.warn(err, "failed to release coins %s", CoinIDs(toUnlock))
	}
}

func (ps *PaymentService) registerHandlerForCoinEvents() {
	ps.repoManager.RegisterHandlerForCoinEvent(
		domain.CoinLocked, func(event domain.CoinEvent) {
			ids := CoinsInfo(event.Coins).IDs()
			ps.spawnCoinUnlocker(ids)
		},
	)
}

// scheduleCoinUnlocker waits 5 seconds before whether unlocking or spawning an
// unlocker for all the locked coins.
// Since this method is called when the service is istantiated, the idea is to
// give the clients enough time to mark as spent the coins of the payments
// executed while the service was down.
func (ps *PaymentService) scheduleCoinUnlocker() {
	time.Sleep(5 * time.Second)

	ctx := context.Background()
	coinRepo := ps.repoManager.CoinRepository()
	coins, err := coinRepo.GetAllCoins(ctx)
	if err != nil {
		ps.warn(err, "failed to get coins to unlock")
		return
	}

	coinsToUnlock := make([]string, 0)
	coinsToSpawnUnlocker := make([]string, 0)
	for _, c := range coins {
		if c.IsSpent() || !c.IsLocked() {
			continue
		}
		if c.CanUnlock() {
			coinsToUnlock = append(coinsToUnlock, c.ID)
		} else {
			coinsToSpawnUnlocker = append(coinsToSpawnUnlocker, c.ID)
		}
	}

	if len(coinsToUnlock) > 0 {
		count, err := coinRepo.UnlockCoins(ctx, coinsToUnlock)
		if err != nil {
			coinsToSpawnUnlocker = append(coinsToSpawnUnlocker, coinsToUnlock...)
		}
		if count > 0 {
			ps.log("unlocked %d coin(s) %s", count, CoinIDs(coinsToUnlock))
		}
	}
	if len(coinsToSpawnUnlocker) > 0 {
		ps.spawnCoinUnlocker(coinsToSpawnUnlocker)
	}
}

// spawnCoinUnlocker groups the locked coins identified by the given ids by
// their lock expiry timestamps, and then creates a goroutine for each group in
// order to unlock the coins if they are still locked when their expiration
// time comes.
func (ps *PaymentService) spawnCoinUnlocker(ids []string) {
	ctx := context.Background()
	coins, _ := ps.repoManager.CoinRepository().GetCoinsByID(ctx, ids)

	coinsByExpiry := make(map[int64][]string)
	for _, c := range coins {
		if !c.IsLocked() {
			continue
		}
		coinsByExpiry[c.LockExpiryTimestamp] = append(
			coinsByExpiry[c.LockExpiryTimestamp], c.ID,
		)
	}

	for expiry := range coinsByExpiry {
		ids := coinsByExpiry[expiry]
		unlockTime := time.Until(time.Unix(expiry, 0))
		if unlockTime <= 0 {
			unlockTime = time.Millisecond
		}
		t := time.NewTicker(unlockTime)
		go func(ids []string, expiry int64, t *time.Ticker) {
			defer t.Stop()

			ps.log("spawning unlocker for coin(s) %s", CoinIDs(ids))
			ps.log(
				"coin(s) will be eventually unlocked in ~%.0f seconds",
				math.Round(unlockTime.Seconds()/10)*10,
			)

			for range t.C {
				coins, _ := ps.repoManager.CoinRepository().GetCoinsByID(ctx, ids)
				coinsToUnlock := make([]string, 0, len(coins))
				spentCoins := make([]string, 0, len(coins))
				for _, c := range coins {
					if c.IsSpent() {
						spentCoins = append(spentCoins, c.ID)
					} else if c.IsLocked() && c.LockExpiryTimestamp == expiry {
						coinsToUnlock = append(coinsToUnlock, c.ID)
					}
				}

				if len(spentCoins) > 0 {
					ps.log(
						"coin(s) %s have been spent, skipping unlocking",
						CoinIDs(spentCoins),
					)
				}

				if len(coinsToUnlock) > 0 {
					// In case of errors here, the ticker is possibly reset to a
					// shorter duration to keep retrying to unlock the locked coins
					// as soon as possible.
					count, err := ps.repoManager.CoinRepository().UnlockCoins(
						ctx, coinsToUnlock,
					)
					if err != nil {
						shortDuration := 5 * time.Second
						if shortDuration < unlockTime {
							t.Reset(shortDuration)
						}
						continue
					}
					if count > 0 {
						lockedCoinsCounter.WithLabelValues("expire").Add(float64(count))
						ps.log("unlocked %d coin(s) %s", count, CoinIDs(coinsToUnlock))
					}
				}
				return
			}
		}(ids, expiry, t)
	}
}
