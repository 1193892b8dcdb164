package dbbadger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

type coinRepository struct {
	store            *badgerhold.Store
	chEvents         chan domain.CoinEvent
	externalChEvents chan domain.CoinEvent
	lock             *sync.Mutex

	log func(format string, a ...interface{})
}

func NewCoinRepository(store *badgerhold.Store) domain.CoinRepository {
	return newCoinRepository(store)
}

func newCoinRepository(store *badgerhold.Store) *coinRepository {
	chEvents := make(chan domain.CoinEvent)
	externalChEvents := make(chan domain.CoinEvent)
	lock := &sync.Mutex{}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("coin repository: %s", format)
		log.Debugf(format, a...)
	}
	return &coinRepository{store, chEvents, externalChEvents, lock, logFn}
}

func (r *coinRepository) AddCoins(
	ctx context.Context, coins []*domain.Coin,
) (int, error) {
	return r.addCoins(ctx, coins)
}

func (r *coinRepository) GetCoinsByID(
	ctx context.Context, ids []string,
) ([]*domain.Coin, error) {
	coins := make([]*domain.Coin, 0, len(ids))
	for _, id := range ids {
		c, err := r.getCoin(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			coins = append(coins, c)
		}
	}

	return coins, nil
}

func (r *coinRepository) GetAllCoins(
	ctx context.Context,
) ([]*domain.Coin, error) {
	return r.findCoins(ctx, nil)
}

func (r *coinRepository) GetCoinsForOwner(
	ctx context.Context, owner string,
) ([]*domain.Coin, error) {
	owner, err := coin.NormalizeAddress(owner)
	if err != nil {
		return nil, nil
	}
	query := badgerhold.Where("Owner").Eq(owner)

	return r.findCoins(ctx, query)
}

func (r *coinRepository) GetSpendableCoinsForOwner(
	ctx context.Context, owner string,
) ([]*domain.Coin, error) {
	owner, err := coin.NormalizeAddress(owner)
	if err != nil {
		return nil, nil
	}
	query := badgerhold.Where("SpentStatus").Eq(domain.CoinStatus{}).
		And("LockTimestamp").Eq(int64(0)).And("Owner").Eq(owner)

	return r.findCoins(ctx, query)
}

func (r *coinRepository) GetLockedCoinsForOwner(
	ctx context.Context, owner string,
) ([]*domain.Coin, error) {
	owner, err := coin.NormalizeAddress(owner)
	if err != nil {
		return nil, nil
	}
	query := badgerhold.Where("SpentStatus").Eq(domain.CoinStatus{}).
		And("LockTimestamp").Gt(int64(0)).And("Owner").Eq(owner)

	return r.findCoins(ctx, query)
}

func (r *coinRepository) GetBalanceForOwner(
	ctx context.Context, owner string,
) (map[string]*domain.Balance, error) {
	coins, err := r.GetCoinsForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	return domain.BalanceOf(coins), nil
}

func (r *coinRepository) LockCoins(
	ctx context.Context, ids []string, timestamp, expiryTimestamp int64,
) (int, error) {
	return r.updateCoins(ctx, ids, domain.CoinLocked, func(c *domain.Coin) (bool, error) {
		if c.IsLocked() || c.IsSpent() {
			return false, nil
		}
		if err := c.Lock(timestamp, expiryTimestamp); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (r *coinRepository) UnlockCoins(
	ctx context.Context, ids []string,
) (int, error) {
	return r.updateCoins(ctx, ids, domain.CoinUnlocked, func(c *domain.Coin) (bool, error) {
		if !c.IsLocked() {
			return false, nil
		}
		c.Unlock(true)
		return true, nil
	})
}

func (r *coinRepository) SpendCoins(
	ctx context.Context, ids []string, status domain.CoinStatus,
) (int, error) {
	return r.updateCoins(ctx, ids, domain.CoinSpent, func(c *domain.Coin) (bool, error) {
		if c.IsSpent() {
			return false, nil
		}
		if err := c.Spend(status); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (r *coinRepository) UpdateCoins(
	ctx context.Context, coins []*domain.Coin,
) (int, error) {
	ids := make([]string, 0, len(coins))
	coinsByID := make(map[string]*domain.Coin, len(coins))
	for _, c := range coins {
		ids = append(ids, c.ID)
		coinsByID[c.ID] = c
	}

	return r.updateCoins(ctx, ids, domain.CoinUpdated, func(c *domain.Coin) (bool, error) {
		lc := coinsByID[c.ID]
		return c.Refresh(lc.Version, lc.Digest, lc.Balance), nil
	})
}

func (r *coinRepository) DeleteCoinsForOwner(
	ctx context.Context, owner string,
) error {
	coins, err := r.GetCoinsForOwner(ctx, owner)
	if err != nil {
		return err
	}

	for _, c := range coins {
		if err := r.deleteCoin(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *coinRepository) GetEventChannel() chan domain.CoinEvent {
	return r.externalChEvents
}

func (r *coinRepository) addCoins(
	ctx context.Context, coins []*domain.Coin,
) (int, error) {
	count := 0
	coinsInfo := make([]domain.CoinInfo, 0)
	for _, c := range coins {
		done, err := r.insertCoin(ctx, c)
		if err != nil {
			return -1, err
		}
		if done {
			count++
			coinsInfo = append(coinsInfo, c.Info())
		}
	}

	if count > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinAdded,
			Coins:     coinsInfo,
		})
	}

	return count, nil
}

// updateCoins applies the given change to every stored coin with the given
// ids, persists those actually modified and publishes a single event for all
// of them.
func (r *coinRepository) updateCoins(
	ctx context.Context, ids []string, eventType domain.CoinEventType,
	changeFn func(c *domain.Coin) (bool, error),
) (int, error) {
	count := 0
	coinsInfo := make([]domain.CoinInfo, 0)
	for _, id := range ids {
		c, err := r.getCoin(ctx, id)
		if err != nil {
			return -1, err
		}
		if c == nil {
			continue
		}

		done, err := changeFn(c)
		if err != nil {
			return -1, err
		}
		if !done {
			continue
		}
		if err := r.updateCoin(ctx, c); err != nil {
			return -1, err
		}

		count++
		coinsInfo = append(coinsInfo, c.Info())
	}

	if count > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: eventType,
			Coins:     coinsInfo,
		})
	}

	return count, nil
}

func (r *coinRepository) getCoin(
	ctx context.Context, id string,
) (*domain.Coin, error) {
	var c domain.Coin
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxGet(tx, id, &c)
	} else {
		err = r.store.Get(id, &c)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *coinRepository) findCoins(
	ctx context.Context, query *badgerhold.Query,
) ([]*domain.Coin, error) {
	var list []domain.Coin
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxFind(tx, &list, query)
	} else {
		err = r.store.Find(&list, query)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	coins := make([]*domain.Coin, 0, len(list))
	for i := range list {
		coins = append(coins, &list[i])
	}
	sort.SliceStable(coins, func(i, j int) bool {
		return coins[i].ID < coins[j].ID
	})
	return coins, nil
}

func (r *coinRepository) updateCoin(
	ctx context.Context, c *domain.Coin,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.store.TxUpdate(tx, c.ID, *c)
	}
	return r.store.Update(c.ID, *c)
}

func (r *coinRepository) insertCoin(
	ctx context.Context, c *domain.Coin,
) (bool, error) {
	cc := *c
	if owner, err := coin.NormalizeAddress(cc.Owner); err == nil {
		cc.Owner = owner
	}

	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxInsert(tx, cc.ID, cc)
	} else {
		err = r.store.Insert(cc.ID, cc)
	}
	if err != nil {
		if err == badgerhold.ErrKeyExists {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *coinRepository) deleteCoin(ctx context.Context, id string) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.store.TxDelete(tx, id, domain.Coin{})
	}
	return r.store.Delete(id, domain.Coin{})
}

func (r *coinRepository) publishEvent(event domain.CoinEvent) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.log("publish event %s", event.EventType)
	r.chEvents <- event

	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *coinRepository) reset() {
	r.store.Badger().DropAll()
}

func (r *coinRepository) close() {
	r.store.Close()
	close(r.chEvents)
	close(r.externalChEvents)
}
