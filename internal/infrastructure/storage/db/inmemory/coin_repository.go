package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

type coinInmemoryStore struct {
	coinsByOwner map[string][]string
	coins        map[string]*domain.Coin
	lock         *sync.RWMutex
}

type coinRepository struct {
	store            *coinInmemoryStore
	chEvents         chan domain.CoinEvent
	externalChEvents chan domain.CoinEvent
	chLock           *sync.Mutex
}

func NewCoinRepository() domain.CoinRepository {
	return newCoinRepository()
}

func newCoinRepository() *coinRepository {
	return &coinRepository{
		store: &coinInmemoryStore{
			coinsByOwner: make(map[string][]string),
			coins:        make(map[string]*domain.Coin),
			lock:         &sync.RWMutex{},
		},
		chEvents:         make(chan domain.CoinEvent),
		externalChEvents: make(chan domain.CoinEvent),
		chLock:           &sync.Mutex{},
	}
}

func (r *coinRepository) AddCoins(
	_ context.Context, coins []*domain.Coin,
) (int, error) {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	return r.addCoins(coins)
}

func (r *coinRepository) GetCoinsByID(
	_ context.Context, ids []string,
) ([]*domain.Coin, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	coins := make([]*domain.Coin, 0, len(ids))
	for _, id := range ids {
		c, ok := r.store.coins[id]
		if !ok {
			continue
		}
		coins = append(coins, copyCoin(c))
	}

	return coins, nil
}

func (r *coinRepository) GetAllCoins(_ context.Context) ([]*domain.Coin, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	coins := make([]*domain.Coin, 0, len(r.store.coins))
	for _, c := range r.store.coins {
		coins = append(coins, copyCoin(c))
	}
	sortByID(coins)
	return coins, nil
}

func (r *coinRepository) GetCoinsForOwner(
	_ context.Context, owner string,
) ([]*domain.Coin, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	return r.getCoinsForOwner(owner, false, false), nil
}

func (r *coinRepository) GetSpendableCoinsForOwner(
	_ context.Context, owner string,
) ([]*domain.Coin, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	return r.getCoinsForOwner(owner, true, false), nil
}

func (r *coinRepository) GetLockedCoinsForOwner(
	_ context.Context, owner string,
) ([]*domain.Coin, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	return r.getCoinsForOwner(owner, false, true), nil
}

func (r *coinRepository) GetBalanceForOwner(
	_ context.Context, owner string,
) (map[string]*domain.Balance, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	coins := r.getCoinsForOwner(owner, false, false)
	return domain.BalanceOf(coins), nil
}

func (r *coinRepository) LockCoins(
	_ context.Context, ids []string, timestamp, expiryTimestamp int64,
) (int, error) {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	return r.lockCoins(ids, timestamp, expiryTimestamp)
}

func (r *coinRepository) UnlockCoins(
	_ context.Context, ids []string,
) (int, error) {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	return r.unlockCoins(ids)
}

func (r *coinRepository) SpendCoins(
	_ context.Context, ids []string, status domain.CoinStatus,
) (int, error) {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	return r.spendCoins(ids, status)
}

func (r *coinRepository) UpdateCoins(
	_ context.Context, coins []*domain.Coin,
) (int, error) {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	return r.updateCoins(coins)
}

func (r *coinRepository) DeleteCoinsForOwner(
	_ context.Context, owner string,
) error {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	owner, err := coin.NormalizeAddress(owner)
	if err != nil {
		return nil
	}

	ids, ok := r.store.coinsByOwner[owner]
	if !ok {
		return nil
	}
	for _, id := range ids {
		delete(r.store.coins, id)
	}
	delete(r.store.coinsByOwner, owner)
	return nil
}

func (r *coinRepository) GetEventChannel() chan domain.CoinEvent {
	return r.externalChEvents
}

func (r *coinRepository) addCoins(coins []*domain.Coin) (int, error) {
	count := 0
	coinsInfo := make([]domain.CoinInfo, 0, len(coins))
	for _, c := range coins {
		if _, ok := r.store.coins[c.ID]; ok {
			continue
		}
		c := copyCoin(c)
		if owner, err := coin.NormalizeAddress(c.Owner); err == nil {
			c.Owner = owner
		}
		r.store.coins[c.ID] = c
		r.store.coinsByOwner[c.Owner] = append(r.store.coinsByOwner[c.Owner], c.ID)
		coinsInfo = append(coinsInfo, c.Info())
		count++
	}

	if count > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinAdded,
			Coins:     coinsInfo,
		})
	}

	return count, nil
}

func (r *coinRepository) getCoinsForOwner(
	owner string, spendableOnly, lockedOnly bool,
) []*domain.Coin {
	owner, err := coin.NormalizeAddress(owner)
	if err != nil {
		return nil
	}

	ids := r.store.coinsByOwner[owner]
	if len(ids) == 0 {
		return nil
	}

	coins := make([]*domain.Coin, 0, len(ids))
	for _, id := range ids {
		c := r.store.coins[id]

		if spendableOnly {
			if c.IsSpendable() {
				coins = append(coins, copyCoin(c))
			}
			continue
		}

		if lockedOnly {
			if c.IsLocked() {
				coins = append(coins, copyCoin(c))
			}
			continue
		}
		coins = append(coins, copyCoin(c))
	}
	sortByID(coins)
	return coins
}

func (r *coinRepository) spendCoins(
	ids []string, status domain.CoinStatus,
) (int, error) {
	count := 0
	coinsInfo := make([]domain.CoinInfo, 0, len(ids))
	for _, id := range ids {
		c, ok := r.store.coins[id]
		if !ok {
			continue
		}

		if c.IsSpent() {
			continue
		}

		if err := c.Spend(status); err != nil {
			return -1, err
		}

		coinsInfo = append(coinsInfo, c.Info())
		count++
	}

	if count > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinSpent,
			Coins:     coinsInfo,
		})
	}

	return count, nil
}

func (r *coinRepository) lockCoins(
	ids []string, timestamp, expiryTimestamp int64,
) (int, error) {
	count := 0
	coinsInfo := make([]domain.CoinInfo, 0, len(ids))
	for _, id := range ids {
		c, ok := r.store.coins[id]
		if !ok {
			continue
		}

		if c.IsLocked() || c.IsSpent() {
			continue
		}

		if err := c.Lock(timestamp, expiryTimestamp); err != nil {
			return -1, err
		}
		coinsInfo = append(coinsInfo, c.Info())
		count++
	}

	if count > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinLocked,
			Coins:     coinsInfo,
		})
	}

	return count, nil
}

func (r *coinRepository) unlockCoins(ids []string) (int, error) {
	count := 0
	coinsInfo := make([]domain.CoinInfo, 0, len(ids))
	for _, id := range ids {
		c, ok := r.store.coins[id]
		if !ok {
			continue
		}

		if !c.IsLocked() {
			continue
		}

		c.Unlock(true)
		coinsInfo = append(coinsInfo, c.Info())
		count++
	}

	if count > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinUnlocked,
			Coins:     coinsInfo,
		})
	}

	return count, nil
}

func (r *coinRepository) updateCoins(coins []*domain.Coin) (int, error) {
	count := 0
	coinsInfo := make([]domain.CoinInfo, 0, len(coins))
	for _, lc := range coins {
		c, ok := r.store.coins[lc.ID]
		if !ok {
			continue
		}

		if !c.Refresh(lc.Version, lc.Digest, lc.Balance) {
			continue
		}
		coinsInfo = append(coinsInfo, c.Info())
		count++
	}

	if count > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: domain.CoinUpdated,
			Coins:     coinsInfo,
		})
	}

	return count, nil
}

func (r *coinRepository) publishEvent(event domain.CoinEvent) {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	r.chEvents <- event
	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *coinRepository) reset() {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	r.store.coins = make(map[string]*domain.Coin)
	r.store.coinsByOwner = make(map[string][]string)
}

func (r *coinRepository) close() {
	close(r.chEvents)
	close(r.externalChEvents)
}

// copyCoin prevents callers from mutating the stored coins.
func copyCoin(c *domain.Coin) *domain.Coin {
	cc := *c
	return &cc
}

func sortByID(coins []*domain.Coin) {
	sort.SliceStable(coins, func(i, j int) bool {
		return coins[i].ID < coins[j].ID
	})
}
