package postgresdb

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

const (
	uniqueViolation = "23505"
)

type coinRepositoryPg struct {
	pgxPool          *pgxpool.Pool
	chLock           *sync.Mutex
	chEvents         chan domain.CoinEvent
	externalChEvents chan domain.CoinEvent
}

func NewCoinRepositoryPgImpl(pgxPool *pgxpool.Pool) domain.CoinRepository {
	return newCoinRepositoryPgImpl(pgxPool)
}

func newCoinRepositoryPgImpl(pgxPool *pgxpool.Pool) *coinRepositoryPg {
	return &coinRepositoryPg{
		pgxPool:          pgxPool,
		chLock:           &sync.Mutex{},
		chEvents:         make(chan domain.CoinEvent),
		externalChEvents: make(chan domain.CoinEvent),
	}
}

func (r *coinRepositoryPg) AddCoins(
	ctx context.Context, coins []*domain.Coin,
) (int, error) {
	count := 0
	coinsInfo := make([]domain.CoinInfo, 0, len(coins))
	for _, c := range coins {
		owner := c.Owner
		if normalized, err := coin.NormalizeAddress(owner); err == nil {
			owner = normalized
		}

		if _, err := r.pgxPool.Exec(
			ctx, insertCoinQuery,
			c.ID, c.Type, c.Balance.String(), owner, c.Version, c.Digest,
			c.LockTimestamp, c.LockExpiryTimestamp,
			c.SpentStatus.TxDigest, c.SpentStatus.Timestamp,
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				continue
			}
			return 0, err
		}

		cc := *c
		cc.Owner = owner
		coinsInfo = append(coinsInfo, cc.Info())
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

func (r *coinRepositoryPg) GetCoinsByID(
	ctx context.Context, ids []string,
) ([]*domain.Coin, error) {
	coins := make([]*domain.Coin, 0, len(ids))
	for _, id := range ids {
		row := r.pgxPool.QueryRow(ctx, getCoinByIDQuery, id)
		c, err := scanCoin(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, err
		}
		coins = append(coins, c)
	}

	return coins, nil
}

func (r *coinRepositoryPg) GetAllCoins(
	ctx context.Context,
) ([]*domain.Coin, error) {
	return r.queryCoins(ctx, getAllCoinsQuery)
}

func (r *coinRepositoryPg) GetCoinsForOwner(
	ctx context.Context, owner string,
) ([]*domain.Coin, error) {
	return r.queryCoinsForOwner(ctx, getCoinsForOwnerQuery, owner)
}

func (r *coinRepositoryPg) GetSpendableCoinsForOwner(
	ctx context.Context, owner string,
) ([]*domain.Coin, error) {
	return r.queryCoinsForOwner(ctx, getSpendableCoinsForOwnerQuery, owner)
}

func (r *coinRepositoryPg) GetLockedCoinsForOwner(
	ctx context.Context, owner string,
) ([]*domain.Coin, error) {
	return r.queryCoinsForOwner(ctx, getLockedCoinsForOwnerQuery, owner)
}

func (r *coinRepositoryPg) GetBalanceForOwner(
	ctx context.Context, owner string,
) (map[string]*domain.Balance, error) {
	coins, err := r.GetCoinsForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	return domain.BalanceOf(coins), nil
}

func (r *coinRepositoryPg) LockCoins(
	ctx context.Context, ids []string, timestamp, expiryTimestamp int64,
) (int, error) {
	return r.updateCoins(
		ctx, ids, domain.CoinLocked, lockCoinQuery, timestamp, expiryTimestamp,
	)
}

func (r *coinRepositoryPg) UnlockCoins(
	ctx context.Context, ids []string,
) (int, error) {
	return r.updateCoins(ctx, ids, domain.CoinUnlocked, unlockCoinQuery)
}

func (r *coinRepositoryPg) SpendCoins(
	ctx context.Context, ids []string, status domain.CoinStatus,
) (int, error) {
	if status.TxDigest == "" {
		return -1, domain.ErrMissingTxDigest
	}
	if status.Timestamp == 0 {
		status.Timestamp = time.Now().Unix()
	}

	return r.updateCoins(
		ctx, ids, domain.CoinSpent, spendCoinQuery,
		status.TxDigest, status.Timestamp,
	)
}

func (r *coinRepositoryPg) UpdateCoins(
	ctx context.Context, coins []*domain.Coin,
) (int, error) {
	ids := make([]string, 0, len(coins))
	args := make([][]interface{}, 0, len(coins))
	for _, c := range coins {
		if c.Balance == nil {
			continue
		}
		ids = append(ids, c.ID)
		args = append(args, []interface{}{c.Version, c.Digest, c.Balance.String()})
	}

	return r.runUpdates(ctx, ids, domain.CoinUpdated, updateCoinQuery, args)
}

func (r *coinRepositoryPg) DeleteCoinsForOwner(
	ctx context.Context, owner string,
) error {
	owner, err := coin.NormalizeAddress(owner)
	if err != nil {
		return nil
	}

	_, err = r.pgxPool.Exec(ctx, deleteCoinsForOwnerQuery, owner)
	return err
}

func (r *coinRepositoryPg) GetEventChannel() chan domain.CoinEvent {
	return r.externalChEvents
}

// updateCoins runs the given conditional update, with the same args, for
// every coin id.
func (r *coinRepositoryPg) updateCoins(
	ctx context.Context, ids []string, eventType domain.CoinEventType,
	query string, args ...interface{},
) (int, error) {
	argsByCoin := make([][]interface{}, 0, len(ids))
	for range ids {
		argsByCoin = append(argsByCoin, args)
	}
	return r.runUpdates(ctx, ids, eventType, query, argsByCoin)
}

// runUpdates runs the given conditional update for every coin id, with its own
// args, within a single db transaction. Only the rows actually updated are
// counted and notified.
func (r *coinRepositoryPg) runUpdates(
	ctx context.Context, ids []string, eventType domain.CoinEventType,
	query string, argsByCoin [][]interface{},
) (int, error) {
	conn, err := r.pgxPool.Acquire(ctx)
	if err != nil {
		return -1, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return -1, err
	}
	// Rollback is a no-op if the tx has already been committed.
	defer tx.Rollback(ctx)

	coinsInfo := make([]domain.CoinInfo, 0, len(ids))
	for i, id := range ids {
		row := tx.QueryRow(ctx, query, append([]interface{}{id}, argsByCoin[i]...)...)
		c, err := scanCoin(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return -1, err
		}
		coinsInfo = append(coinsInfo, c.Info())
	}

	if err := tx.Commit(ctx); err != nil {
		return -1, err
	}

	if len(coinsInfo) > 0 {
		go r.publishEvent(domain.CoinEvent{
			EventType: eventType,
			Coins:     coinsInfo,
		})
	}

	return len(coinsInfo), nil
}

func (r *coinRepositoryPg) queryCoinsForOwner(
	ctx context.Context, query, owner string,
) ([]*domain.Coin, error) {
	owner, err := coin.NormalizeAddress(owner)
	if err != nil {
		return nil, nil
	}
	return r.queryCoins(ctx, query, owner)
}

func (r *coinRepositoryPg) queryCoins(
	ctx context.Context, query string, args ...interface{},
) ([]*domain.Coin, error) {
	rows, err := r.pgxPool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coins := make([]*domain.Coin, 0)
	for rows.Next() {
		c, err := scanCoin(rows)
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	return coins, rows.Err()
}

func (r *coinRepositoryPg) publishEvent(event domain.CoinEvent) {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	r.chEvents <- event
	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *coinRepositoryPg) reset() error {
	_, err := r.pgxPool.Exec(context.Background(), resetQuery)
	return err
}

func (r *coinRepositoryPg) close() {
	close(r.chEvents)
	close(r.externalChEvents)
}

func scanCoin(row pgx.Row) (*domain.Coin, error) {
	var (
		c       domain.Coin
		balance string
	)
	if err := row.Scan(
		&c.ID, &c.Type, &balance, &c.Owner, &c.Version, &c.Digest,
		&c.LockTimestamp, &c.LockExpiryTimestamp,
		&c.SpentStatus.TxDigest, &c.SpentStatus.Timestamp,
	); err != nil {
		return nil, err
	}

	amount, ok := new(big.Int).SetString(balance, 10)
	if !ok {
		return nil, fmt.Errorf("coin %s: invalid balance %s", c.ID, balance)
	}
	c.Balance = amount
	return &c, nil
}
