package jsonrpc_ledger

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/core/ports"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

const defaultPageSize = 50

type service struct {
	args   ServiceArgs
	client rpcClient
	lock   *sync.RWMutex

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

// ServiceArgs holds the config of the ledger client. TLSInsecure skips the
// verification of the node's certificate, it's meant for local nodes with a
// self-signed one.
type ServiceArgs struct {
	Addr        string
	PageSize    int
	TLSInsecure bool
}

func (a ServiceArgs) validate() error {
	if a.Addr == "" {
		return fmt.Errorf("missing endpoint")
	}
	if !a.withHTTP() && !a.withWS() {
		return fmt.Errorf("invalid address: unknown protocol")
	}
	if a.PageSize < 0 {
		return fmt.Errorf("page size must not be negative")
	}
	return nil
}

func (a ServiceArgs) withWS() bool {
	return strings.HasPrefix(a.Addr, "ws://") || strings.HasPrefix(a.Addr, "wss://")
}

func (a ServiceArgs) withHTTP() bool {
	return strings.HasPrefix(a.Addr, "http://") ||
		strings.HasPrefix(a.Addr, "https://")
}

func (a ServiceArgs) client() (rpcClient, error) {
	var tlsConfig *tls.Config
	if a.TLSInsecure {
		// #nosec
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if a.withWS() {
		return newWSClient(a.Addr, tlsConfig)
	}
	return newHTTPClient(a.Addr, tlsConfig)
}

func NewService(args ServiceArgs) (ports.LedgerClient, error) {
	if err := args.validate(); err != nil {
		return nil, fmt.Errorf("invalid args: %s", err)
	}
	if args.PageSize == 0 {
		args.PageSize = defaultPageSize
	}

	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("ledger client: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("ledger client: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	return &service{
		args: args,
		lock: &sync.RWMutex{},
		log:  logFn,
		warn: warnFn,
	}, nil
}

func (s *service) Start() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.client != nil {
		return nil
	}

	client, err := s.args.client()
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.args.Addr, err)
	}
	go client.listen()

	if _, err := client.call(context.Background(), methodGetChainId); err != nil {
		client.close()
		return fmt.Errorf("failed to connect to node at %s: %w", s.args.Addr, err)
	}

	s.client = client
	s.log("connected to node at %s", s.args.Addr)
	return nil
}

func (s *service) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.client == nil {
		return
	}
	s.client.close()
	s.client = nil
	s.log("disconnected from node")
}

func (s *service) GetCoins(
	ctx context.Context, owner string, assetType coin.AssetType,
) ([]*domain.Coin, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	coins := make([]*domain.Coin, 0)
	var cursor *string
	for {
		var (
			result json.RawMessage
			err    error
		)
		if assetType.IsZero() {
			result, err = client.call(
				ctx, methodGetAllCoins, owner, cursor, s.args.PageSize,
			)
		} else {
			result, err = client.call(
				ctx, methodGetCoins, owner, assetType.String(), cursor,
				s.args.PageSize,
			)
		}
		if err != nil {
			return nil, err
		}

		var page coinPage
		if err := json.Unmarshal(result, &page); err != nil {
			return nil, fmt.Errorf("failed to parse coin page: %w", err)
		}

		for _, obj := range page.Data {
			c, err := obj.toDomain(owner)
			if err != nil {
				s.warn(err, "skipping malformed coin %s", obj.CoinObjectId)
				continue
			}
			coins = append(coins, c)
		}

		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	s.log("fetched %d coin(s) for owner %s", len(coins), owner)
	return coins, nil
}

func (s *service) GetCoinMetadata(
	ctx context.Context, assetType coin.AssetType,
) (*coin.Metadata, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	result, err := client.call(ctx, methodGetCoinMetadata, assetType.String())
	if err != nil {
		return nil, err
	}

	if len(result) == 0 || string(result) == "null" {
		return nil, fmt.Errorf("metadata not found for asset %s", assetType)
	}

	var metadata *coin.Metadata
	if err := json.Unmarshal(result, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse coin metadata: %w", err)
	}
	if metadata == nil {
		return nil, fmt.Errorf("metadata not found for asset %s", assetType)
	}
	return metadata, nil
}

func (s *service) getClient() (rpcClient, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.client == nil {
		return nil, fmt.Errorf("ledger client not started")
	}
	return s.client, nil
}
