package appconfig

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinpay/internal/config"
	"github.com/vulpemventures/coinpay/internal/core/application"
	"github.com/vulpemventures/coinpay/internal/core/ports"
	jsonrpc_ledger "github.com/vulpemventures/coinpay/internal/infrastructure/ledger-client/jsonrpc"
	dbbadger "github.com/vulpemventures/coinpay/internal/infrastructure/storage/db/badger"
	"github.com/vulpemventures/coinpay/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/vulpemventures/coinpay/internal/infrastructure/storage/db/postgres"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

// AppConfig is the struct holding all configuration options for
// every application service (coin, payment and notification).
// This data structure acts also as a factory of the mentioned application
// services and the portable services used by them.
// Public config args:
//   - NativeAssetType - (required) The asset type used to pay for gas.
//   - CoinExpiryDuration - (required) The duration for the app service to wait until unlocking one or more previously locked coins.
//   - RepoManagerType - (required) One of the supported repository manager types.
//   - RepoManagerConfig - (optional) Custom config args for the repository manager based on its type.
//   - LedgerClientConfig - (required) Config args for the ledger client.
type AppConfig struct {
	Version string
	Commit  string
	Date    string

	NativeAssetType    coin.AssetType
	CoinExpiryDuration time.Duration

	RepoManagerType    string
	RepoManagerConfig  interface{}
	LedgerClientConfig jsonrpc_ledger.ServiceArgs

	rm            ports.RepoManager
	lc            ports.LedgerClient
	selectionLock *sync.Mutex
	coinSvc       *application.CoinService
	paymentSvc    *application.PaymentService
	notifySvc     *application.NotificationService
}

func (c *AppConfig) Validate() error {
	if c.NativeAssetType.IsZero() {
		return fmt.Errorf("missing native asset type")
	}
	if c.CoinExpiryDuration == 0 {
		return fmt.Errorf("missing coin expiry duration")
	}
	if len(c.RepoManagerType) == 0 {
		return fmt.Errorf("missing repo manager type")
	}
	if _, ok := config.SupportedDbs[c.RepoManagerType]; !ok {
		return fmt.Errorf(
			"repo manager type not supported, must be one of: %s",
			config.SupportedDbs,
		)
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.ledgerClient(); err != nil {
		return err
	}
	if _, err := c.paymentService(); err != nil {
		return err
	}

	return nil
}

func (c *AppConfig) BuildInfo() BuildInfo {
	version := "dev"
	if c.Version != "" {
		version = c.Version
	}
	commit := "none"
	if c.Commit != "" {
		commit = c.Commit
	}
	date := "unknown"
	if c.Date != "" {
		date = c.Date
	}
	return BuildInfo{version, commit, date}
}

func (c *AppConfig) RepoManager() ports.RepoManager {
	return c.rm
}

func (c *AppConfig) LedgerClient() ports.LedgerClient {
	return c.lc
}

func (c *AppConfig) CoinService() *application.CoinService {
	return c.coinService()
}

func (c *AppConfig) PaymentService() *application.PaymentService {
	svc, _ := c.paymentService()
	return svc
}

func (c *AppConfig) NotificationService() *application.NotificationService {
	return c.notificationService()
}

func (c *AppConfig) repoManager() (ports.RepoManager, error) {
	if c.rm != nil {
		return c.rm, nil
	}

	switch c.RepoManagerType {
	case "inmemory":
		c.rm = inmemory.NewRepoManager()
		return c.rm, nil
	case "badger":
		if c.RepoManagerConfig == nil {
			return nil, fmt.Errorf("missing repo manager config args")
		}
		datadir, ok := c.RepoManagerConfig.(string)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be string")
		}
		rm, err := dbbadger.NewRepoManager(datadir, log.New())
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	case "postgres":
		dbConfig, ok := c.RepoManagerConfig.(postgresdb.DbConfig)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be postgresdb.DbConfig")
		}

		rm, err := postgresdb.NewRepoManager(dbConfig)
		if err != nil {
			return nil, err
		}

		c.rm = rm
		return c.rm, nil
	default:
		return nil, fmt.Errorf("unknown repo manager type")
	}
}

func (c *AppConfig) ledgerClient() (ports.LedgerClient, error) {
	if c.lc != nil {
		return c.lc, nil
	}

	lc, err := jsonrpc_ledger.NewService(c.LedgerClientConfig)
	if err != nil {
		return nil, err
	}
	c.lc = lc
	return c.lc, nil
}

func (c *AppConfig) coinService() *application.CoinService {
	if c.coinSvc != nil {
		return c.coinSvc
	}

	rm, _ := c.repoManager()
	lc, _ := c.ledgerClient()
	c.coinSvc = application.NewCoinService(rm, lc, c.coinSelectionLock())
	return c.coinSvc
}

func (c *AppConfig) paymentService() (*application.PaymentService, error) {
	if c.paymentSvc != nil {
		return c.paymentSvc, nil
	}

	rm, _ := c.repoManager()
	svc, err := application.NewPaymentService(
		rm, c.NativeAssetType, c.CoinExpiryDuration, c.coinSelectionLock(),
	)
	if err != nil {
		return nil, err
	}
	c.paymentSvc = svc
	return c.paymentSvc, nil
}

// coinSelectionLock is shared by the coin and payment services so that a
// rescan never interleaves with the selection and locking of coins.
func (c *AppConfig) coinSelectionLock() *sync.Mutex {
	if c.selectionLock == nil {
		c.selectionLock = &sync.Mutex{}
	}
	return c.selectionLock
}

func (c *AppConfig) notificationService() *application.NotificationService {
	if c.notifySvc != nil {
		return c.notifySvc
	}

	rm, _ := c.repoManager()
	c.notifySvc = application.NewNotificationService(rm)
	return c.notifySvc
}

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}
