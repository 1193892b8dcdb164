package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

const (
	// DatadirKey is the key to customize the coinpay datadir.
	DatadirKey = "DATADIR"
	// DatabaseTypeKey is the key to customize the type of database to use.
	DatabaseTypeKey = "DATABASE_TYPE"
	// PortKey is the key to customize the port where the daemon will be
	// listening to.
	PortKey = "PORT"
	// ProfilerPortKey is the key to customize the port where the profiler will
	// be listening to.
	ProfilerPortKey = "PROFILER_PORT"
	// NetworkKey is the key to customize the ledger network.
	NetworkKey = "NETWORK"
	// LedgerUrlKey is the key to set the JSON-RPC endpoint (http(s) or ws(s))
	// of the full node to connect to. Defaults to the public node of the
	// selected network.
	LedgerUrlKey = "LEDGER_URL"
	// LedgerPageSizeKey is the key to customize the max number of coins fetched
	// per request from the full node.
	LedgerPageSizeKey = "LEDGER_PAGE_SIZE"
	// LedgerTLSInsecureKey is the key to skip the verification of the
	// certificate of the full node, like a local one with a self-signed cert.
	LedgerTLSInsecureKey = "LEDGER_TLS_INSECURE"
	// NativeAssetTypeKey is the key to customize the asset type used to pay
	// for gas. Should be used only for testing purposes.
	NativeAssetTypeKey = "NATIVE_ASSET_TYPE"
	// LogLevelKey is the key to customize the log level to catch more specific
	// or more high level logs.
	LogLevelKey = "LOG_LEVEL"
	// TLSExtraIPKey is the key to bind one or more public IPs to the TLS key pair.
	// Should be used only when enabling TLS.
	TLSExtraIPKey = "TLS_EXTRA_IP"
	// TLSExtraDomainKey is the key to bind one or more public dns domains to the
	// TLS key pair. Should be used only when enabling TLS.
	TLSExtraDomainKey = "TLS_EXTRA_DOMAIN"
	// NoTLSKey is the key to disable TLS encryption.
	NoTLSKey = "NO_TLS"
	// NoProfilerKey is the key to disable Prometheus profiling.
	NoProfilerKey = "NO_PROFILER"
	// StatsIntervalKey is the key to customize the interval for the profiler to
	// gather profiling stats.
	StatsIntervalKey = "STATS_INTERVAL"
	// CoinExpiryDurationKey is the key to customize the waiting time for one or
	// more previously locked coins to be unlocked if not yet spent.
	CoinExpiryDurationKey = "COIN_EXPIRY_DURATION_IN_SECONDS"

	// DbLocation is the folder inside the datadir containing db files.
	DbLocation = "db"
	// TLSLocation is the folder inside the datadir containing TLS key and
	// certificate.
	TLSLocation = "tls"
	// ProfilerLocation is the folder inside the datadir containing profiler
	// stats files.
	ProfilerLocation = "stats"
	// DbUserKey is user used to connect to db
	DbUserKey = "DB_USER"
	// DbPassKey is password used to connect to db
	DbPassKey = "DB_PASS"
	// DbHostKey is host where db is installed
	DbHostKey = "DB_HOST"
	// DbPortKey is port on which db is listening
	DbPortKey = "DB_PORT"
	// DbNameKey is name of database
	DbNameKey = "DB_NAME"
	// DbMigrationPath is the path to migration files
	DbMigrationPath = "DB_MIGRATION_PATH"
)

var (
	vip *viper.Viper

	defaultDatadir            = btcutil.AppDataDir("coinpayd", false)
	defaultDbType             = "badger"
	defaultPort               = 18000
	defaultLogLevel           = 4
	defaultNetwork            = "mainnet"
	defaultProfilerPort       = 18001
	defaultStatsInterval      = 600 // 10 minutes
	defaultCoinExpiryDuration = 120 // 2 minutes
	defaultLedgerPageSize     = 50

	ledgerUrlByNetwork = map[string]string{
		"mainnet":  "https://fullnode.mainnet.sui.io:443",
		"testnet":  "https://fullnode.testnet.sui.io:443",
		"devnet":   "https://fullnode.devnet.sui.io:443",
		"localnet": "http://127.0.0.1:9000",
	}
	SupportedDbs = supportedType{
		"badger":   {},
		"inmemory": {},
		"postgres": {},
	}
)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("COINPAY")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DatabaseTypeKey, defaultDbType)
	vip.SetDefault(PortKey, defaultPort)
	vip.SetDefault(NetworkKey, defaultNetwork)
	vip.SetDefault(LogLevelKey, defaultLogLevel)
	vip.SetDefault(NoTLSKey, false)
	vip.SetDefault(NoProfilerKey, false)
	vip.SetDefault(ProfilerPortKey, defaultProfilerPort)
	vip.SetDefault(StatsIntervalKey, defaultStatsInterval)
	vip.SetDefault(CoinExpiryDurationKey, defaultCoinExpiryDuration)
	vip.SetDefault(LedgerPageSizeKey, defaultLedgerPageSize)
	vip.SetDefault(LedgerTLSInsecureKey, false)
	vip.SetDefault(NativeAssetTypeKey, coin.NativeAssetTypeArg)
	vip.SetDefault(DbUserKey, "root")
	vip.SetDefault(DbPassKey, "secret")
	vip.SetDefault(DbHostKey, "127.0.0.1")
	vip.SetDefault(DbPortKey, 5432)
	vip.SetDefault(DbNameKey, "coinpayd-db-pg")
	vip.SetDefault(DbMigrationPath, "file://internal/infrastructure/storage/db/postgres/migration")

	if err := validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	if err := initDatadir(); err != nil {
		log.Fatalf("config: error while creating datadir: %s", err)
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	net := GetString(NetworkKey)
	if len(net) == 0 {
		return fmt.Errorf("network must not be null")
	}
	if _, ok := ledgerUrlByNetwork[net]; !ok {
		nets := make([]string, 0, len(ledgerUrlByNetwork))
		for net := range ledgerUrlByNetwork {
			nets = append(nets, net)
		}
		return fmt.Errorf("unknown network, must be one of: %v", nets)
	}

	if _, err := coin.ParseAssetType(GetString(NativeAssetTypeKey)); err != nil {
		return fmt.Errorf("invalid native asset type: %s", err)
	}

	dbType := GetString(DatabaseTypeKey)
	if _, ok := SupportedDbs[dbType]; !ok {
		return fmt.Errorf("unsupported database type, must be one of %s", SupportedDbs)
	}

	if GetInt(CoinExpiryDurationKey) <= 0 {
		return fmt.Errorf("coin expiry duration must be greater than zero")
	}
	if GetInt(LedgerPageSizeKey) <= 0 {
		return fmt.Errorf("ledger page size must be greater than zero")
	}

	port := GetInt(PortKey)
	noProfiler := GetBool(NoProfilerKey)
	if !noProfiler {
		profilerPort := GetInt(ProfilerPortKey)
		if port == profilerPort {
			return fmt.Errorf("port and profiler port must not be equal")
		}
	}

	return nil
}

func GetDatadir() string {
	return filepath.Join(GetString(DatadirKey), GetString(NetworkKey))
}

func GetLedgerUrl() string {
	if url := GetString(LedgerUrlKey); url != "" {
		return url
	}
	return ledgerUrlByNetwork[GetString(NetworkKey)]
}

func GetNativeAssetType() coin.AssetType {
	return coin.MustParseAssetType(GetString(NativeAssetTypeKey))
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func Set(key string, val interface{}) {
	vip.Set(key, val)
}

func Unset(key string) {
	vip.Set(key, nil)
}

func IsSet(key string) bool {
	return vip.IsSet(key)
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}

	noProfiler := GetBool(NoProfilerKey)
	if !noProfiler {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}

	noTls := GetBool(NoTLSKey)
	if noTls {
		return nil
	}
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, TLSLocation)); err != nil {
		return err
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}
