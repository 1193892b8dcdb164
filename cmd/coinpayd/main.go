package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	appconfig "github.com/vulpemventures/coinpay/internal/app-config"
	"github.com/vulpemventures/coinpay/internal/config"
	jsonrpc_ledger "github.com/vulpemventures/coinpay/internal/infrastructure/ledger-client/jsonrpc"
	postgresdb "github.com/vulpemventures/coinpay/internal/infrastructure/storage/db/postgres"
	"github.com/vulpemventures/coinpay/internal/interfaces"
	grpc_interface "github.com/vulpemventures/coinpay/internal/interfaces/grpc"
	"github.com/vulpemventures/coinpay/pkg/profiler"
)

var (
	// Build info.
	version string
	commit  string
	date    string

	// Config from env vars.
	dbType             = config.GetString(config.DatabaseTypeKey)
	logLevel           = config.GetInt(config.LogLevelKey)
	datadir            = config.GetDatadir()
	port               = config.GetInt(config.PortKey)
	profilerPort       = config.GetInt(config.ProfilerPortKey)
	noTLS              = config.GetBool(config.NoTLSKey)
	noProfiler         = config.GetBool(config.NoProfilerKey)
	dbDir              = filepath.Join(datadir, config.DbLocation)
	tlsDir             = filepath.Join(datadir, config.TLSLocation)
	profilerDir        = filepath.Join(datadir, config.ProfilerLocation)
	tlsExtraIPs        = config.GetStringSlice(config.TLSExtraIPKey)
	tlsExtraDomains    = config.GetStringSlice(config.TLSExtraDomainKey)
	statsInterval      = time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
	coinExpiryDuration = time.Duration(config.GetInt(config.CoinExpiryDurationKey))
	ledgerUrl          = config.GetLedgerUrl()
	ledgerPageSize     = config.GetInt(config.LedgerPageSizeKey)
	ledgerTLSInsecure  = config.GetBool(config.LedgerTLSInsecureKey)
	nativeAssetType    = config.GetNativeAssetType()
)

func main() {
	log.SetLevel(log.Level(logLevel))

	if profilerEnabled := !noProfiler; profilerEnabled {
		profilerSvc, err := profiler.NewService(profiler.ServiceOpts{
			Port:          profilerPort,
			StatsInterval: statsInterval,
			Datadir:       profilerDir,
		})
		if err != nil {
			log.WithError(err).Fatal("profiler: error while starting")
		}

		profilerSvc.Start()
		defer func() {
			profilerSvc.Stop()
		}()
	}

	var repoManagerConfig interface{} = dbDir
	if dbType == "postgres" {
		repoManagerConfig = postgresdb.DbConfig{
			DbUser:             config.GetString(config.DbUserKey),
			DbPassword:         config.GetString(config.DbPassKey),
			DbHost:             config.GetString(config.DbHostKey),
			DbPort:             config.GetInt(config.DbPortKey),
			DbName:             config.GetString(config.DbNameKey),
			MigrationSourceURL: config.GetString(config.DbMigrationPath),
		}
	}

	serviceCfg := grpc_interface.ServiceConfig{
		Port:         port,
		NoTLS:        noTLS,
		TLSLocation:  tlsDir,
		ExtraIPs:     tlsExtraIPs,
		ExtraDomains: tlsExtraDomains,
	}
	appCfg := &appconfig.AppConfig{
		Version:            version,
		Commit:             commit,
		Date:               date,
		NativeAssetType:    nativeAssetType,
		CoinExpiryDuration: coinExpiryDuration * time.Second,
		RepoManagerType:    dbType,
		RepoManagerConfig:  repoManagerConfig,
		LedgerClientConfig: jsonrpc_ledger.ServiceArgs{
			Addr:        ledgerUrl,
			PageSize:    ledgerPageSize,
			TLSInsecure: ledgerTLSInsecure,
		},
	}

	if ledgerTLSInsecure {
		log.Warn("ledger node certificate verification is disabled")
	}

	buildInfo := appCfg.BuildInfo()
	log.Infof(
		"coinpayd version %s, commit %s, date %s",
		buildInfo.Version, buildInfo.Commit, buildInfo.Date,
	)

	serviceManager, err := interfaces.NewGrpcServiceManager(serviceCfg, appCfg)
	if err != nil {
		log.WithError(err).Fatal("service: error while initializing")
	}

	if err := serviceManager.Service.Start(); err != nil {
		log.WithError(err).Fatal("service: error while starting")
	}
	defer func() {
		serviceManager.Service.Stop()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
}
