package db_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/core/ports"
	postgresdb "github.com/vulpemventures/coinpay/internal/infrastructure/storage/db/postgres"
)

// PgDbTestSuite runs the coin repository tests against a live postgres
// instance, like the one started with:
//
//	docker run -d -p 5432:5432 -e POSTGRES_USER=root -e POSTGRES_PASSWORD=secret \
//	  -e POSTGRES_DB=coinpayd-db-test postgres:16
type PgDbTestSuite struct {
	suite.Suite
	repoManager ports.RepoManager
}

func TestPgDb(t *testing.T) {
	if os.Getenv("COINPAY_TEST_PG") == "" {
		t.Skip("set COINPAY_TEST_PG to run tests against postgres")
	}
	suite.Run(t, new(PgDbTestSuite))
}

func (p *PgDbTestSuite) SetupSuite() {
	rm, err := postgresdb.NewRepoManager(postgresdb.DbConfig{
		DbUser:             "root",
		DbPassword:         "secret",
		DbHost:             "127.0.0.1",
		DbPort:             5432,
		DbName:             "coinpayd-db-test",
		MigrationSourceURL: "file://../postgres/migration",
	})
	if err != nil {
		p.FailNow(err.Error())
	}

	for _, eventType := range []domain.CoinEventType{
		domain.CoinAdded, domain.CoinLocked, domain.CoinUnlocked, domain.CoinSpent,
	} {
		rm.RegisterHandlerForCoinEvent(eventType, func(event domain.CoinEvent) {
			p.T().Logf("received event from postgres repo: %+v\n", event)
		})
	}
	p.repoManager = rm
}

func (p *PgDbTestSuite) TearDownSuite() {
	p.repoManager.Reset()
	p.repoManager.Close()
}

func (p *PgDbTestSuite) BeforeTest(suiteName, testName string) {
	p.repoManager.Reset()
}

func (p *PgDbTestSuite) TestCoinRepository() {
	testCoinRepository(p.T(), p.repoManager.CoinRepository())
}
