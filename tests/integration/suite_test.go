package integration

import (
	"context"
	"os"

	"github.com/stretchr/testify/suite"

	"github.com/udisondev/seabattle/internal/db"
)

// IntegrationSuite — общая база для конкретных suites (DatabaseSuite,
// GameServerSuite): подключение к PostgreSQL и очистка между тестами.
// Контейнер поднимается один раз в TestMain, каждый suite получает
// собственную schema через acquireSchema.
type IntegrationSuite struct {
	suite.Suite

	db  *db.DB
	ctx context.Context
}

func (s *IntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	// SEABATTLE_TEST_DSN позволяет гонять тесты против внешней базы
	// (CI без Docker-in-Docker). Иначе — schema в общем контейнере.
	dsn := os.Getenv("SEABATTLE_TEST_DSN")
	if dsn == "" {
		dsn = acquireSchema(s.T())
	}

	s.Require().NoError(db.RunMigrations(s.ctx, dsn), "migrations failed")

	database, err := db.New(s.ctx, dsn)
	s.Require().NoError(err, "database connection failed")
	s.db = database
}

// SetupTest чистит таблицы, чтобы тесты не видели данных друг друга.
func (s *IntegrationSuite) SetupTest() {
	_, err := s.db.Pool().Exec(s.ctx, "TRUNCATE TABLE accounts, match_history CASCADE")
	s.Require().NoError(err, "truncate failed")
}

func (s *IntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	// schema удаляется через t.Cleanup в acquireSchema, контейнер — в TestMain
}
