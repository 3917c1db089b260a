package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/envutil"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(logg *logger.Logger) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	postgresHost := envutil.GetEnv("POSTGRES_HOST", "localhost")
	postgresPort := envutil.GetEnv("POSTGRES_PORT", "5432")
	postgresUser := envutil.GetEnv("POSTGRES_USER", "postgres")
	postgresPassword := envutil.GetEnv("POSTGRES_PASSWORD", "")
	postgresName := envutil.GetEnv("POSTGRES_NAME", "casepulse")

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser,
		postgresPassword,
		postgresHost,
		postgresPort,
		postgresName,
	)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}

// AutoMigrateAll migrates every model the pipeline persists. Shared with the
// test helpers so integration tests see the same schema.
func AutoMigrateAll(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&types.Case{},
		&types.CaseEntry{},
		&types.CaseDocument{},
		&types.Party{},
		&types.PartyAttorney{},
		&types.CaseClaim{},
		&types.OriginatingCourtInfo{},
		&types.CaseReportFile{},
		&types.ReferenceCase{},
		&types.ProcessingQueueItem{},
		&types.FetchQueueItem{},
		&types.WorkTask{},
	)
}
