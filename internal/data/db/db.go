package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	// pure-Go sqlite driver registered as "sqlite"
	_ "modernc.org/sqlite"

	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
	// Silent disables GORM's own logging (tests).
	Silent bool
}

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

// gormWriter routes GORM's slow-query and error lines through zap.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.SugaredLogger.Warnf(format, args...)
}

func Open(opts Options, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService")

	level := gormLogger.Warn
	if opts.Silent {
		level = gormLogger.Silent
	}
	gormLog := gormLogger.New(
		gormWriter{log: serviceLog},
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormLog,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	var (
		gdb *gorm.DB
		err error
	)
	switch driver {
	case DriverPostgres, "":
		driver = DriverPostgres
		if strings.TrimSpace(opts.DatabaseURL) == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		gdb, err = gorm.Open(postgres.Open(opts.DatabaseURL), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	case DriverSQLite:
		gdb, err = gorm.Open(sqlite.New(sqlite.Config{
			DriverName: "sqlite",
			DSN:        SQLiteDSN(opts.SQLitePath),
		}), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// single writer; every statement inside a transaction must use the tx handle
		sqlDB.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", opts.Driver)
	}

	serviceLog.Info("database connected", "driver", driver)
	return &Service{db: gdb, log: serviceLog, driver: driver}, nil
}

// SQLiteDSN turns a path (or ":memory:") into a modernc DSN with the pragmas we rely on.
func SQLiteDSN(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == ":memory:" {
		path = "file:eigo?mode=memory&cache=shared"
	} else if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Driver() string { return s.driver }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Service) Migrate() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureOrderIndexes(s.db); err != nil {
		s.log.Error("Order index migration failed", "error", err)
		return err
	}
	return nil
}
