package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"profile-qa/internal/config"
	"profile-qa/internal/models"
)

type QARecord struct {
	bun.BaseModel `bun:"table:qa_records,alias:r"`
	ID            int64     `bun:"id,pk,autoincrement"`
	RequestID     string    `bun:"request_id,notnull"`
	Username      string    `bun:"username,notnull"`
	Question      string    `bun:"question,notnull"`
	Answer        string    `bun:"answer,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(debug)))
	return db
}

// ConnectDB opens the database with the configured driver: pgdriver or lib/pq.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case "pq":
		return sql.Open("postgres", cfg.URL)
	case "pgdriver", "":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.URL))), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*QARecord)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Store appends question/answer records to postgres.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) StoreRecord(ctx context.Context, rec models.Record) error {
	row := &QARecord{
		RequestID: rec.RequestID,
		Username:  rec.Username,
		Question:  rec.Question,
		Answer:    rec.Answer,
		CreatedAt: rec.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert qa record: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
