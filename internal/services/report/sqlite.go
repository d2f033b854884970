package report

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/vadiminshakov/momentum/internal/domain"
)

// SQLiteSink stores report rows in the trading_reports table.
type SQLiteSink struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteSink opens (or creates) the database and runs migrations.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return s, nil
}

func (s *SQLiteSink) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trading_reports (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			date      TEXT NOT NULL,
			symbol    TEXT NOT NULL,
			short_ema TEXT NOT NULL,
			long_ema  TEXT NOT NULL,
			rsi       TEXT NOT NULL,
			side      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trading_reports_ts ON trading_reports(timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Write inserts one record.
func (s *SQLiteSink) Write(ctx context.Context, record domain.ReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trading_reports (timestamp, date, symbol, short_ema, long_ema, rsi, side)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Date.UnixMilli(),
		formatDate(record.Date),
		record.Symbol,
		record.ShortEMA.String(),
		record.LongEMA.String(),
		record.RSI.String(),
		record.Side.String(),
	)
	return errors.Wrap(err, "insert trading report")
}

// Records returns stored rows, oldest first.
func (s *SQLiteSink) Records(ctx context.Context) ([]domain.ReportRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, symbol, short_ema, long_ema, rsi, side FROM trading_reports ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "query trading reports")
	}
	defer rows.Close()

	var records []domain.ReportRecord
	for rows.Next() {
		var (
			ts                    int64
			symbol, side          string
			shortEMA, longEMA, rs string
		)
		if err := rows.Scan(&ts, &symbol, &shortEMA, &longEMA, &rs, &side); err != nil {
			return nil, errors.Wrap(err, "scan trading report")
		}

		record := domain.ReportRecord{
			Date:   time.UnixMilli(ts).UTC(),
			Symbol: symbol,
			Side:   domain.Side(side),
		}
		if record.ShortEMA, err = decimal.NewFromString(shortEMA); err != nil {
			return nil, errors.Wrap(err, "parse short_ema")
		}
		if record.LongEMA, err = decimal.NewFromString(longEMA); err != nil {
			return nil, errors.Wrap(err, "parse long_ema")
		}
		if record.RSI, err = decimal.NewFromString(rs); err != nil {
			return nil, errors.Wrap(err, "parse rsi")
		}
		records = append(records, record)
	}

	return records, errors.Wrap(rows.Err(), "iterate trading reports")
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
