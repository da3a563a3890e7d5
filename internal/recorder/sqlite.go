package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"SignalSentinel/internal/model"
)

// SQLiteRecorder stores bars in a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the ranker read while the refresher writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bars (
			asset     TEXT    NOT NULL,
			timeframe TEXT    NOT NULL,
			ts        INTEGER NOT NULL,
			open      REAL    NOT NULL,
			high      REAL    NOT NULL,
			low       REAL    NOT NULL,
			close     REAL    NOT NULL,
			volume    REAL,
			PRIMARY KEY (asset, timeframe, ts)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bars_tf ON bars(timeframe, asset)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordBars(ctx context.Context, asset string, tf model.Timeframe, bars []model.OHLCV) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bars WHERE asset = ? AND timeframe = ?`, asset, string(tf)); err != nil {
		return fmt.Errorf("clear %s/%s: %w", asset, tf, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO bars
		(asset, timeframe, ts, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, asset, string(tf), b.Time.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("insert %s/%s: %w", asset, tf, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LoadSeries(ctx context.Context, asset string, tf model.Timeframe) (*model.Series, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ts, open, high, low, close, volume FROM bars
		WHERE asset = ? AND timeframe = ? ORDER BY ts`, asset, string(tf))
	if err != nil {
		return nil, fmt.Errorf("query %s/%s: %w", asset, tf, err)
	}
	defer rows.Close()

	s := &model.Series{Asset: asset, Timeframe: tf}
	for rows.Next() {
		var (
			ts     int64
			b      model.OHLCV
			volume sql.NullFloat64
		)
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("scan %s/%s: %w", asset, tf, err)
		}
		b.Time = time.Unix(ts, 0).UTC()
		b.Volume = volume.Float64
		s.Bars = append(s.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(s.Bars) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", asset, tf, model.ErrMissingSeries)
	}
	return s, nil
}

func (r *SQLiteRecorder) Assets(ctx context.Context, tf model.Timeframe) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT asset FROM bars WHERE timeframe = ? ORDER BY asset`, string(tf))
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
