// Package service persists klines in sqlite and imports/exports CSV files.
package service

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tvlab/tvlab/pkg/types"
)

const klineSchema = `
CREATE TABLE IF NOT EXISTS klines (
	gid        INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol     TEXT NOT NULL,
	interval   TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time   DATETIME NOT NULL,
	open       DECIMAL NOT NULL,
	high       DECIMAL NOT NULL,
	low        DECIMAL NOT NULL,
	close      DECIMAL NOT NULL,
	volume     DECIMAL NOT NULL,
	closed     BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE UNIQUE INDEX IF NOT EXISTS klines_symbol_interval_start_time
	ON klines (symbol, interval, start_time);
`

// ConnectSqlite opens (or creates) a sqlite database for kline storage.
func ConnectSqlite(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "can not open sqlite database %s", dsn)
	}

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	return db, nil
}

type KLineService struct {
	DB *sqlx.DB
}

func (s *KLineService) EnsureSchema() error {
	_, err := s.DB.Exec(klineSchema)
	return errors.Wrap(err, "can not create the klines table")
}

func (s *KLineService) Insert(kline types.KLine) error {
	sql := "INSERT OR REPLACE INTO `klines` (`symbol`, `interval`, `start_time`, `end_time`, `open`, `high`, `low`, `close`, `volume`, `closed`)" +
		" VALUES (:symbol, :interval, :start_time, :end_time, :open, :high, :low, :close, :volume, :closed)"

	_, err := s.DB.NamedExec(sql, kline)
	return err
}

// BatchInsert inserts the klines inside one transaction.
func (s *KLineService) BatchInsert(klines []types.KLine) error {
	if len(klines) == 0 {
		return nil
	}

	sql := "INSERT OR REPLACE INTO `klines` (`symbol`, `interval`, `start_time`, `end_time`, `open`, `high`, `low`, `close`, `volume`, `closed`)" +
		" VALUES (:symbol, :interval, :start_time, :end_time, :open, :high, :low, :close, :volume, :closed)"

	tx := s.DB.MustBegin()
	if _, err := tx.NamedExec(sql, klines); err != nil {
		if e := tx.Rollback(); e != nil {
			log.WithError(e).Errorf("can not rollback kline insertion: %v", err)
		}
		return err
	}
	return tx.Commit()
}

// QueryKLinesForward returns up to limit klines with end_time >= startTime in
// ascending order.
func (s *KLineService) QueryKLinesForward(symbol string, interval types.Interval, startTime time.Time, limit int) ([]types.KLine, error) {
	sel := sq.Select("*").
		From("klines").
		Where(sq.And{
			sq.Eq{"symbol": symbol, "interval": interval.String()},
			sq.GtOrEq{"end_time": startTime},
		}).
		OrderBy("end_time ASC")

	if limit > 0 {
		sel = sel.Limit(uint64(limit))
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Queryx(s.DB.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return s.scanRows(rows)
}

// QueryKLinesBackward returns the last limit klines with end_time <= endTime,
// still in ascending order.
func (s *KLineService) QueryKLinesBackward(symbol string, interval types.Interval, endTime time.Time, limit int) ([]types.KLine, error) {
	sel := sq.Select("*").
		From("klines").
		Where(sq.And{
			sq.Eq{"symbol": symbol, "interval": interval.String()},
			sq.LtOrEq{"end_time": endTime},
		}).
		OrderBy("end_time DESC")

	if limit > 0 {
		sel = sel.Limit(uint64(limit))
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	query = "SELECT t.* FROM (" + query + ") AS t ORDER BY t.end_time ASC"

	rows, err := s.DB.Queryx(s.DB.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return s.scanRows(rows)
}

// QueryKLines returns the klines of a time range in ascending order.
func (s *KLineService) QueryKLines(ctx context.Context, symbol string, interval types.Interval, since, until time.Time) ([]types.KLine, error) {
	sel := sq.Select("*").
		From("klines").
		Where(sq.And{
			sq.Eq{"symbol": symbol, "interval": interval.String()},
			sq.GtOrEq{"start_time": since},
			sq.LtOrEq{"start_time": until},
		}).
		OrderBy("start_time ASC")

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryxContext(ctx, s.DB.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return s.scanRows(rows)
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (t TimeRange) String() string {
	return t.Start.String() + " ~ " + t.End.String()
}

// FindMissingTimeRanges scans the stored bars of a range and reports the gaps
// larger than one interval.
func (s *KLineService) FindMissingTimeRanges(ctx context.Context, symbol string, interval types.Interval, since, until time.Time) ([]TimeRange, error) {
	klines, err := s.QueryKLines(ctx, symbol, interval, since, until)
	if err != nil {
		return nil, err
	}

	if len(klines) == 0 {
		return []TimeRange{{Start: since, End: until}}, nil
	}

	var ranges []TimeRange
	step := interval.Duration()

	if first := klines[0].StartTime.Time(); first.Sub(since) >= step {
		ranges = append(ranges, TimeRange{Start: since, End: first})
	}

	for i := 1; i < len(klines); i++ {
		prev := klines[i-1].StartTime.Time()
		cur := klines[i].StartTime.Time()
		if cur.Sub(prev) > step {
			ranges = append(ranges, TimeRange{Start: prev.Add(step), End: cur})
		}
	}

	if last := klines[len(klines)-1].StartTime.Time(); until.Sub(last) > step {
		ranges = append(ranges, TimeRange{Start: last.Add(step), End: until})
	}

	return ranges, nil
}

func (s *KLineService) scanRows(rows *sqlx.Rows) (klines []types.KLine, err error) {
	defer rows.Close()

	for rows.Next() {
		var kline types.KLine
		if err := rows.StructScan(&kline); err != nil {
			return nil, err
		}
		klines = append(klines, kline)
	}

	return klines, rows.Err()
}
