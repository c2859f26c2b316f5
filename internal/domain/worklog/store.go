package worklog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("work log entry not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const entryColumns = "id, log_date, worker_name, status, details, farm, production, unit_price, created_at"

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	err := row.Scan(&entry.ID, &entry.Date, &entry.WorkerName, &entry.Status, &entry.Details, &entry.Farm,
		&entry.ProductionQuantity, &entry.UnitPrice, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return entry, err
}

func collect(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CreateBatch stores all entries or none of them. Insertion order is kept as
// the tie-breaker for entries sharing a date.
func (s *Store) CreateBatch(ctx context.Context, entries []Entry) ([]Entry, error) {
	now := time.Now().UTC()
	created := make([]Entry, len(entries))
	rows := make([][]any, len(entries))
	for i, entry := range entries {
		entry.ID = uuid.NewString()
		entry.CreatedAt = now
		created[i] = entry
		rows[i] = []any{entry.ID, entry.Date, entry.WorkerName, entry.Status, entry.Details, entry.Farm,
			entry.ProductionQuantity, entry.UnitPrice, entry.CreatedAt}
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"work_logs"},
		[]string{"id", "log_date", "worker_name", "status", "details", "farm", "production", "unit_price", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return nil, fmt.Errorf("insert work logs: %w", err)
	}
	if int(copied) != len(entries) {
		return nil, fmt.Errorf("insert work logs: copied %d of %d rows", copied, len(entries))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// FindInRange returns entries whose date lies in [startDate, endDate],
// compared as YYYY-MM-DD strings, date ascending.
func (s *Store) FindInRange(ctx context.Context, startDate, endDate string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+entryColumns+`
    FROM work_logs
    WHERE log_date >= $1 AND log_date <= $2
    ORDER BY log_date, seq
  `, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *Store) FindByMonth(ctx context.Context, year, month int) ([]Entry, error) {
	prefix, err := MonthPrefix(year, month)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+entryColumns+`
    FROM work_logs
    WHERE log_date LIKE $1
    ORDER BY log_date, seq
  `, prefix+"%")
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *Store) Delete(ctx context.Context, id string) (Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Entry{}, ErrNotFound
	}
	return scanEntry(s.DB.QueryRow(ctx, "DELETE FROM work_logs WHERE id = $1 RETURNING "+entryColumns, id))
}
