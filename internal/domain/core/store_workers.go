package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const workerColumns = "id, name, active, registered, registered_at, dependents, created_at, updated_at"

func scanWorker(row pgx.Row) (Worker, error) {
	var worker Worker
	if err := row.Scan(&worker.ID, &worker.Name, &worker.Active, &worker.Registered, &worker.RegisteredAt, &worker.Dependents, &worker.CreatedAt, &worker.UpdatedAt); err != nil {
		return Worker{}, mapError(err)
	}
	return worker, nil
}

func (s *Store) ListWorkers(ctx context.Context) ([]Worker, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+workerColumns+" FROM workers ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workers := []Worker{}
	for rows.Next() {
		worker, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, worker)
	}
	return workers, rows.Err()
}

func (s *Store) GetWorker(ctx context.Context, id string) (Worker, error) {
	if !validID(id) {
		return Worker{}, ErrNotFound
	}
	return scanWorker(s.DB.QueryRow(ctx, "SELECT "+workerColumns+" FROM workers WHERE id = $1", id))
}

func (s *Store) CreateWorker(ctx context.Context, worker Worker) (Worker, error) {
	return scanWorker(s.DB.QueryRow(ctx, `
    INSERT INTO workers (id, name, active, registered, registered_at, dependents)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+workerColumns, uuid.NewString(), worker.Name, worker.Active, worker.Registered, worker.RegisteredAt, worker.Dependents))
}

func (s *Store) UpdateWorker(ctx context.Context, worker Worker) (Worker, error) {
	if !validID(worker.ID) {
		return Worker{}, ErrNotFound
	}
	return scanWorker(s.DB.QueryRow(ctx, `
    UPDATE workers
    SET name = $2, active = $3, registered = $4, registered_at = $5, dependents = $6, updated_at = now()
    WHERE id = $1
    RETURNING `+workerColumns, worker.ID, worker.Name, worker.Active, worker.Registered, worker.RegisteredAt, worker.Dependents))
}

func (s *Store) DeleteWorker(ctx context.Context, id string) (Worker, error) {
	if !validID(id) {
		return Worker{}, ErrNotFound
	}
	return scanWorker(s.DB.QueryRow(ctx, "DELETE FROM workers WHERE id = $1 RETURNING "+workerColumns, id))
}
