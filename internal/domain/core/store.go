package core

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// validID guards uuid columns so malformed path ids read as not found
// instead of a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const farmColumns = "id, name, owner, city, active, created_at, updated_at"

func scanFarm(row pgx.Row) (Farm, error) {
	var farm Farm
	if err := row.Scan(&farm.ID, &farm.Name, &farm.Owner, &farm.City, &farm.Active, &farm.CreatedAt, &farm.UpdatedAt); err != nil {
		return Farm{}, mapError(err)
	}
	return farm, nil
}

func (s *Store) ListFarms(ctx context.Context) ([]Farm, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+farmColumns+" FROM farms ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	farms := []Farm{}
	for rows.Next() {
		farm, err := scanFarm(rows)
		if err != nil {
			return nil, err
		}
		farms = append(farms, farm)
	}
	return farms, rows.Err()
}

func (s *Store) GetFarm(ctx context.Context, id string) (Farm, error) {
	if !validID(id) {
		return Farm{}, ErrNotFound
	}
	return scanFarm(s.DB.QueryRow(ctx, "SELECT "+farmColumns+" FROM farms WHERE id = $1", id))
}

func (s *Store) CreateFarm(ctx context.Context, farm Farm) (Farm, error) {
	return scanFarm(s.DB.QueryRow(ctx, `
    INSERT INTO farms (id, name, owner, city, active)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+farmColumns, uuid.NewString(), farm.Name, farm.Owner, farm.City, farm.Active))
}

func (s *Store) UpdateFarm(ctx context.Context, farm Farm) (Farm, error) {
	if !validID(farm.ID) {
		return Farm{}, ErrNotFound
	}
	return scanFarm(s.DB.QueryRow(ctx, `
    UPDATE farms
    SET name = $2, owner = $3, city = $4, active = $5, updated_at = now()
    WHERE id = $1
    RETURNING `+farmColumns, farm.ID, farm.Name, farm.Owner, farm.City, farm.Active))
}

func (s *Store) DeleteFarm(ctx context.Context, id string) (Farm, error) {
	if !validID(id) {
		return Farm{}, ErrNotFound
	}
	return scanFarm(s.DB.QueryRow(ctx, "DELETE FROM farms WHERE id = $1 RETURNING "+farmColumns, id))
}
