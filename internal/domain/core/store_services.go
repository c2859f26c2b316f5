package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const serviceColumns = "id, name, price, active, created_at, updated_at"

func scanService(row pgx.Row) (Service, error) {
	var service Service
	if err := row.Scan(&service.ID, &service.Name, &service.Price, &service.Active, &service.CreatedAt, &service.UpdatedAt); err != nil {
		return Service{}, mapError(err)
	}
	return service, nil
}

func (s *Store) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+serviceColumns+" FROM services ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []Service{}
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}

func (s *Store) GetService(ctx context.Context, id string) (Service, error) {
	if !validID(id) {
		return Service{}, ErrNotFound
	}
	return scanService(s.DB.QueryRow(ctx, "SELECT "+serviceColumns+" FROM services WHERE id = $1", id))
}

func (s *Store) CreateService(ctx context.Context, service Service) (Service, error) {
	return scanService(s.DB.QueryRow(ctx, `
    INSERT INTO services (id, name, price, active)
    VALUES ($1,$2,$3,$4)
    RETURNING `+serviceColumns, uuid.NewString(), service.Name, service.Price, service.Active))
}

func (s *Store) UpdateService(ctx context.Context, service Service) (Service, error) {
	if !validID(service.ID) {
		return Service{}, ErrNotFound
	}
	return scanService(s.DB.QueryRow(ctx, `
    UPDATE services
    SET name = $2, price = $3, active = $4, updated_at = now()
    WHERE id = $1
    RETURNING `+serviceColumns, service.ID, service.Name, service.Price, service.Active))
}

func (s *Store) DeleteService(ctx context.Context, id string) (Service, error) {
	if !validID(id) {
		return Service{}, ErrNotFound
	}
	return scanService(s.DB.QueryRow(ctx, "DELETE FROM services WHERE id = $1 RETURNING "+serviceColumns, id))
}
