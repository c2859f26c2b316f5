package auth

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

const userColumns = "id, name, login, role, password_hash, created_at"

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Name, &user.Login, &user.Role, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrLoginTaken
	}
	return err
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) FindByLogin(ctx context.Context, login string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE login = $1", login))
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return User{}, ErrUserNotFound
	}
	return scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user User) (User, error) {
	user.ID = uuid.NewString()
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (id, name, login, password_hash, role)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING created_at
  `, user.ID, user.Name, user.Login, user.PasswordHash, user.Role).Scan(&user.CreatedAt)
	if err != nil {
		return User{}, mapWriteError(err)
	}
	return user, nil
}

// CreateFirstUser inserts the user only while the users table is empty.
func (s *Store) CreateFirstUser(ctx context.Context, user User) (User, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return User{}, err
	}
	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(1) FROM users").Scan(&count); err != nil {
		return User{}, err
	}
	if count > 0 {
		return User{}, ErrSetupDone
	}

	user.ID = uuid.NewString()
	if err := tx.QueryRow(ctx, `
    INSERT INTO users (id, name, login, password_hash, role)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING created_at
  `, user.ID, user.Name, user.Login, user.PasswordHash, user.Role).Scan(&user.CreatedAt); err != nil {
		return User{}, mapWriteError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user User) (User, error) {
	if _, err := uuid.Parse(user.ID); err != nil {
		return User{}, ErrUserNotFound
	}
	row := s.DB.QueryRow(ctx, `
    UPDATE users
    SET name = $2, login = $3, role = $4,
        password_hash = COALESCE(NULLIF($5, ''), password_hash)
    WHERE id = $1
    RETURNING `+userColumns, user.ID, user.Name, user.Login, user.Role, user.PasswordHash)
	updated, err := scanUser(row)
	if err != nil {
		return User{}, mapWriteError(err)
	}
	return updated, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrUserNotFound
	}
	tag, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
