package auth

import "context"

type StoreAPI interface {
	CountUsers(ctx context.Context) (int, error)
	FindByLogin(ctx context.Context, login string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	CreateFirstUser(ctx context.Context, user User) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id string) error
}
