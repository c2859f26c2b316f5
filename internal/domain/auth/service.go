package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Service struct {
	Store  StoreAPI
	secret string
	ttl    time.Duration
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, secret: secret, ttl: ttl}
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

func (s *Service) Login(ctx context.Context, login, password string) (Session, error) {
	user, err := s.Store.FindByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *Service) issue(user User) (Session, error) {
	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, Name: user.Name, Role: user.Role}, s.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, ExpiresAt: time.Now().Add(s.ttl), User: user}, nil
}

// Setup creates the first administrator. It fails with ErrSetupDone once any
// user exists.
func (s *Service) Setup(ctx context.Context, input NewUser) (Session, error) {
	input.Role = RoleAdmin
	user, err := s.buildUser(input)
	if err != nil {
		return Session{}, err
	}
	created, err := s.Store.CreateFirstUser(ctx, user)
	if err != nil {
		return Session{}, err
	}
	return s.issue(created)
}

func (s *Service) SetupRequired(ctx context.Context) (bool, error) {
	count, err := s.Store.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (s *Service) CreateUser(ctx context.Context, input NewUser) (User, error) {
	if input.Role == "" {
		input.Role = RoleOperator
	}
	user, err := s.buildUser(input)
	if err != nil {
		return User{}, err
	}
	return s.Store.CreateUser(ctx, user)
}

// EnsureUser creates the user unless the login already exists.
func (s *Service) EnsureUser(ctx context.Context, input NewUser) (bool, error) {
	if _, err := s.Store.FindByLogin(ctx, input.Login); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}
	if _, err := s.CreateUser(ctx, input); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, input UserUpdate) (User, error) {
	if !ValidRole(input.Role) {
		return User{}, ErrInvalidRole
	}
	user := User{ID: id, Name: strings.TrimSpace(input.Name), Login: strings.TrimSpace(input.Login), Role: input.Role}
	if input.Password != "" {
		hash, err := HashPassword(input.Password)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = hash
	}
	return s.Store.UpdateUser(ctx, user)
}

func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfDelete
	}
	return s.Store.DeleteUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.Store.ListUsers(ctx)
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.Store.GetUser(ctx, id)
}

func (s *Service) buildUser(input NewUser) (User, error) {
	if !ValidRole(input.Role) {
		return User{}, ErrInvalidRole
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}
	return User{
		Name:         strings.TrimSpace(input.Name),
		Login:        strings.TrimSpace(input.Login),
		Role:         input.Role,
		PasswordHash: hash,
	}, nil
}
