package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-admin-service/internal/auth"
	"quiz-admin-service/internal/domain"
)

// NewUser carries the fields accepted at registration.
type NewUser struct {
	Username   string
	Password   string
	Role       domain.Role
	Department string
}

// UserUpdate carries optional replacements; nil fields are left alone.
type UserUpdate struct {
	Username   *string
	Password   *string
	Role       *domain.Role
	Department *string
}

// UserService covers accounts, login, and token checks.
type UserService struct {
	store       Store
	tokens      *auth.TokenManager
	revocations RevocationRepository
	now         func() time.Time
}

func NewUserService(store Store, tokens *auth.TokenManager, revocations RevocationRepository) *UserService {
	return &UserService{store: store, tokens: tokens, revocations: revocations, now: time.Now}
}

// Register creates a user with a hashed password.
func (s *UserService) Register(ctx context.Context, in NewUser) (domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return domain.User{}, fmt.Errorf("%w: userName is required", domain.ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return domain.User{}, fmt.Errorf("%w: role must be admin or employee", domain.ErrInvalidInput)
	}
	if _, err := s.store.FindUserByUsername(ctx, in.Username); err == nil {
		return domain.User{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: hash,
		Role:         in.Role,
		Department:   in.Department,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login checks credentials and returns a signed token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, domain.User, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.User{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
		}
		return "", domain.User{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", domain.User{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to its claims, rejecting revoked tokens
// and tokens whose user no longer exists.
func (s *UserService) Authenticate(ctx context.Context, token string) (auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Claims{}, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return auth.Claims{}, err
	}
	if revoked {
		return auth.Claims{}, fmt.Errorf("%w: token has been revoked", domain.ErrUnauthorized)
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return auth.Claims{}, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
		}
		return auth.Claims{}, err
	}
	// the stored role wins over a stale claim
	claims.Role = user.Role
	return claims, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *UserService) Logout(ctx context.Context, claims auth.Claims) error {
	ttl := claims.Remaining(s.now())
	if ttl == 0 {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, ttl)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	return s.store.GetUser(ctx, id)
}

// Update applies the non-nil fields of in to the user.
func (s *UserService) Update(ctx context.Context, id string, in UserUpdate) (domain.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return domain.User{}, fmt.Errorf("%w: userName cannot be empty", domain.ErrInvalidInput)
		}
		if name != user.Username {
			if _, err := s.store.FindUserByUsername(ctx, name); err == nil {
				return domain.User{}, domain.ErrUsernameTaken
			} else if !errors.Is(err, domain.ErrUserNotFound) {
				return domain.User{}, err
			}
		}
		user.Username = name
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return domain.User{}, err
		}
		user.PasswordHash = hash
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return domain.User{}, fmt.Errorf("%w: role must be admin or employee", domain.ErrInvalidInput)
		}
		user.Role = *in.Role
	}
	if in.Department != nil {
		user.Department = *in.Department
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Delete removes a user that has no recorded attempts.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetUser(ctx, id); err != nil {
		return err
	}
	n, err := s.store.CountAttempts(ctx, domain.AttemptFilter{EmployeeID: id})
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: user has %d attempts", domain.ErrInUse, n)
	}
	return s.store.DeleteUser(ctx, id)
}

// RoleCounts returns how many users hold each role, admins first.
func (s *UserService) RoleCounts(ctx context.Context) ([]domain.RoleCount, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[domain.Role]int{}
	for _, u := range users {
		counts[u.Role]++
	}
	out := make([]domain.RoleCount, 0, 2)
	for _, r := range []domain.Role{domain.RoleAdmin, domain.RoleEmployee} {
		if counts[r] > 0 {
			out = append(out, domain.RoleCount{Role: r, Total: counts[r]})
		}
	}
	return out, nil
}
