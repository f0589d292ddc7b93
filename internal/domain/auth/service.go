package auth

import "context"

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Register(ctx context.Context, req RegisterUserRequest) (UserResponse, error)
	// EnsureAdmin creates the bootstrap admin when no admin exists yet.
	EnsureAdmin(ctx context.Context, username, password string) error
}
