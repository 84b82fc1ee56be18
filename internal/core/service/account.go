package service

import (
	"context"
	"net/http"

	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

// AccountService handles account operations on the AUTH service. Login
// and logout live on the gateway client because they own the session.
type AccountService struct {
	api API
}

// NewAccountService creates an AccountService.
func NewAccountService(api API) *AccountService {
	return &AccountService{api: api}
}

// Register creates an account. The call is unauthenticated and does not
// log the new user in. The server's response body is returned as is.
func (s *AccountService) Register(ctx context.Context, reg domain.Registration) (gateway.Response, error) {
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return s.api.Request(ctx, gateway.Request{
		Service: gateway.ServiceAuth,
		Path:    "/register",
		Method:  http.MethodPost,
		Body:    reg,
		NoAuth:  true,
	})
}

// ChangePassword changes the current user's password.
func (s *AccountService) ChangePassword(ctx context.Context, change domain.PasswordChange) error {
	if err := change.Validate(); err != nil {
		return err
	}
	return s.api.Do(ctx, gateway.Request{
		Service: gateway.ServiceAuth,
		Path:    "/change-password",
		Method:  http.MethodPost,
		Body:    change,
	}, nil)
}

// Me fetches the identity of the current access token without touching
// the cached user.
func (s *AccountService) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := s.api.Do(ctx, gateway.Request{Service: gateway.ServiceAuth, Path: "/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
