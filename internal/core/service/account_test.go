package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

func TestAccountService_Register(t *testing.T) {
	api := &mockAPI{body: `{"message":"User registered"}`}
	svc := NewAccountService(api)

	resp, err := svc.Register(context.Background(), domain.Registration{
		Username:  " alice ",
		Password:  "password1",
		Email:     "alice@example.com",
		FirstName: "Alice",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if resp.String() != `{"message":"User registered"}` {
		t.Errorf("Register() response = %s", resp)
	}

	req := api.last(t)
	if req.Service != gateway.ServiceAuth || req.Path != "/register" || req.Method != http.MethodPost {
		t.Errorf("unexpected request %+v", req)
	}
	if !req.NoAuth {
		t.Error("register must be sent without authentication")
	}
	body := bodyJSON(t, req.Body)
	if body["username"] != "alice" || body["role"] != "parent" || body["first_name"] != "Alice" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestAccountService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		reg  domain.Registration
		want *domain.DomainError
	}{
		{"short password", domain.Registration{Username: "a", Password: "short"}, domain.ErrPasswordTooShort},
		{"missing username", domain.Registration{Password: "password1"}, domain.ErrMissingArgument},
		{"bad role", domain.Registration{Username: "a", Password: "password1", Role: "admin"}, domain.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{}
			_, err := NewAccountService(api).Register(context.Background(), tt.reg)
			if !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
			if len(api.requests) != 0 {
				t.Error("invalid registration must not reach the server")
			}
		})
	}
}

func TestAccountService_ChangePassword(t *testing.T) {
	api := &mockAPI{}
	svc := NewAccountService(api)

	err := svc.ChangePassword(context.Background(), domain.PasswordChange{OldPassword: "old-pass", NewPassword: "new-password"})
	if err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	req := api.last(t)
	if req.Path != "/change-password" || req.NoAuth {
		t.Errorf("unexpected request %+v", req)
	}
	body := bodyJSON(t, req.Body)
	if body["old_password"] != "old-pass" || body["new_password"] != "new-password" {
		t.Errorf("unexpected body %v", body)
	}

	err = svc.ChangePassword(context.Background(), domain.PasswordChange{OldPassword: "old-pass", NewPassword: "1234567"})
	if !errors.Is(err, domain.ErrPasswordTooShort) {
		t.Errorf("short new password error = %v", err)
	}
}

func TestAccountService_Me(t *testing.T) {
	api := &mockAPI{body: `{"user_id":"u1","username":"bob","role":"teacher"}`}
	user, err := NewAccountService(api).Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if user.ID != "u1" || user.Role != domain.RoleTeacher {
		t.Errorf("Me() = %+v", user)
	}

	api = &mockAPI{err: &gateway.HTTPError{Status: 401, Message: "Unauthorized"}}
	if _, err := NewAccountService(api).Me(context.Background()); gateway.StatusCode(err) != 401 {
		t.Errorf("Me() error = %v, want 401", err)
	}
}
