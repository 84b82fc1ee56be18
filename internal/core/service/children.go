package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

// ChildService manages child profiles on the CHILD_PROFILE service.
type ChildService struct {
	api API
}

// NewChildService creates a ChildService.
func NewChildService(api API) *ChildService {
	return &ChildService{api: api}
}

// List returns the children visible to the current user.
func (s *ChildService) List(ctx context.Context) ([]domain.Child, error) {
	resp, err := s.api.Request(ctx, gateway.Request{
		Service: gateway.ServiceChildProfile,
		Path:    "/children",
	})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Child](resp, "children")
}

// Get returns one child profile.
func (s *ChildService) Get(ctx context.Context, id string) (*domain.Child, error) {
	path, err := childPath(id)
	if err != nil {
		return nil, err
	}
	var child domain.Child
	if err := s.api.Do(ctx, gateway.Request{Service: gateway.ServiceChildProfile, Path: path}, &child); err != nil {
		return nil, err
	}
	return &child, nil
}

// Create adds a child profile. The returned child carries the linking
// code a teacher uses to attach themselves as supervisor.
func (s *ChildService) Create(ctx context.Context, in domain.ChildInput) (*domain.Child, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var child domain.Child
	err := s.api.Do(ctx, gateway.Request{
		Service: gateway.ServiceChildProfile,
		Path:    "/children",
		Method:  http.MethodPost,
		Body:    in,
	}, &child)
	if err != nil {
		return nil, err
	}
	if child.Name == "" {
		child.Name = in.Name
	}
	return &child, nil
}

// Update replaces the editable fields of a child profile.
func (s *ChildService) Update(ctx context.Context, id string, in domain.ChildInput) (*domain.Child, error) {
	path, err := childPath(id)
	if err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var child domain.Child
	err = s.api.Do(ctx, gateway.Request{
		Service: gateway.ServiceChildProfile,
		Path:    path,
		Method:  http.MethodPut,
		Body:    in,
	}, &child)
	if err != nil {
		return nil, err
	}
	return &child, nil
}

// LinkSupervisor attaches the current user to the child that owns code.
func (s *ChildService) LinkSupervisor(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.ErrMissingArgument.WithDetails("linking code")
	}
	return s.api.Do(ctx, gateway.Request{
		Service: gateway.ServiceChildProfile,
		Path:    "/children/link-supervisor",
		Method:  http.MethodPost,
		Body:    domain.LinkRequest{LinkingCode: code},
	}, nil)
}

func childPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.ErrMissingArgument.WithDetails("child id")
	}
	return "/children/" + url.PathEscape(id), nil
}
