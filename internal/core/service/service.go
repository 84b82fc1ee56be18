package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

// API is the subset of the gateway client the services need.
type API interface {
	Request(ctx context.Context, req gateway.Request) (gateway.Response, error)
	Do(ctx context.Context, req gateway.Request, out any) error
}

var _ API = (*gateway.Client)(nil)

// decodeList accepts either a bare JSON array or an object holding the
// array under key.
func decodeList[T any](resp gateway.Response, key string) ([]T, error) {
	var items []T
	if err := json.Unmarshal(resp, &items); err == nil {
		return nonNil(items), nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(resp, &wrapped); err != nil {
		return nil, domain.ErrUnexpectedResponse.WithDetails(fmt.Sprintf("expected a list of %s", key)).WithCause(err)
	}
	raw, ok := wrapped[key]
	if !ok || string(raw) == "null" {
		return []T{}, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, domain.ErrUnexpectedResponse.WithDetails(fmt.Sprintf("decode %s", key)).WithCause(err)
	}
	return nonNil(items), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
