package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

// ActivityService reads and writes activity logs on the ACTIVITY_LOG
// service.
type ActivityService struct {
	api API
}

// NewActivityService creates an ActivityService.
func NewActivityService(api API) *ActivityService {
	return &ActivityService{api: api}
}

// List returns the activity feed of a child in server order.
func (s *ActivityService) List(ctx context.Context, childID string) ([]domain.Activity, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return nil, domain.ErrMissingArgument.WithDetails("child id")
	}
	resp, err := s.api.Request(ctx, gateway.Request{
		Service: gateway.ServiceActivityLog,
		Path:    "/activities",
		Query:   url.Values{"child_id": {childID}},
	})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Activity](resp, "activities")
}

// Log validates entry and posts it to the endpoint of its kind.
func (s *ActivityService) Log(ctx context.Context, entry domain.ActivityLog) (gateway.Response, error) {
	if entry == nil {
		return nil, domain.ErrMissingArgument.WithDetails("activity")
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	kind, err := domain.ParseActivityType(string(entry.Kind()))
	if err != nil {
		return nil, err
	}
	return s.api.Request(ctx, gateway.Request{
		Service: gateway.ServiceActivityLog,
		Path:    "/log/" + string(kind),
		Method:  http.MethodPost,
		Body:    entry,
	})
}

// LogMeal records a meal.
func (s *ActivityService) LogMeal(ctx context.Context, l domain.MealLog) error {
	_, err := s.Log(ctx, l)
	return err
}

// LogNap records a nap.
func (s *ActivityService) LogNap(ctx context.Context, l domain.NapLog) error {
	_, err := s.Log(ctx, l)
	return err
}

// LogDrawing records a drawing.
func (s *ActivityService) LogDrawing(ctx context.Context, l domain.DrawingLog) error {
	_, err := s.Log(ctx, l)
	return err
}

// LogBehavior records a behaviour report.
func (s *ActivityService) LogBehavior(ctx context.Context, l domain.BehaviorLog) error {
	_, err := s.Log(ctx, l)
	return err
}
