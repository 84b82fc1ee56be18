package domain

import (
	"strings"
	"time"
)

// ActivityLog is implemented by every log payload.
type ActivityLog interface {
	// Kind names the log endpoint the payload is posted to.
	Kind() ActivityType
	Validate() error
}

// MealLog records a meal.
type MealLog struct {
	ChildID   string `json:"childId"`
	Timestamp string `json:"timestamp"`
	Notes     string `json:"notes"`
}

func (MealLog) Kind() ActivityType { return ActivityMeal }

func (l MealLog) Validate() error {
	if err := requireChild(l.ChildID); err != nil {
		return err
	}
	return requireTimestamp("timestamp", l.Timestamp)
}

// NapLog records a nap.
type NapLog struct {
	ChildID      string `json:"childId"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	WokeUpDuring bool   `json:"wokeUpDuring"`
	Notes        string `json:"notes"`
}

func (NapLog) Kind() ActivityType { return ActivityNap }

func (l NapLog) Validate() error {
	if err := requireChild(l.ChildID); err != nil {
		return err
	}
	if err := requireTimestamp("start time", l.StartTime); err != nil {
		return err
	}
	if err := requireTimestamp("end time", l.EndTime); err != nil {
		return err
	}
	start, _ := time.Parse(time.RFC3339, l.StartTime)
	end, _ := time.Parse(time.RFC3339, l.EndTime)
	if end.Before(start) {
		return ErrInvalidArgument.WithDetails("nap ends before it starts")
	}
	return nil
}

// DrawingLog records a drawing with a link to its photo.
type DrawingLog struct {
	ChildID     string `json:"childId"`
	Timestamp   string `json:"timestamp"`
	PhotoURL    string `json:"photoUrl"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (DrawingLog) Kind() ActivityType { return ActivityDrawing }

func (l DrawingLog) Validate() error {
	if err := requireChild(l.ChildID); err != nil {
		return err
	}
	if err := requireTimestamp("timestamp", l.Timestamp); err != nil {
		return err
	}
	if l.PhotoURL == "" {
		return ErrMissingArgument.WithDetails("photo url")
	}
	return nil
}

// BehaviorLog records a day's behavior notes.
type BehaviorLog struct {
	ChildID    string   `json:"childId"`
	Date       string   `json:"date"`
	Activities []string `json:"activities"`
	Grade      string   `json:"grade"`
	Notes      string   `json:"notes"`
}

func (BehaviorLog) Kind() ActivityType { return ActivityBehavior }

func (l BehaviorLog) Validate() error {
	if err := requireChild(l.ChildID); err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", l.Date); err != nil {
		return ErrInvalidArgument.WithDetails("date must be YYYY-MM-DD").WithCause(err)
	}
	return nil
}

// SplitActivities turns "painting, , blocks" into ["painting", "blocks"].
func SplitActivities(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeTimestamp converts local "2006-01-02T15:04" input (as typed at a
// prompt) or RFC 3339 into an RFC 3339 UTC timestamp.
func NormalizeTimestamp(s string, loc *time.Location) (string, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.RFC3339), nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", s, loc)
	if err != nil {
		return "", ErrInvalidArgument.WithDetails("timestamp must be RFC 3339 or YYYY-MM-DDTHH:MM").WithCause(err)
	}
	return t.UTC().Format(time.RFC3339), nil
}

func requireChild(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingArgument.WithDetails("child id")
	}
	return nil
}

func requireTimestamp(name, s string) error {
	if s == "" {
		return ErrMissingArgument.WithDetails(name)
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return ErrInvalidArgument.WithDetails(name + " must be RFC 3339").WithCause(err)
	}
	return nil
}
