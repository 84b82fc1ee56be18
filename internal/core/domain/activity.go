package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ActivityType names a kind of activity log.
type ActivityType string

const (
	ActivityMeal     ActivityType = "meal"
	ActivityNap      ActivityType = "nap"
	ActivityDrawing  ActivityType = "drawing"
	ActivityBehavior ActivityType = "behavior"
)

// ActivityTypes lists the known types in display order.
var ActivityTypes = []ActivityType{ActivityMeal, ActivityNap, ActivityDrawing, ActivityBehavior}

// ParseActivityType validates s as an ActivityType.
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ActivityTypes {
		if t == known {
			return t, nil
		}
	}
	return "", ErrUnknownActivityType.WithDetails(fmt.Sprintf("%q", s))
}

// Activity is one entry of a child's activity feed. Fields that only some
// types carry are left empty for the others.
type Activity struct {
	ID        string       `json:"id" yaml:"id"`
	Type      ActivityType `json:"type" yaml:"type"`
	ChildID   string       `json:"child_id,omitempty" yaml:"child_id,omitempty"`
	Timestamp string       `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	StartTime string       `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime   string       `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Date      string       `json:"date,omitempty" yaml:"date,omitempty"`
	Notes     string       `json:"notes,omitempty" yaml:"notes,omitempty"`

	WokeUpDuring bool     `json:"woke_up_during,omitempty" yaml:"woke_up_during,omitempty"`
	Title        string   `json:"title,omitempty" yaml:"title,omitempty"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	PhotoURL     string   `json:"photo_url,omitempty" yaml:"photo_url,omitempty"`
	Activities   []string `json:"activities,omitempty" yaml:"activities,omitempty"`
	Grade        string   `json:"grade,omitempty" yaml:"grade,omitempty"`

	// Raw is the entry as the service sent it.
	Raw json.RawMessage `json:"-" yaml:"-"`
}

// UnmarshalJSON normalises the identifier (activity_id, id or _id) and the
// child reference (child_id or childId). It also falls back to image_url
// for the photo and to activities_description when a behavior entry has
// no activities list.
func (a *Activity) UnmarshalJSON(data []byte) error {
	type plain Activity
	var p plain
	aux := struct {
		*plain
		ID         json.RawMessage `json:"id"`
		ChildID    json.RawMessage `json:"child_id"`
		Activities json.RawMessage `json:"activities"`
	}{plain: &p}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	p.ID = pickID(fields, "activity_id", "id", "_id")
	p.ChildID = pickID(fields, "child_id", "childId")
	if p.PhotoURL == "" {
		p.PhotoURL = pickID(fields, "image_url")
	}
	if len(aux.Activities) > 0 {
		_ = json.Unmarshal(aux.Activities, &p.Activities)
	}
	if len(p.Activities) == 0 {
		if desc := pickID(fields, "activities_description"); desc != "" {
			p.Activities = []string{desc}
		}
	}
	p.Raw = append(json.RawMessage(nil), data...)

	*a = Activity(p)
	return nil
}

// When returns the activity's reference time string: timestamp, else
// start_time, else date.
func (a *Activity) When() string {
	switch {
	case a.Timestamp != "":
		return a.Timestamp
	case a.StartTime != "":
		return a.StartTime
	default:
		return a.Date
	}
}

// WhenTime parses When as RFC 3339 or a plain date. The zero time is
// returned when nothing parses.
func (a *Activity) WhenTime() time.Time {
	s := a.When()
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Summary is a one-line description for feed listings.
func (a *Activity) Summary() string {
	switch a.Type {
	case ActivityNap:
		woke := "slept through"
		if a.WokeUpDuring {
			woke = "woke up during"
		}
		return fmt.Sprintf("%s - %s, %s", a.StartTime, a.EndTime, woke)
	case ActivityDrawing:
		if a.Title != "" {
			return a.Title
		}
		return a.Description
	case ActivityBehavior:
		s := strings.Join(a.Activities, ", ")
		if a.Grade != "" {
			s = strings.TrimPrefix(s+"; grade "+a.Grade, "; ")
		}
		return s
	default:
		return a.Notes
	}
}
