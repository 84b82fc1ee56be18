package domain

import (
	"encoding/json"
	"strings"
)

// Child is a child profile.
type Child struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Birthday    string `json:"birthday,omitempty" yaml:"birthday,omitempty"`
	Group       string `json:"group,omitempty" yaml:"group,omitempty"`
	Allergies   string `json:"allergies,omitempty" yaml:"allergies,omitempty"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
	LinkingCode string `json:"linking_code,omitempty" yaml:"linking_code,omitempty"`
}

// UnmarshalJSON accepts id, child_id or _id as the identifier.
func (c *Child) UnmarshalJSON(data []byte) error {
	type plain Child
	var p plain
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: &p}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	p.ID = pickID(fields, "id", "child_id", "_id")

	*c = Child(p)
	return nil
}

// BirthDate returns the birthday without any time component
// ("2021-04-03T00:00:00Z" becomes "2021-04-03").
func (c *Child) BirthDate() string {
	return DateOnly(c.Birthday)
}

// ChildInput is the create/update payload for a child profile.
type ChildInput struct {
	Name      string `json:"name"`
	Birthday  string `json:"birthday"`
	Group     string `json:"group,omitempty"`
	Allergies string `json:"allergies,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// InputFrom copies the editable fields of c, so an update starts from the
// current profile.
func InputFrom(c *Child) ChildInput {
	return ChildInput{
		Name:      c.Name,
		Birthday:  c.Birthday,
		Group:     c.Group,
		Allergies: c.Allergies,
		Notes:     c.Notes,
	}
}

// Normalize trims whitespace and drops any time component from Birthday.
func (in *ChildInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Group = strings.TrimSpace(in.Group)
	in.Birthday = DateOnly(strings.TrimSpace(in.Birthday))
}

// Validate requires a name and a birthday.
func (in *ChildInput) Validate() error {
	if in.Name == "" {
		return ErrMissingArgument.WithDetails("name")
	}
	if in.Birthday == "" {
		return ErrMissingArgument.WithDetails("birthday")
	}
	return nil
}

// LinkRequest links the current user as supervisor of a child.
type LinkRequest struct {
	LinkingCode string `json:"linking_code"`
}

// DateOnly cuts s at the first 'T'.
func DateOnly(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
