package project

import "time"

// DefaultColor is used for Clockify projects created by the relay.
const DefaultColor = "#000000"

// Mapping associates a Notion project page with its Clockify project.
type Mapping struct {
	ID         int64     `json:"id" yaml:"-"`
	NotionID   string    `json:"notion_id" yaml:"notion_id"`
	ClockifyID string    `json:"clockify_id" yaml:"clockify_id"`
	Name       string    `json:"name" yaml:"name"`
	Emoji      string    `json:"emoji,omitempty" yaml:"emoji,omitempty"`
	Color      string    `json:"color" yaml:"color"`
	Billable   bool      `json:"billable" yaml:"billable"`
	Public     bool      `json:"public" yaml:"public"`
	CreatedAt  time.Time `json:"created_at" yaml:"-"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"-"`
}

// DisplayName is the name shown in Clockify, prefixed by the emoji when set.
func (m Mapping) DisplayName() string {
	return DisplayName(m.Name, m.Emoji)
}

// DisplayName joins an optional emoji and a project name.
func DisplayName(name, emoji string) string {
	if emoji == "" {
		return name
	}
	return emoji + " " + name
}

// FallbackName names a project no webhook has described yet. The stored name
// stays free of emoji and remote decoration, so the first project webhook
// replaces it through a rename.
func FallbackName(notionID string) string {
	return "Project " + notionID
}
