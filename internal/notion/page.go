// Package notion models the page payloads sent by Notion automations and
// extracts the fields the relay needs from them.
package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrMalformedPayload indicates a webhook body without the expected shape.
var ErrMalformedPayload = errors.New("malformed payload")

// StatusInProgress is the Notion status id that means a task is being worked on.
const StatusInProgress = "in-progress"

// Envelope is the body of a Notion automation webhook.
type Envelope struct {
	Data *Page `json:"data"`
}

// Page is a Notion page as delivered by webhooks.
type Page struct {
	ID         string              `json:"id"`
	Icon       *Icon               `json:"icon,omitempty"`
	Title      []RichText          `json:"title,omitempty"`
	Properties map[string]Property `json:"properties"`
}

// Property holds the property shapes the relay reads. Only the field that
// matches the property type is populated.
type Property struct {
	Type     string     `json:"type,omitempty"`
	Title    []RichText `json:"title,omitempty"`
	Relation []Relation `json:"relation,omitempty"`
	Status   *Status    `json:"status,omitempty"`
	UniqueID *UniqueID  `json:"unique_id,omitempty"`
}

// RichText is one fragment of a title or rich-text value.
type RichText struct {
	PlainText string       `json:"plain_text,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
}

// TextContent is the text payload of a rich-text fragment.
type TextContent struct {
	Content string `json:"content"`
}

// Content returns the fragment's text, falling back to plain_text.
func (r RichText) Content() string {
	if r.Text != nil && r.Text.Content != "" {
		return r.Text.Content
	}
	return r.PlainText
}

// Relation points at another page.
type Relation struct {
	ID   string `json:"id"`
	Icon *Icon  `json:"icon,omitempty"`
}

// IconOnly reports whether the related page is rendered only by an icon.
// Such relations are not treated as projects.
func (r Relation) IconOnly() bool {
	return r.Icon != nil && (r.Icon.Type == "emoji" || r.Icon.Type == "external")
}

// Status is a status property value.
type Status struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// UniqueID is the auto-increment id property value.
type UniqueID struct {
	Prefix *string `json:"prefix"`
	Number int     `json:"number"`
}

// Icon is a page icon.
type Icon struct {
	Type     string    `json:"type"`
	Emoji    string    `json:"emoji,omitempty"`
	External *External `json:"external,omitempty"`
}

// External is an externally hosted icon.
type External struct {
	URL string `json:"url"`
}

// DecodeEnvelope reads a webhook body and returns its page.
func DecodeEnvelope(r io.Reader) (*Page, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedPayload)
	}
	if env.Data.ID == "" {
		return nil, fmt.Errorf("%w: missing page id", ErrMalformedPayload)
	}
	return env.Data, nil
}

// Emoji returns the page emoji, or "" when the icon is not an emoji.
func (p *Page) Emoji() string {
	if p.Icon != nil && p.Icon.Type == "emoji" {
		return p.Icon.Emoji
	}
	return ""
}

// HasCustomIcon reports whether the page uses an externally hosted icon.
func (p *Page) HasCustomIcon() bool {
	return p.Icon != nil && p.Icon.Type == "external"
}

// FormattedID renders the "ID" unique_id property as "PREFIX-N", or "" when absent.
func (p *Page) FormattedID() string {
	prop, ok := p.Properties["ID"]
	if !ok || prop.UniqueID == nil {
		return ""
	}
	number := strconv.Itoa(prop.UniqueID.Number)
	if prop.UniqueID.Prefix == nil || *prop.UniqueID.Prefix == "" {
		return number
	}
	return *prop.UniqueID.Prefix + "-" + number
}

// Status returns the "Status" property value, or nil when absent.
func (p *Page) Status() *Status {
	prop, ok := p.Properties["Status"]
	if !ok {
		return nil
	}
	return prop.Status
}

// InProgress reports whether the page status is in progress. A missing
// status counts as not in progress.
func (p *Page) InProgress() bool {
	status := p.Status()
	return status != nil && status.ID == StatusInProgress
}

// ProjectRelation returns the first "Project" relation, or nil when there is none.
func (p *Page) ProjectRelation() *Relation {
	prop, ok := p.Properties["Project"]
	if !ok || len(prop.Relation) == 0 {
		return nil
	}
	return &prop.Relation[0]
}
