package entity

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultLinkType is assigned when a link is created without an explicit
// type.
const DefaultLinkType = "reference"

// Link is an external reference attached to one text source. Links are
// soft-deleted by deactivation; hard delete is a separate operation.
type Link struct {
	Base
	TextSourceID int64  `json:"text_source_id"`
	URL          string `json:"url"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	LinkType     string `json:"link_type"`
	IsActive     bool   `json:"is_active"`
}

// NewLink constructs an unsaved active link with the default type.
func NewLink(textSourceID int64, rawURL string) *Link {
	return &Link{
		TextSourceID: textSourceID,
		URL:          rawURL,
		LinkType:     DefaultLinkType,
		IsActive:     true,
	}
}

func (l *Link) Kind() string      { return "Link" }
func (l *Link) TableName() string { return "links" }

func (l *Link) InsertColumns() []string {
	return []string{"text_source_id", "url", "title", "description", "link_type", "is_active", "metadata"}
}

func (l *Link) UpdateColumns() []string {
	return []string{"url", "title", "description", "link_type", "is_active", "metadata"}
}

// Validate checks the link constraints. The URL must parse with both a
// scheme and a host.
func (l *Link) Validate() error {
	if l.TextSourceID <= 0 {
		return &ValidationError{Entity: "Link", Field: "text_source_id", Value: l.TextSourceID, Reason: "is required and must be positive"}
	}
	if strings.TrimSpace(l.URL) == "" {
		return &ValidationError{Entity: "Link", Field: "url", Value: l.URL, Reason: "is required"}
	}
	if utf8.RuneCountInString(l.URL) > 500 {
		return &ValidationError{Entity: "Link", Field: "url", Value: l.URL, Reason: "must be 500 characters or less"}
	}
	parsed, err := url.Parse(l.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &ValidationError{Entity: "Link", Field: "url", Value: l.URL, Reason: "must be a valid URL"}
	}
	if utf8.RuneCountInString(l.Title) > 255 {
		return &ValidationError{Entity: "Link", Field: "title", Value: l.Title, Reason: "must be 255 characters or less"}
	}
	if utf8.RuneCountInString(l.Description) > 1000 {
		return &ValidationError{Entity: "Link", Field: "description", Value: l.Description, Reason: "must be 1000 characters or less"}
	}
	if utf8.RuneCountInString(l.LinkType) > 50 {
		return &ValidationError{Entity: "Link", Field: "link_type", Value: l.LinkType, Reason: "must be 50 characters or less"}
	}
	return nil
}

// Domain returns the host portion of the URL, empty if unparseable.
func (l *Link) Domain() string {
	parsed, err := url.Parse(l.URL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// Scheme returns the URL scheme, empty if unparseable.
func (l *Link) Scheme() string {
	parsed, err := url.Parse(l.URL)
	if err != nil {
		return ""
	}
	return parsed.Scheme
}

// IsSecure reports whether the link uses HTTPS.
func (l *Link) IsSecure() bool {
	return l.Scheme() == "https"
}

// ToMap serializes the link to a plain key-value form.
func (l *Link) ToMap() map[string]any {
	m := l.baseMap()
	m["text_source_id"] = l.TextSourceID
	m["url"] = l.URL
	m["title"] = l.Title
	m["description"] = l.Description
	m["link_type"] = l.LinkType
	m["is_active"] = l.IsActive
	return m
}

// LinkFromMap deserializes a link from its key-value form.
func LinkFromMap(m map[string]any) (*Link, error) {
	base, err := baseFromMap(m)
	if err != nil {
		return nil, err
	}
	sourceID, _, err := int64Field(m, "text_source_id")
	if err != nil {
		return nil, err
	}
	return &Link{
		Base:         base,
		TextSourceID: sourceID,
		URL:          stringField(m, "url"),
		Title:        stringField(m, "title"),
		Description:  stringField(m, "description"),
		LinkType:     stringField(m, "link_type"),
		IsActive:     boolField(m, "is_active", true),
	}, nil
}

// LinkPatch is a partial update; nil fields are left unchanged.
type LinkPatch struct {
	URL         *string
	Title       *string
	Description *string
	LinkType    *string
	IsActive    *bool
	Metadata    map[string]any
}

// Apply merges the patch into the link.
func (patch LinkPatch) Apply(l *Link) {
	if patch.URL != nil {
		l.URL = *patch.URL
	}
	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.LinkType != nil {
		l.LinkType = *patch.LinkType
	}
	if patch.IsActive != nil {
		l.IsActive = *patch.IsActive
	}
	if patch.Metadata != nil {
		l.Metadata = patch.Metadata
	}
}
