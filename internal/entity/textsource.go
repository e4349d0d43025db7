package entity

import (
	"strings"
	"unicode/utf8"
)

// DefaultSourceType is assigned when a text source is created without an
// explicit type.
const DefaultSourceType = "text"

// TextSource is a unit of source text belonging to exactly one project.
type TextSource struct {
	Base
	ProjectID  int64  `json:"project_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	SourceType string `json:"source_type"`
	SourceURL  string `json:"source_url,omitempty"`
}

// NewTextSource constructs an unsaved text source with the default type.
func NewTextSource(projectID int64, title, content string) *TextSource {
	return &TextSource{
		ProjectID:  projectID,
		Title:      title,
		Content:    content,
		SourceType: DefaultSourceType,
	}
}

func (s *TextSource) Kind() string      { return "TextSource" }
func (s *TextSource) TableName() string { return "text_sources" }

func (s *TextSource) InsertColumns() []string {
	return []string{"project_id", "title", "content", "source_type", "source_url", "metadata"}
}

// UpdateColumns excludes project_id: the parent reference is immutable
// after creation.
func (s *TextSource) UpdateColumns() []string {
	return []string{"title", "content", "source_type", "source_url", "metadata"}
}

// Validate checks the text source constraints.
func (s *TextSource) Validate() error {
	if s.ProjectID <= 0 {
		return &ValidationError{Entity: "TextSource", Field: "project_id", Value: s.ProjectID, Reason: "is required and must be positive"}
	}
	if strings.TrimSpace(s.Title) == "" {
		return &ValidationError{Entity: "TextSource", Field: "title", Value: s.Title, Reason: "is required"}
	}
	if utf8.RuneCountInString(s.Title) > 255 {
		return &ValidationError{Entity: "TextSource", Field: "title", Value: s.Title, Reason: "must be 255 characters or less"}
	}
	if strings.TrimSpace(s.Content) == "" {
		return &ValidationError{Entity: "TextSource", Field: "content", Value: s.Content, Reason: "is required"}
	}
	if utf8.RuneCountInString(s.SourceType) > 50 {
		return &ValidationError{Entity: "TextSource", Field: "source_type", Value: s.SourceType, Reason: "must be 50 characters or less"}
	}
	if utf8.RuneCountInString(s.SourceURL) > 500 {
		return &ValidationError{Entity: "TextSource", Field: "source_url", Value: s.SourceURL, Reason: "must be 500 characters or less"}
	}
	return nil
}

// ToMap serializes the text source to a plain key-value form.
func (s *TextSource) ToMap() map[string]any {
	m := s.baseMap()
	m["project_id"] = s.ProjectID
	m["title"] = s.Title
	m["content"] = s.Content
	m["source_type"] = s.SourceType
	m["source_url"] = s.SourceURL
	return m
}

// TextSourceFromMap deserializes a text source from its key-value form.
func TextSourceFromMap(m map[string]any) (*TextSource, error) {
	base, err := baseFromMap(m)
	if err != nil {
		return nil, err
	}
	projectID, _, err := int64Field(m, "project_id")
	if err != nil {
		return nil, err
	}
	return &TextSource{
		Base:       base,
		ProjectID:  projectID,
		Title:      stringField(m, "title"),
		Content:    stringField(m, "content"),
		SourceType: stringField(m, "source_type"),
		SourceURL:  stringField(m, "source_url"),
	}, nil
}

// TextSourcePatch is a partial update; nil fields are left unchanged.
// The project reference is not patchable.
type TextSourcePatch struct {
	Title      *string
	Content    *string
	SourceType *string
	SourceURL  *string
	Metadata   map[string]any
}

// Apply merges the patch into the text source.
func (patch TextSourcePatch) Apply(s *TextSource) {
	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.Content != nil {
		s.Content = *patch.Content
	}
	if patch.SourceType != nil {
		s.SourceType = *patch.SourceType
	}
	if patch.SourceURL != nil {
		s.SourceURL = *patch.SourceURL
	}
	if patch.Metadata != nil {
		s.Metadata = patch.Metadata
	}
}
