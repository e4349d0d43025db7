package entity

import (
	"strings"
	"unicode/utf8"
)

// DefaultSummaryType is assigned when a summary is created without an
// explicit type.
const DefaultSummaryType = "general"

// Summary is generated summary text for one text source.
type Summary struct {
	Base
	TextSourceID int64  `json:"text_source_id"`
	Title        string `json:"title,omitempty"`
	Content      string `json:"content"`
	SummaryType  string `json:"summary_type"`
}

// NewSummary constructs an unsaved summary with the default type.
func NewSummary(textSourceID int64, content string) *Summary {
	return &Summary{
		TextSourceID: textSourceID,
		Content:      content,
		SummaryType:  DefaultSummaryType,
	}
}

func (s *Summary) Kind() string      { return "Summary" }
func (s *Summary) TableName() string { return "summaries" }

func (s *Summary) InsertColumns() []string {
	return []string{"text_source_id", "title", "content", "summary_type", "metadata"}
}

func (s *Summary) UpdateColumns() []string {
	return []string{"title", "content", "summary_type", "metadata"}
}

// Validate checks the summary constraints.
func (s *Summary) Validate() error {
	if s.TextSourceID <= 0 {
		return &ValidationError{Entity: "Summary", Field: "text_source_id", Value: s.TextSourceID, Reason: "is required and must be positive"}
	}
	if strings.TrimSpace(s.Content) == "" {
		return &ValidationError{Entity: "Summary", Field: "content", Value: s.Content, Reason: "is required"}
	}
	if utf8.RuneCountInString(s.Title) > 255 {
		return &ValidationError{Entity: "Summary", Field: "title", Value: s.Title, Reason: "must be 255 characters or less"}
	}
	if utf8.RuneCountInString(s.SummaryType) > 50 {
		return &ValidationError{Entity: "Summary", Field: "summary_type", Value: s.SummaryType, Reason: "must be 50 characters or less"}
	}
	return nil
}

// ToMap serializes the summary to a plain key-value form.
func (s *Summary) ToMap() map[string]any {
	m := s.baseMap()
	m["text_source_id"] = s.TextSourceID
	m["title"] = s.Title
	m["content"] = s.Content
	m["summary_type"] = s.SummaryType
	return m
}

// SummaryFromMap deserializes a summary from its key-value form.
func SummaryFromMap(m map[string]any) (*Summary, error) {
	base, err := baseFromMap(m)
	if err != nil {
		return nil, err
	}
	sourceID, _, err := int64Field(m, "text_source_id")
	if err != nil {
		return nil, err
	}
	return &Summary{
		Base:         base,
		TextSourceID: sourceID,
		Title:        stringField(m, "title"),
		Content:      stringField(m, "content"),
		SummaryType:  stringField(m, "summary_type"),
	}, nil
}

// SummaryPatch is a partial update; nil fields are left unchanged.
type SummaryPatch struct {
	Title       *string
	Content     *string
	SummaryType *string
	Metadata    map[string]any
}

// Apply merges the patch into the summary.
func (patch SummaryPatch) Apply(s *Summary) {
	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.Content != nil {
		s.Content = *patch.Content
	}
	if patch.SummaryType != nil {
		s.SummaryType = *patch.SummaryType
	}
	if patch.Metadata != nil {
		s.Metadata = patch.Metadata
	}
}
