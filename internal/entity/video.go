package entity

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Video is a rendered video file reference for one text source. File
// existence checks are advisory: a missing file on disk is not a data
// integrity violation.
type Video struct {
	Base
	TextSourceID  int64  `json:"text_source_id"`
	Title         string `json:"title,omitempty"`
	FilePath      string `json:"file_path"`
	FileURL       string `json:"file_url,omitempty"`
	FileSize      *int64 `json:"file_size,omitempty"`
	Duration      *int64 `json:"duration,omitempty"`
	Format        string `json:"format,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
}

// NewVideo constructs an unsaved video reference.
func NewVideo(textSourceID int64, filePath string) *Video {
	return &Video{TextSourceID: textSourceID, FilePath: filePath}
}

func (v *Video) Kind() string      { return "Video" }
func (v *Video) TableName() string { return "videos" }

func (v *Video) InsertColumns() []string {
	return []string{"text_source_id", "title", "file_path", "file_url", "file_size", "duration", "format", "thumbnail_path", "metadata"}
}

func (v *Video) UpdateColumns() []string {
	return []string{"title", "file_path", "file_url", "file_size", "duration", "format", "thumbnail_path", "metadata"}
}

// Validate checks the video constraints.
func (v *Video) Validate() error {
	if v.TextSourceID <= 0 {
		return &ValidationError{Entity: "Video", Field: "text_source_id", Value: v.TextSourceID, Reason: "is required and must be positive"}
	}
	if strings.TrimSpace(v.FilePath) == "" {
		return &ValidationError{Entity: "Video", Field: "file_path", Value: v.FilePath, Reason: "is required"}
	}
	if utf8.RuneCountInString(v.FilePath) > 500 {
		return &ValidationError{Entity: "Video", Field: "file_path", Value: v.FilePath, Reason: "must be 500 characters or less"}
	}
	if utf8.RuneCountInString(v.Title) > 255 {
		return &ValidationError{Entity: "Video", Field: "title", Value: v.Title, Reason: "must be 255 characters or less"}
	}
	if utf8.RuneCountInString(v.FileURL) > 500 {
		return &ValidationError{Entity: "Video", Field: "file_url", Value: v.FileURL, Reason: "must be 500 characters or less"}
	}
	if v.FileSize != nil && *v.FileSize < 0 {
		return &ValidationError{Entity: "Video", Field: "file_size", Value: *v.FileSize, Reason: "must be non-negative"}
	}
	if v.Duration != nil && *v.Duration < 0 {
		return &ValidationError{Entity: "Video", Field: "duration", Value: *v.Duration, Reason: "must be non-negative"}
	}
	if utf8.RuneCountInString(v.Format) > 20 {
		return &ValidationError{Entity: "Video", Field: "format", Value: v.Format, Reason: "must be 20 characters or less"}
	}
	if utf8.RuneCountInString(v.ThumbnailPath) > 500 {
		return &ValidationError{Entity: "Video", Field: "thumbnail_path", Value: v.ThumbnailPath, Reason: "must be 500 characters or less"}
	}
	return nil
}

// FileExists reports whether the video file is present on disk.
func (v *Video) FileExists() bool {
	if v.FilePath == "" {
		return false
	}
	_, err := os.Stat(v.FilePath)
	return err == nil
}

// ThumbnailExists reports whether the thumbnail file is present on disk.
func (v *Video) ThumbnailExists() bool {
	if v.ThumbnailPath == "" {
		return false
	}
	_, err := os.Stat(v.ThumbnailPath)
	return err == nil
}

// FileSizeMB returns the file size in megabytes, or false if unknown.
func (v *Video) FileSizeMB() (float64, bool) {
	if v.FileSize == nil {
		return 0, false
	}
	return float64(*v.FileSize) / (1024 * 1024), true
}

// FormattedDuration returns the duration as HH:MM:SS, or false if
// unknown.
func (v *Video) FormattedDuration() (string, bool) {
	if v.Duration == nil {
		return "", false
	}
	d := *v.Duration
	return fmt.Sprintf("%02d:%02d:%02d", d/3600, (d%3600)/60, d%60), true
}

// ToMap serializes the video to a plain key-value form.
func (v *Video) ToMap() map[string]any {
	m := v.baseMap()
	m["text_source_id"] = v.TextSourceID
	m["title"] = v.Title
	m["file_path"] = v.FilePath
	m["file_url"] = v.FileURL
	m["format"] = v.Format
	m["thumbnail_path"] = v.ThumbnailPath
	if v.FileSize != nil {
		m["file_size"] = *v.FileSize
	}
	if v.Duration != nil {
		m["duration"] = *v.Duration
	}
	return m
}

// VideoFromMap deserializes a video from its key-value form.
func VideoFromMap(m map[string]any) (*Video, error) {
	base, err := baseFromMap(m)
	if err != nil {
		return nil, err
	}
	sourceID, _, err := int64Field(m, "text_source_id")
	if err != nil {
		return nil, err
	}
	v := &Video{
		Base:          base,
		TextSourceID:  sourceID,
		Title:         stringField(m, "title"),
		FilePath:      stringField(m, "file_path"),
		FileURL:       stringField(m, "file_url"),
		Format:        stringField(m, "format"),
		ThumbnailPath: stringField(m, "thumbnail_path"),
	}
	if size, ok, err := int64Field(m, "file_size"); err != nil {
		return nil, err
	} else if ok {
		v.FileSize = &size
	}
	if duration, ok, err := int64Field(m, "duration"); err != nil {
		return nil, err
	} else if ok {
		v.Duration = &duration
	}
	return v, nil
}

// VideoPatch is a partial update; nil fields are left unchanged.
type VideoPatch struct {
	Title         *string
	FilePath      *string
	FileURL       *string
	FileSize      *int64
	Duration      *int64
	Format        *string
	ThumbnailPath *string
	Metadata      map[string]any
}

// Apply merges the patch into the video.
func (patch VideoPatch) Apply(v *Video) {
	if patch.Title != nil {
		v.Title = *patch.Title
	}
	if patch.FilePath != nil {
		v.FilePath = *patch.FilePath
	}
	if patch.FileURL != nil {
		v.FileURL = *patch.FileURL
	}
	if patch.FileSize != nil {
		v.FileSize = patch.FileSize
	}
	if patch.Duration != nil {
		v.Duration = patch.Duration
	}
	if patch.Format != nil {
		v.Format = *patch.Format
	}
	if patch.ThumbnailPath != nil {
		v.ThumbnailPath = *patch.ThumbnailPath
	}
	if patch.Metadata != nil {
		v.Metadata = patch.Metadata
	}
}
