package entity

import (
	"strings"
	"unicode/utf8"
)

// Project is the root of the content graph. It owns text sources, which
// in turn own summaries, translations, videos, and links.
type Project struct {
	Base
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewProject constructs an unsaved project.
func NewProject(name string) *Project {
	return &Project{Name: name}
}

func (p *Project) Kind() string      { return "Project" }
func (p *Project) TableName() string { return "projects" }

func (p *Project) InsertColumns() []string {
	return []string{"name", "description", "metadata"}
}

func (p *Project) UpdateColumns() []string {
	return []string{"name", "description", "metadata"}
}

// Validate checks the project constraints.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Entity: "Project", Field: "name", Value: p.Name, Reason: "is required"}
	}
	if utf8.RuneCountInString(p.Name) > 255 {
		return &ValidationError{Entity: "Project", Field: "name", Value: p.Name, Reason: "must be 255 characters or less"}
	}
	if utf8.RuneCountInString(p.Description) > 10000 {
		return &ValidationError{Entity: "Project", Field: "description", Value: p.Description, Reason: "must be 10000 characters or less"}
	}
	return nil
}

// ToMap serializes the project to a plain key-value form.
func (p *Project) ToMap() map[string]any {
	m := p.baseMap()
	m["name"] = p.Name
	m["description"] = p.Description
	return m
}

// ProjectFromMap deserializes a project from its key-value form.
func ProjectFromMap(m map[string]any) (*Project, error) {
	base, err := baseFromMap(m)
	if err != nil {
		return nil, err
	}
	return &Project{
		Base:        base,
		Name:        stringField(m, "name"),
		Description: stringField(m, "description"),
	}, nil
}

// ProjectPatch is a partial update; nil fields are left unchanged.
type ProjectPatch struct {
	Name        *string
	Description *string
	Metadata    map[string]any
}

// Apply merges the patch into the project.
func (patch ProjectPatch) Apply(p *Project) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Metadata != nil {
		p.Metadata = patch.Metadata
	}
}
