// Package entity defines the persisted domain model: the shared base
// shape (identity, timestamps, metadata), the serialization and
// validation contracts, and the six concrete entity kinds.
package entity

import (
	"fmt"
	"time"
)

// ValidationError reports a field that violates a model constraint.
type ValidationError struct {
	Entity string
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s %s (got %v)", e.Entity, e.Field, e.Reason, e.Value)
}

// Entity is the contract every persisted kind implements.
type Entity interface {
	// EntityID returns the assigned identity, zero if unsaved.
	EntityID() int64
	// Kind is the entity kind name used in errors ("Project", "Link", ...).
	Kind() string
	// TableName is the storage location.
	TableName() string
	// InsertColumns lists the columns written on insert, in order.
	InsertColumns() []string
	// UpdateColumns lists the columns written on update, in order.
	UpdateColumns() []string
	// Validate checks the model constraints, returning *ValidationError
	// on the first violation.
	Validate() error
	// ToMap serializes to a plain key-value form with RFC 3339
	// timestamps and the metadata map preserved unchanged.
	ToMap() map[string]any
}

// Base carries the attributes common to all entity kinds. Identity is
// assigned on insert and immutable; UpdatedAt is bumped on every
// successful mutation.
type Base struct {
	ID        int64          `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Metadata  map[string]any `json:"metadata"`
}

// EntityID returns the assigned identity, zero if unsaved.
func (b *Base) EntityID() int64 { return b.ID }

// Saved reports whether the entity has an assigned identity.
func (b *Base) Saved() bool { return b.ID != 0 }

// SetMeta sets a single metadata annotation.
func (b *Base) SetMeta(key string, value any) {
	if b.Metadata == nil {
		b.Metadata = map[string]any{}
	}
	b.Metadata[key] = value
}

// Meta returns a metadata annotation and whether it was present.
func (b *Base) Meta(key string) (any, bool) {
	v, ok := b.Metadata[key]
	return v, ok
}

// Equal reports identity-based equality: same kind and same assigned
// identity. Entities without an identity are never equal to anything.
func Equal(a, b Entity) bool {
	if a == nil || b == nil {
		return false
	}
	if a.EntityID() == 0 || b.EntityID() == 0 {
		return false
	}
	return a.Kind() == b.Kind() && a.EntityID() == b.EntityID()
}

func (b *Base) baseMap() map[string]any {
	m := map[string]any{
		"id":       b.ID,
		"metadata": b.Metadata,
	}
	if !b.CreatedAt.IsZero() {
		m["created_at"] = b.CreatedAt.Format(time.RFC3339Nano)
	}
	if !b.UpdatedAt.IsZero() {
		m["updated_at"] = b.UpdatedAt.Format(time.RFC3339Nano)
	}
	return m
}

func baseFromMap(m map[string]any) (Base, error) {
	var b Base
	var err error

	if v, ok := m["id"]; ok {
		if b.ID, err = toInt64(v); err != nil {
			return Base{}, fmt.Errorf("id: %w", err)
		}
	}
	if b.CreatedAt, err = timeField(m, "created_at"); err != nil {
		return Base{}, err
	}
	if b.UpdatedAt, err = timeField(m, "updated_at"); err != nil {
		return Base{}, err
	}
	if v, ok := m["metadata"]; ok && v != nil {
		meta, ok := v.(map[string]any)
		if !ok {
			return Base{}, fmt.Errorf("metadata: expected map, got %T", v)
		}
		b.Metadata = meta
	}
	return b, nil
}

func timeField(m map[string]any, key string) (time.Time, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", key, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("%s: expected timestamp, got %T", key, v)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func boolField(m map[string]any, key string, fallback bool) bool {
	if v, ok := m[key]; ok && v != nil {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

func int64Field(m map[string]any, key string) (int64, bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}
