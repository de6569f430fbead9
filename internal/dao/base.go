package dao

import (
	"time"
)

// BaseObject implements the Object interface with embedded fields.
type BaseObject struct {
	ID        string
	Name      string
	CreatedAt *time.Time
	Attrs     map[string]string
	Raw       any
}

// GetID returns the record ID.
func (b *BaseObject) GetID() string {
	return b.ID
}

// GetName returns the record name.
func (b *BaseObject) GetName() string {
	return b.Name
}

// GetCreatedAt returns the creation timestamp.
func (b *BaseObject) GetCreatedAt() *time.Time {
	return b.CreatedAt
}

// GetAttrs returns the record attributes.
func (b *BaseObject) GetAttrs() map[string]string {
	return b.Attrs
}

// GetRaw returns the backend object.
func (b *BaseObject) GetRaw() any {
	return b.Raw
}

func window[T any](all []T, offset, limit int) []T {
	if offset < 0 || offset >= len(all) || limit <= 0 {
		return nil
	}
	return all[offset:min(offset+limit, len(all))]
}
