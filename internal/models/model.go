package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultModel is the base model for all resources with a storage-assigned ID.
//
// Deletion is terminal: rows are removed, not flagged. Unique indexes like
// the rule pattern must free their value on delete so the resource can be
// recreated.
type DefaultModel struct {
	ID        uint64    `json:"id" example:"14"` // ID of the resource, assigned by the storage layer
	CreatedAt time.Time `json:"createdAt" example:"2024-02-09T19:28:44.491514Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2024-02-11T20:14:01.048145Z"`
}

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000. Yes, this is different.
//
// We already store them in UTC, but somehow reading
// them from the database returns them as +0000.
func (m *DefaultModel) AfterFind(_ *gorm.DB) error {
	m.CreatedAt = m.CreatedAt.In(time.UTC)
	m.UpdatedAt = m.UpdatedAt.In(time.UTC)

	return nil
}
