package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel carries the identity and timestamps shared by every record.
// The id is a UUID string so the same value works in Postgres and MongoDB.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:uuid" bson:"_id" json:"id"`
	CreatedAt time.Time `gorm:"not null" bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" bson:"updated_at" json:"updated_at"`
}

// Stamp assigns an id if missing and sets the timestamps for a new record.
func (b *BaseModel) Stamp(now time.Time) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Touch updates the modification time.
func (b *BaseModel) Touch(now time.Time) {
	b.UpdatedAt = now
}
