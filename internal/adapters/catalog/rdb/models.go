package rdb

import "time"

// EntityRecord is one catalog entity owned by a provider.
// Table name: entities
type EntityRecord struct {
	Ref       string    `gorm:"primaryKey;type:text;not null"`
	Provider  string    `gorm:"type:text;not null;index"`
	Kind      string    `gorm:"type:text;not null"`
	Namespace string    `gorm:"type:text;not null"`
	Name      string    `gorm:"type:text;not null"`
	Document  string    `gorm:"type:text;not null"` // JSON encoded domain.Entity
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (EntityRecord) TableName() string { return "entities" }

// MutationRecord is an audit row per applied mutation.
// Table name: mutations
type MutationRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Provider  string    `gorm:"type:text;not null;index"`
	Upserted  int       `gorm:"not null"`
	Removed   int       `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (MutationRecord) TableName() string { return "mutations" }
