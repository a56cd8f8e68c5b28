package model

import "time"

// Machine is a registry entry for a machine observed during polling, keyed
// by its sanitized identifier (the same key used in tag names).
type Machine struct {
	Key       string `gorm:"primaryKey;size:128"`
	RawID     string `gorm:"size:128;not null"`
	Name      string `gorm:"size:256"`
	Model     string `gorm:"size:128"`
	LastSeen  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Subscriptions []*PushSubscription `gorm:"many2many:subscription_machine_mapping;"`
}
