package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"livelink-telematics-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	UpsertMachines(ctx context.Context, machines []model.Machine) error
	MachineByKey(ctx context.Context, key string) (*model.Machine, error)
	SubscriptionsForMachine(ctx context.Context, machineKey string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// UpsertMachines batch-upserts the machine registry rows observed during a
// poll, keyed by sanitized machine key.
func (s *gormStore) UpsertMachines(ctx context.Context, machines []model.Machine) error {
	if len(machines) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range machines {
		if machines[i].LastSeen.IsZero() {
			machines[i].LastSeen = now
		}
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"raw_id", "name", "model", "last_seen", "updated_at"}),
	}).Create(&machines).Error
	if err != nil {
		return fmt.Errorf("batch upsert machines failed: %w", err)
	}
	return nil
}

// MachineByKey fetches a single registry entry.
func (s *gormStore) MachineByKey(ctx context.Context, key string) (*model.Machine, error) {
	var machine model.Machine
	if err := s.db.WithContext(ctx).First(&machine, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &machine, nil
}

// SubscriptionsForMachine returns every push subscription watching the given
// machine key.
func (s *gormStore) SubscriptionsForMachine(ctx context.Context, machineKey string) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_machine_mapping smm ON smm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("smm.machine_key = ?", machineKey).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("fetch subscriptions for machine %q: %w", machineKey, err)
	}
	return subscriptions, nil
}

// DeleteSubscription removes a subscription, typically after the push
// service reports it expired.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

// DB exposes the underlying gorm handle for handlers that need transactional
// access.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}
