package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"graphrelay/contexts/collaboration-ingest/subscription-lifecycle/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// The registry is one JSON snapshot under a fixed key, the same shape the
// blob-store deployment used. A single scheduled actor writes it; there is
// no optimistic-concurrency check.
const registrySnapshotKey = "subscriptionList.json"

const pgUniqueViolation = "23505"

type registrySnapshotModel struct {
	StateKey  string    `gorm:"column:state_key;primaryKey"`
	Snapshot  []byte    `gorm:"column:snapshot"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (registrySnapshotModel) TableName() string { return "subscription_registry" }

type RegistryStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRegistryStore(db *gorm.DB, logger *slog.Logger) *RegistryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryStore{
		db:     db,
		logger: logger,
	}
}

func (s *RegistryStore) Load(ctx context.Context) (ports.Registry, bool, error) {
	var row registrySnapshotModel
	err := s.db.WithContext(ctx).
		Where("state_key = ?", registrySnapshotKey).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Registry{}, false, nil
		}
		return ports.Registry{}, false, fmt.Errorf("load registry snapshot: %w", err)
	}

	var registry ports.Registry
	if err := json.Unmarshal(row.Snapshot, &registry); err != nil {
		return ports.Registry{}, false, fmt.Errorf("decode registry snapshot: %w", err)
	}
	return registry, true, nil
}

func (s *RegistryStore) Save(ctx context.Context, registry ports.Registry) error {
	payload, err := json.Marshal(registry)
	if err != nil {
		return fmt.Errorf("encode registry snapshot: %w", err)
	}

	row := registrySnapshotModel{
		StateKey:  registrySnapshotKey,
		Snapshot:  payload,
		UpdatedAt: time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Create(&row).Error
	if err != nil && isUniqueViolation(err) {
		err = s.db.WithContext(ctx).
			Model(&registrySnapshotModel{}).
			Where("state_key = ?", registrySnapshotKey).
			Updates(map[string]any{
				"snapshot":   payload,
				"updated_at": row.UpdatedAt,
			}).
			Error
	}
	if err != nil {
		return fmt.Errorf("persist registry snapshot: %w", err)
	}

	s.logger.Info("subscription registry persisted",
		"event", "registry_persisted",
		"module", "collaboration-ingest/subscription-lifecycle",
		"layer", "adapter",
		"entries", len(registry.Value),
	)
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
