package postgresadapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/klauspost/compress/gzip"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type archiveObjectModel struct {
	Container       string    `gorm:"column:container;primaryKey"`
	ObjectKey       string    `gorm:"column:object_key;primaryKey"`
	Payload         []byte    `gorm:"column:payload"`
	ContentEncoding string    `gorm:"column:content_encoding"`
	StoredAt        time.Time `gorm:"column:stored_at"`
}

func (archiveObjectModel) TableName() string { return "archive_objects" }

// Keyed by (container, object_key); every other column is replaced on
// conflict so redelivered notifications overwrite in place.
var (
	archiveKeyColumns    = []clause.Column{{Name: "container"}, {Name: "object_key"}}
	archiveUpdateColumns = []string{"payload", "content_encoding", "stored_at"}
)

// ArchiveStore lands routed payloads in a blob-style table keyed by
// container and object key, overwriting on conflict.
type ArchiveStore struct {
	db       *gorm.DB
	compress bool
	logger   *slog.Logger
}

func NewArchiveStore(db *gorm.DB, compress bool, logger *slog.Logger) *ArchiveStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveStore{
		db:       db,
		compress: compress,
		logger:   logger,
	}
}

func (s *ArchiveStore) Store(ctx context.Context, container string, key string, payload []byte) error {
	encoding := ""
	body := payload
	if s.compress {
		compressed, err := gzipBytes(payload)
		if err != nil {
			return fmt.Errorf("compress archive payload: %w", err)
		}
		body = compressed
		encoding = "gzip"
	}

	row := archiveObjectModel{
		Container:       container,
		ObjectKey:       key,
		Payload:         body,
		ContentEncoding: encoding,
		StoredAt:        time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   archiveKeyColumns,
			DoUpdates: clause.AssignmentColumns(archiveUpdateColumns),
		}).
		Create(&row).
		Error
	if err != nil {
		return fmt.Errorf("store archive object %s/%s: %w", container, key, err)
	}

	s.logger.Info("archive object stored",
		"event", "archive_object_stored",
		"module", "collaboration-ingest/notification-router",
		"layer", "adapter",
		"container", container,
		"object_key", key,
		"bytes", len(body),
	)
	return nil
}

func gzipBytes(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(payload); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
