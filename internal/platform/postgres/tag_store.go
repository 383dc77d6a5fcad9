package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/medivue-api/internal/domain"
	"github.com/phrazzld/medivue-api/internal/platform/logger"
	"github.com/phrazzld/medivue-api/internal/store"
)

// PostgresTagStore implements the store.TagStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTagStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTagStore creates a new PostgreSQL implementation of the TagStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTagStore(db store.DBTX, logger *slog.Logger) *PostgresTagStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTagStore{
		db:     db,
		logger: logger.With(slog.String("component", "tag_store")),
	}
}

// Ensure PostgresTagStore implements store.TagStore interface
var _ store.TagStore = (*PostgresTagStore)(nil)

// WithTx implements store.TagStore.WithTx
func (s *PostgresTagStore) WithTx(tx *sql.Tx) store.TagStore {
	return &PostgresTagStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetByName implements store.TagStore.GetByName
// It retrieves a tag by its exact, case-sensitive name.
// Returns store.ErrTagNotFound if no tag with that name exists.
func (s *PostgresTagStore) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name
		FROM tags
		WHERE name = $1
	`

	var tag domain.Tag
	err := s.db.QueryRowContext(ctx, query, name).Scan(&tag.ID, &tag.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("tag not found", slog.String("name", name))
			return nil, store.ErrTagNotFound
		}
		log.Error("failed to get tag by name",
			slog.String("error", err.Error()),
			slog.String("name", name))
		return nil, MapError(err)
	}

	return &tag, nil
}

// Create implements store.TagStore.Create
// It saves a new tag, relying on the unique index on tags.name to reject
// duplicates. Returns store.ErrTagNameExists on a unique violation so callers
// can re-fetch and reuse the row that won the race.
func (s *PostgresTagStore) Create(ctx context.Context, tag *domain.Tag) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := tag.Validate(); err != nil {
		log.Warn("tag validation failed during create",
			slog.String("error", err.Error()),
			slog.String("tag_id", tag.ID.String()))
		return err
	}

	query := `
		INSERT INTO tags (id, name)
		VALUES ($1, $2)
	`
	_, err := s.db.ExecContext(ctx, query, tag.ID, tag.Name)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("tag name already exists",
				slog.String("name", tag.Name))
			return fmt.Errorf("%w: %q", store.ErrTagNameExists, tag.Name)
		}
		log.Error("failed to create tag",
			slog.String("error", err.Error()),
			slog.String("name", tag.Name))
		return MapError(err)
	}

	log.Info("tag created successfully",
		slog.String("tag_id", tag.ID.String()),
		slog.String("name", tag.Name))
	return nil
}
