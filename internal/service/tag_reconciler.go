package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/medivue-api/internal/domain"
	"github.com/phrazzld/medivue-api/internal/platform/logger"
	"github.com/phrazzld/medivue-api/internal/store"
)

// TagReconciler resolves free-text tag names to canonical, persisted Tag
// rows, creating missing ones on first reference. Names match exactly and
// case-sensitively; duplicates in the input collapse to one reference, and
// the result preserves first-occurrence order.
//
// Reconciliation runs against the bare connection rather than inside the
// caller's task transaction: tag rows are never deleted (orphans are
// permitted), so committing them independently is safe, and it keeps the
// unique-violation retry path below usable.
type TagReconciler struct {
	tags   store.TagStore
	logger *slog.Logger
}

// NewTagReconciler creates a new TagReconciler.
// If logger is nil, a default logger will be used.
func NewTagReconciler(tags store.TagStore, logger *slog.Logger) (*TagReconciler, error) {
	if tags == nil {
		return nil, fmt.Errorf("tag store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TagReconciler{
		tags:   tags,
		logger: logger.With(slog.String("component", "tag_reconciler")),
	}, nil
}

// Reconcile resolves the given names to Tag rows, creating any that do not
// exist yet. Empty names are skipped. This operation never deletes a tag,
// even one left unreferenced by every task.
func (r *TagReconciler) Reconcile(ctx context.Context, names []string) ([]domain.Tag, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	// Collapse duplicates to one reference per distinct name, keeping input order
	seen := make(map[string]bool, len(names))
	distinct := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		distinct = append(distinct, name)
	}

	tags := make([]domain.Tag, 0, len(distinct))
	for _, name := range distinct {
		tag, err := r.resolve(ctx, name)
		if err != nil {
			log.Error("failed to reconcile tag",
				slog.String("error", err.Error()),
				slog.String("name", name))
			return nil, err
		}
		tags = append(tags, *tag)
	}

	log.Debug("reconciled tags",
		slog.Int("requested", len(names)),
		slog.Int("resolved", len(tags)))
	return tags, nil
}

// resolve looks up a single name, creating the tag on first use. Two
// in-flight requests can race to create the same name; the unique index on
// tags.name turns the loser into ErrTagNameExists, which is recovered here
// by re-fetching and reusing the winner's row.
func (r *TagReconciler) resolve(ctx context.Context, name string) (*domain.Tag, error) {
	tag, err := r.tags.GetByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, store.ErrTagNotFound) {
		return nil, err
	}

	created, err := domain.NewTag(name)
	if err != nil {
		return nil, err
	}

	err = r.tags.Create(ctx, created)
	if err == nil {
		return created, nil
	}
	if errors.Is(err, store.ErrTagNameExists) {
		logger.FromContextOrDefault(ctx, r.logger).Debug(
			"lost tag creation race, reusing existing row",
			slog.String("name", name))
		return r.tags.GetByName(ctx, name)
	}
	return nil, err
}
