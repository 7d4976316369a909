package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/query"
)

// Population is one named population directive. Preload runs as part of the
// query; After runs over the fetched rows.
type Population[T any] struct {
	Preload func(tx *gorm.DB) *gorm.DB
	After   func(ctx context.Context, db *gorm.DB, items []*T) error
}

// Descriptor describes how one entity type is stored.
type Descriptor[T any] struct {
	Name   string
	Fields query.Registry
	// Scope restricts every read, e.g. hiding soft-deleted rows.
	Scope    func(tx *gorm.DB) *gorm.DB
	Populate map[string]Population[T]
	// Protected columns are never written from create or update payloads.
	Protected []string
	// Immutable columns are written on create only.
	Immutable []string
}

// Store is a generic table-backed store for one entity type.
type Store[T any, PT interface {
	*T
	domain.Entity
}] struct {
	db     *gorm.DB
	desc   Descriptor[T]
	logger *slog.Logger
}

// NewStore creates a store for the described entity.
func NewStore[T any, PT interface {
	*T
	domain.Entity
}](db *gorm.DB, desc Descriptor[T], logger *slog.Logger) *Store[T, PT] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[T, PT]{db: db, desc: desc, logger: logger.With(slog.String("entity", desc.Name))}
}

// Fields returns the filterable field registry.
func (s *Store[T, PT]) Fields() query.Registry { return s.desc.Fields }

// Scoped returns a session restricted by the entity scope.
func (s *Store[T, PT]) Scoped(ctx context.Context) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(new(T))
	if s.desc.Scope != nil {
		tx = tx.Scopes(s.desc.Scope)
	}
	return tx
}

// Create inserts e, assigning an id when it has none.
func (s *Store[T, PT]) Create(ctx context.Context, e PT) error {
	if e.EntityID() == uuid.Nil {
		e.SetEntityID(uuid.New())
	}
	omit := append([]string{clause.Associations}, s.desc.Protected...)
	if err := s.db.WithContext(ctx).Omit(omit...).Create(e).Error; err != nil {
		s.logger.Debug("create failed", slog.String("error", err.Error()))
		return classify(err)
	}
	return nil
}

// Get loads one entity by id, applying population directives.
func (s *Store[T, PT]) Get(ctx context.Context, id string, populate ...string) (PT, error) {
	uid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.FindOne(ctx, map[string]any{"id": uid}, populate...)
}

// FindOne loads the first entity matching the equality conditions.
func (s *Store[T, PT]) FindOne(ctx context.Context, where map[string]any, populate ...string) (PT, error) {
	tx, after, err := s.populate(s.Scoped(ctx), populate)
	if err != nil {
		return nil, err
	}
	var e T
	if err := tx.Where(where).Take(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound(ErrNoDocument)
		}
		return nil, classify(err)
	}
	if err := s.runAfter(ctx, after, []*T{&e}); err != nil {
		return nil, err
	}
	return &e, nil
}

// Find lists entities matching the ambient equality conditions and the query.
func (s *Store[T, PT]) Find(ctx context.Context, where map[string]any, q query.Query, populate ...string) ([]T, error) {
	compiled, err := s.desc.Fields.Compile(q)
	if err != nil {
		return nil, err
	}
	tx, after, err := s.populate(s.Scoped(ctx), populate)
	if err != nil {
		return nil, err
	}
	if len(where) > 0 {
		tx = tx.Where(where)
	}
	for _, c := range compiled.Where {
		tx = tx.Where(c.SQL, c.Args...)
	}
	for _, o := range compiled.Order {
		tx = tx.Order(o)
	}
	tx = tx.Offset(compiled.Offset).Limit(compiled.Limit)

	out := []T{}
	if err := tx.Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	ptrs := make([]*T, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := s.runAfter(ctx, after, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes every non-protected column of e and bumps its version.
func (s *Store[T, PT]) Update(ctx context.Context, e PT) error {
	e.BumpVersion()
	omit := []string{clause.Associations, "id", "created_at"}
	omit = append(omit, s.desc.Protected...)
	omit = append(omit, s.desc.Immutable...)
	res := s.db.WithContext(ctx).Model(e).Select("*").Omit(omit...).Updates(e)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound(ErrNoDocument)
	}
	return nil
}

// Delete removes an entity by id and returns what was removed.
func (s *Store[T, PT]) Delete(ctx context.Context, id string) (PT, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Delete(e)
	if res.Error != nil {
		return nil, classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.NotFound(ErrNoDocument)
	}
	return e, nil
}

func (s *Store[T, PT]) populate(tx *gorm.DB, names []string) (*gorm.DB, []Population[T], error) {
	var after []Population[T]
	for _, name := range names {
		p, ok := s.desc.Populate[name]
		if !ok {
			return nil, nil, fmt.Errorf("%s: unknown population %q", s.desc.Name, name)
		}
		if p.Preload != nil {
			tx = p.Preload(tx)
		}
		if p.After != nil {
			after = append(after, p)
		}
	}
	return tx, after, nil
}

func (s *Store[T, PT]) runAfter(ctx context.Context, after []Population[T], items []*T) error {
	for _, p := range after {
		if err := p.After(ctx, s.db.WithContext(ctx), items); err != nil {
			return classify(err)
		}
	}
	return nil
}
