package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/query"
)

// EntityStore is the persistence the factory needs. repository.Store
// implements it.
type EntityStore[T any, PT interface {
	*T
	domain.Entity
}] interface {
	Fields() query.Registry
	Create(ctx context.Context, e PT) error
	Get(ctx context.Context, id string, populate ...string) (PT, error)
	Find(ctx context.Context, where map[string]any, q query.Query, populate ...string) ([]T, error)
	Update(ctx context.Context, e PT) error
	Delete(ctx context.Context, id string) (PT, error)
}

// Hooks attach entity-specific behavior to the generic operations. Every
// hook is optional. After* hooks run once the write has committed and see a
// context that outlives the client connection.
type Hooks[T any] struct {
	BeforeSave  func(ctx context.Context, e *T, creating bool) error
	AfterCreate func(ctx context.Context, e *T) error
	AfterUpdate func(ctx context.Context, e *T) error
	AfterDelete func(ctx context.Context, e *T) error
	// CanModify gates update and delete on the stored entity.
	CanModify func(ctx context.Context, e *T) error
}

// Factory implements create, read, list, update and delete for one entity
// type on top of an EntityStore.
type Factory[T any, PT interface {
	*T
	domain.Entity
}] struct {
	store     EntityStore[T, PT]
	hooks     Hooks[T]
	validate  *validator.Validate
	opts      query.Options
	readAfter []string
	logger    *slog.Logger
}

// FactoryConfig holds the per-entity settings of a Factory.
type FactoryConfig[T any] struct {
	Hooks Hooks[T]
	// Query holds list query options, e.g. multi-value fields.
	Query query.Options
	// ReadPopulate is applied when re-reading a written entity.
	ReadPopulate []string
}

func NewFactory[T any, PT interface {
	*T
	domain.Entity
}](store EntityStore[T, PT], cfg FactoryConfig[T], v *validator.Validate, logger *slog.Logger) *Factory[T, PT] {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = NewValidator()
	}
	return &Factory[T, PT]{
		store:     store,
		hooks:     cfg.Hooks,
		validate:  v,
		opts:      cfg.Query,
		readAfter: cfg.ReadPopulate,
		logger:    logger,
	}
}

// Create validates and inserts e, then returns the stored entity.
func (f *Factory[T, PT]) Create(ctx context.Context, e PT) (PT, error) {
	// id and createdAt in a request body are ignored.
	e.ResetServerFields()
	if f.hooks.BeforeSave != nil {
		if err := f.hooks.BeforeSave(ctx, e, true); err != nil {
			return nil, err
		}
	}
	if err := validateEntity(f.validate, e); err != nil {
		return nil, err
	}
	if err := f.store.Create(ctx, e); err != nil {
		return nil, err
	}
	if f.hooks.AfterCreate != nil {
		if err := f.hooks.AfterCreate(context.WithoutCancel(ctx), e); err != nil {
			return nil, err
		}
	}
	return f.store.Get(ctx, e.EntityID().String(), f.readAfter...)
}

// Get loads one entity with the requested population directives.
func (f *Factory[T, PT]) Get(ctx context.Context, id string, populate ...string) (PT, error) {
	return f.store.Get(ctx, id, populate...)
}

// List runs the query feature pipeline over params. where is the ambient
// filter, e.g. the tour id of a nested route. The returned Query carries the
// projection for the caller to apply.
func (f *Factory[T, PT]) List(ctx context.Context, where map[string]any, params url.Values, populate ...string) ([]T, query.Query, error) {
	q, err := query.Build(params, f.opts)
	if err != nil {
		return nil, q, err
	}
	items, err := f.store.Find(ctx, where, q, populate...)
	if err != nil {
		return nil, q, err
	}
	return items, q, nil
}

// Update merges the JSON patch into the stored entity, re-runs validation
// and writes it.
func (f *Factory[T, PT]) Update(ctx context.Context, id string, patch []byte) (PT, error) {
	e, err := f.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.hooks.CanModify != nil {
		if err := f.hooks.CanModify(ctx, e); err != nil {
			return nil, err
		}
	}
	storedID := e.EntityID()
	if len(patch) > 0 {
		if err := json.Unmarshal(patch, e); err != nil {
			return nil, domain.Validation("Invalid input data. " + err.Error()).Wrap(err)
		}
	}
	e.SetEntityID(storedID)
	if f.hooks.BeforeSave != nil {
		if err := f.hooks.BeforeSave(ctx, e, false); err != nil {
			return nil, err
		}
	}
	if err := validateEntity(f.validate, e); err != nil {
		return nil, err
	}
	if err := f.store.Update(ctx, e); err != nil {
		return nil, err
	}
	if f.hooks.AfterUpdate != nil {
		if err := f.hooks.AfterUpdate(context.WithoutCancel(ctx), e); err != nil {
			return nil, err
		}
	}
	return f.store.Get(ctx, id, f.readAfter...)
}

// Delete removes the entity.
func (f *Factory[T, PT]) Delete(ctx context.Context, id string) error {
	if f.hooks.CanModify != nil {
		e, err := f.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := f.hooks.CanModify(ctx, e); err != nil {
			return err
		}
	}
	e, err := f.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	f.logger.Debug("document deleted", slog.String("id", id))
	if f.hooks.AfterDelete != nil {
		return f.hooks.AfterDelete(context.WithoutCancel(ctx), e)
	}
	return nil
}
