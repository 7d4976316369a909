package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/payment"
	"github.com/aryan0dhankhar/natours/internal/query"
)

// memStore is an in-memory EntityStore keeping insertion order.
type memStore[T any, PT interface {
	*T
	domain.Entity
}] struct {
	mu     sync.Mutex
	order  []uuid.UUID
	items  map[uuid.UUID]T
	fields query.Registry
	// match applies ambient where conditions.
	match func(e PT, where map[string]any) bool
	// conflict reports a unique-index violation between two entities.
	conflict func(a, b PT) bool
}

func newMemStore[T any, PT interface {
	*T
	domain.Entity
}](fields query.Registry) *memStore[T, PT] {
	return &memStore[T, PT]{items: map[uuid.UUID]T{}, fields: fields}
}

func (m *memStore[T, PT]) Fields() query.Registry { return m.fields }

func (m *memStore[T, PT]) Create(_ context.Context, e PT) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflict != nil {
		for _, id := range m.order {
			other := m.items[id]
			if m.conflict(PT(&other), e) {
				return domain.NewError(domain.KindDuplicateKey, "Duplicate field value. Please use another value!")
			}
		}
	}
	if e.EntityID() == uuid.Nil {
		e.SetEntityID(uuid.New())
	}
	m.items[e.EntityID()] = *e
	m.order = append(m.order, e.EntityID())
	return nil
}

func (m *memStore[T, PT]) Get(_ context.Context, id string, _ ...string) (PT, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.Errorf(domain.KindMalformedReference, "Invalid id: %s", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[uid]
	if !ok {
		return nil, domain.NotFound("No document found with that ID")
	}
	return &e, nil
}

func (m *memStore[T, PT]) Find(_ context.Context, where map[string]any, q query.Query, _ ...string) ([]T, error) {
	if _, err := m.fields.Compile(q); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []T{}
	for _, id := range m.order {
		e := m.items[id]
		if m.match != nil && len(where) > 0 && !m.match(PT(&e), where) {
			continue
		}
		out = append(out, e)
	}
	if q.Skip >= len(out) {
		return []T{}, nil
	}
	out = out[q.Skip:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memStore[T, PT]) Update(_ context.Context, e PT) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[e.EntityID()]; !ok {
		return domain.NotFound("No document found with that ID")
	}
	e.BumpVersion()
	m.items[e.EntityID()] = *e
	return nil
}

func (m *memStore[T, PT]) Delete(_ context.Context, id string) (PT, error) {
	e, err := m.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, e.EntityID())
	for i, oid := range m.order {
		if oid == e.EntityID() {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return e, nil
}

func (m *memStore[T, PT]) all() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out
}

// memReviews computes rating summaries over a review memStore.
type memReviews struct {
	store *memStore[domain.Review, *domain.Review]
}

func (r memReviews) RatingSummary(_ context.Context, tourID uuid.UUID) (domain.RatingSummary, error) {
	var sum domain.RatingSummary
	var total float64
	for _, rv := range r.store.all() {
		if rv.TourID == tourID {
			sum.Quantity++
			total += rv.Rating
		}
	}
	if sum.Quantity > 0 {
		sum.Average = total / float64(sum.Quantity)
	}
	return sum, nil
}

func (r memReviews) ReviewedTourIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, rv := range r.store.all() {
		if rv.UserID == userID && !seen[rv.TourID] {
			seen[rv.TourID] = true
			ids = append(ids, rv.TourID)
		}
	}
	return ids, nil
}

type ratingRecord struct {
	Quantity int
	Average  float64
}

// memTours implements domain.TourRepository over fixed data.
type memTours struct {
	mu      sync.Mutex
	tours   map[uuid.UUID]*domain.Tour
	ratings map[uuid.UUID]ratingRecord
	writes  int
	stats   []domain.TourStat
	statsN  int
}

func newMemTours(tours ...*domain.Tour) *memTours {
	m := &memTours{tours: map[uuid.UUID]*domain.Tour{}, ratings: map[uuid.UUID]ratingRecord{}}
	for _, t := range tours {
		m.tours[t.ID] = t
	}
	return m
}

func (m *memTours) SetRating(_ context.Context, id uuid.UUID, quantity int, average float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.ratings[id] = ratingRecord{Quantity: quantity, Average: average}
	return nil
}

func (m *memTours) Stats(context.Context, float64) ([]domain.TourStat, error) {
	m.statsN++
	return m.stats, nil
}

func (m *memTours) MonthlyPlan(context.Context, int) ([]domain.MonthlyPlan, error) {
	return []domain.MonthlyPlan{}, nil
}

func (m *memTours) Locations(context.Context) ([]domain.TourLocation, error) {
	out := []domain.TourLocation{}
	for _, t := range m.tours {
		out = append(out, domain.TourLocation{ID: t.ID, Name: t.Name, StartLocation: t.StartLocation.Data()})
	}
	return out, nil
}

func (m *memTours) GetBySlug(_ context.Context, slug string) (*domain.Tour, error) {
	for _, t := range m.tours {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, domain.NotFound("No document found with that ID")
}

func (m *memTours) GetByID(_ context.Context, id uuid.UUID) (*domain.Tour, error) {
	if t, ok := m.tours[id]; ok {
		return t, nil
	}
	return nil, domain.NotFound("No document found with that ID")
}

func (m *memTours) ListByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Tour, error) {
	out := []domain.Tour{}
	for _, id := range ids {
		if t, ok := m.tours[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

// memUsers implements domain.UserRepository.
type memUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uuid.UUID]*domain.User{}}
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok && u.Active {
		cp := *u
		return &cp, nil
	}
	return nil, domain.NotFound("user not found")
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Active && strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

func (m *memUsers) GetByResetToken(_ context.Context, hashed string, now time.Time) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Active && u.PasswordResetToken != nil && *u.PasswordResetToken == hashed &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if strings.EqualFold(other.Email, u.Email) {
			return domain.NewError(domain.KindDuplicateKey, "Duplicate field value: "+u.Email+". Please use another value!")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Active = true
	u.CreatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) UpdateCredentials(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[u.ID]
	if !ok {
		return domain.NotFound("user not found")
	}
	stored.PasswordHash = u.PasswordHash
	stored.PasswordChangedAt = u.PasswordChangedAt
	stored.PasswordResetToken = u.PasswordResetToken
	stored.PasswordResetExpires = u.PasswordResetExpires
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id uuid.UUID, fields map[string]any) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || !u.Active {
		return nil, domain.NotFound("user not found")
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "email":
			u.Email = v.(string)
		case "photo":
			u.Photo = v.(string)
		default:
			return nil, errors.New("unexpected field " + k)
		}
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Deactivate(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || !u.Active {
		return domain.NotFound("user not found")
	}
	u.Active = false
	return nil
}

func (m *memUsers) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.byID {
		if u.PasswordResetExpires != nil && !u.PasswordResetExpires.After(now) {
			u.PasswordResetToken, u.PasswordResetExpires = nil, nil
			n++
		}
	}
	return n, nil
}

// memBookings implements domain.BookingRepository.
type memBookings struct {
	mu    sync.Mutex
	items []domain.Booking
}

func (m *memBookings) Create(_ context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	m.items = append(m.items, *b)
	return nil
}

func (m *memBookings) TourIDsForUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, b := range m.items {
		if b.UserID == userID {
			ids = append(ids, b.TourID)
		}
	}
	return ids, nil
}

func (m *memBookings) ListForUser(_ context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	out := []domain.Booking{}
	for _, b := range m.items {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// recordingNotifier captures sent emails and can be made to fail.
type recordingNotifier struct {
	mu       sync.Mutex
	welcomes []string
	resets   []string
	fail     error
}

func (n *recordingNotifier) Welcome(_ context.Context, u *domain.User, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, u.Email)
	return n.fail
}

func (n *recordingNotifier) PasswordReset(_ context.Context, u *domain.User, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, url)
	return n.fail
}

var _ PaymentGateway = (*payment.Gateway)(nil)
