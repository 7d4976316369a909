package handler

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/payment"
	"github.com/aryan0dhankhar/natours/internal/query"
	"github.com/aryan0dhankhar/natours/internal/repository"
	"github.com/aryan0dhankhar/natours/internal/service"
)

// fakeCRUD is an in-memory crudService.
type fakeCRUD[T any, PT interface {
	*T
	domain.Entity
}] struct {
	mu         sync.Mutex
	items      map[uuid.UUID]PT
	order      []uuid.UUID
	lastWhere  map[string]any
	lastParams url.Values
}

func newFakeCRUD[T any, PT interface {
	*T
	domain.Entity
}]() *fakeCRUD[T, PT] {
	return &fakeCRUD[T, PT]{items: map[uuid.UUID]PT{}}
}

func (f *fakeCRUD[T, PT]) seed(e PT) PT {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.EntityID() == uuid.Nil {
		e.SetEntityID(uuid.New())
	}
	f.items[e.EntityID()] = e
	f.order = append(f.order, e.EntityID())
	return e
}

func (f *fakeCRUD[T, PT]) Create(_ context.Context, e PT) (PT, error) {
	e.SetEntityID(uuid.Nil)
	return f.seed(e), nil
}

func (f *fakeCRUD[T, PT]) Get(_ context.Context, id string, _ ...string) (PT, error) {
	uid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[uid]
	if !ok {
		return nil, domain.NotFound(repository.ErrNoDocument)
	}
	return e, nil
}

func (f *fakeCRUD[T, PT]) List(_ context.Context, where map[string]any, params url.Values, _ ...string) ([]T, query.Query, error) {
	q, err := query.Build(params, query.Options{})
	if err != nil {
		return nil, q, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastWhere = where
	f.lastParams = params
	out := []T{}
	for _, id := range f.order {
		if e, ok := f.items[id]; ok {
			out = append(out, *e)
		}
	}
	return out, q, nil
}

func (f *fakeCRUD[T, PT]) Update(ctx context.Context, id string, patch []byte) (PT, error) {
	e, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (f *fakeCRUD[T, PT]) Delete(ctx context.Context, id string) error {
	e, err := f.Get(ctx, id)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, e.EntityID())
	return nil
}

type fakeTours struct {
	*fakeCRUD[domain.Tour, *domain.Tour]
	stats []domain.TourStat
	year  int
}

func newFakeTours() *fakeTours {
	return &fakeTours{fakeCRUD: newFakeCRUD[domain.Tour, *domain.Tour]()}
}

func (f *fakeTours) Stats(context.Context) ([]domain.TourStat, error) { return f.stats, nil }

func (f *fakeTours) MonthlyPlan(_ context.Context, year int) ([]domain.MonthlyPlan, error) {
	f.year = year
	return []domain.MonthlyPlan{}, nil
}

func (f *fakeTours) Within(_ context.Context, _ float64, latlng, _ string) ([]domain.Tour, error) {
	if _, _, err := service.ParseLatLng(latlng); err != nil {
		return nil, err
	}
	return []domain.Tour{}, nil
}

func (f *fakeTours) Distances(_ context.Context, latlng, _ string) ([]service.TourDistance, error) {
	if _, _, err := service.ParseLatLng(latlng); err != nil {
		return nil, err
	}
	return []service.TourDistance{}, nil
}

func (f *fakeTours) GetBySlug(_ context.Context, slug string) (*domain.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.items {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, domain.NotFound("There is no tour with that name.")
}

type fakeAuthenticator map[string]*domain.User

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.Unauthenticated("You are not logged in! Please log in to get access.")
	}
	u, ok := f[token]
	if !ok {
		return nil, domain.Unauthenticated("Invalid token. Please log in again!")
	}
	return u, nil
}

type fakeAccounts struct {
	user       *domain.User
	forgotURL  string
	resetToken string
}

func (f *fakeAccounts) Signup(_ context.Context, in service.SignupInput, _ string) (*service.Session, error) {
	if in.Password != in.PasswordConfirm {
		return nil, domain.Validation("Invalid input data. Passwords are not the same!")
	}
	return &service.Session{Token: "signup-token", User: &domain.User{Model: domain.Model{ID: uuid.New()}, Name: in.Name, Email: in.Email}}, nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*service.Session, error) {
	if email == "" || password == "" {
		return nil, domain.Validation("Please provide email and password!")
	}
	if email != f.user.Email || password != "pass1234" {
		return nil, domain.Unauthenticated("Incorrect email or password")
	}
	return &service.Session{Token: "login-token", User: f.user}, nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, _ uuid.UUID, current, _, _ string) (*service.Session, error) {
	if current != "pass1234" {
		return nil, domain.Unauthenticated("Your current password is wrong.")
	}
	return &service.Session{Token: "updated-token", User: f.user}, nil
}

func (f *fakeAccounts) ForgotPassword(_ context.Context, email string, resetURL func(token string) string) error {
	if email != f.user.Email {
		return domain.NotFound("There is no user with email address.")
	}
	f.forgotURL = resetURL("plain")
	return nil
}

func (f *fakeAccounts) ResetPassword(_ context.Context, token, _, _ string) (*service.Session, error) {
	f.resetToken = token
	return nil, domain.Validation("Token is invalid or has expired")
}

type fakeProfiles struct {
	users   map[uuid.UUID]*domain.User
	updates []service.ProfileUpdate
	deleted []uuid.UUID
}

func (f *fakeProfiles) Get(_ context.Context, id string, _ ...string) (*domain.User, error) {
	uid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	u, ok := f.users[uid]
	if !ok {
		return nil, domain.NotFound(repository.ErrNoDocument)
	}
	return u, nil
}

func (f *fakeProfiles) UpdateMe(_ context.Context, userID uuid.UUID, in service.ProfileUpdate) (*domain.User, error) {
	f.updates = append(f.updates, in)
	u := *f.users[userID]
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	return &u, nil
}

func (f *fakeProfiles) DeleteMe(_ context.Context, userID uuid.UUID) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeCheckouts struct {
	tour       *domain.Tour
	webhookErr error
	payloads   [][]byte
	bookings   []domain.Booking
}

func (f *fakeCheckouts) Tour(_ context.Context, tourID string) (*domain.Tour, error) {
	if f.tour == nil || f.tour.ID.String() != tourID {
		return nil, domain.NotFound(repository.ErrNoDocument)
	}
	return f.tour, nil
}

func (f *fakeCheckouts) CheckoutSession(_ context.Context, tour *domain.Tour, _ *domain.User, urls service.CheckoutURLs) (*payment.Session, error) {
	return &payment.Session{ID: "cs_test_" + tour.Slug, URL: urls.Success}, nil
}

func (f *fakeCheckouts) HandleWebhook(_ context.Context, payload []byte, _ string) error {
	if f.webhookErr != nil {
		return f.webhookErr
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeCheckouts) Mine(context.Context, uuid.UUID) ([]domain.Booking, error) {
	return f.bookings, nil
}

func (f *fakeCheckouts) BookedTours(context.Context, uuid.UUID) ([]domain.Tour, error) {
	if f.tour == nil {
		return []domain.Tour{}, nil
	}
	return []domain.Tour{*f.tour}, nil
}
