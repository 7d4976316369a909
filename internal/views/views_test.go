package views

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

func TestRenderOverview(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusOK, PageOverview, Page{
		Title: "All Tours",
		Tours: []domain.Tour{{Name: "The Forest Hiker", Slug: "the-forest-hiker", Price: 397}},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Natours | All Tours")
	assert.Contains(t, body, `href="/tour/the-forest-hiker"`)
	assert.Contains(t, body, "Log in")
}

func TestRenderTourForUserWithAlert(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)
	user := &domain.User{Name: "Leo Gillespie", Photo: "user-1.jpg"}
	tour := &domain.Tour{Model: domain.Model{ID: uuid.New()}, Name: "The Sea Explorer", Description: "One.\nTwo."}

	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusOK, PageTour, Page{Title: tour.Name, User: user, Tour: tour, Alert: AlertFor("booking")})
	body := rec.Body.String()
	assert.Contains(t, body, "Leo")
	assert.Contains(t, body, `data-tour-id="`+tour.ID.String()+`"`)
	assert.Contains(t, body, "Your booking was successful!")
	assert.Contains(t, body, `<p class="description__text">Two.</p>`)
}

func TestRenderErrorEscapes(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusNotFound, PageError, Page{Title: "Something went wrong!", Message: "<b>nope</b>"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;nope&lt;/b&gt;")
}
