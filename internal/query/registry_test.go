package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

var tourFields = Registry{
	"id":         {Column: "id", Kind: UUID},
	"name":       {Column: "name", Kind: String},
	"price":      {Column: "price", Kind: Number},
	"duration":   {Column: "duration", Kind: Integer},
	"difficulty": {Column: "difficulty", Kind: String},
	"createdAt":  {Column: "created_at", Kind: Time},
}

func TestCompile(t *testing.T) {
	q, err := Build(url.Values{
		"price[gte]": {"500"},
		"difficulty": {"easy", "medium"},
		"sort":       {"-price,name"},
		"page":       {"2"},
		"limit":      {"5"},
	}, Options{MultiValue: []string{"difficulty"}})
	require.NoError(t, err)

	c, err := tourFields.Compile(q)
	require.NoError(t, err)

	assert.Equal(t, []Clause{
		{SQL: "difficulty IN ?", Args: []any{[]any{"easy", "medium"}}},
		{SQL: "price >= ?", Args: []any{500.0}},
	}, c.Where)
	assert.Equal(t, []string{"price DESC", "name ASC", "id ASC"}, c.Order)
	assert.Equal(t, 5, c.Offset)
	assert.Equal(t, 5, c.Limit)
}

func TestCompileDefaultSortUsesCreationOrder(t *testing.T) {
	q, err := Build(url.Values{}, Options{})
	require.NoError(t, err)
	c, err := tourFields.Compile(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"created_at DESC", "id ASC"}, c.Order)
}

func TestCompileErrors(t *testing.T) {
	q, _ := Build(url.Values{"secret": {"1"}}, Options{})
	_, err := tourFields.Compile(q)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	q, _ = Build(url.Values{"price[lt]": {"cheap"}}, Options{})
	_, err = tourFields.Compile(q)
	assert.Equal(t, domain.KindMalformedReference, domain.KindOf(err))

	q, _ = Build(url.Values{"sort": {"bogus"}}, Options{})
	_, err = tourFields.Compile(q)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestProject(t *testing.T) {
	type doc struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	docs := []doc{{ID: "1", Name: "The Forest Hiker", Price: 397}}

	out, err := Project(docs, Projection{Include: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"id": "1", "name": "The Forest Hiker"}}, out)

	out, err = Project(docs[0], Projection{Exclude: []string{"price", VersionField}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "1", "name": "The Forest Hiker"}, out)
}
