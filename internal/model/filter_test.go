package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterJSONOmitsUnsetKeys(t *testing.T) {
	assert.Equal(t, "{}", Filter{}.JSON())
	assert.True(t, Filter{}.IsEmpty())

	year := 1999
	genre := "Drama"
	f := Filter{Year: &year, Genre: &genre}
	assert.Equal(t, `{"year":1999,"genre":"Drama"}`, f.JSON())
	assert.False(t, f.IsEmpty())
	assert.Equal(t, "1999", f.Value(FilterYear))
	assert.Equal(t, "", f.Value(FilterType))

	assert.Equal(t, `{"genre":"Drama"}`, f.Without(FilterYear).JSON())
	assert.Equal(t, 1999, *f.Year, "Without does not mutate the receiver")
}

func TestFilterCloneIsIndependent(t *testing.T) {
	n := 7
	typ := RatingTypeSeries
	f := Filter{MinRating: &n, Type: &typ}
	c := f.Clone()
	*c.MinRating = 9
	*c.Type = RatingTypeMovie

	assert.Equal(t, 7, *f.MinRating)
	assert.Equal(t, RatingTypeSeries, *f.Type)
}

func TestRatingDecodesAPIFieldNames(t *testing.T) {
	var r Rating
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"65f1","title":"Fargo","type":"series","rating":10,"year":2014,"genre":"Crime"}`), &r))
	assert.Equal(t, Rating{ID: "65f1", Title: "Fargo", Type: RatingTypeSeries, Rating: 10, Year: 2014, Genre: "Crime"}, r)
}

func TestSessionUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ann", SessionUser{ID: "1", FirstName: "Ann", Username: "ann"}.DisplayName())
	assert.Equal(t, "@ann", SessionUser{ID: "1", Username: "ann"}.DisplayName())
	assert.Equal(t, "1", SessionUser{ID: "1"}.DisplayName())
}
