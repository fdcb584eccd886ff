package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
	"places": [
		{
			"id": "place-1",
			"displayName": {"text": "好吃牛肉麵", "languageCode": "zh-TW"},
			"formattedAddress": "台北市大安區某路 1 號",
			"rating": 4.4,
			"priceLevel": "PRICE_LEVEL_MODERATE",
			"types": ["restaurant", "food"],
			"googleMapsUri": "https://maps.google.com/?cid=1",
			"regularOpeningHours": {
				"openNow": true,
				"weekdayDescriptions": ["Monday: 11:00 AM – 9:00 PM"]
			}
		},
		{
			"id": "place-2",
			"displayName": {"text": "隱藏小吃", "languageCode": "zh-TW"},
			"formattedAddress": "台北市大安區某巷 2 號"
		}
	]
}`

func TestSearchNearbyRequestShape(t *testing.T) {
	var gotFieldMask, gotAPIKey string
	var gotBody searchNearbyRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places:searchNearby", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotFieldMask = r.Header.Get("X-Goog-FieldMask")
		gotAPIKey = r.Header.Get("X-Goog-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient("test-key", 500, nil, WithBaseURL(srv.URL))
	_, err := c.SearchNearby(context.Background(), 25.03, 121.56)
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAPIKey)
	assert.Contains(t, gotFieldMask, "places.regularOpeningHours")
	assert.Contains(t, gotFieldMask, "places.googleMapsUri")
	assert.Equal(t, []string{"restaurant"}, gotBody.IncludedTypes)
	assert.Equal(t, "zh-TW", gotBody.LanguageCode)
	assert.Equal(t, 25.03, gotBody.LocationRestriction.Circle.Center.Latitude)
	assert.Equal(t, 121.56, gotBody.LocationRestriction.Circle.Center.Longitude)
	assert.Equal(t, 500.0, gotBody.LocationRestriction.Circle.Radius)
}

func TestSearchNearbyMapsVenues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient("test-key", 500, nil, WithBaseURL(srv.URL))
	venues, err := c.SearchNearby(context.Background(), 25.03, 121.56)
	require.NoError(t, err)
	require.Len(t, venues, 2)

	v := venues[0]
	assert.Equal(t, "place-1", v.ID)
	assert.Equal(t, "好吃牛肉麵", v.Name)
	require.NotNil(t, v.Rating)
	assert.Equal(t, 4.4, *v.Rating)
	assert.Equal(t, "PRICE_LEVEL_MODERATE", v.PriceLevel)
	require.NotNil(t, v.OpenNow)
	assert.True(t, *v.OpenNow)
	assert.Equal(t, []string{"Monday: 11:00 AM – 9:00 PM"}, v.WeekdayHours)

	// No opening hours published: openness must stay unknown, not closed.
	assert.Nil(t, venues[1].OpenNow)
	assert.Nil(t, venues[1].Rating)
}

func TestSearchNearbyCachesResponses(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient("test-key", 500, nil, WithBaseURL(srv.URL))

	_, err := c.SearchNearby(context.Background(), 25.03, 121.56)
	require.NoError(t, err)
	_, err = c.SearchNearby(context.Background(), 25.03, 121.56)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second identical search should be served from cache")

	_, err = c.SearchNearby(context.Background(), 24.99, 121.50)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchNearbyErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "API key invalid"}}`))
	}))
	defer srv.Close()

	c := NewClient("bad-key", 500, nil, WithBaseURL(srv.URL))
	_, err := c.SearchNearby(context.Background(), 25.03, 121.56)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSearchNearbyWithoutAPIKey(t *testing.T) {
	c := NewClient("", 500, nil)
	venues, err := c.SearchNearby(context.Background(), 25.03, 121.56)
	require.NoError(t, err)
	assert.Empty(t, venues)
}
