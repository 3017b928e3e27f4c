package places

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-go/internal/config"
)

func TestNearby(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/place/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "40.7128,-74.006", q.Get("location"))
		assert.Equal(t, "5000", q.Get("radius"))
		assert.Equal(t, "k", q.Get("key"))

		switch q.Get("type") {
		case "hospital":
			_, _ = io.WriteString(w, `{"status":"OK","results":[
				{"place_id":"p1","name":"City Hospital","vicinity":"1 Main St","geometry":{"location":{"lat":40.72,"lng":-74.01}}}
			]}`)
		case "pharmacy":
			_, _ = io.WriteString(w, `{"status":"ZERO_RESULTS","results":[]}`)
		default:
			_, _ = io.WriteString(w, `{"status":"REQUEST_DENIED","error_message":"bad key"}`)
		}
	}))
	defer srv.Close()

	c := NewClient(config.PlacesConfig{BaseURL: srv.URL + "/", APIKey: "k"})

	got, err := c.Nearby(context.Background(), 40.7128, -74.006, 5000, "hospital")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Place{ID: "p1", Name: "City Hospital", Address: "1 Main St", Lat: 40.72, Lng: -74.01}, got[0])

	got, err = c.Nearby(context.Background(), 40.7128, -74.006, 5000, "pharmacy")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = c.Nearby(context.Background(), 40.7128, -74.006, 5000, "doctor")
	assert.ErrorContains(t, err, "REQUEST_DENIED")
}
