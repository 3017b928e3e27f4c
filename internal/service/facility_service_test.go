package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-go/internal/location"
	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/pkg/es"
	"medimate-go/pkg/places"
)

type fakeSource struct {
	facilities []model.Facility
	err        error
	calls      int
	lastTypes  []string
	lastRadius int
}

func (f *fakeSource) Search(_ context.Context, _, _ float64, radius int, types []string) ([]model.Facility, error) {
	f.calls++
	f.lastTypes = types
	f.lastRadius = radius
	return f.facilities, f.err
}

type fakeDirectory struct {
	indexed []es.FacilityDoc
	hits    []es.FacilityDoc
}

func (f *fakeDirectory) Index(_ context.Context, doc es.FacilityDoc) error {
	f.indexed = append(f.indexed, doc)
	return nil
}

func (f *fakeDirectory) Nearby(context.Context, float64, float64, int, []string) ([]es.FacilityDoc, error) {
	return f.hits, nil
}

type fakePlaces struct {
	byType map[string][]places.Place
}

func (f *fakePlaces) Nearby(_ context.Context, _, _ float64, _ int, t string) ([]places.Place, error) {
	return f.byType[t], nil
}

var manhattan = location.Context{State: location.StateResolved, Lat: 40.7128, Lng: -74.0060, Address: "40.7128, -74.0060"}

func TestNearbyRequiresResolvedLocation(t *testing.T) {
	svc := NewFacilityService(&fakeSource{}, nil, nil, "", 0)
	for _, lc := range []location.Context{location.New(), {State: location.StateFailed, Error: "denied"}} {
		_, err := svc.Nearby(context.Background(), lc, "all", 0)
		assert.ErrorIs(t, err, ErrLocationUnavailable)
	}
}

func TestNearbyValidation(t *testing.T) {
	svc := NewFacilityService(&fakeSource{}, nil, nil, "", 0)
	_, err := svc.Nearby(context.Background(), manhattan, "dentist", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Nearby(context.Background(), manhattan, "all", MaxRadiusMeters+1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Nearby(context.Background(), manhattan, "all", -5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNearbyDefaultRadius(t *testing.T) {
	for _, tc := range []struct {
		name       string
		configured int
		want       int
	}{
		{"configured radius is used", 2000, 2000},
		{"unset falls back to built-in default", 0, DefaultRadiusMeters},
		{"out of range falls back to built-in default", MaxRadiusMeters + 1, DefaultRadiusMeters},
	} {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{}
			svc := NewFacilityService(src, nil, nil, "", tc.configured)
			_, err := svc.Nearby(context.Background(), manhattan, "all", 0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, src.lastRadius)

			_, err = svc.Nearby(context.Background(), manhattan, "all", 1200)
			require.NoError(t, err)
			assert.Equal(t, 1200, src.lastRadius, "explicit radius wins")
		})
	}
}

func TestNearbySortsByDistance(t *testing.T) {
	src := &fakeSource{facilities: []model.Facility{
		{ID: "far", Name: "Far Hospital", Type: "hospital", Lat: 40.80, Lng: -74.00},
		{ID: "near", Name: "Corner Pharmacy", Type: "pharmacy", Lat: 40.7130, Lng: -74.0062},
		{ID: "mid", Name: "City Hospital", Type: "hospital", Lat: 40.73, Lng: -74.00},
	}}
	svc := NewFacilityService(src, nil, nil, "112", 0)

	list, err := svc.Nearby(context.Background(), manhattan, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"hospital", "pharmacy"}, src.lastTypes)
	assert.Equal(t, "112", list.EmergencyNumber)
	require.Len(t, list.Facilities, 3)
	assert.Equal(t, []string{"near", "mid", "far"},
		[]string{list.Facilities[0].ID, list.Facilities[1].ID, list.Facilities[2].ID})
	assert.Equal(t, 0.0, list.Facilities[0].DistanceKm)
	assert.Equal(t, 9.7, list.Facilities[2].DistanceKm)
	assert.Equal(t, "https://www.google.com/maps/dir/?api=1&destination=40.73,-74", list.Facilities[1].DirectionsURL)
}

func TestNearbyUsesCache(t *testing.T) {
	src := &fakeSource{facilities: []model.Facility{{ID: "h", Name: "City Hospital", Type: "hospital", Lat: 40.72, Lng: -74.0}}}
	cache := repository.NewFacilityCacheRepository(newTestRedis(t), 5*time.Minute)
	svc := NewFacilityService(src, nil, cache, "", 0)

	for i := 0; i < 3; i++ {
		list, err := svc.Nearby(context.Background(), manhattan, "hospital", 5000)
		require.NoError(t, err)
		require.Len(t, list.Facilities, 1)
	}
	assert.Equal(t, 1, src.calls)

	_, err := svc.Nearby(context.Background(), manhattan, "pharmacy", 5000)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "different category misses the cache")
}

func TestNearbySourceError(t *testing.T) {
	svc := NewFacilityService(&fakeSource{err: errors.New("quota exceeded")}, nil, nil, "", 0)
	_, err := svc.Nearby(context.Background(), manhattan, "all", 0)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestPlacesSourceMergesCategories(t *testing.T) {
	src := NewPlacesSource(&fakePlaces{byType: map[string][]places.Place{
		"hospital": {{ID: "a", Name: "Hospital A"}, {ID: "both", Name: "Hospital & Pharmacy"}},
		"pharmacy": {{ID: "both", Name: "Hospital & Pharmacy"}, {ID: "b", Name: "Pharmacy B"}},
	}})
	got, err := src.Search(context.Background(), 0, 0, 5000, []string{"hospital", "pharmacy"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "hospital", got[1].Type)
	assert.Equal(t, "pharmacy", got[2].Type)
}

func TestDirectorySourceAndIndex(t *testing.T) {
	dir := &fakeDirectory{hits: []es.FacilityDoc{{ID: "x", Name: "Directory Hospital", Type: "hospital", Location: es.GeoPoint{Lat: 40.72, Lon: -74.01}}}}
	svc := NewFacilityService(NewDirectorySource(dir), dir, nil, "", 0)

	list, err := svc.Nearby(context.Background(), manhattan, "hospital", 0)
	require.NoError(t, err)
	require.Len(t, list.Facilities, 1)
	assert.Equal(t, -74.01, list.Facilities[0].Lng)

	err = svc.Index(context.Background(), FacilityInput{ID: "y", Name: "New Clinic", Type: "clinic", Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	require.NoError(t, svc.Index(context.Background(), FacilityInput{ID: "y", Name: "New Pharmacy", Type: "pharmacy", Lat: 1, Lng: 2}))
	require.Len(t, dir.indexed, 1)
	assert.Equal(t, es.GeoPoint{Lat: 1, Lon: 2}, dir.indexed[0].Location)

	noDir := NewFacilityService(&fakeSource{}, nil, nil, "", 0)
	assert.ErrorIs(t, noDir.Index(context.Background(), FacilityInput{ID: "z", Name: "n", Type: "hospital"}), ErrDirectoryNotReady)
}
