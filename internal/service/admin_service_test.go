package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-go/internal/model"
	"medimate-go/internal/repository"
)

func TestAdminListUsers(t *testing.T) {
	users := repository.NewUserRepository(newTestDB(t))
	for i := 0; i < 12; i++ {
		require.NoError(t, users.Create(&model.User{Username: fmt.Sprintf("user%02d", i), Password: "x", Role: "USER"}))
	}
	svc := NewAdminService(users, NewFacilityService(nil, nil, nil, "", 0))

	first, err := svc.ListUsers(1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(12), first.TotalElements)
	assert.Equal(t, 3, first.TotalPages)
	require.Len(t, first.Content, 5)
	assert.Equal(t, "user00", first.Content[0].Username)

	last, err := svc.ListUsers(3, 5)
	require.NoError(t, err)
	assert.Len(t, last.Content, 2)

	clamped, err := svc.ListUsers(0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, clamped.Number)
	assert.Equal(t, 100, clamped.Size)

	empty, err := svc.ListUsers(9, 5)
	require.NoError(t, err)
	assert.NotNil(t, empty.Content)
	assert.Empty(t, empty.Content)
}

func TestAdminIndexFacilityWithoutDirectory(t *testing.T) {
	svc := NewAdminService(repository.NewUserRepository(newTestDB(t)), NewFacilityService(nil, nil, nil, "", 0))
	err := svc.IndexFacility(context.Background(), FacilityInput{ID: "h1", Name: "General", Type: model.FacilityHospital, Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrDirectoryNotReady)
}
