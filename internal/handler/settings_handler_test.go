package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/internal/service"
	"medimate-go/pkg/hash"
)

func newSettingsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := newTestDB(t)
	hashed, err := hash.HashPassword("old-password")
	require.NoError(t, err)
	user := &model.User{Username: "alice", Password: hashed, Role: "USER"}
	require.NoError(t, db.Create(user).Error)

	h := NewSettingsHandler(service.NewSettingsService(repository.NewUserRepository(db), repository.NewSettingsRepository(db)))
	r := gin.New()
	api := r.Group("/settings", asUser(user))
	api.GET("/profile", h.GetProfile)
	api.PUT("/profile", h.UpdateProfile)
	api.PUT("/password", h.ChangePassword)
	api.GET("/notifications", h.GetNotifications)
	api.PUT("/notifications", h.UpdateNotifications)
	return r
}

func TestProfileEndpoints(t *testing.T) {
	r := newSettingsRouter(t)

	w, env := doJSON(t, r, http.MethodPut, "/settings/profile", gin.H{
		"fullName": "Alice Doe", "email": "alice@example.com", "phone": "555-0101",
		"emergencyContactName": "Bob", "emergencyContactPhone": "555-0102", "emergencyContactRelation": "Brother",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile model.User
	decode(t, env.Data, &profile)
	assert.Equal(t, "Alice Doe", profile.FullName)
	assert.NotContains(t, string(env.Data), "password")

	w, _ = doJSON(t, r, http.MethodPut, "/settings/profile", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, env = doJSON(t, r, http.MethodGet, "/settings/profile", nil)
	decode(t, env.Data, &profile)
	assert.Equal(t, "Brother", profile.EmergencyContactRelation)
}

func TestPasswordEndpoint(t *testing.T) {
	r := newSettingsRouter(t)

	w, _ := doJSON(t, r, http.MethodPut, "/settings/password", gin.H{
		"currentPassword": "old-password", "newPassword": "new-password", "confirmPassword": "other-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, "/settings/password", gin.H{
		"currentPassword": "wrong", "newPassword": "new-password", "confirmPassword": "new-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, "/settings/password", gin.H{
		"currentPassword": "old-password", "newPassword": "new-password", "confirmPassword": "new-password",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	r := newSettingsRouter(t)

	_, env := doJSON(t, r, http.MethodGet, "/settings/notifications", nil)
	var prefs model.NotificationPreferences
	decode(t, env.Data, &prefs)
	assert.True(t, prefs.Email)
	assert.False(t, prefs.SMS)
	assert.False(t, prefs.Marketing)

	w, env := doJSON(t, r, http.MethodPut, "/settings/notifications", gin.H{"sms": true})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env.Data, &prefs)
	assert.True(t, prefs.SMS)
	assert.True(t, prefs.Email, "fields absent from the request are unchanged")
}
