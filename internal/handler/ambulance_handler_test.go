package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-go/internal/model"
	"medimate-go/internal/pipeline"
	"medimate-go/internal/repository"
	"medimate-go/internal/service"
)

func newAmbulanceRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	repo := repository.NewAmbulanceRepository(db)
	queue := pipeline.InlineQueue{Dispatcher: pipeline.NewDispatcher(repo, nil)}
	h := NewAmbulanceHandler(service.NewAmbulanceService(repo, queue))

	r := gin.New()
	api := r.Group("/ambulance", asUser(user))
	api.POST("", h.Request)
	api.GET("", h.List)
	api.GET("/:id", h.Get)
	api.POST("/:id/cancel", h.Cancel)
	return r
}

func TestAmbulanceEndpoints(t *testing.T) {
	r := newAmbulanceRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/ambulance", gin.H{"address": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := doJSON(t, r, http.MethodPost, "/ambulance", gin.H{"address": "100 Main St", "lat": 40.7, "lng": -74.0, "additionalInfo": "3rd floor"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.AmbulanceRequest
	decode(t, env.Data, &created)
	assert.Regexp(t, `^AMB-\d{6}$`, created.ID)

	// 未配置 Kafka 时在请求内同步调度
	_, env = doJSON(t, r, http.MethodGet, "/ambulance/"+created.ID, nil)
	var got model.AmbulanceRequest
	decode(t, env.Data, &got)
	assert.Equal(t, model.AmbulanceStatusDispatched, got.Status)
	assert.Equal(t, pipeline.DefaultETA, got.ETA)
	assert.Equal(t, pipeline.DefaultDestination, got.Destination)

	_, env = doJSON(t, r, http.MethodGet, "/ambulance", nil)
	var list []model.AmbulanceRequest
	decode(t, env.Data, &list)
	assert.Len(t, list, 1)

	w, env = doJSON(t, r, http.MethodPost, "/ambulance/"+created.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env.Data, &got)
	assert.Equal(t, model.AmbulanceStatusCancelled, got.Status)

	w, _ = doJSON(t, r, http.MethodPost, "/ambulance/"+created.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/ambulance/AMB-000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
