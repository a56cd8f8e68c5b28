package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livelink-telematics-backend/config"
	"livelink-telematics-backend/internal/poller"
	"livelink-telematics-backend/internal/tags"
)

func setupTagRouter(tagStore *tags.Store, pollSvc *poller.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(nil, tagStore, pollSvc, nil)
	r.GET("/api/tags", handler.GetTags)
	r.GET("/api/tags/:name", handler.GetTag)
	r.GET("/api/machines", handler.GetMachines)
	r.POST("/api/refresh", handler.PostRefresh)
	return r
}

func TestGetTag(t *testing.T) {
	tagStore := tags.NewStore()
	require.NoError(t, tagStore.Publish("last_poll_status", "success"))
	router := setupTagRouter(tagStore, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/tags/last_poll_status", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"last_poll_status","value":"success"}`, w.Body.String())
}

func TestGetTag_NotFound(t *testing.T) {
	router := setupTagRouter(tags.NewStore(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/tags/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMachines(t *testing.T) {
	tagStore := tags.NewStore()
	require.NoError(t, tagStore.Publish("machines", map[string]poller.Summary{
		"m1": {ID: "M1", Name: "Loader", Model: "3CX", LastUpdated: "2024-06-01T08:00:00Z"},
	}))
	router := setupTagRouter(tagStore, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/machines", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var summary map[string]poller.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	require.Contains(t, summary, "m1")
	assert.Equal(t, "Loader", summary["m1"].Name)
}

func TestGetMachines_NoPollYet(t *testing.T) {
	router := setupTagRouter(tags.NewStore(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/machines", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestPostRefresh_NoToken(t *testing.T) {
	tagStore := tags.NewStore()
	cfg := &config.Config{}
	// No API token: the triggered poll publishes an error status without
	// touching the network, and the endpoint reports it.
	pollSvc := poller.NewService(cfg, nil, tagStore, nil)
	router := setupTagRouter(tagStore, pollSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/refresh", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"last_poll_status":"error"}`, w.Body.String())
}
