package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	handler := &HealthCheckHandler{
		startedAt: started,
		now:       func() time.Time { return started.Add(90 * time.Second) },
	}
	return SetupRouter(handler)
}

func TestSetupRouter_Root(t *testing.T) {
	router := newTestRouter()

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vaccine slot notifier is running", w.Body.String())
}

func TestSetupRouter_HealthCheck(t *testing.T) {
	router := newTestRouter()

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","uptime_seconds":90}`, w.Body.String())
}

func TestSetupRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter()

	req, _ := http.NewRequest(http.MethodPost, "/check", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
