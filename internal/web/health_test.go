package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	synchub "bookshelf/internal/sync"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type fixedStats synchub.Stats

func (s fixedStats) Stats() synchub.Stats { return synchub.Stats(s) }

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var down error
	r := gin.New()
	RegisterHealth(r, pingFunc(func(context.Context) error { return down }), fixedStats{TCPClients: 2}, "test.db")

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)

	w := get("/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tcp_clients":2`)

	down = errors.New("disk gone")
	w = get("/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "disk gone")
}
