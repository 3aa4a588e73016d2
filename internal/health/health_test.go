package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-index/pkg/worker"
)

type staticStats worker.Stats

func (s staticStats) Stats() worker.Stats { return worker.Stats(s) }

func ok(ctx context.Context) error { return nil }

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth_AlwaysLive(t *testing.T) {
	s := NewServer(0, map[string]Checker{
		"database": CheckFunc(func(ctx context.Context) error { return errors.New("down") }),
	}, nil)

	rec, body := get(t, s, "/health?verbose=true")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "unhealthy: down", checks["database"])
}

func TestReadiness(t *testing.T) {
	stats := staticStats{Runs: 3, Failures: 1, LastRunAt: time.Now(), LastError: errors.New("sector \"Energy\" failed")}
	s := NewServer(0, map[string]Checker{"database": CheckFunc(ok), "redis": CheckFunc(ok)}, stats)

	rec, _ := get(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready before startup completes")

	s.SetReady(true)
	rec, body := get(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ready"])

	runs := body["runs"].(map[string]interface{})
	assert.Equal(t, float64(3), runs["runs"])
	assert.Equal(t, float64(1), runs["failures"])
	assert.Contains(t, runs["last_error"], "Energy")
}

func TestReadiness_UnhealthyDependency(t *testing.T) {
	s := NewServer(0, map[string]Checker{
		"database": CheckFunc(ok),
		"redis":    CheckFunc(func(ctx context.Context) error { return errors.New("timeout") }),
	}, nil)
	s.SetReady(true)

	rec, body := get(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["ready"])
	assert.Nil(t, body["runs"])
}
