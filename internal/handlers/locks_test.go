package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/inacomp/contest-live-service/internal/auth"
	"github.com/inacomp/contest-live-service/internal/locks"
	"github.com/inacomp/contest-live-service/internal/metrics"
)

// promauto registers in the global registry, so the test metrics are shared.
var testMetrics = metrics.New()

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value.([]byte))
	return nil
}

func lockTestRouter(t *testing.T, memberID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := locks.NewStore(newFakeKV(), zerolog.Nop())
	handler := NewLockHandler(store, testMetrics, zerolog.Nop())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		auth.SetClaims(c, &auth.Claims{Sub: memberID})
	})
	router.POST("/locked-problem", handler.Acquire)
	router.GET("/locked-problem/:contestId/:teamId", handler.List)
	router.POST("/unlocked-problem", handler.Release)
	return router
}

func TestLockAcquireThenList(t *testing.T) {
	router := lockTestRouter(t, "member-1")

	body := `{"contestId":"contest-1","teamId":"team-1","problemId":"problem-1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/locked-problem", strings.NewReader(body))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("acquire status = %d, body %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/locked-problem/contest-1/team-1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}

	var resp struct {
		LockedProblem []locks.Entry `json:"lockedProblem"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.LockedProblem) != 1 || resp.LockedProblem[0].ProblemID != "problem-1" {
		t.Errorf("lockedProblem = %+v", resp.LockedProblem)
	}
}

func TestLockAcquireMissingParams(t *testing.T) {
	router := lockTestRouter(t, "member-1")

	for _, body := range []string{
		`{}`,
		`{"contestId":"contest-1"}`,
		`{"contestId":"contest-1","teamId":"team-1"}`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/locked-problem", strings.NewReader(body))
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestLockReleaseEmptiesSet(t *testing.T) {
	router := lockTestRouter(t, "member-1")

	acquire := `{"contestId":"contest-1","teamId":"team-1","problemId":"problem-1"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/locked-problem", strings.NewReader(acquire)))
	if w.Code != http.StatusOK {
		t.Fatalf("acquire status = %d", w.Code)
	}

	release := `{"contestId":"contest-1","teamId":"team-1"}`
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/unlocked-problem", strings.NewReader(release)))
	if w.Code != http.StatusOK {
		t.Fatalf("release status = %d", w.Code)
	}

	var resp struct {
		LockedProblem []locks.Entry `json:"lockedProblem"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.LockedProblem) != 0 {
		t.Errorf("lockedProblem = %+v, want empty", resp.LockedProblem)
	}
}
