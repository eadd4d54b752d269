package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAllowWithinBudget(t *testing.T) {
	l := New(60)
	defer l.Stop()

	for i := 0; i < 60; i++ {
		if !l.Allow("client-a") {
			t.Fatalf("request %d rejected within budget", i+1)
		}
	}
	if l.Allow("client-a") {
		t.Error("request beyond budget should be rejected")
	}
}

func TestAllowIsolatesClients(t *testing.T) {
	l := New(1)
	defer l.Stop()

	if !l.Allow("client-a") {
		t.Fatal("first request for client-a rejected")
	}
	if l.Allow("client-a") {
		t.Error("second request for client-a should be rejected")
	}
	if !l.Allow("client-b") {
		t.Error("client-b should have its own bucket")
	}
}

func TestCleanupRemovesStaleBuckets(t *testing.T) {
	l := New(60)
	defer l.Stop()

	l.Allow("client-a")
	l.mu.Lock()
	l.buckets["client-a"].lastSeen = l.buckets["client-a"].lastSeen.Add(-20 * time.Minute)
	l.mu.Unlock()

	l.cleanup()

	l.mu.Lock()
	_, ok := l.buckets["client-a"]
	l.mu.Unlock()
	if ok {
		t.Error("stale bucket should be removed")
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := New(1)
	defer l.Stop()

	router := gin.New()
	router.Use(l.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", w.Code)
	}
}
