package upstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"routegen/internal/adapters/upstream"
)

func newClient(t *testing.T, base string) *upstream.Client {
	t.Helper()
	cl, err := upstream.New(base, upstream.Options{Service: "test", RPS: 100, Language: "de", MaxAttempts: 4})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func TestClient_GetJSON_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Language") != "de" {
			t.Errorf("missing Accept-Language header")
		}
		if r.URL.Query().Get("name") != "Bern" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		}
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var out struct {
		OK bool `json:"ok"`
	}
	if err := cl.GetJSON(ctx, "/search", url.Values{"name": {"Bern"}}, &out); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !out.OK {
		t.Fatalf("unexpected payload: %+v", out)
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Fatalf("expected 3 calls due to retries, got %d", n)
	}
}

func TestClient_GetJSON_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl := newClient(t, ts.URL)
	var out map[string]any
	err := cl.GetJSON(context.Background(), "/x", nil, &out)
	if !errors.Is(err, upstream.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_GetJSON_ContextCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out map[string]any
	if err := cl.GetJSON(ctx, "/slow", nil, &out); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNew_RequiresBase(t *testing.T) {
	if _, err := upstream.New("", upstream.Options{}); err == nil {
		t.Fatal("expected error for empty base")
	}
}
