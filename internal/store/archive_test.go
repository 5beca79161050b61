package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/surgestack/surgecast-engine/internal/models"
)

type countingCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newCountingCache() *countingCache {
	return &countingCache{data: map[string][]byte{}}
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, ErrNotFound
}

func (c *countingCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = value
	return nil
}

func (c *countingCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *countingCache) Close() error { return nil }

func TestArchivePredictionPostsRecord(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/records" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("missing auth header, got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	repo := NewArchiveRepo(srv.URL, "secret", time.Second, nil, 0, nil)
	p := models.SurgePrediction{ID: "run-1", City: "Delhi", SurgeFactor: 1.9}
	if err := repo.ArchivePrediction(context.Background(), p); err != nil {
		t.Fatalf("ArchivePrediction: %v", err)
	}
	if got["class"] != "SurgePrediction" || got["city"] != "Delhi" || got["id"] != "run-1" {
		t.Errorf("unexpected archive payload: %v", got)
	}
}

func TestArchiveDisabledWithoutEndpoint(t *testing.T) {
	repo := NewArchiveRepo("", "", time.Second, nil, 0, nil)
	if repo.Enabled() {
		t.Fatalf("archive without endpoint must be disabled")
	}
	if err := repo.ArchiveAlert(context.Background(), models.Alert{City: "Delhi"}); err != nil {
		t.Fatalf("disabled archive must be a no-op, got %v", err)
	}
}

func TestListPredictionsUsesCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		resp := map[string]any{
			"records": []map[string]any{
				{"properties": models.SurgePrediction{ID: "run-1", City: "Delhi"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cacheProvider := newCountingCache()
	repo := NewArchiveRepo(srv.URL, "", time.Second, cacheProvider, time.Minute, nil)

	first, err := repo.ListPredictions(context.Background(), "Delhi", 10)
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	second, err := repo.ListPredictions(context.Background(), "Delhi", 10)
	if err != nil {
		t.Fatalf("ListPredictions (cached): %v", err)
	}
	if hits != 1 {
		t.Errorf("expected one upstream hit, got %d", hits)
	}
	if len(first) != 1 || len(second) != 1 || second[0].ID != "run-1" {
		t.Errorf("unexpected results: first=%v second=%v", first, second)
	}
}
