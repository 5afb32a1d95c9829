package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-relations/internal/domain/entity"
)

type fakeES struct {
	mu       sync.Mutex
	docs     map[string]map[string]any
	lastBody string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	body, _ := io.ReadAll(r.Body)
	f.lastBody = string(body)

	switch {
	case strings.HasPrefix(r.URL.Path, "/users/_doc/") && r.Method == http.MethodDelete:
		id := strings.TrimPrefix(r.URL.Path, "/users/_doc/")
		if _, ok := f.docs[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
			return
		}
		delete(f.docs, id)
		_, _ = w.Write([]byte(`{"result":"deleted"}`))
	case strings.HasPrefix(r.URL.Path, "/users/_doc/"):
		id := strings.TrimPrefix(r.URL.Path, "/users/_doc/")
		var doc map[string]any
		_ = json.Unmarshal(body, &doc)
		f.docs[id] = doc
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	case r.URL.Path == "/users/_search":
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_score":1.5,"_source":{"id":"u1","email":"ana@example.com","name":"Ana","surname":"Lopez","age":28}}]}}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{}`))
	}
}

func newTestIndex(t *testing.T) (*UserIndex, *fakeES) {
	t.Helper()
	fake := &fakeES{docs: map[string]map[string]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	es, err := NewClient([]string{srv.URL}, "", "")
	require.NoError(t, err)
	return NewUserIndex(es, "users"), fake
}

func TestUserIndexPutAndRemove(t *testing.T) {
	ix, fake := newTestIndex(t)
	ctx := context.Background()

	u := &entity.User{ID: "u1", Email: "ana@example.com", Password: "hash", Name: "Ana", Friends: []string{"u2"}}
	require.NoError(t, ix.Put(ctx, u))

	doc := fake.docs["u1"]
	require.NotNil(t, doc)
	assert.Equal(t, "ana@example.com", doc["email"])
	assert.NotContains(t, doc, "password")
	assert.NotContains(t, doc, "friends")

	require.NoError(t, ix.Remove(ctx, "u1"))
	assert.Empty(t, fake.docs)
	assert.NoError(t, ix.Remove(ctx, "u1"), "missing documents are not an error")
}

func TestUserIndexSearch(t *testing.T) {
	ix, fake := newTestIndex(t)

	hits, err := ix.Search(context.Background(), "ana", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "u1", hits[0].ID)
	assert.Equal(t, 1.5, hits[0].Score)
	assert.Contains(t, fake.lastBody, `"multi_match"`)
	assert.Contains(t, fake.lastBody, `"size":5`)
}
