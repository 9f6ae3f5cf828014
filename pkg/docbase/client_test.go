package docbase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lp-rough-api/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewClient(srv.URL, "acme", "secret", time.Second)
	t.Cleanup(func() {
		c.httpClient.CloseIdleConnections()
		srv.Close()
	})
	return c
}

func TestClientCreatePost(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/teams/acme/posts", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-DocBaseToken"))

		var req PostRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, ScopePrivate, req.Scope)
		assert.Equal(t, []string{"LPラフ案"}, req.Tags)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Post{ID: 42, Title: req.Title, URL: "https://acme.docbase.io/posts/42"})
	})

	post, err := c.CreatePost(context.Background(), PostRequest{Title: "【LPラフ案】Lantern", Body: "# LPラフ", Tags: []string{"LPラフ案"}, Scope: ScopePrivate})
	require.NoError(t, err)
	assert.Equal(t, int64(42), post.ID)
	assert.Equal(t, "https://acme.docbase.io/posts/42", post.URL)
}

func TestClientUpdateAndSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, `title:"Lantern"`, r.URL.Query().Get("q"))
			assert.Equal(t, "10", r.URL.Query().Get("per_page"))
			_, _ = w.Write([]byte(`{"posts":[{"id":7,"title":"Lantern"}]}`))
		case http.MethodPatch:
			assert.Equal(t, "/teams/acme/posts/7", r.URL.Path)
			_, _ = w.Write([]byte(`{"id":7,"title":"Lantern","url":"u"}`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	posts, err := c.SearchPosts(context.Background(), `title:"Lantern"`, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	post, err := c.UpdatePost(context.Background(), posts[0].ID, PostRequest{Title: "Lantern"})
	require.NoError(t, err)
	assert.Equal(t, "u", post.URL)
}

func TestClientErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad_request","messages":["タイトルが空です"]}`))
	})

	_, err := c.CreatePost(context.Background(), PostRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindExternalService))
	assert.False(t, apperrors.Retryable(err))
	assert.Contains(t, err.Error(), "タイトルが空です")

	t.Run("認証情報なし", func(t *testing.T) {
		_, err := NewClient("", "", "", 0).SearchPosts(context.Background(), "x", 1)
		require.Error(t, err)
		assert.False(t, apperrors.Retryable(err))
	})
}
