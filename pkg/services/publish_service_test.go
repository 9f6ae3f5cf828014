package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"lp-rough-api/pkg/apperrors"
	"lp-rough-api/pkg/docbase"
	"lp-rough-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakePostStore は呼び出しを記録するPostStoreです。
type fakePostStore struct {
	posts       []docbase.Post
	searchErrs  []error
	createErrs  []error
	created     []docbase.PostRequest
	updatedIDs  []int64
	searchCalls int
}

func (f *fakePostStore) SearchPosts(_ context.Context, _ string, _ int) ([]docbase.Post, error) {
	f.searchCalls++
	if len(f.searchErrs) > 0 {
		err := f.searchErrs[0]
		f.searchErrs = f.searchErrs[1:]
		return nil, err
	}
	return f.posts, nil
}

func (f *fakePostStore) CreatePost(_ context.Context, req docbase.PostRequest) (*docbase.Post, error) {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		return nil, err
	}
	f.created = append(f.created, req)
	return &docbase.Post{ID: 100, Title: req.Title, URL: "https://example.docbase.io/posts/100"}, nil
}

func (f *fakePostStore) UpdatePost(_ context.Context, id int64, req docbase.PostRequest) (*docbase.Post, error) {
	f.updatedIDs = append(f.updatedIDs, id)
	return &docbase.Post{ID: id, Title: req.Title, URL: "https://example.docbase.io/posts/updated"}, nil
}

func newTestPublishService(store PostStore, delays *[]time.Duration) *PublishService {
	svc := NewPublishService(store, PublishOptions{MaxRetries: 3, BaseDelay: 10 * time.Millisecond}, nil)
	svc.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return svc
}

func TestPublishTags(t *testing.T) {
	assert.Equal(t, []string{"LPラフ案", "outdoor"}, PublishTags(models.CategoryOutdoor, false))
	assert.Equal(t, []string{"LPラフ案", "electronics", "競合分析"}, PublishTags(models.CategoryElectronics, true))
}

func TestPublishServiceCreatesWhenNotFound(t *testing.T) {
	var delays []time.Duration
	store := &fakePostStore{posts: []docbase.Post{{ID: 1, Title: "【LPラフ案】Lantern Pro"}}}
	svc := newTestPublishService(store, &delays)

	result, err := svc.Publish(context.Background(), "【LPラフ案】Lantern", "# LPラフ", []string{"LPラフ案"})
	require.NoError(t, err)

	assert.False(t, result.Updated)
	assert.Equal(t, int64(100), result.PostID)
	require.Len(t, store.created, 1)
	assert.Equal(t, docbase.ScopePrivate, store.created[0].Scope)
	assert.Empty(t, store.updatedIDs)
	assert.Empty(t, delays)
}

func TestPublishServiceUpdatesExisting(t *testing.T) {
	var delays []time.Duration
	store := &fakePostStore{posts: []docbase.Post{{ID: 9, Title: "【LPラフ案】Lantern"}}}
	svc := newTestPublishService(store, &delays)

	result, err := svc.Publish(context.Background(), "【LPラフ案】Lantern", "# LPラフ", nil)
	require.NoError(t, err)

	assert.True(t, result.Updated)
	assert.Equal(t, []int64{9}, store.updatedIDs)
	assert.Empty(t, store.created)
}

// lostResponseStore は作成を保存した直後に応答を失うPostStoreです。
type lostResponseStore struct {
	posts      []docbase.Post
	failCreate int
	updatedIDs []int64
}

func (s *lostResponseStore) SearchPosts(_ context.Context, _ string, _ int) ([]docbase.Post, error) {
	return s.posts, nil
}

func (s *lostResponseStore) CreatePost(_ context.Context, req docbase.PostRequest) (*docbase.Post, error) {
	post := docbase.Post{ID: int64(len(s.posts) + 1), Title: req.Title, URL: "https://example.docbase.io/posts/new"}
	s.posts = append(s.posts, post)
	if s.failCreate > 0 {
		s.failCreate--
		return nil, apperrors.NewExternalServiceError("docbase", http.StatusServiceUnavailable, errors.New("gateway timeout"))
	}
	return &post, nil
}

func (s *lostResponseStore) UpdatePost(_ context.Context, id int64, req docbase.PostRequest) (*docbase.Post, error) {
	s.updatedIDs = append(s.updatedIDs, id)
	return &docbase.Post{ID: id, Title: req.Title, URL: "https://example.docbase.io/posts/updated"}, nil
}

func TestPublishServiceLostCreateResponse(t *testing.T) {
	var delays []time.Duration
	store := &lostResponseStore{failCreate: 1}
	svc := newTestPublishService(store, &delays)

	result, err := svc.Publish(context.Background(), "【LPラフ案】Lantern", "# LPラフ", nil)
	require.NoError(t, err)

	assert.Len(t, store.posts, 1, "再試行で記事が重複してはいけない")
	assert.True(t, result.Updated)
	assert.Equal(t, []int64{1}, store.updatedIDs)
	assert.Equal(t, 2, result.Attempts)
	assert.Len(t, delays, 1)
}

func TestPublishServiceRetry(t *testing.T) {
	unavailable := apperrors.NewExternalServiceError("docbase", http.StatusServiceUnavailable, errors.New("busy"))

	t.Run("指数的に待機して再試行", func(t *testing.T) {
		var delays []time.Duration
		store := &fakePostStore{searchErrs: []error{unavailable, unavailable}}
		svc := newTestPublishService(store, &delays)

		result, err := svc.Publish(context.Background(), "t", "b", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, store.searchCalls)
		assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, delays)
		assert.Equal(t, 3, result.Attempts)
	})

	t.Run("上限に達したら失敗", func(t *testing.T) {
		var delays []time.Duration
		store := &fakePostStore{searchErrs: []error{unavailable, unavailable, unavailable}}
		svc := newTestPublishService(store, &delays)

		_, err := svc.Publish(context.Background(), "t", "b", nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindExternalService))
		assert.Equal(t, 3, store.searchCalls)
		assert.Len(t, delays, 2)
	})

	t.Run("再試行できないエラーは即座に返す", func(t *testing.T) {
		var delays []time.Duration
		badRequest := apperrors.NewExternalServiceError("docbase", http.StatusBadRequest, errors.New("invalid"))
		store := &fakePostStore{createErrs: []error{badRequest}}
		svc := newTestPublishService(store, &delays)

		_, err := svc.Publish(context.Background(), "t", "b", nil)
		require.ErrorIs(t, err, badRequest)
		assert.Empty(t, delays)
	})

	t.Run("キャンセルされたら待機を中断", func(t *testing.T) {
		store := &fakePostStore{searchErrs: []error{unavailable, unavailable}}
		svc := NewPublishService(store, PublishOptions{MaxRetries: 3, BaseDelay: time.Hour}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err := svc.Publish(ctx, "t", "b", nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPublishServiceWithDocbaseClient(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var failures atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if failures.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(`{"posts":[]}`))
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":5,"title":"【LPラフ案】Lantern","url":"https://acme.docbase.io/posts/5"}`))
		}
	}))
	defer srv.Close()

	client := docbase.NewClient(srv.URL, "acme", "token", time.Second)
	svc := NewPublishService(client, PublishOptions{MaxRetries: 2, BaseDelay: time.Millisecond}, nil)

	result, err := svc.Publish(context.Background(), "【LPラフ案】Lantern", "# LPラフ", PublishTags(models.CategoryElectronics, false))
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.PostID)
	assert.Equal(t, "https://acme.docbase.io/posts/5", result.URL)
}
