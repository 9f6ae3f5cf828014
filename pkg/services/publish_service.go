package services

import (
	"context"
	"fmt"
	"time"

	"lp-rough-api/pkg/apperrors"
	"lp-rough-api/pkg/docbase"
	"lp-rough-api/pkg/models"

	"go.uber.org/zap"
)

const (
	publishSearchPerPage = 10
	defaultPublishTries  = 3
	defaultPublishDelay  = time.Second
)

// PostStore は記事の検索・作成・更新を行う公開先です。
type PostStore interface {
	SearchPosts(ctx context.Context, query string, perPage int) ([]docbase.Post, error)
	CreatePost(ctx context.Context, req docbase.PostRequest) (*docbase.Post, error)
	UpdatePost(ctx context.Context, id int64, req docbase.PostRequest) (*docbase.Post, error)
}

// PublishOptions は公開時の再試行設定です。
type PublishOptions struct {
	MaxRetries int           // 1回の操作あたりの最大試行回数
	BaseDelay  time.Duration // 初回の待機時間。以降は倍々に延ばす
}

// PublishResult 公開結果
type PublishResult struct {
	PostID   int64  `json:"post_id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Updated  bool   `json:"updated"` // 既存記事を更新した場合true
	Attempts int    `json:"attempts"`
}

// PublishService は生成した文書をDocBaseへ公開します。同じタイトルの記事があれば更新します。
type PublishService struct {
	logger *zap.Logger
	store  PostStore
	opts   PublishOptions
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPublishService は新しいPublishServiceを生成します。
func NewPublishService(store PostStore, opts PublishOptions, logger *zap.Logger) *PublishService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultPublishTries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultPublishDelay
	}
	return &PublishService{logger: logger, store: store, opts: opts, sleep: sleepContext}
}

// PublishTags は記事に付けるタグを返します。
func PublishTags(category models.Category, enhanced bool) []string {
	tags := []string{"LPラフ案", string(category)}
	if enhanced {
		tags = append(tags, "競合分析")
	}
	return tags
}

// Publish は試行のたびにタイトルで既存記事を検索し、あれば更新、なければ作成します。
func (s *PublishService) Publish(ctx context.Context, title, body string, tags []string) (*PublishResult, error) {
	s.logger.Info("📤 DocBaseへの公開開始", zap.String("title", title))

	result := &PublishResult{Title: title}
	req := docbase.PostRequest{
		Title:  title,
		Body:   body,
		Tags:   tags,
		Scope:  docbase.ScopePrivate,
		Groups: []int{},
	}

	var post *docbase.Post
	err := s.withRetry(ctx, "publish", result, func() error {
		existing, err := s.findByTitle(ctx, title)
		if err != nil {
			return err
		}
		// 作成の応答が失われた場合も再検索で更新に切り替わる
		if existing != nil {
			result.Updated = true
			post, err = s.store.UpdatePost(ctx, existing.ID, req)
			return err
		}
		result.Updated = false
		post, err = s.store.CreatePost(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	result.PostID = post.ID
	result.URL = post.URL
	s.logger.Info("✅ DocBaseへの公開完了",
		zap.String("title", title),
		zap.Int64("id", post.ID),
		zap.String("url", post.URL),
		zap.Bool("updated", result.Updated))
	return result, nil
}

// findByTitle はタイトルが完全一致する記事を返します。なければnilです。
func (s *PublishService) findByTitle(ctx context.Context, title string) (*docbase.Post, error) {
	posts, err := s.store.SearchPosts(ctx, fmt.Sprintf("title:%q", title), publishSearchPerPage)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Title == title {
			return &posts[i], nil
		}
	}
	return nil, nil
}

// withRetry は再試行可能なエラーの間だけ指数的に待機しながらfnを繰り返します。
func (s *PublishService) withRetry(ctx context.Context, op string, result *PublishResult, fn func() error) error {
	delay := s.opts.BaseDelay
	var err error
	for i := 0; i < s.opts.MaxRetries; i++ {
		result.Attempts++
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil || !apperrors.Retryable(err) || i == s.opts.MaxRetries-1 {
			break
		}
		s.logger.Warn("⚠️ DocBaseへのリクエストに失敗しました。再試行します",
			zap.String("op", op),
			zap.Int("attempt", i+1),
			zap.Int("max", s.opts.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err))
		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay *= 2
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
