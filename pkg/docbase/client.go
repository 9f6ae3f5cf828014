package docbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lp-rough-api/pkg/apperrors"
)

const (
	// DefaultBaseURL はDocBase APIの既定エンドポイントです。
	DefaultBaseURL = "https://api.docbase.io"

	serviceName = "docbase"

	// ScopePrivate は社内限定の公開範囲です。
	ScopePrivate = "private"
)

// Client はDocBase REST APIへのリクエストを管理します。
type Client struct {
	baseURL    string
	team       string
	token      string
	httpClient *http.Client
}

// NewClient は新しいDocBaseクライアントを作成します。
func NewClient(baseURL, team, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		team:    team,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- データ構造定義 ---

// PostRequest 記事の作成・更新リクエスト
type PostRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Tags   []string `json:"tags"`
	Scope  string   `json:"scope"`
	Groups []int    `json:"groups"`
	Notice bool     `json:"notice"`
}

// Post 記事
type Post struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
	Scope string `json:"scope"`
	Tags  []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// searchResponse 記事検索レスポンス
type searchResponse struct {
	Posts []Post `json:"posts"`
}

// errorResponse エラーレスポンス
type errorResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages"`
}

// --- メソッド定義 ---

// CreatePost 記事を新規作成
func (c *Client) CreatePost(ctx context.Context, req PostRequest) (*Post, error) {
	var post Post
	if err := c.doRequest(ctx, http.MethodPost, c.postsURL(), req, http.StatusCreated, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost 既存記事を更新
func (c *Client) UpdatePost(ctx context.Context, id int64, req PostRequest) (*Post, error) {
	u := c.postsURL() + "/" + strconv.FormatInt(id, 10)
	var post Post
	if err := c.doRequest(ctx, http.MethodPatch, u, req, http.StatusOK, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// SearchPosts 記事を検索
func (c *Client) SearchPosts(ctx context.Context, query string, perPage int) ([]Post, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(perPage))

	var resp searchResponse
	if err := c.doRequest(ctx, http.MethodGet, c.postsURL()+"?"+params.Encode(), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *Client) postsURL() string {
	return fmt.Sprintf("%s/teams/%s/posts", c.baseURL, url.PathEscape(c.team))
}

// doRequest はHTTPリクエストの実行と基本的なレスポンス処理を行う共通メソッドです。
func (c *Client) doRequest(ctx context.Context, method, url string, requestData interface{}, wantStatus int, responseData interface{}) error {
	if c.token == "" || c.team == "" {
		return apperrors.NewExternalServiceError(serviceName, http.StatusUnauthorized, fmt.Errorf("アクセストークンまたはチーム名が設定されていません"))
	}

	var body io.Reader
	if requestData != nil {
		requestBody, err := json.Marshal(requestData)
		if err != nil {
			return fmt.Errorf("リクエストのJSON化に失敗: %w", err)
		}
		body = bytes.NewReader(requestBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-DocBaseToken", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalServiceError(serviceName, 0, fmt.Errorf("HTTPリクエストの実行に失敗: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewExternalServiceError(serviceName, 0, fmt.Errorf("レスポンスの読み取りに失敗: %w", err))
	}

	if resp.StatusCode != wantStatus {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && (errResp.Error != "" || len(errResp.Messages) > 0) {
			return apperrors.NewExternalServiceError(serviceName, resp.StatusCode,
				fmt.Errorf("DocBase API エラー: %s %s", errResp.Error, strings.Join(errResp.Messages, ", ")))
		}
		return apperrors.NewExternalServiceError(serviceName, resp.StatusCode,
			fmt.Errorf("DocBase API エラー: %s", strings.TrimSpace(string(respBody))))
	}

	if responseData == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, responseData); err != nil {
		return fmt.Errorf("レスポンスのJSON解析に失敗: %w", err)
	}
	return nil
}
