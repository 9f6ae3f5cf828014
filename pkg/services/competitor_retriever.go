package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"lp-rough-api/pkg/apperrors"
	"lp-rough-api/pkg/models"
)

// CompetitorRetriever は検索キーワードから競合商品データを取得します。
type CompetitorRetriever interface {
	Retrieve(ctx context.Context, keywords []string) ([]models.CompetitorRecord, error)
}

// StaticRetriever は固定の競合データを返します。
type StaticRetriever struct {
	Records []models.CompetitorRecord
}

func (r *StaticRetriever) Retrieve(ctx context.Context, _ []string) ([]models.CompetitorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.CompetitorRecord(nil), r.Records...), nil
}

// NoopRetriever は常に空の結果を返します。
type NoopRetriever struct{}

func (NoopRetriever) Retrieve(context.Context, []string) ([]models.CompetitorRecord, error) {
	return nil, nil
}

// FileRetriever はJSONファイルに保存された競合データを返します。
type FileRetriever struct {
	Path string
}

func (r *FileRetriever) Retrieve(ctx context.Context, _ []string) ([]models.CompetitorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("competitor-fixture", 0, err)
	}
	records, err := decodeCompetitors(data)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("competitor-fixture", 0, err)
	}
	return records, nil
}

// HTTPRetriever は市場データAPIから競合データを取得します。
type HTTPRetriever struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPRetriever は新しいHTTPRetrieverを生成します。
func NewHTTPRetriever(endpoint string, timeout time.Duration) *HTTPRetriever {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRetriever{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (r *HTTPRetriever) Retrieve(ctx context.Context, keywords []string) ([]models.CompetitorRecord, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLが不正です: %w", err)
	}
	q := u.Query()
	q.Set("keywords", strings.Join(keywords, ","))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("market-data", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("market-data", 0, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalServiceError("market-data", resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}
	records, err := decodeCompetitors(body)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("market-data", resp.StatusCode, err)
	}
	return records, nil
}

// decodeCompetitors は配列または {"competitors": [...]} 形式のJSONを読み込みます。
func decodeCompetitors(data []byte) ([]models.CompetitorRecord, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var records []models.CompetitorRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("競合データのJSON解析に失敗しました: %w", err)
		}
		return records, nil
	}
	var wrapped struct {
		Competitors []models.CompetitorRecord `json:"competitors"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("競合データのJSON解析に失敗しました: %w", err)
	}
	return wrapped.Competitors, nil
}
