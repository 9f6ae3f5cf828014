package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lp-rough-api/pkg/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxUploadBytes はアップロードできる仕様書ファイルの上限です。
const maxUploadBytes = 10 << 20

// DraftHandler はLPラフ案生成のハンドラです。
type DraftHandler struct {
	pipeline *services.PipelineService
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDraftHandler は新しいDraftHandlerを生成します。
func NewDraftHandler(pipeline *services.PipelineService, timeout time.Duration, logger *zap.Logger) *DraftHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftHandler{pipeline: pipeline, timeout: timeout, logger: logger}
}

// CreateDraft はアップロードされた仕様書からLPラフ案を生成します。
// multipartの file に仕様書、analysis/layout/report/checklist/publish/type で処理を指定します。
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "ファイルの取得に失敗しました。"})
		return
	}

	dir, err := os.MkdirTemp("", "lp-rough-upload-*")
	if err != nil {
		h.logger.Error("❌ 一時ディレクトリの作成に失敗しました", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "アップロードの保存に失敗しました。"})
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, path); err != nil {
		h.logger.Error("❌ アップロードファイルの保存に失敗しました", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "アップロードの保存に失敗しました。"})
		return
	}

	opts := services.PipelineOptions{
		Dialect:   c.DefaultPostForm("type", services.DialectAuto),
		Analyze:   formBool(c, "analysis", true),
		Layout:    formBool(c, "layout", false),
		Report:    formBool(c, "report", false),
		Checklist: formBool(c, "checklist", false),
		Publish:   formBool(c, "publish", false),
		Timeout:   h.timeout,
	}
	h.logger.Info("📥 LPラフ案生成リクエスト", zap.String("file", fileHeader.Filename), zap.Int64("size", fileHeader.Size))

	result := h.pipeline.Run(c.Request.Context(), path, opts)
	if !result.OK {
		respondError(c, result.Err)
		return
	}

	body := gin.H{
		"success":         true,
		"run_id":          result.RunID,
		"partial_success": result.PartialSuccess,
		"dialect":         result.Dialect,
		"category":        result.Record.Category,
		"title":           result.Draft.Title,
		"body":            result.Draft.Body,
		"page_count":      result.Draft.PageCount,
		"enhanced":        result.Draft.Enhanced,
		"artifacts":       result.Artifacts,
		"warnings":        result.Warnings,
		"duration_ms":     result.Duration.Milliseconds(),
	}
	if result.PartialSuccess && result.Err != nil {
		body["error"] = result.Error
		body["stage"] = result.Stage
	}
	if len(result.Published) > 0 {
		body["published"] = result.Published
	}
	if result.Report != "" {
		body["report"] = result.Report
	}
	if opts.Layout {
		body["layouts"] = result.Layouts
	}
	c.JSON(http.StatusOK, body)
}
