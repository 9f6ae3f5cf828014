package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lp-rough-api/pkg/apperrors"
	"lp-rough-api/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// パイプラインの処理段階
const (
	StageDetect   = "detect"
	StageIngest   = "ingest"
	StageClassify = "classify"
	StageAnalyze  = "analyze"
	StageLayout   = "layout"
	StageCompose  = "compose"
	StageWrite    = "write"
	StagePublish  = "publish"
	StageReport   = "report"
)

// PipelineOptions は1回の生成処理の設定です。
type PipelineOptions struct {
	Dialect   string        `json:"dialect"`
	Analyze   bool          `json:"analyze"`
	Layout    bool          `json:"layout"`
	Publish   bool          `json:"publish"`
	Report    bool          `json:"report"`
	Checklist bool          `json:"checklist"`
	Timeout   time.Duration `json:"timeout"`
}

// PipelineResult は1入力分の処理結果です。
// OKはローカルでの生成が完了したかどうか、PartialSuccessはネットワーク処理だけが失敗したことを表します。
type PipelineResult struct {
	RunID          string                           `json:"run_id"`
	Input          string                           `json:"input"`
	OK             bool                             `json:"ok"`
	PartialSuccess bool                             `json:"partial_success"`
	Stage          string                           `json:"stage,omitempty"` // 失敗した段階
	Err            error                            `json:"-"`
	Error          string                           `json:"error,omitempty"`
	Dialect        string                           `json:"dialect,omitempty"`
	Record         *models.ProductRecord            `json:"record,omitempty"`
	Analysis       *models.CompetitorAnalysisResult `json:"analysis,omitempty"`
	Layouts        []models.LayoutSuggestion        `json:"layouts,omitempty"`
	Draft          *models.DraftDocument            `json:"draft,omitempty"`
	Report         string                           `json:"report,omitempty"`
	Artifacts      map[string]string                `json:"artifacts"`
	Published      []*PublishResult                 `json:"published,omitempty"`
	Warnings       []string                         `json:"warnings"`
	StartedAt      time.Time                        `json:"started_at"`
	Duration       time.Duration                    `json:"duration"`
}

// RunRecorder はパイプラインの実行結果を受け取ります。
type RunRecorder interface {
	RecordRun(result *PipelineResult)
}

// PipelineDeps はパイプラインが利用するサービス群です。Writer、Publisher、Recorderは省略できます。
type PipelineDeps struct {
	Ingest    *IngestService
	Analysis  *CompetitorAnalysisService
	Layout    *LayoutAdvisorService
	Composer  *DraftComposerService
	Writer    *ArtifactWriter
	Publisher *PublishService
	Recorder  RunRecorder
}

// PipelineService は入力ファイルからLPラフ案を生成する一連の処理をまとめます。
type PipelineService struct {
	logger *zap.Logger
	deps   PipelineDeps
	now    func() time.Time
	newID  func() string
}

// NewPipelineService は新しいPipelineServiceを生成します。
func NewPipelineService(deps PipelineDeps, logger *zap.Logger) *PipelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Ingest == nil {
		deps.Ingest = NewIngestService(IngestOptions{}, logger)
	}
	if deps.Analysis == nil {
		deps.Analysis = NewCompetitorAnalysisService(nil, logger)
	}
	if deps.Layout == nil {
		deps.Layout = NewLayoutAdvisorService(logger)
	}
	if deps.Composer == nil {
		deps.Composer = NewDraftComposerService(logger)
	}
	return &PipelineService{
		logger: logger,
		deps:   deps,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Run は1つの入力ファイルを処理します。失敗した場合も結果を返し、段階とエラーを記録します。
func (s *PipelineService) Run(ctx context.Context, path string, opts PipelineOptions) *PipelineResult {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	result := &PipelineResult{
		RunID:     s.newID(),
		Input:     path,
		Artifacts: map[string]string{},
		Warnings:  []string{},
		StartedAt: s.now(),
	}
	logger := s.logger.With(zap.String("run_id", result.RunID), zap.String("input", path))
	logger.Info("🚀 LPラフ案生成開始", zap.Bool("analysis", opts.Analyze), zap.Bool("publish", opts.Publish))

	defer func() {
		result.Duration = s.now().Sub(result.StartedAt)
		if result.Err != nil {
			result.Error = result.Err.Error()
		}
		if s.deps.Recorder != nil {
			s.deps.Recorder.RecordRun(result)
		}
		switch {
		case !result.OK:
			logger.Error("❌ LPラフ案生成失敗", zap.String("stage", result.Stage), zap.Error(result.Err))
		case result.PartialSuccess:
			logger.Warn("⚠️ LPラフ案は生成しましたが一部の処理に失敗しました", zap.String("stage", result.Stage), zap.Error(result.Err))
		default:
			logger.Info("✅ LPラフ案生成完了", zap.Duration("duration", result.Duration))
		}
	}()

	if err := s.generate(ctx, path, opts, result, logger); err != nil {
		result.OK = false
		result.Stage = apperrors.StageOf(err)
		result.Err = err
		return result
	}
	result.OK = true

	if opts.Publish {
		if err := s.publish(ctx, opts, result); err != nil {
			result.PartialSuccess = true
			result.Stage = StagePublish
			result.Err = apperrors.WithStage(StagePublish, err)
		}
	}
	return result
}

// generate はローカルで完結する段階を実行します。
func (s *PipelineService) generate(ctx context.Context, path string, opts PipelineOptions, result *PipelineResult, logger *zap.Logger) error {
	dialect := opts.Dialect
	if dialect == "" || dialect == DialectAuto {
		detected, err := s.deps.Ingest.DetectDialect(path)
		if err != nil {
			return apperrors.WithStage(StageDetect, err)
		}
		dialect = detected
	}
	result.Dialect = dialect

	record, err := s.deps.Ingest.Ingest(ctx, path, dialect)
	if err != nil {
		return apperrors.WithStage(StageIngest, err)
	}
	result.Record = record

	category := ClassifyCategory(record.Name)
	logger.Debug("🏷️ カテゴリ判定", zap.String("category", string(category)))

	if opts.Analyze {
		analysis, err := s.deps.Analysis.Analyze(ctx, record.Name, category)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return apperrors.WithStage(StageAnalyze, ctxErr)
			}
			result.PartialSuccess = true
			result.Warnings = append(result.Warnings, fmt.Sprintf("競合分析をスキップしました: %v", err))
			logger.Warn("⚠️ 競合分析に失敗したため分析なしで続行します", zap.Error(err))
		} else {
			result.Analysis = analysis
		}
	}

	if opts.Layout {
		result.Layouts = s.deps.Layout.SuggestAll(record)
	}

	if err := ctx.Err(); err != nil {
		return apperrors.WithStage(StageCompose, err)
	}
	draft := s.deps.Composer.Render(ComposeInput{Record: record, Analysis: result.Analysis, Layouts: result.Layouts})
	draft = Stamp(draft, s.now())
	result.Draft = &draft
	result.Warnings = append(result.Warnings, draft.Warnings...)

	if err := s.writeArtifacts(opts, result); err != nil {
		return apperrors.WithStage(StageWrite, err)
	}
	if err := s.writeReports(opts, result); err != nil {
		return apperrors.WithStage(StageReport, err)
	}
	return nil
}

func (s *PipelineService) writeArtifacts(opts PipelineOptions, result *PipelineResult) error {
	w := s.deps.Writer
	if w == nil {
		return nil
	}
	name := result.Record.Name

	if err := s.write(result, ArtifactDraft, name, "md", []byte(result.Draft.Body)); err != nil {
		return err
	}
	recordJSON, err := json.MarshalIndent(result.Record, "", "  ")
	if err != nil {
		return fmt.Errorf("商品レコードのJSON化に失敗しました: %w", err)
	}
	if err := s.write(result, ArtifactRecord, name, "json", recordJSON); err != nil {
		return err
	}
	if result.Analysis != nil {
		analysisJSON, err := json.MarshalIndent(result.Analysis, "", "  ")
		if err != nil {
			return fmt.Errorf("競合分析結果のJSON化に失敗しました: %w", err)
		}
		if err := s.write(result, ArtifactAnalysis, name, "json", analysisJSON); err != nil {
			return err
		}
	}
	if opts.Layout {
		doc := LayoutDocument(result.Record, result.Layouts, result.Draft.GeneratedAt)
		if err := s.write(result, ArtifactLayout, name, "md", []byte(doc)); err != nil {
			return err
		}
	}
	return nil
}

func (s *PipelineService) writeReports(opts PipelineOptions, result *PipelineResult) error {
	if opts.Report {
		if result.Analysis == nil {
			result.Warnings = append(result.Warnings, "競合分析結果がないためレポートを作成しませんでした")
		} else {
			result.Report = CompetitorReport(result.Record.Name, result.Analysis)
			if err := s.write(result, ArtifactReport, result.Record.Name, "md", []byte(result.Report)); err != nil {
				return err
			}
		}
	}
	if opts.Checklist {
		checklist := ImageChecklist(result.Record, result.Draft.GeneratedAt)
		if err := s.write(result, ArtifactChecklist, result.Record.Name, "md", []byte(checklist)); err != nil {
			return err
		}
	}
	return nil
}

func (s *PipelineService) write(result *PipelineResult, kind, name, ext string, data []byte) error {
	if s.deps.Writer == nil {
		return nil
	}
	path, err := s.deps.Writer.Write(kind, name, ext, data)
	if err != nil {
		return err
	}
	result.Artifacts[kind] = path
	return nil
}

func (s *PipelineService) publish(ctx context.Context, opts PipelineOptions, result *PipelineResult) error {
	if s.deps.Publisher == nil {
		result.Warnings = append(result.Warnings, "DocBaseの設定がないため公開をスキップしました")
		return nil
	}

	draft := result.Draft
	published, err := s.deps.Publisher.Publish(ctx, draft.Title, draft.Body, PublishTags(result.Record.Category, draft.Enhanced))
	if err != nil {
		return err
	}
	result.Published = append(result.Published, published)

	if opts.Layout {
		doc := LayoutDocument(result.Record, result.Layouts, draft.GeneratedAt)
		tags := append(PublishTags(result.Record.Category, false), "レイアウト指示書")
		published, err := s.deps.Publisher.Publish(ctx, LayoutDocumentTitle(result.Record.Name), doc, tags)
		if err != nil {
			return err
		}
		result.Published = append(result.Published, published)
	}
	return nil
}

// RunBatch は複数の入力を順に処理します。失敗した入力があっても残りを続けます。
func (s *PipelineService) RunBatch(ctx context.Context, paths []string, opts PipelineOptions) []*PipelineResult {
	results := make([]*PipelineResult, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			results = append(results, &PipelineResult{
				RunID:     s.newID(),
				Input:     path,
				Stage:     StageDetect,
				Err:       err,
				Error:     err.Error(),
				Artifacts: map[string]string{},
				Warnings:  []string{},
			})
			continue
		}
		results = append(results, s.Run(ctx, path, opts))
	}
	return results
}

// FirstFailure は最初に失敗した結果を返します。
func FirstFailure(results []*PipelineResult) (*PipelineResult, bool) {
	for _, r := range results {
		if !r.OK {
			return r, true
		}
	}
	return nil, false
}

// IsTimeout は実行時間の上限に達したことによる失敗かどうかを返します。
func (r *PipelineResult) IsTimeout() bool {
	return errors.Is(r.Err, context.DeadlineExceeded)
}
