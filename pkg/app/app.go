// Package app は設定から各サービスを組み立て、CLIとHTTPサーバーで共有します。
package app

import (
	"fmt"
	"strings"

	config "lp-rough-api/configs"
	"lp-rough-api/pkg/docbase"
	"lp-rough-api/pkg/services"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App は組み立て済みのサービス群です。
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Pipeline   *services.PipelineService
	Analysis   *services.CompetitorAnalysisService
	Layout     *services.LayoutAdvisorService
	Monitoring *services.MonitoringService
	Writer     *services.ArtifactWriter
	Publisher  *services.PublishService // DocBase未設定の場合はnil
}

// New は設定からAppを生成します。
func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	monitoring := services.NewMonitoringService()
	analysis := services.NewCompetitorAnalysisService(NewRetriever(cfg), logger)
	layout := services.NewLayoutAdvisorService(logger)
	writer := services.NewArtifactWriter(cfg.OutputDir, logger)
	publisher := NewPublisher(cfg, logger)

	deps := services.PipelineDeps{
		Ingest: services.NewIngestService(services.IngestOptions{
			SKUPrefix:     cfg.SKUPrefix,
			VendorMarkers: cfg.VendorMarkers,
		}, logger),
		Analysis:  analysis,
		Layout:    layout,
		Composer:  services.NewDraftComposerService(logger),
		Writer:    writer,
		Publisher: publisher,
		Recorder:  monitoring,
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Pipeline:   services.NewPipelineService(deps, logger),
		Analysis:   analysis,
		Layout:     layout,
		Monitoring: monitoring,
		Writer:     writer,
		Publisher:  publisher,
	}
}

// NewRetriever は設定に応じた競合データの取得元を返します。
// エンドポイントが優先され、次にフィクスチャ、どちらもなければ空の結果を返します。
func NewRetriever(cfg *config.Config) services.CompetitorRetriever {
	switch {
	case cfg.RetrievalEndpoint != "":
		return services.NewHTTPRetriever(cfg.RetrievalEndpoint, cfg.RetrievalTimeout)
	case cfg.CompetitorFixture != "":
		return &services.FileRetriever{Path: cfg.CompetitorFixture}
	}
	return services.NoopRetriever{}
}

// NewPublisher はDocBaseの認証情報が揃っている場合に公開サービスを返します。
func NewPublisher(cfg *config.Config, logger *zap.Logger) *services.PublishService {
	if !cfg.PublishEnabled() {
		return nil
	}
	client := docbase.NewClient(cfg.DocbaseBaseURL, cfg.DocbaseTeam, cfg.DocbaseToken, cfg.PublishTimeout)
	return services.NewPublishService(client, services.PublishOptions{
		MaxRetries: cfg.PublishMaxRetries,
		BaseDelay:  cfg.PublishBaseDelay,
	}, logger)
}

// NewLogger はログレベル名からzapロガーを生成します。verboseの場合は常にdebugです。
func NewLogger(level string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zcfg.DisableStacktrace = true

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, fmt.Errorf("不正なログレベルです: %s", level)
		}
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
