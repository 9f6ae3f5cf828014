package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"lp-rough-api/pkg/apperrors"
	"lp-rough-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pipelineClock = time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)

// failingRetriever は常にエラーを返す競合データ取得です。
type failingRetriever struct{ err error }

func (r failingRetriever) Retrieve(context.Context, []string) ([]models.CompetitorRecord, error) {
	return nil, r.err
}

// memoryRecorder は記録された実行結果を保持します。
type memoryRecorder struct {
	mu   sync.Mutex
	runs []*PipelineResult
}

func (r *memoryRecorder) RecordRun(result *PipelineResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, result)
}

func newTestPipeline(t *testing.T, retriever CompetitorRetriever, publisher *PublishService) (*PipelineService, *memoryRecorder, string) {
	t.Helper()
	dir := t.TempDir()
	writer := NewArtifactWriter(dir, nil)
	writer.now = func() time.Time { return pipelineClock }
	analysis := NewCompetitorAnalysisService(retriever, nil).WithClock(func() time.Time { return pipelineClock })
	recorder := &memoryRecorder{}

	svc := NewPipelineService(PipelineDeps{
		Ingest:    NewIngestService(IngestOptions{SKUPrefix: "PAQ"}, nil),
		Analysis:  analysis,
		Writer:    writer,
		Publisher: publisher,
		Recorder:  recorder,
	}, nil)
	svc.now = func() time.Time { return pipelineClock }
	svc.newID = func() string { return "run-1" }
	return svc, recorder, dir
}

func fullOptions() PipelineOptions {
	return PipelineOptions{Analyze: true, Layout: true, Report: true, Checklist: true}
}

func TestPipelineServiceRun(t *testing.T) {
	input := writeCSV(t, "spec.csv", vendorRows())
	svc, recorder, dir := newTestPipeline(t, &StaticRetriever{Records: sampleCompetitors(t)}, nil)

	result := svc.Run(testContext(t), input, fullOptions())

	require.True(t, result.OK, result.Error)
	assert.False(t, result.PartialSuccess)
	assert.Empty(t, result.Stage)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, DialectVendorCSV, result.Dialect)
	assert.Equal(t, models.CategoryOutdoor, result.Record.Category)
	require.NotNil(t, result.Analysis)
	assert.Len(t, result.Layouts, 10)

	require.NotNil(t, result.Draft)
	assert.True(t, result.Draft.Enhanced)
	assert.Equal(t, "【LPラフ案・競合分析版】PowerArQ Electric Blanket", result.Draft.Title)
	assert.Contains(t, result.Draft.Body, "生成日時: 2025年10月01日 09:30:00")
	assert.Contains(t, result.Report, "競合")

	t.Run("成果物がすべて出力される", func(t *testing.T) {
		for _, kind := range []string{ArtifactDraft, ArtifactRecord, ArtifactAnalysis, ArtifactLayout, ArtifactReport, ArtifactChecklist} {
			path, ok := result.Artifacts[kind]
			require.True(t, ok, kind)
			assert.Equal(t, dir, filepath.Dir(path))
			assert.FileExists(t, path)
		}
		body, err := os.ReadFile(result.Artifacts[ArtifactDraft])
		require.NoError(t, err)
		assert.Equal(t, result.Draft.Body, string(body))
	})

	t.Run("実行結果が記録される", func(t *testing.T) {
		require.Len(t, recorder.runs, 1)
		assert.Same(t, result, recorder.runs[0])
	})
}

func TestPipelineServiceMissingInput(t *testing.T) {
	svc, recorder, dir := newTestPipeline(t, nil, nil)

	result := svc.Run(testContext(t), filepath.Join(dir, "missing.csv"), fullOptions())

	assert.False(t, result.OK)
	assert.Equal(t, StageDetect, result.Stage)
	assert.True(t, apperrors.IsKind(result.Err, apperrors.KindInputNotFound))
	assert.NotEmpty(t, result.Error)
	assert.Nil(t, result.Draft)
	assert.Empty(t, result.Artifacts)
	assert.Len(t, recorder.runs, 1)
}

func TestPipelineServiceMalformedInput(t *testing.T) {
	input := writeCSV(t, "empty.csv", [][]string{{"項目名", "内容"}, {"purpose", "名前がない"}})
	svc, _, _ := newTestPipeline(t, nil, nil)

	result := svc.Run(testContext(t), input, PipelineOptions{})

	assert.False(t, result.OK)
	assert.Equal(t, StageIngest, result.Stage)
	assert.True(t, apperrors.IsKind(result.Err, apperrors.KindMalformedRecord))
}

func TestPipelineServiceAnalysisFailure(t *testing.T) {
	input := writeCSV(t, "spec.csv", vendorRows())
	retrieverErr := apperrors.NewExternalServiceError("market-data", 503, errors.New("unavailable"))
	svc, _, _ := newTestPipeline(t, failingRetriever{err: retrieverErr}, nil)

	result := svc.Run(testContext(t), input, fullOptions())

	require.True(t, result.OK)
	assert.True(t, result.PartialSuccess)
	assert.Nil(t, result.Analysis)
	assert.False(t, result.Draft.Enhanced)
	assert.Equal(t, "【LPラフ案】PowerArQ Electric Blanket", result.Draft.Title)
	assert.NotContains(t, result.Artifacts, ArtifactAnalysis)
	assert.NotContains(t, result.Artifacts, ArtifactReport)
	assert.Contains(t, result.Artifacts, ArtifactChecklist)

	joined := strings.Join(result.Warnings, "\n")
	assert.Contains(t, joined, "競合分析をスキップしました")
	assert.Contains(t, joined, "レポートを作成しませんでした")
}

func TestPipelineServicePublish(t *testing.T) {
	input := writeCSV(t, "spec.csv", vendorRows())

	t.Run("下書きとレイアウト指示書を公開する", func(t *testing.T) {
		store := &fakePostStore{}
		var delays []time.Duration
		svc, _, _ := newTestPipeline(t, &StaticRetriever{Records: sampleCompetitors(t)}, newTestPublishService(store, &delays))

		opts := fullOptions()
		opts.Publish = true
		result := svc.Run(testContext(t), input, opts)

		require.True(t, result.OK)
		assert.False(t, result.PartialSuccess)
		require.Len(t, result.Published, 2)
		require.Len(t, store.created, 2)
		assert.Equal(t, "【LPラフ案・競合分析版】PowerArQ Electric Blanket", store.created[0].Title)
		assert.Equal(t, []string{"LPラフ案", "outdoor", "競合分析"}, store.created[0].Tags)
		assert.Equal(t, "【レイアウト指示書】PowerArQ Electric Blanket", store.created[1].Title)
		assert.Empty(t, delays)
	})

	t.Run("公開に失敗しても成果物は残る", func(t *testing.T) {
		store := &fakePostStore{searchErrs: []error{
			apperrors.NewExternalServiceError("docbase", 403, errors.New("forbidden")),
		}}
		var delays []time.Duration
		svc, _, _ := newTestPipeline(t, nil, newTestPublishService(store, &delays))

		result := svc.Run(testContext(t), input, PipelineOptions{Publish: true})

		assert.True(t, result.OK)
		assert.True(t, result.PartialSuccess)
		assert.Equal(t, StagePublish, result.Stage)
		assert.True(t, apperrors.IsKind(result.Err, apperrors.KindExternalService))
		assert.FileExists(t, result.Artifacts[ArtifactDraft])
		assert.Empty(t, result.Published)
	})

	t.Run("公開先が未設定ならスキップする", func(t *testing.T) {
		svc, _, _ := newTestPipeline(t, nil, nil)

		result := svc.Run(testContext(t), input, PipelineOptions{Publish: true})

		assert.True(t, result.OK)
		assert.False(t, result.PartialSuccess)
		assert.Contains(t, result.Warnings, "DocBaseの設定がないため公開をスキップしました")
	})
}

func TestPipelineServiceTimeout(t *testing.T) {
	input := writeCSV(t, "spec.csv", vendorRows())
	svc, _, _ := newTestPipeline(t, nil, nil)

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()
	result := svc.Run(ctx, input, fullOptions())

	assert.False(t, result.OK)
	assert.Equal(t, StageIngest, result.Stage)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestPipelineServiceRunBatch(t *testing.T) {
	good := writeCSV(t, "spec.csv", vendorRows())
	svc, recorder, dir := newTestPipeline(t, nil, nil)

	results := svc.RunBatch(testContext(t), []string{filepath.Join(dir, "missing.csv"), good}, PipelineOptions{Layout: true})

	require.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.True(t, results[1].OK)
	assert.Len(t, recorder.runs, 2)

	failed, ok := FirstFailure(results)
	require.True(t, ok)
	assert.Same(t, results[0], failed)

	_, ok = FirstFailure(results[1:])
	assert.False(t, ok)
}
