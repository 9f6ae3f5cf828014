package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxMonitoringEntries は保持するログ件数の上限です。古いものから捨てます。
const maxMonitoringEntries = 10000

// recentRunLimit はダッシュボードに表示する直近の実行件数です。
const recentRunLimit = 10

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"statusCode"`
	ResponseTime time.Duration `json:"responseTime"`
}

// RunEntry はLPラフ案生成1回分の記録です。
type RunEntry struct {
	RunID          string        `json:"runId"`
	Timestamp      time.Time     `json:"timestamp"`
	Input          string        `json:"input"`
	Product        string        `json:"product,omitempty"`
	OK             bool          `json:"ok"`
	PartialSuccess bool          `json:"partialSuccess"`
	Stage          string        `json:"stage,omitempty"`
	Error          string        `json:"error,omitempty"`
	Warnings       int           `json:"warnings"`
	Duration       time.Duration `json:"duration"`
}

// MonitoringService はAPIリクエストと生成処理のモニタリング機能を提供します。
type MonitoringService struct {
	logs []LogEntry
	runs []RunEntry
	mu   sync.RWMutex
	now  func() time.Time
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService() *MonitoringService {
	return &MonitoringService{
		logs: make([]LogEntry, 0),
		runs: make([]RunEntry, 0),
		now:  time.Now,
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = appendCapped(s.logs, entry)
}

// RecordRun はパイプラインの実行結果を記録します。
func (s *MonitoringService) RecordRun(result *PipelineResult) {
	if result == nil {
		return
	}
	entry := RunEntry{
		RunID:          result.RunID,
		Timestamp:      result.StartedAt,
		Input:          result.Input,
		OK:             result.OK,
		PartialSuccess: result.PartialSuccess,
		Stage:          result.Stage,
		Error:          result.Error,
		Warnings:       len(result.Warnings),
		Duration:       result.Duration,
	}
	if result.Record != nil {
		entry.Product = result.Record.Name
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = appendCapped(s.runs, entry)
}

// RecentRuns は新しい順に最大limit件の実行記録を返します。
func (s *MonitoringService) RecentRuns(limit int) []RunEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]RunEntry, 0, min(limit, len(s.runs)))
	for i := len(s.runs) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, s.runs[i])
	}
	return runs
}

func appendCapped[T any](entries []T, entry T) []T {
	entries = append(entries, entry)
	if len(entries) > maxMonitoringEntries {
		entries = append(entries[:0:0], entries[len(entries)-maxMonitoringEntries:]...)
	}
	return entries
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()

		c.Next()

		// 管理系のパスは集計しない
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/admin") || strings.HasPrefix(path, "/api/v1/monitoring") {
			return
		}

		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: s.now().Sub(start),
		})
	}
}

// PipelineStats は期間内の生成処理の集計です。
type PipelineStats struct {
	Total          int            `json:"total"`
	Succeeded      int            `json:"succeeded"`
	PartialSuccess int            `json:"partialSuccess"`
	Failed         int            `json:"failed"`
	FailedStages   map[string]int `json:"failedStages"`
	AvgDurationMs  int64          `json:"avgDurationMs"`
	RecentRuns     []RunEntry     `json:"recentRuns"`
}

// DashboardData はダッシュボードに表示するための集計済みデータです。
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      []map[string]interface{} `json:"statusCodes"`
	AvgResponseTimes []map[string]interface{} `json:"avgResponseTimes"`
	RecentErrors     []LogEntry               `json:"recentErrors"`
	Pipeline         PipelineStats            `json:"pipeline"`
}

// GetDashboardData は指定された期間のログを集計してダッシュボード用データを返します。
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	if periodHours < 1 {
		periodHours = 1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	jst, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		jst = time.UTC
	}
	now := s.now().In(jst)
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	logs := make([]LogEntry, 0)
	for _, log := range s.logs {
		if log.Timestamp.After(since) {
			logs = append(logs, log)
		}
	}
	runs := make([]RunEntry, 0)
	for _, run := range s.runs {
		if run.Timestamp.After(since) {
			runs = append(runs, run)
		}
	}

	return DashboardData{
		RequestsOverTime: hourlyRequests(logs, now, periodHours, jst),
		Endpoints:        endpointCounts(logs),
		StatusCodes:      statusCodeCounts(logs),
		AvgResponseTimes: averageResponseTimes(logs),
		RecentErrors:     recentServerErrors(logs),
		Pipeline:         pipelineStats(runs),
	}
}

// hourlyRequests は過去から現在の順に1時間ごとのリクエスト数を返します。
func hourlyRequests(logs []LogEntry, now time.Time, periodHours int, loc *time.Location) []map[string]interface{} {
	counts := make(map[string]int)
	for _, log := range logs {
		counts[log.Timestamp.In(loc).Truncate(time.Hour).Format(time.RFC3339)]++
	}

	buckets := make([]map[string]interface{}, periodHours)
	for i := 0; i < periodHours; i++ {
		target := now.Add(-time.Duration(periodHours-1-i) * time.Hour)
		key := target.Truncate(time.Hour).Format(time.RFC3339)
		buckets[i] = map[string]interface{}{"time": target.Format("15:00"), "requests": counts[key]}
	}
	return buckets
}

func endpointCounts(logs []LogEntry) map[string]int {
	endpoints := make(map[string]int)
	for _, log := range logs {
		endpoints[log.Path]++
	}
	return endpoints
}

func statusCodeCounts(logs []LogEntry) []map[string]interface{} {
	names := []string{"2xx Success", "4xx Client Error", "5xx Server Error"}
	counts := make([]int, len(names))
	for _, log := range logs {
		switch {
		case log.StatusCode >= 200 && log.StatusCode < 300:
			counts[0]++
		case log.StatusCode >= 400 && log.StatusCode < 500:
			counts[1]++
		case log.StatusCode >= 500:
			counts[2]++
		}
	}
	result := make([]map[string]interface{}, 0, len(names))
	for i, name := range names {
		result = append(result, map[string]interface{}{"name": name, "value": counts[i]})
	}
	return result
}

func averageResponseTimes(logs []LogEntry) []map[string]interface{} {
	sums := make(map[string]time.Duration)
	counts := make(map[string]int)
	for _, log := range logs {
		sums[log.Path] += log.ResponseTime
		counts[log.Path]++
	}
	paths := make([]string, 0, len(sums))
	for path := range sums {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	result := make([]map[string]interface{}, 0, len(paths))
	for _, path := range paths {
		avg := sums[path].Milliseconds() / int64(counts[path])
		result = append(result, map[string]interface{}{"endpoint": path, "responseTime": avg})
	}
	return result
}

func recentServerErrors(logs []LogEntry) []LogEntry {
	errs := make([]LogEntry, 0)
	for i := len(logs) - 1; i >= 0 && len(errs) < 10; i-- {
		if logs[i].StatusCode >= 500 {
			errs = append(errs, logs[i])
		}
	}
	return errs
}

func pipelineStats(runs []RunEntry) PipelineStats {
	stats := PipelineStats{
		Total:        len(runs),
		FailedStages: make(map[string]int),
		RecentRuns:   make([]RunEntry, 0),
	}
	var total time.Duration
	for _, run := range runs {
		total += run.Duration
		switch {
		case !run.OK:
			stats.Failed++
			stats.FailedStages[run.Stage]++
		case run.PartialSuccess:
			stats.PartialSuccess++
		default:
			stats.Succeeded++
		}
	}
	if len(runs) > 0 {
		stats.AvgDurationMs = total.Milliseconds() / int64(len(runs))
	}
	for i := len(runs) - 1; i >= 0 && len(stats.RecentRuns) < recentRunLimit; i-- {
		stats.RecentRuns = append(stats.RecentRuns, runs[i])
	}
	return stats
}
