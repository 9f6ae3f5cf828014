package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// 成果物の種類
const (
	ArtifactDraft     = "lp_rough"
	ArtifactAnalysis  = "competitor_analysis"
	ArtifactReport    = "competitor_report"
	ArtifactChecklist = "image_checklist"
	ArtifactLayout    = "layout_instructions"
	ArtifactRecord    = "product_record"
)

const (
	artifactTimeLayout  = "20060102_150405"
	maxArtifactAttempts = 1000
)

// ArtifactWriter は成果物をタイムスタンプ付きのファイル名で出力ディレクトリに保存します。
// 同じ秒に同じ名前が生成されても連番で区別し、既存ファイルは上書きしません。
type ArtifactWriter struct {
	logger *zap.Logger
	dir    string
	now    func() time.Time

	mu  sync.Mutex
	seq int
}

// NewArtifactWriter は新しいArtifactWriterを生成します。
func NewArtifactWriter(dir string, logger *zap.Logger) *ArtifactWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		dir = "output"
	}
	return &ArtifactWriter{logger: logger, dir: dir, now: time.Now}
}

// Dir は出力ディレクトリを返します。
func (w *ArtifactWriter) Dir() string {
	return w.dir
}

// Write は成果物を保存し、保存先のパスを返します。
func (w *ArtifactWriter) Write(kind, product, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}

	stamp := w.now().Format(artifactTimeLayout)
	base := fmt.Sprintf("%s_%s_%s", kind, sanitizeFileComponent(product), stamp)

	for i := 0; i < maxArtifactAttempts; i++ {
		path := filepath.Join(w.dir, fmt.Sprintf("%s_%d.%s", base, w.nextSeq(), ext))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("ファイルの作成に失敗しました: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("ファイルの書き込みに失敗しました: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("ファイルのクローズに失敗しました: %w", err)
		}
		w.logger.Info("💾 成果物を保存しました", zap.String("kind", kind), zap.String("path", path))
		return path, nil
	}
	return "", fmt.Errorf("空きファイル名が見つかりません: %s", base)
}

func (w *ArtifactWriter) nextSeq() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	return w.seq
}

// sanitizeFileComponent はファイル名に使えない文字と空白を "_" に置き換えます。
func sanitizeFileComponent(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r), strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "unnamed"
	}
	return s
}
