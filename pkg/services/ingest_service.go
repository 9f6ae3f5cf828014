package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lp-rough-api/pkg/apperrors"
	"lp-rough-api/pkg/models"

	"go.uber.org/zap"
)

// 入力形式
const (
	DialectAuto        = "auto"
	DialectCSV         = "csv"        // セクション形式CSV
	DialectVendorCSV   = "vendor_csv" // 規定書CSV（固定列）
	DialectExcel       = "excel"      // セクション形式Excel
	DialectVendorExcel = "vendor_excel"
	DialectPDF         = "pdf"
	DialectJSON        = "json"
)

// sniffLimit は形式判定で読み込む先頭バイト数です。
const sniffLimit = 64 * 1024

// FallbackRecordFunc はPDFから構造化データを得られなかった場合に呼ばれます。
type FallbackRecordFunc func(text string) (*models.ProductRecord, error)

// IngestOptions は取り込み処理の設定です。
type IngestOptions struct {
	SKUPrefix     string
	VendorMarkers []string
	VendorLayout  VendorLayout
	ReadCSV       RowReader
	ReadWorkbook  RowReader
	ReadPDF       TextReader
	PDFFallback   FallbackRecordFunc
}

// IngestService は入力ファイルを形式ごとに解析してProductRecordを生成します。
type IngestService struct {
	logger *zap.Logger
	opts   IngestOptions
}

// NewIngestService は新しいIngestServiceを生成します。
func NewIngestService(opts IngestOptions, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ReadCSV == nil {
		opts.ReadCSV = ReadCSVRows
	}
	if opts.ReadWorkbook == nil {
		opts.ReadWorkbook = ReadWorkbookRows
	}
	if opts.ReadPDF == nil {
		opts.ReadPDF = ReadPDFText
	}
	if opts.VendorLayout == (VendorLayout{}) {
		opts.VendorLayout = DefaultVendorLayout
	}
	if len(opts.VendorMarkers) == 0 {
		opts.VendorMarkers = []string{"規定書", "加島商事"}
	}
	return &IngestService{logger: logger, opts: opts}
}

// DetectDialect は拡張子と内容から入力形式を判定します。
func (s *IngestService) DetectDialect(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", apperrors.NewInputNotFoundError(path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		head, err := sniffText(path, sniffLimit)
		if err != nil {
			return "", err
		}
		if s.containsVendorMarker(head) {
			return DialectVendorCSV, nil
		}
		return DialectCSV, nil
	case ".xlsx", ".xlsm", ".xls":
		return DialectExcel, nil
	case ".pdf":
		return DialectPDF, nil
	case ".json":
		return DialectJSON, nil
	}
	return "", apperrors.NewUnsupportedFormatError(path, ext)
}

func (s *IngestService) containsVendorMarker(text string) bool {
	for _, marker := range s.opts.VendorMarkers {
		if marker != "" && strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func (s *IngestService) rowsContainVendorMarker(rows [][]string) bool {
	for _, row := range rows {
		for _, c := range row {
			if s.containsVendorMarker(c) {
				return true
			}
		}
	}
	return false
}

// Ingest はファイルを読み込みProductRecordを返します。dialectが空またはautoの場合は自動判定します。
func (s *IngestService) Ingest(ctx context.Context, path, dialect string) (*models.ProductRecord, error) {
	if dialect == "" || dialect == DialectAuto {
		detected, err := s.DetectDialect(path)
		if err != nil {
			return nil, err
		}
		dialect = detected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("📋 入力ファイル解析開始", zap.String("path", path), zap.String("dialect", dialect))

	var (
		record *models.ProductRecord
		err    error
	)
	switch dialect {
	case DialectCSV, DialectVendorCSV:
		record, err = s.ingestRows(s.opts.ReadCSV, path, dialect == DialectVendorCSV, DialectCSV)
	case DialectExcel, DialectVendorExcel:
		record, err = s.ingestRows(s.opts.ReadWorkbook, path, dialect == DialectVendorExcel, DialectExcel)
	case DialectPDF:
		record, err = s.ingestPDF(path)
	case DialectJSON:
		record, err = s.ingestJSON(path)
	default:
		return nil, apperrors.NewUnsupportedFormatError(path, dialect)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ 入力ファイル解析完了",
		zap.String("name", record.Name),
		zap.String("category", string(record.Category)),
		zap.Int("variants", len(record.Variants)),
		zap.Int("pages", record.PageCount()))
	return record, nil
}

func (s *IngestService) ingestRows(read RowReader, path string, vendor bool, sectionedDialect string) (*models.ProductRecord, error) {
	rows, err := read(path)
	if err != nil {
		return nil, err
	}
	if !vendor && sectionedDialect == DialectExcel && s.rowsContainVendorMarker(rows) {
		vendor = true
	}
	if vendor {
		dialect := DialectVendorCSV
		if sectionedDialect == DialectExcel {
			dialect = DialectVendorExcel
		}
		b := NewRecordBuilder(s.opts.SKUPrefix, dialect)
		NewVendorParser(b, s.opts.VendorLayout, s.logger).Parse(rows)
		return b.Build()
	}
	return ParseSectionedRows(rows, s.opts.SKUPrefix, sectionedDialect, s.logger)
}

// ingestPDF は "ラベル：値" 行を規定書の項目対応で読み取ります。
// 商品名が得られない場合はフォールバックを使います。
func (s *IngestService) ingestPDF(path string) (*models.ProductRecord, error) {
	text, err := s.opts.ReadPDF(path)
	if err != nil {
		return nil, err
	}

	b := NewRecordBuilder(s.opts.SKUPrefix, DialectPDF)
	vp := NewVendorParser(b, s.opts.VendorLayout, s.logger)
	for _, line := range splitLines(text) {
		if point, ok := cutBullet(line); ok {
			b.AddSalesPoint(point)
			continue
		}
		label, value, ok := splitLabelValue(line)
		if !ok {
			continue
		}
		if strings.Contains(label, janKeyMarker) {
			b.AddVariantsFromJANText(value)
			continue
		}
		if isVendorKey(label) {
			vp.field(label, value)
		}
	}
	vp.Finish()

	if b.Name() != "" {
		return b.Build()
	}
	if s.opts.PDFFallback == nil {
		return nil, apperrors.NewMalformedRecordError(fmt.Sprintf("PDFから商品名を抽出できませんでした: %s", path))
	}
	s.logger.Warn("⚠️ PDFから構造化データを抽出できないためフォールバックを使用します", zap.String("path", path))
	record, err := s.opts.PDFFallback(text)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.NewMalformedRecordError("フォールバックがレコードを返しませんでした")
	}
	return rebuildRecord(record, s.opts.SKUPrefix, DialectPDF)
}

func (s *IngestService) ingestJSON(path string) (*models.ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewInputNotFoundError(path, err)
	}
	var raw models.ProductRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewMalformedRecordError(fmt.Sprintf("JSONの解析に失敗しました: %v", err))
	}
	return rebuildRecord(&raw, s.opts.SKUPrefix, DialectJSON)
}

// rebuildRecord は外部から与えられたレコードをビルダーに通して不変条件を満たす形にします。
func rebuildRecord(src *models.ProductRecord, skuPrefix, dialect string) (*models.ProductRecord, error) {
	b := NewRecordBuilder(skuPrefix, dialect)
	b.SetName(src.Name)
	b.SetKana(src.Kana)
	b.SetModelNumber(src.ModelNumber)
	b.SetPurpose(src.Purpose)
	b.SetPrice(src.Price)
	b.SetReleaseDate(src.ReleaseDate)
	for _, v := range src.Variants {
		b.AddVariant(v.Type, v.SKU, v.JAN)
	}
	for _, f := range src.Specifications {
		b.AddSpec(f.Label, f.Value)
	}
	for _, f := range src.Attributes {
		b.AddAttribute(f.Label, f.Value)
	}
	for _, p := range src.SalesPoints {
		b.AddSalesPoint(p)
	}
	for _, u := range src.TargetUsers {
		b.targetUsers = appendUnique(b.targetUsers, strings.TrimSpace(u))
	}
	for _, scene := range src.UsageScenes {
		b.usageScenes = appendUnique(b.usageScenes, strings.TrimSpace(scene))
	}

	for i, title := range src.PageStructure {
		b.SetPageTitle(i+1, title)
	}
	for i, page := range src.PageSpecs {
		idx := page.Index
		if idx < 1 {
			idx = i + 1
		}
		b.SetPageField(idx, "text", page.Text)
		b.SetPageField(idx, "layout_note", page.LayoutNote)
		b.SetPageField(idx, "image_instruction", page.ImageInstruction)
		b.SetPageField(idx, "design_priority", string(page.DesignPriority))
		b.SetPageField(idx, "layout_image", page.LayoutImage)
		for k, img := range page.Images {
			if img == models.PendingImage {
				continue
			}
			b.SetPageField(idx, fmt.Sprintf("image_%d", k+1), img)
		}
	}
	return b.Build()
}
