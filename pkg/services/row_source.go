package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"lp-rough-api/pkg/apperrors"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// RowReader はファイルをセルの行列として読み込みます。
type RowReader func(path string) ([][]string, error)

// TextReader はファイルをプレーンテキストとして読み込みます。
type TextReader func(path string) (string, error)

const utf8BOM = "\ufeff"

// ReadCSVRows はCSVファイルを行列として読み込みます。列数が揃っていない行も許容します。
func ReadCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewInputNotFoundError(path, err)
	}
	defer file.Close()
	return parseCSV(file)
}

func parseCSV(src io.Reader) ([][]string, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewMalformedRecordError(fmt.Sprintf("CSVファイルの解析に失敗しました: %v", err))
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return rows, nil
}

// ReadWorkbookRows はExcelファイルの先頭シートを行列として読み込みます。
func ReadWorkbookRows(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewInputNotFoundError(path, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewMalformedRecordError(fmt.Sprintf("Excelファイルの読み込みに失敗しました: %v", err))
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperrors.NewMalformedRecordError(fmt.Sprintf("Excelシートの行取得に失敗しました: %v", err))
	}
	return rows, nil
}

// ReadPDFText はPDFファイルからテキストを抽出します。
func ReadPDFText(path string) (text string, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return "", apperrors.NewInputNotFoundError(path, statErr)
	}
	defer func() {
		// 壊れたPDFではライブラリ内部でpanicすることがある
		if r := recover(); r != nil {
			text = ""
			err = apperrors.NewMalformedRecordError(fmt.Sprintf("PDFの解析に失敗しました: %v", r))
		}
	}()

	f, r, openErr := pdf.Open(path)
	if openErr != nil {
		return "", apperrors.NewMalformedRecordError(fmt.Sprintf("PDFファイルを開けません: %v", openErr))
	}
	defer f.Close()

	plain, textErr := r.GetPlainText()
	if textErr != nil {
		return "", apperrors.NewMalformedRecordError(fmt.Sprintf("PDFのテキスト抽出に失敗しました: %v", textErr))
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", apperrors.NewMalformedRecordError(fmt.Sprintf("PDFのテキスト抽出に失敗しました: %v", err))
	}
	return buf.String(), nil
}

// sniffText はファイル先頭の内容を文字列として返します。
func sniffText(path string, limit int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", apperrors.NewInputNotFoundError(path, err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return "", apperrors.NewInputNotFoundError(path, err)
	}
	return string(data), nil
}

// cell は範囲外を空文字として扱うセル取得です。
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
