package apperrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInputNotFound     Kind = "INPUT_NOT_FOUND"
	KindUnsupportedFormat Kind = "UNSUPPORTED_FORMAT"
	KindMalformedRecord   Kind = "MALFORMED_RECORD"
	KindExternalService   Kind = "EXTERNAL_SERVICE"
)

// AppError はパイプライン全体で使う分類済みエラーです。
type AppError struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Service    string `json:"service,omitempty"`     // EXTERNAL_SERVICE のみ
	StatusCode int    `json:"status_code,omitempty"` // EXTERNAL_SERVICE のみ。通信エラーは0
	Cause      error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error constructors
func NewInputNotFoundError(path string, err error) *AppError {
	return &AppError{
		Kind:    KindInputNotFound,
		Message: fmt.Sprintf("入力ファイルを読み込めません: %s", path),
		Details: path,
		Cause:   err,
	}
}

func NewUnsupportedFormatError(path, format string) *AppError {
	return &AppError{
		Kind:    KindUnsupportedFormat,
		Message: fmt.Sprintf("サポートされていないファイル形式です: %s", format),
		Details: path,
	}
}

func NewMalformedRecordError(message string) *AppError {
	return &AppError{
		Kind:    KindMalformedRecord,
		Message: message,
	}
}

func NewExternalServiceError(service string, statusCode int, err error) *AppError {
	msg := fmt.Sprintf("外部サービス(%s)でエラーが発生しました", service)
	if statusCode > 0 {
		msg = fmt.Sprintf("外部サービス(%s)がステータス%dを返しました", service, statusCode)
	}
	return &AppError{
		Kind:       KindExternalService,
		Message:    msg,
		Service:    service,
		StatusCode: statusCode,
		Cause:      err,
	}
}

// IsKind はエラーチェーンに指定種別のAppErrorが含まれるかを返します。
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// Retryable は再試行で回復しうる外部サービスエラーかどうかを返します。
// 通信エラー、429、5xxが対象。
func Retryable(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind != KindExternalService {
		return false
	}
	return appErr.StatusCode == 0 || appErr.StatusCode == 429 || appErr.StatusCode >= 500
}

// StageError はどの処理段階で失敗したかを付与したエラーです。
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// WithStage はerrに処理段階を付与します。nilはnilのまま返します。
func WithStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf はエラーに付与された処理段階を返します。
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
