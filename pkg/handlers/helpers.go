package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lp-rough-api/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// findIndex finds the index of the first candidate in a slice
func findIndex(slice []string, candidates ...string) int {
	for _, candidate := range candidates {
		for i, item := range slice {
			if strings.EqualFold(item, candidate) {
				return i
			}
		}
	}
	return -1
}

var (
	truthyValues = []string{"1", "true", "yes", "on"}
	falsyValues  = []string{"0", "false", "no", "off"}
)

// formBool はフォーム値を真偽値として読み取ります。未指定や解釈できない値は既定値になります。
func formBool(c *gin.Context, key string, defaultValue bool) bool {
	v := strings.TrimSpace(c.PostForm(key))
	if v == "" {
		v = strings.TrimSpace(c.Query(key))
	}
	switch {
	case findIndex(truthyValues, v) >= 0:
		return true
	case findIndex(falsyValues, v) >= 0:
		return false
	}
	return defaultValue
}

// queryInt は整数のクエリ値を読み取り、[1, max] に収めます。
func queryInt(c *gin.Context, key string, defaultValue, max int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return defaultValue
	}
	if n > max {
		return max
	}
	return n
}

// statusForError はエラー種別をHTTPステータスに変換します。
func statusForError(err error) int {
	switch {
	case apperrors.IsKind(err, apperrors.KindInputNotFound):
		return http.StatusNotFound
	case apperrors.IsKind(err, apperrors.KindUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case apperrors.IsKind(err, apperrors.KindMalformedRecord):
		return http.StatusUnprocessableEntity
	case apperrors.IsKind(err, apperrors.KindExternalService):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError はエラーを種別に応じたステータスで返します。
func respondError(c *gin.Context, err error) {
	body := gin.H{"success": false, "error": err.Error()}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body["kind"] = appErr.Kind
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
	}
	if stage := apperrors.StageOf(err); stage != "" {
		body["stage"] = stage
	}
	c.JSON(statusForError(err), body)
}
