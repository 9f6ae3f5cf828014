package handlers

import (
	"net/http"

	"lp-rough-api/pkg/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// periodHours は期間指定の文字列を時間数に変換します。
var periodHours = map[string]int{
	"1h":  1,
	"24h": 24,
	"7d":  24 * 7,
}

// MonitoringHandler はモニタリング関連の操作のハンドラです。
type MonitoringHandler struct {
	Service *services.MonitoringService
}

// NewMonitoringHandler は新しいMonitoringHandlerを生成します。
func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		Service: service,
	}
}

// GetLogs は集計されたログデータを返します。
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	hours, ok := periodHours[c.DefaultQuery("period", "24h")]
	if !ok {
		hours = 24
	}
	c.JSON(http.StatusOK, h.Service.GetDashboardData(hours))
}

// GetRuns は直近のLPラフ案生成の実行記録を返します。
func (h *MonitoringHandler) GetRuns(c *gin.Context) {
	limit := queryInt(c, "limit", defaultRunLimit, maxRunLimit)
	c.JSON(http.StatusOK, gin.H{"runs": h.Service.RecentRuns(limit)})
}
