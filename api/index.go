package handler

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	config "lp-rough-api/configs"
	"lp-rough-api/pkg/app"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	engine *gin.Engine
	once   sync.Once
)

// setupApp はGinアプリケーションを初期化します。
// サーバーレス環境では、リクエストごとに初期化が走らないようsync.Onceで一度だけ実行します。
func setupApp() *gin.Engine {
	once.Do(func() {
		// 環境変数はVercelの設定から読み込まれるため、ここではgodotenvを呼び出しません。
		cfg := config.LoadConfig()
		// 書き込み可能なのは一時ディレクトリのみ
		if !filepath.IsAbs(cfg.OutputDir) {
			cfg.OutputDir = filepath.Join(os.TempDir(), cfg.OutputDir)
		}

		logger, err := app.NewLogger(cfg.LogLevel, false)
		if err != nil {
			log.Printf("⚠️ [setupApp] ロガーの初期化に失敗したため既定の設定を使用します: %v", err)
			logger = zap.NewExample()
		}

		gin.SetMode(gin.ReleaseMode)
		engine = app.New(cfg, logger).Router()
		logger.Info("🟢 [setupApp] Gin application initialized", zap.String("output_dir", cfg.OutputDir))
	})
	return engine
}

// Handler はVercelからのすべてのリクエストを処理するエントリーポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	setupApp().ServeHTTP(w, r)
}
