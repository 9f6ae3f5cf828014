package main

import (
	"flag"
	"log"

	config "lp-rough-api/configs"
	"lp-rough-api/pkg/app"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML設定ファイルのパス")
	flag.Parse()

	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg, err := config.LoadConfigFile(*configPath)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	logger, err := app.NewLogger(cfg.LogLevel, cfg.Environment == "development")
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗しました: %v", err)
	}
	defer logger.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a := app.New(cfg, logger)
	if a.Publisher == nil {
		logger.Warn("⚠️ DocBaseの認証情報が未設定のため公開機能は無効です")
	}

	addr := ":" + cfg.Port
	logger.Info("🚀 Starting LP rough API server", zap.String("addr", addr), zap.String("output_dir", cfg.OutputDir))
	if err := a.Router().Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
