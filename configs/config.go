package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port          string
	Environment   string
	APIKey        string
	AdminUsername string
	AdminPassword string
	LogLevel      string

	// 出力
	OutputDir string

	// DocBase
	DocbaseTeam    string
	DocbaseToken   string
	DocbaseBaseURL string

	// 公開処理のタイムアウトと再試行
	PublishTimeout    time.Duration
	PublishMaxRetries int
	PublishBaseDelay  time.Duration

	// 競合データの取得元
	RetrievalEndpoint string
	RetrievalTimeout  time.Duration
	CompetitorFixture string

	InvocationTimeout time.Duration
	SKUPrefix         string
	VendorMarkers     []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		APIKey:            getEnv("API_KEY", ""),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		OutputDir:         getEnv("OUTPUT_DIR", "output"),
		DocbaseTeam:       getEnv("DOCBASE_TEAM", ""),
		DocbaseToken:      getEnv("DOCBASE_ACCESS_TOKEN", getEnv("DOCBASE_API_TOKEN", "")),
		DocbaseBaseURL:    getEnv("DOCBASE_BASE_URL", "https://api.docbase.io"),
		PublishTimeout:    getEnvDuration("PUBLISH_TIMEOUT", 30*time.Second),
		PublishMaxRetries: getEnvInt("PUBLISH_MAX_RETRIES", 3),
		PublishBaseDelay:  getEnvDuration("PUBLISH_BASE_DELAY", time.Second),
		RetrievalEndpoint: getEnv("RETRIEVAL_ENDPOINT", ""),
		RetrievalTimeout:  getEnvDuration("RETRIEVAL_TIMEOUT", 10*time.Second),
		CompetitorFixture: getEnv("COMPETITOR_FIXTURE", ""),
		InvocationTimeout: getEnvDuration("INVOCATION_TIMEOUT", 5*time.Minute),
		SKUPrefix:         getEnv("SKU_PREFIX", "SKU"),
		VendorMarkers:     getEnvList("VENDOR_MARKERS", []string{"規定書", "加島商事"}),
	}
}

// PublishEnabled はDocBaseへの公開に必要な認証情報が揃っているかを返します。
func (c *Config) PublishEnabled() bool {
	return c.DocbaseTeam != "" && c.DocbaseToken != ""
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt は整数の環境変数を読み込みます。不正な値は既定値になります。
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration は "30s" 形式の環境変数を読み込みます。
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList はカンマ区切りの環境変数を読み込みます。
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
