package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig はlpgen.yamlの構造を定義
type FileConfig struct {
	Server struct {
		Port        string `yaml:"port"`
		Environment string `yaml:"environment"`
	} `yaml:"server"`

	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`

	Docbase struct {
		Team       string `yaml:"team"`
		BaseURL    string `yaml:"base_url"`
		Timeout    string `yaml:"timeout"`
		MaxRetries int    `yaml:"max_retries"`
		BaseDelay  string `yaml:"base_delay"`
	} `yaml:"docbase"`

	Retrieval struct {
		Endpoint string `yaml:"endpoint"`
		Timeout  string `yaml:"timeout"`
		Fixture  string `yaml:"fixture"`
	} `yaml:"retrieval"`

	Ingest struct {
		SKUPrefix     string   `yaml:"sku_prefix"`
		VendorMarkers []string `yaml:"vendor_markers"`
	} `yaml:"ingest"`

	InvocationTimeout string `yaml:"invocation_timeout"`
	LogLevel          string `yaml:"log_level"`
}

// LoadConfigFile はYAMLファイルを読み込み、環境変数で上書きした設定を返す
// pathが空の場合は環境変数のみを使用する。
func LoadConfigFile(path string) (*Config, error) {
	cfg := LoadConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("YAMLのパースに失敗: %w", err)
	}

	if err := fc.applyTo(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyTo は環境変数が未設定の項目だけをファイルの値で上書きする
func (fc *FileConfig) applyTo(cfg *Config) error {
	overlayString("PORT", fc.Server.Port, &cfg.Port)
	overlayString("ENVIRONMENT", fc.Server.Environment, &cfg.Environment)
	overlayString("OUTPUT_DIR", fc.Output.Dir, &cfg.OutputDir)
	overlayString("DOCBASE_TEAM", fc.Docbase.Team, &cfg.DocbaseTeam)
	overlayString("DOCBASE_BASE_URL", fc.Docbase.BaseURL, &cfg.DocbaseBaseURL)
	overlayString("RETRIEVAL_ENDPOINT", fc.Retrieval.Endpoint, &cfg.RetrievalEndpoint)
	overlayString("COMPETITOR_FIXTURE", fc.Retrieval.Fixture, &cfg.CompetitorFixture)
	overlayString("SKU_PREFIX", fc.Ingest.SKUPrefix, &cfg.SKUPrefix)
	overlayString("LOG_LEVEL", fc.LogLevel, &cfg.LogLevel)

	if fc.Docbase.MaxRetries > 0 && os.Getenv("PUBLISH_MAX_RETRIES") == "" {
		cfg.PublishMaxRetries = fc.Docbase.MaxRetries
	}
	if len(fc.Ingest.VendorMarkers) > 0 && os.Getenv("VENDOR_MARKERS") == "" {
		cfg.VendorMarkers = fc.Ingest.VendorMarkers
	}

	durations := []struct {
		env   string
		value string
		dst   *time.Duration
	}{
		{"PUBLISH_TIMEOUT", fc.Docbase.Timeout, &cfg.PublishTimeout},
		{"PUBLISH_BASE_DELAY", fc.Docbase.BaseDelay, &cfg.PublishBaseDelay},
		{"RETRIEVAL_TIMEOUT", fc.Retrieval.Timeout, &cfg.RetrievalTimeout},
		{"INVOCATION_TIMEOUT", fc.InvocationTimeout, &cfg.InvocationTimeout},
	}
	for _, d := range durations {
		if d.value == "" || os.Getenv(d.env) != "" {
			continue
		}
		parsed, err := parseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s の値が不正です: %w", strings.ToLower(d.env), err)
		}
		*d.dst = parsed
	}
	return nil
}

func overlayString(env, value string, dst *string) {
	if value != "" && os.Getenv(env) == "" {
		*dst = value
	}
}

// parseDuration は "30s" 形式に加えて秒数のみの指定も受け付ける
func parseDuration(value string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(value)
}
