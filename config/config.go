package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all tdconv configuration.
type Config struct {
	Logger     LoggerConfig     `yaml:"logger"`
	Convert    ConvertConfig    `yaml:"convert"`
	Download   DownloadConfig   `yaml:"download"`
	History    HistoryConfig    `yaml:"history"`
	HTTPServer HTTPServerConfig `yaml:"http_server"`
}

type LoggerConfig struct {
	Level        string `yaml:"level"`
	Mode         string `yaml:"mode"`
	Encoding     string `yaml:"encoding"`
	ColorEnabled bool   `yaml:"color_enabled"`
}

type ConvertConfig struct {
	Format         string `yaml:"format"`
	Download       bool   `yaml:"download"`
	AttachmentsDir string `yaml:"attachments_dir"`
	BatchPolicy    string `yaml:"batch_policy"`
}

type DownloadConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	UserAgent string        `yaml:"user_agent"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

type HTTPServerConfig struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"`
}

// Load reads configuration with Viper. An explicit path must exist;
// otherwise tdconv.yaml is searched in ./config, . and $HOME/.tdconv and
// may be absent. TDCONV_* environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TDCONV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tdconv")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if dir := homeDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Logger.Level = v.GetString("logger.level")
	cfg.Logger.Mode = v.GetString("logger.mode")
	cfg.Logger.Encoding = v.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = v.GetBool("logger.color_enabled")

	cfg.Convert.Format = v.GetString("convert.format")
	cfg.Convert.Download = v.GetBool("convert.download")
	cfg.Convert.AttachmentsDir = v.GetString("convert.attachments_dir")
	cfg.Convert.BatchPolicy = v.GetString("convert.batch_policy")

	cfg.Download.Timeout = v.GetDuration("download.timeout")
	cfg.Download.MaxBytes = v.GetInt64("download.max_bytes")
	cfg.Download.RateLimit = v.GetFloat64("download.rate_limit")
	cfg.Download.UserAgent = v.GetString("download.user_agent")

	cfg.History.Enabled = v.GetBool("history.enabled")
	cfg.History.DBPath = v.GetString("history.db_path")

	cfg.HTTPServer.Addr = v.GetString("http_server.addr")
	cfg.HTTPServer.Mode = v.GetString("http_server.mode")

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", "production")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.color_enabled", false)

	// Convert
	v.SetDefault("convert.format", "md")
	v.SetDefault("convert.download", false)
	v.SetDefault("convert.attachments_dir", "attachments")
	v.SetDefault("convert.batch_policy", "abort")

	// Download
	v.SetDefault("download.timeout", 2*time.Minute)
	v.SetDefault("download.max_bytes", 0)
	v.SetDefault("download.rate_limit", 0)
	v.SetDefault("download.user_agent", "")

	// History
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.db_path", filepath.Join(homeDir(), "history.db"))

	// HTTP server
	v.SetDefault("http_server.addr", ":8080")
	v.SetDefault("http_server.mode", "release")
}

// homeDir is $HOME/.tdconv, or empty when the home directory is unknown.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tdconv")
}
