package youtube

import (
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// DefaultProxy is a configuration default, not a behavioral contract.
// Override it in the config file, with --proxy, or disable with --no-proxy.
const DefaultProxy = "http://127.0.0.1:2090"

type Config struct {
	Proxy          string `yaml:"proxy"`
	Format         string `yaml:"format"`
	Output         string `yaml:"output"`
	Workers        int    `yaml:"workers"`
	MaxRetries     int    `yaml:"max_retries"`
	YtDlp          string `yaml:"yt_dlp"`
	SocketTimeout  int    `yaml:"socket_timeout"`
	FetcherRetries int    `yaml:"fetcher_retries"`
	HistoryDB      string `yaml:"history_db"`
}

func defaultExecutableFileExtension() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

func defaultConfig() *Config {
	return &Config{
		Proxy:          DefaultProxy,
		Format:         "best",
		Output:         ".",
		Workers:        3,
		MaxRetries:     3,
		YtDlp:          "yt-dlp" + defaultExecutableFileExtension(),
		SocketTimeout:  30,
		FetcherRetries: 10,
		HistoryDB:      "./yt-batch.db",
	}
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	config := defaultConfig()
	err = yaml.Unmarshal(buf, config)
	if err != nil {
		return nil, err
	}
	return config, nil
}

func SaveConfig(path string, config *Config) error {
	buf, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
