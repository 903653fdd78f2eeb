package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"dhtshare/internal/filechunk"
	"dhtshare/internal/logger"
	"dhtshare/internal/protocol"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Bootstrap BootstrapConfig `yaml:"bootstrap" json:"bootstrap"`
	Node      NodeConfig      `yaml:"node" json:"node"`
	Bench     BenchConfig     `yaml:"bench" json:"bench"`
	Log       LogConfig       `yaml:"log" json:"log"`
	Files     FilesConfig     `yaml:"files" json:"files"`
}

// BootstrapConfig はブートストラップノードの設定
type BootstrapConfig struct {
	Listen       string `yaml:"listen" json:"listen"`
	AdminListen  string `yaml:"admin_listen" json:"admin_listen"`
	MaxLineBytes int    `yaml:"max_line_bytes" json:"max_line_bytes"`
	IdleTimeout  string `yaml:"idle_timeout" json:"idle_timeout"`
}

// NodeConfig はクライアントノードの設定
type NodeConfig struct {
	BootstrapAddr string `yaml:"bootstrap_addr" json:"bootstrap_addr"`
	NodeID        string `yaml:"node_id" json:"node_id"`
	DialTimeout   string `yaml:"dial_timeout" json:"dial_timeout"`
}

// BenchConfig は負荷生成の設定
type BenchConfig struct {
	Workers    int     `yaml:"workers" json:"workers"`
	WriteRatio float64 `yaml:"write_ratio" json:"write_ratio"`
	Keys       int     `yaml:"keys" json:"keys"`
	ValueSize  int     `yaml:"value_size" json:"value_size"`
	Requests   uint64  `yaml:"requests" json:"requests"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// FilesConfig はファイル分割の設定
type FilesConfig struct {
	ChunkSize int    `yaml:"chunk_size" json:"chunk_size"`
	Digest    string `yaml:"digest" json:"digest"`
}

// Default はデフォルト設定を返す
func Default() *FileConfig {
	return &FileConfig{
		Bootstrap: BootstrapConfig{
			Listen:       "0.0.0.0:8080",
			MaxLineBytes: protocol.DefaultMaxLineBytes,
		},
		Node: NodeConfig{
			BootstrapAddr: "127.0.0.1:8080",
		},
		Bench: BenchConfig{
			WriteRatio: 0.5,
			Keys:       10000,
			ValueSize:  100,
			Requests:   10000,
		},
		Log: LogConfig{
			Level: "info",
		},
		Files: FilesConfig{
			ChunkSize: filechunk.DefaultChunkSize,
			Digest:    string(filechunk.DigestSHA256),
		},
	}
}

// LoadFile は設定ファイルを読み込む。ファイルにない項目はデフォルト値になる
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.Wrap(err, "failed to parse YAML")
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, errors.Wrap(err, "failed to parse JSON")
		}
	default:
		return nil, errors.Newf("unsupported config format: %s", ext)
	}

	return config, nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	if f.Bootstrap.MaxLineBytes < 0 {
		return errors.New("bootstrap.max_line_bytes must be non-negative")
	}
	if _, err := parseDuration(f.Bootstrap.IdleTimeout); err != nil {
		return errors.Wrap(err, "bootstrap.idle_timeout")
	}
	if _, err := parseDuration(f.Node.DialTimeout); err != nil {
		return errors.Wrap(err, "node.dial_timeout")
	}

	if f.Bench.Workers < 0 {
		return errors.New("bench.workers must be non-negative")
	}
	if f.Bench.WriteRatio < 0 || f.Bench.WriteRatio > 1 {
		return errors.New("bench.write_ratio must be between 0 and 1")
	}
	if f.Bench.Keys < 0 {
		return errors.New("bench.keys must be non-negative")
	}
	if f.Bench.ValueSize < 0 {
		return errors.New("bench.value_size must be non-negative")
	}

	if _, err := logger.ParseLevel(f.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}

	if f.Files.ChunkSize <= 0 {
		return errors.New("files.chunk_size must be positive")
	}
	if _, err := filechunk.ParseDigest(f.Files.Digest); err != nil {
		return errors.Wrap(err, "files.digest")
	}

	return nil
}

// IdleTimeout は接続のアイドルタイムアウトを返す。0 は無制限
func (f *FileConfig) IdleTimeout() time.Duration {
	d, _ := parseDuration(f.Bootstrap.IdleTimeout)
	return d
}

// DialTimeout は接続タイムアウトを返す。0 は無制限
func (f *FileConfig) DialTimeout() time.Duration {
	d, _ := parseDuration(f.Node.DialTimeout)
	return d
}

// LogLevel はログレベルを返す。不正な値は Info になる
func (f *FileConfig) LogLevel() logger.Level {
	level, err := logger.ParseLevel(f.Log.Level)
	if err != nil {
		return logger.LevelInfo
	}
	return level
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	if d < 0 {
		return 0, errors.Newf("negative duration %q", s)
	}
	return d, nil
}
