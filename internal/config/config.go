package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "./config.yaml"

type Config struct {
	API        API        `yaml:"api" json:"api"`
	Upload     Upload     `yaml:"upload" json:"upload"`
	Proxy      Proxy      `yaml:"proxy" json:"proxy"`
	History    History    `yaml:"history" json:"history"`
	S3         S3         `yaml:"s3" json:"s3"`
	Log        Log        `yaml:"log" json:"log"`
	DevGateway DevGateway `yaml:"dev_gateway" json:"dev_gateway"`
}

// API: куда ходит клиент за init/complete.
type API struct {
	URL string `yaml:"url" json:"url"`
	Key string `yaml:"key" json:"key"`
	// ViaProxy включает режим прокси: ключ уходит в X-Api-Key.
	ViaProxy bool          `yaml:"via_proxy" json:"via_proxy"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

type Upload struct {
	Concurrency  int           `yaml:"concurrency" json:"concurrency"`
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`
	ResetDelay   time.Duration `yaml:"reset_delay" json:"reset_delay"`
	PartTimeout  time.Duration `yaml:"part_timeout" json:"part_timeout"`
	// AbortOnFailure отменяет multipart-сессию после неудачной попытки (шлюз s3).
	AbortOnFailure bool `yaml:"abort_on_failure" json:"abort_on_failure"`
}

type Proxy struct {
	ListenAddr  string        `yaml:"listen_addr" json:"listen_addr"`
	UpstreamURL string        `yaml:"upstream_url" json:"upstream_url"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

type History struct {
	// DSN Postgres. Пустая строка или memory:// держат журнал в памяти.
	DSN string `yaml:"dsn" json:"dsn"`
}

type S3 struct {
	Bucket          string        `yaml:"bucket" json:"bucket"`
	Region          string        `yaml:"region" json:"region"`
	Endpoint        string        `yaml:"endpoint" json:"endpoint"`
	AccessKeyID     string        `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key" json:"secret_access_key"`
	UsePathStyle    bool          `yaml:"use_path_style" json:"use_path_style"`
	KeyPrefix       string        `yaml:"key_prefix" json:"key_prefix"`
	PartSize        int64         `yaml:"part_size" json:"part_size"`
	PresignExpires  time.Duration `yaml:"presign_expires" json:"presign_expires"`
	PublicBaseURL   string        `yaml:"public_base_url" json:"public_base_url"`
}

type Log struct {
	Level string `yaml:"level" json:"level"`
	Path  string `yaml:"path" json:"path"`
	JSON  bool   `yaml:"json" json:"json"`
}

type DevGateway struct {
	ListenAddr string        `yaml:"listen_addr" json:"listen_addr"`
	DataDir    string        `yaml:"data_dir" json:"data_dir"`
	PublicURL  string        `yaml:"public_url" json:"public_url"`
	APIKey     string        `yaml:"api_key" json:"api_key"`
	PartSize   int64         `yaml:"part_size" json:"part_size"`
	ForceParts int           `yaml:"force_parts" json:"force_parts"`
	GCInterval time.Duration `yaml:"gc_interval" json:"gc_interval"`
	GCTTL      time.Duration `yaml:"gc_ttl" json:"gc_ttl"`
}

// Default возвращает значения по умолчанию для всех секций.
func Default() Config {
	return Config{
		API: API{Timeout: 30 * time.Second},
		Upload: Upload{
			Concurrency:  1,
			TickInterval: 120 * time.Millisecond,
			ResetDelay:   1500 * time.Millisecond,
		},
		Proxy: Proxy{ListenAddr: ":8081", Timeout: 30 * time.Second},
		S3:    S3{Region: "us-east-1", PresignExpires: time.Hour},
		Log:   Log{Level: "info"},
		DevGateway: DevGateway{
			ListenAddr: ":8090",
			DataDir:    "./data/devgateway",
			PartSize:   5 << 20,
			GCInterval: time.Minute,
			GCTTL:      time.Hour,
		},
	}
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Отсутствие файла по умолчанию не ошибка: берутся значения Default и окружение.
func Load() (*Config, error) {
	path, explicit := os.LookupEnv("CONFIG_PATH")
	if !explicit || path == "" {
		path = defaultConfigPath
	}
	return LoadFile(path, !explicit)
}

// LoadFile читает конкретный файл. optional разрешает его отсутствие.
func LoadFile(path string, optional bool) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err = c.applyEnv(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ENV override
func (c *Config) applyEnv() error {
	setString(&c.API.URL, "API_URL")
	setString(&c.API.Key, "API_KEY")
	setString(&c.Proxy.ListenAddr, "LISTEN_ADDR")
	setString(&c.Proxy.UpstreamURL, "UPSTREAM_URL")
	setString(&c.History.DSN, "HISTORY_DSN")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Path, "LOG_PATH")
	setString(&c.S3.Bucket, "S3_BUCKET")
	setString(&c.S3.Region, "S3_REGION")
	setString(&c.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.S3.KeyPrefix, "S3_PREFIX")

	if v := os.Getenv("UPLOAD_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("UPLOAD_CONCURRENCY: %w", err)
		}
		c.Upload.Concurrency = n
	}
	return nil
}

// ValidateUploader проверяет поля, без которых клиент не сможет загрузить файл через HTTP API.
func (c *Config) ValidateUploader() error {
	if strings.TrimSpace(c.API.URL) == "" {
		return errors.New("api.url is not configured")
	}
	return c.validateUpload()
}

// ValidateS3 проверяет поля прямого режима S3.
func (c *Config) ValidateS3() error {
	if strings.TrimSpace(c.S3.Bucket) == "" {
		return errors.New("s3.bucket is not configured")
	}
	if c.S3.PartSize != 0 && c.S3.PartSize < 5<<20 {
		return fmt.Errorf("s3.part_size must be at least %d", 5<<20)
	}
	return c.validateUpload()
}

// ValidateProxy проверяет секцию proxy.
func (c *Config) ValidateProxy() error {
	if strings.TrimSpace(c.Proxy.UpstreamURL) == "" {
		return errors.New("proxy.upstream_url is not configured")
	}
	if strings.TrimSpace(c.Proxy.ListenAddr) == "" {
		return errors.New("proxy.listen_addr is not configured")
	}
	return nil
}

// ValidateDevGateway проверяет секцию dev_gateway.
func (c *Config) ValidateDevGateway() error {
	if strings.TrimSpace(c.DevGateway.DataDir) == "" {
		return errors.New("dev_gateway.data_dir is not configured")
	}
	if c.DevGateway.PartSize <= 0 {
		return errors.New("dev_gateway.part_size must be positive")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.Concurrency < 1 {
		return fmt.Errorf("upload.concurrency must be >= 1, got %d", c.Upload.Concurrency)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
