// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Значения по умолчанию
const (
	DefaultAPIURL       = "http://localhost:8080"
	DefaultDownloadDir  = "~/Downloads"
	DefaultVolume       = 0.7
	DefaultLogLevel     = "info"
	DefaultLogFile      = "~/.musicstream.log"
	DefaultBackupPrefix = "musicstream"
)

// Config структура для хранения конфигурации приложения
type Config struct {
	APIURL        string  `yaml:"api_url"`
	DownloadDir   string  `yaml:"download_dir"`
	Volume        float64 `yaml:"volume"`
	LogLevel      string  `yaml:"log_level"`
	LogFile       string  `yaml:"log_file"`
	AwsBucketName string  `yaml:"aws_bucket_name"`
	AwsAccessKey  string  `yaml:"aws_access_key"`
	AwsSecretKey  string  `yaml:"aws_secret_key"`
	AwsRegion     string  `yaml:"aws_region"`
	AwsEndpoint   string  `yaml:"aws_endpoint"`
	BackupPrefix  string  `yaml:"backup_prefix"`
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не считается ошибкой: используются значения по умолчанию.
// Переменные окружения имеют приоритет над файлом.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := expandHome(filePath, home)

	config := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Работаем с настройками по умолчанию
	case err != nil:
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации (yaml): %w", err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	// Раскрываем тильду в путях
	config.DownloadDir = expandHome(config.DownloadDir, home)
	config.LogFile = expandHome(config.LogFile, home)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults устанавливает значения по умолчанию, если они не заданы
func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.DownloadDir == "" {
		c.DownloadDir = DefaultDownloadDir
	}
	if c.Volume == 0 {
		c.Volume = DefaultVolume
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.BackupPrefix == "" {
		c.BackupPrefix = DefaultBackupPrefix
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
}

// applyEnv переопределяет значения из переменных окружения
func (c *Config) applyEnv() error {
	overrides := map[string]*string{
		"MUSICSTREAM_API_URL":      &c.APIURL,
		"MUSICSTREAM_DOWNLOAD_DIR": &c.DownloadDir,
		"MUSICSTREAM_LOG_LEVEL":    &c.LogLevel,
		"MUSICSTREAM_LOG_FILE":     &c.LogFile,
		"AWS_BUCKET_NAME":          &c.AwsBucketName,
		"AWS_ACCESS_KEY":           &c.AwsAccessKey,
		"AWS_SECRET_KEY":           &c.AwsSecretKey,
		"AWS_REGION":               &c.AwsRegion,
		"AWS_ENDPOINT":             &c.AwsEndpoint,
	}
	for name, field := range overrides {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field = v
		}
	}

	if v := os.Getenv("MUSICSTREAM_VOLUME"); v != "" {
		volume, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("неверное значение MUSICSTREAM_VOLUME: %w", err)
		}
		c.Volume = volume
	}
	return nil
}

// Validate проверяет корректность значений
func (c *Config) Validate() error {
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("громкость должна быть в диапазоне от 0 до 1, получено %v", c.Volume)
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url должен начинаться с http:// или https://: %s", c.APIURL)
	}
	return nil
}

// HasStorage сообщает, настроено ли S3 хранилище для резервных копий
func (c *Config) HasStorage() bool {
	return c.AwsBucketName != "" && c.AwsAccessKey != "" && c.AwsSecretKey != ""
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~") {
		return strings.Replace(path, "~", home, 1)
	}
	return path
}
