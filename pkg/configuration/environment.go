package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/suyashkore/tms-console/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type BackendOptions struct {
	BaseURL        string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8000/api/v1"`
	RequestTimeout time.Duration `env:"BACKEND_REQUEST_TIMEOUT" envDefault:"30s"`
	AuthToken      string        `env:"BACKEND_AUTH_TOKEN"`
}

func (b *BackendOptions) Validate() error {
	if b.BaseURL == "" {
		return fmt.Errorf("backend BaseURL must not be empty")
	}
	if b.RequestTimeout <= 0 {
		return fmt.Errorf("backend RequestTimeout must be positive, got %s", b.RequestTimeout)
	}
	return nil
}

type UploadOptions struct {
	MaxFileSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"`
}

type ListOptions struct {
	PageSize    int `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize int `env:"MAX_PAGE_SIZE" envDefault:"100"`
}

type Configuration struct {
	Backend BackendOptions
	Upload  UploadOptions
	List    ListOptions

	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/console.log"`
	DownloadDir      string `env:"DOWNLOAD_DIR" envDefault:"."`
	StubPort         int    `env:"STUB_PORT" envDefault:"8000"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend configuration error: %w", err)
	}
	if c.List.PageSize <= 0 || c.List.PageSize > c.List.MaxPageSize {
		return fmt.Errorf("invalid PAGE_SIZE=%d (max %d)", c.List.PageSize, c.List.MaxPageSize)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	return nil
}

func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("failed to close log file: %v", err)
		}
		c.logFile = nil
	}
}
