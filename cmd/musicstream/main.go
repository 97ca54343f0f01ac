package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/hazadus/musicstream/internal/api"
	"github.com/hazadus/musicstream/internal/config"
	"github.com/hazadus/musicstream/internal/library"
	"github.com/hazadus/musicstream/internal/logging"
	"github.com/hazadus/musicstream/internal/player"
)

const (
	defaultConfigPath = "~/.musicstream"
)

// Application содержит зависимости, общие для всех команд
type Application struct {
	Config  *config.Config
	Client  *api.Client
	Library *library.Store
	Log     *log.Logger

	// NewEngine создает движок воспроизведения
	NewEngine func() player.Engine
}

// NewApplication создает приложение по конфигурации
func NewApplication(cfg *config.Config, logger *log.Logger) (*Application, error) {
	client, err := api.NewClient(cfg.APIURL, api.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента API: %w", err)
	}

	return &Application{
		Config:  cfg,
		Client:  client,
		Library: library.NewStore(client, logger),
		Log:     logger,
		NewEngine: func() player.Engine {
			return player.NewBeepEngine(logger)
		},
	}, nil
}

func main() {
	os.Exit(run())
}

func run() int {
	// Файл .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "❌ Ошибка чтения .env: %v\n", err)
		return 1
	}

	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Ошибка загрузки конфигурации: %v\n", err)
		return 1
	}

	logger, closeLog, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Ошибка настройки журнала: %v\n", err)
		return 1
	}
	defer closeLog()

	app, err := NewApplication(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("api_url", cfg.APIURL).Info("запуск")
	if err := app.createRootCommand(ctx).Execute(); err != nil {
		logger.WithError(err).Error("команда завершилась с ошибкой")
		return 1
	}
	return 0
}
