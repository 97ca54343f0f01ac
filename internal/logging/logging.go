// Package logging настраивает журнал приложения.
// Терминал занят интерфейсом, поэтому записи пишутся в файл.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	nested "github.com/antonfisher/nested-logrus-formatter"
	log "github.com/sirupsen/logrus"
)

// New создает логгер, пишущий в файл path с уровнем level.
// Возвращаемая функция закрывает файл журнала.
func New(path, level string) (*log.Logger, func() error, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("неверный уровень журнала: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("ошибка создания каталога журнала: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка открытия файла журнала: %w", err)
	}

	logger := newLogger(file, lvl)
	return logger, file.Close, nil
}

// Discard возвращает логгер, который ничего не пишет
func Discard() *log.Logger {
	return newLogger(io.Discard, log.PanicLevel)
}

func newLogger(out io.Writer, lvl log.Level) *log.Logger {
	logger := log.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&nested.Formatter{
		HideKeys:        false,
		NoColors:        true,
		FieldsOrder:     []string{"component", "request_id", "method", "path"},
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return logger
}
