package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/musicstream/internal/form"
	"github.com/hazadus/musicstream/internal/streaming"
	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/utils"
)

// createDownloadCommand создает команду download
func (app *Application) createDownloadCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "download [id]",
		Short: "Download the audio file of a track",
		Long:  `Download the audio file of a track to the configured download directory.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseTrackID(args[0])
			if err != nil {
				return err
			}
			return app.downloadTrack(ctx, id)
		},
	}
}

func (app *Application) downloadTrack(ctx context.Context, id int64) error {
	t, err := app.Library.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.AudioURL == "" {
		return fmt.Errorf("у трека с ID %d отсутствует аудиофайл", id)
	}

	fmt.Printf("🌐 Скачиваем трек: %s - %s\n", t.Artist, t.Title)

	startTime := time.Now()
	data, contentType, err := streaming.Download(ctx, t.AudioURL, form.MaxAudioSize, func(read, total int64) {
		if total > 0 {
			fmt.Printf("\r📊 Прогресс: %.1f%% | %s", float64(read)/float64(total)*100, utils.FormatFileSize(read))
		} else {
			fmt.Printf("\r📊 Загружено: %s", utils.FormatFileSize(read))
		}
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("ошибка скачивания: %w", err)
	}

	if err := os.MkdirAll(app.Config.DownloadDir, 0755); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}

	filePath := filepath.Join(app.Config.DownloadDir, downloadFileName(t, contentType))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла: %w", err)
	}

	fmt.Printf("✅ Файл сохранен: %s\n", filePath)
	fmt.Printf("   Размер: %s | Время: %s\n",
		utils.FormatFileSize(int64(len(data))),
		utils.FormatDuration(time.Since(startTime)))
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// downloadFileName строит имя файла "Исполнитель - Название.ext"
func downloadFileName(t *track.Track, contentType string) string {
	name := sanitizeFileName(t.Artist + " - " + t.Title)
	if strings.TrimSpace(t.Artist) == "" {
		name = sanitizeFileName(t.Title)
	}
	if name == "" {
		name = fmt.Sprintf("track-%d", t.ID)
	}
	return name + audioExtension(t.AudioURL, contentType)
}

// sanitizeFileName удаляет символы, недопустимые в имени файла
func sanitizeFileName(name string) string {
	name = unsafeFileChars.ReplaceAllString(name, "_")
	return strings.Trim(strings.TrimSpace(name), ".")
}

func audioExtension(rawURL, contentType string) string {
	if ext := strings.ToLower(path.Ext(strings.SplitN(rawURL, "?", 2)[0])); ext != "" {
		return ext
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "audio/wav", "audio/x-wav", "audio/wave":
			return ".wav"
		case "audio/ogg", "application/ogg":
			return ".ogg"
		}
	}
	return ".mp3"
}
