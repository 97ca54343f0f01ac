// Package metadata извлекает теги и длительность из локальных аудиофайлов
package metadata

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/hazadus/musicstream/internal/track"
)

// Info сведения об аудиофайле
type Info struct {
	Artist   string
	Title    string
	Album    string
	Genre    string
	Duration time.Duration
	Size     int64
}

// Seconds возвращает длительность в целых секундах, округляя вверх
func (i Info) Seconds() int {
	return int(math.Ceil(i.Duration.Seconds()))
}

// Category возвращает категорию каталога, совпадающую с жанром из тегов
func (i Info) Category() string {
	genre := strings.TrimSpace(i.Genre)
	for _, c := range track.DefaultCategories {
		if strings.EqualFold(c, genre) {
			return c
		}
	}
	return ""
}

// Read читает теги и длительность файла.
// Если тегов нет, исполнитель и название берутся из имени файла вида "Artist - Title".
func Read(filePath string) (Info, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Info{}, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	info := fromTags(file)
	if info.Title == "" || info.Artist == "" {
		fallback := fromFileName(filePath)
		if info.Title == "" {
			info.Title = fallback.Title
		}
		if info.Artist == "" {
			info.Artist = fallback.Artist
		}
	}
	info.Size = stat.Size()

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return info, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	duration, err := Duration(file, filepath.Ext(filePath))
	if err != nil {
		return info, err
	}
	info.Duration = duration

	return info, nil
}

// Duration вычисляет длительность аудио по содержимому. ext задает формат: .mp3, .wav или .ogg
func Duration(r io.ReadSeeker, ext string) (time.Duration, error) {
	rc := io.NopCloser(r)
	if c, ok := r.(io.ReadCloser); ok {
		rc = c
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch strings.ToLower(ext) {
	case ".mp3":
		streamer, format, err = mp3.Decode(rc)
	case ".wav":
		streamer, format, err = wav.Decode(r)
	case ".ogg":
		streamer, format, err = vorbis.Decode(rc)
	default:
		return 0, fmt.Errorf("неподдерживаемый формат: %s", ext)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования %s: %w", ext, err)
	}

	return format.SampleRate.D(streamer.Len()), nil
}

func fromTags(r io.ReadSeeker) Info {
	m, err := tag.ReadFrom(r)
	if err != nil {
		return Info{}
	}
	return Info{
		Artist: strings.TrimSpace(m.Artist()),
		Title:  strings.TrimSpace(m.Title()),
		Album:  strings.TrimSpace(m.Album()),
		Genre:  strings.TrimSpace(m.Genre()),
	}
}

// fromFileName разбирает имя файла в формате "Artist - Title"
func fromFileName(source string) Info {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))

	parts := strings.Split(name, " - ")
	if len(parts) >= 2 {
		return Info{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}
	return Info{Title: strings.TrimSpace(name)}
}
