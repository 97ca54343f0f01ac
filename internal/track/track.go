// Package track содержит модель трека каталога и чистые функции для работы со списком треков
package track

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Track описывает трек каталога в том виде, в котором его отдает REST API
type Track struct {
	ID          int64      `json:"id,omitempty" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Artist      string     `json:"artist" yaml:"artist"`
	Description string     `json:"description" yaml:"description"`
	Category    string     `json:"category" yaml:"category"`
	Duration    int        `json:"duration" yaml:"duration"` // Длительность в секундах
	AudioURL    string     `json:"audioUrl" yaml:"audio_url"`
	CoverURL    string     `json:"coverUrl,omitempty" yaml:"cover_url,omitempty"`
	AddedDate   *LocalTime `json:"addedDate,omitempty" yaml:"added_date,omitempty"`
}

// Attachment файл, прикладываемый к запросу создания или обновления трека
type Attachment struct {
	Name string
	Size int64
	Body io.Reader
}

// Upload содержит данные формы для создания или обновления трека
type Upload struct {
	Title       string
	Artist      string
	Description string
	Category    string
	Duration    int
	Audio       *Attachment
	Cover       *Attachment
}

// localTimeLayouts форматы даты, которые встречаются в ответах API
var localTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

const localTimeFormat = "2006-01-02T15:04:05"

// LocalTime дата без часового пояса (LocalDateTime на стороне бэкенда)
type LocalTime struct {
	time.Time
}

// NewLocalTime создает LocalTime из time.Time
func NewLocalTime(t time.Time) *LocalTime {
	return &LocalTime{Time: t}
}

// ParseLocalTime разбирает дату в одном из поддерживаемых форматов
func ParseLocalTime(s string) (LocalTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return LocalTime{Time: t}, nil
		}
	}
	return LocalTime{}, fmt.Errorf("неверный формат даты: %q", s)
}

// UnmarshalJSON реализует json.Unmarshaler
func (lt *LocalTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("ошибка разбора даты: %w", err)
	}
	parsed, err := ParseLocalTime(s)
	if err != nil {
		return err
	}
	*lt = parsed
	return nil
}

// MarshalJSON реализует json.Marshaler
func (lt LocalTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(lt.Format(localTimeFormat))
}

// MarshalYAML сохраняет дату в том же формате, что и API
func (lt LocalTime) MarshalYAML() (interface{}, error) {
	return lt.Format(localTimeFormat), nil
}

// AddedAt возвращает дату добавления или нулевое время, если она неизвестна
func (t Track) AddedAt() time.Time {
	if t.AddedDate == nil {
		return time.Time{}
	}
	return t.AddedDate.Time
}
