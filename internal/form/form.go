// Package form содержит модель формы трека: поля, вложения и проверку
package form

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hazadus/musicstream/internal/metadata"
	"github.com/hazadus/musicstream/internal/track"
)

// Ограничения полей формы
const (
	MaxTitleLength       = 50
	MaxArtistLength      = 50
	MaxDescriptionLength = 200
	MaxAudioSize         = 50 << 20
	MaxCoverSize         = 5 << 20
)

var (
	audioExtensions = []string{".mp3", ".wav", ".ogg"}
	coverExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

// Field поле формы
type Field string

const (
	FieldTitle       Field = "title"
	FieldArtist      Field = "artist"
	FieldDescription Field = "description"
	FieldCategory    Field = "category"
	FieldDuration    Field = "duration"
	FieldAudio       Field = "audioFile"
	FieldCover       Field = "coverFile"
)

// Fields порядок полей формы
var Fields = []Field{FieldTitle, FieldArtist, FieldDescription, FieldCategory, FieldDuration, FieldAudio, FieldCover}

// ValidationErrors ошибки проверки по полям
type ValidationErrors map[Field]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for f := range v {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[Field(k)])
	}
	return "ошибка проверки формы: " + strings.Join(parts, "; ")
}

// Mode режим формы
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// attachment выбранный локальный файл с открытым дескриптором
type attachment struct {
	path string
	size int64
	file *os.File
}

func (a *attachment) name() string {
	return filepath.Base(a.path)
}

// Form состояние формы создания или редактирования трека
type Form struct {
	Mode    Mode
	TrackID int64

	Title       string
	Artist      string
	Description string
	Category    string
	Duration    string

	// Текущие адреса файлов редактируемого трека
	AudioURL string
	CoverURL string

	audio *attachment
	cover *attachment
}

// NewCreate создает пустую форму нового трека
func NewCreate() *Form {
	return &Form{Mode: ModeCreate}
}

// NewEdit создает форму, заполненную данными трека
func NewEdit(t track.Track) *Form {
	return &Form{
		Mode:        ModeEdit,
		TrackID:     t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		Description: t.Description,
		Category:    t.Category,
		Duration:    strconv.Itoa(t.Duration),
		AudioURL:    t.AudioURL,
		CoverURL:    t.CoverURL,
	}
}

// Set задает значение текстового поля
func (f *Form) Set(field Field, value string) {
	switch field {
	case FieldTitle:
		f.Title = value
	case FieldArtist:
		f.Artist = value
	case FieldDescription:
		f.Description = value
	case FieldCategory:
		f.Category = value
	case FieldDuration:
		f.Duration = value
	}
}

// Get возвращает значение поля. Для файлов возвращается имя выбранного файла.
func (f *Form) Get(field Field) string {
	switch field {
	case FieldTitle:
		return f.Title
	case FieldArtist:
		return f.Artist
	case FieldDescription:
		return f.Description
	case FieldCategory:
		return f.Category
	case FieldDuration:
		return f.Duration
	case FieldAudio:
		if f.audio != nil {
			return f.audio.path
		}
	case FieldCover:
		if f.cover != nil {
			return f.cover.path
		}
	}
	return ""
}

// SetAudio выбирает аудиофайл, освобождая ранее выбранный.
// Пустые название, исполнитель и длительность заполняются из тегов файла.
func (f *Form) SetAudio(path string) error {
	a, err := openAttachment(path)
	if err != nil {
		return err
	}
	f.audio.release()
	f.audio = a

	if checkFile(a, audioExtensions, MaxAudioSize) != "" {
		return nil
	}
	info, _ := metadata.Read(path)
	if strings.TrimSpace(f.Title) == "" {
		f.Title = info.Title
	}
	if strings.TrimSpace(f.Artist) == "" {
		f.Artist = info.Artist
	}
	if strings.TrimSpace(f.Duration) == "" && info.Seconds() > 0 {
		f.Duration = strconv.Itoa(info.Seconds())
	}
	if f.Category == "" {
		f.Category = info.Category()
	}
	return nil
}

// SetCover выбирает обложку, освобождая ранее выбранную
func (f *Form) SetCover(path string) error {
	a, err := openAttachment(path)
	if err != nil {
		return err
	}
	f.cover.release()
	f.cover = a
	return nil
}

// ClearAudio снимает выбор аудиофайла
func (f *Form) ClearAudio() {
	f.audio.release()
	f.audio = nil
}

// ClearCover снимает выбор обложки
func (f *Form) ClearCover() {
	f.cover.release()
	f.cover = nil
}

// HasAudio сообщает, выбран ли аудиофайл
func (f *Form) HasAudio() bool {
	return f.audio != nil
}

// Close освобождает дескрипторы выбранных файлов
func (f *Form) Close() error {
	f.ClearAudio()
	f.ClearCover()
	return nil
}

// Validate проверяет форму. Возвращает nil, если ошибок нет.
func (f *Form) Validate() ValidationErrors {
	errs := ValidationErrors{}

	checkText(errs, FieldTitle, "Title", f.Title, MaxTitleLength, true)
	checkText(errs, FieldArtist, "Artist", f.Artist, MaxArtistLength, true)
	checkText(errs, FieldDescription, "Description", f.Description, MaxDescriptionLength, false)

	if strings.TrimSpace(f.Category) == "" {
		errs[FieldCategory] = "Category is required"
	}

	if d := strings.TrimSpace(f.Duration); d == "" {
		errs[FieldDuration] = "Duration is required"
	} else if n, err := strconv.Atoi(d); err != nil {
		errs[FieldDuration] = "Duration must be a whole number of seconds"
	} else if n < 1 {
		errs[FieldDuration] = "Duration must be at least 1 second"
	}

	if f.audio == nil {
		if f.Mode == ModeCreate {
			errs[FieldAudio] = "Audio file is required"
		}
	} else if msg := checkFile(f.audio, audioExtensions, MaxAudioSize); msg != "" {
		errs[FieldAudio] = msg
	}

	if f.cover != nil {
		if msg := checkFile(f.cover, coverExtensions, MaxCoverSize); msg != "" {
			errs[FieldCover] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Submission проверяет форму и возвращает данные для отправки.
// Дескрипторы файлов остаются во владении формы до Close.
func (f *Form) Submission() (track.Upload, error) {
	if errs := f.Validate(); errs != nil {
		return track.Upload{}, errs
	}

	duration, _ := strconv.Atoi(strings.TrimSpace(f.Duration))
	upload := track.Upload{
		Title:       strings.TrimSpace(f.Title),
		Artist:      strings.TrimSpace(f.Artist),
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
		Duration:    duration,
	}

	var err error
	if upload.Audio, err = f.audio.rewind(); err != nil {
		return track.Upload{}, err
	}
	if upload.Cover, err = f.cover.rewind(); err != nil {
		return track.Upload{}, err
	}
	return upload, nil
}

func checkText(errs ValidationErrors, field Field, label, value string, maxLen int, required bool) {
	value = strings.TrimSpace(value)
	if required && value == "" {
		errs[field] = label + " is required"
		return
	}
	if utf8.RuneCountInString(value) > maxLen {
		errs[field] = fmt.Sprintf("%s must be at most %d characters", label, maxLen)
	}
}

func checkFile(a *attachment, allowed []string, maxSize int64) string {
	ext := strings.ToLower(filepath.Ext(a.path))
	ok := false
	for _, e := range allowed {
		if ext == e {
			ok = true
			break
		}
	}
	if !ok {
		return "Unsupported file type, allowed: " + strings.Join(allowed, ", ")
	}
	if a.size > maxSize {
		return fmt.Sprintf("File is too large, maximum is %d MB", maxSize>>20)
	}
	return ""
}

func openAttachment(path string) (*attachment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}
	if stat.IsDir() {
		file.Close()
		return nil, errors.New("указан каталог, а не файл")
	}

	return &attachment{path: path, size: stat.Size(), file: file}, nil
}

func (a *attachment) release() {
	if a != nil && a.file != nil {
		a.file.Close()
		a.file = nil
	}
}

// rewind возвращает вложение для отправки, перемотанное в начало
func (a *attachment) rewind() (*track.Attachment, error) {
	if a == nil {
		return nil, nil
	}
	if a.file == nil {
		return nil, errors.New("файл уже освобожден")
	}
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", a.name(), err)
	}
	return &track.Attachment{Name: a.name(), Size: a.size, Body: a.file}, nil
}
