package player

import (
	"context"
	"errors"
)

// ErrNoSource возвращается при попытке воспроизведения без загруженного источника
var ErrNoSource = errors.New("источник звука не загружен")

// ErrSuperseded возвращается из Play, если загрузку прервал более поздний вызов Play
var ErrSuperseded = errors.New("загрузка прервана новым треком")

// EventType тип события движка воспроизведения
type EventType int

const (
	// EventTimeUpdate позиция воспроизведения изменилась
	EventTimeUpdate EventType = iota
	// EventEnded трек доигран до конца
	EventEnded
	// EventLoadedMetadata известна длительность нового источника
	EventLoadedMetadata
	// EventVolumeChange изменилась громкость или режим без звука
	EventVolumeChange
)

func (t EventType) String() string {
	switch t {
	case EventTimeUpdate:
		return "timeupdate"
	case EventEnded:
		return "ended"
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventVolumeChange:
		return "volumechange"
	default:
		return "unknown"
	}
}

// Event событие движка. Актуальные значения читаются из движка при обработке.
type Event struct {
	Type EventType
}

// Engine абстракция движка воспроизведения.
// Реализация должна быть безопасна для вызова из нескольких горутин.
type Engine interface {
	// Source возвращает адрес загруженного источника
	Source() string
	// Load загружает новый источник и останавливает текущий
	Load(ctx context.Context, url string) error
	Play() error
	Pause()
	CurrentTime() float64
	SetCurrentTime(seconds float64)
	Duration() float64
	Volume() float64
	SetVolume(v float64)
	Muted() bool
	SetMuted(muted bool)
	SetPlaybackRate(rate float64)
	// Events возвращает канал событий движка
	Events() <-chan Event
	Close() error
}
