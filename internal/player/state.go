// Package player содержит компоненты для управления воспроизведением аудио
package player

import (
	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/utils"
)

const (
	// DefaultVolume начальная громкость
	DefaultVolume = 0.7
	// MinPlaybackRate минимальная скорость воспроизведения
	MinPlaybackRate = 0.25
	// MaxPlaybackRate максимальная скорость воспроизведения
	MaxPlaybackRate = 4.0
)

// State снимок состояния плеера
type State struct {
	Track        *track.Track // Текущий трек, nil если ничего не загружено
	IsPlaying    bool
	CurrentTime  float64 // Позиция в секундах
	Duration     float64 // Длительность в секундах
	Volume       float64 // Громкость от 0 до 1
	IsMuted      bool
	PlaybackRate float64
}

// InitialState возвращает состояние плеера при запуске
func InitialState() State {
	return State{
		Volume:       DefaultVolume,
		PlaybackRate: 1,
	}
}

// Progress возвращает долю проигранного от 0 до 1
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return clamp(s.CurrentTime/s.Duration, 0, 1)
}

// FormatTime форматирует секунды в m:ss
func FormatTime(seconds float64) string {
	return utils.FormatClock(seconds)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
