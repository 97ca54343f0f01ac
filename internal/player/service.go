package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/hazadus/musicstream/internal/observable"
	"github.com/hazadus/musicstream/internal/track"
)

// Service управляет воспроизведением и рассылает снимки State подписчикам
type Service struct {
	engine Engine
	state  *observable.Value[State]
	log    log.FieldLogger

	mu        sync.Mutex // упорядочивает команды управления
	loadMu    sync.Mutex // упорядочивает загрузку источников
	loadGen   uint64
	cancel    context.CancelFunc
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewService создает сервис поверх движка и выставляет начальную громкость
func NewService(engine Engine, volume float64, logger log.FieldLogger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}

	initial := InitialState()
	initial.Volume = clamp(volume, 0, 1)
	engine.SetVolume(initial.Volume)

	s := &Service{
		engine: engine,
		state:  observable.New(initial),
		log:    logger.WithField("component", "player"),
		done:   make(chan struct{}),
	}

	s.wg.Add(1)
	go s.listen()

	return s
}

// State возвращает текущий снимок
func (s *Service) State() State {
	return s.state.Get()
}

// Subscribe подписывает на снимки состояния. Текущий снимок приходит сразу.
func (s *Service) Subscribe() (<-chan State, func()) {
	return s.state.Subscribe()
}

// Play начинает воспроизведение трека. Источник перезагружается, только если адрес изменился.
// Загрузка идет без блокировки остальных команд. Новый вызов Play отменяет
// незавершенную загрузку, и прерванный вызов возвращает ErrSuperseded.
func (s *Service) Play(ctx context.Context, t *track.Track) error {
	if t == nil {
		return errors.New("трек не задан")
	}

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.loadGen++
	gen := s.loadGen
	s.cancel = cancel
	s.mu.Unlock()

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.superseded(gen) {
		return ErrSuperseded
	}

	if s.engine.Source() != t.AudioURL {
		s.log.WithField("url", t.AudioURL).Info("загрузка источника")
		if err := s.engine.Load(loadCtx, t.AudioURL); err != nil {
			if s.superseded(gen) {
				return ErrSuperseded
			}
			return fmt.Errorf("ошибка загрузки трека %q: %w", t.Title, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadGen != gen {
		return ErrSuperseded
	}
	s.cancel = nil

	if err := s.engine.Play(); err != nil {
		return fmt.Errorf("ошибка воспроизведения: %w", err)
	}

	current := *t
	s.state.Update(func(st *State) {
		st.Track = &current
		st.IsPlaying = true
	})
	return nil
}

// superseded сообщает, что после вызова Play с номером gen начался новый
func (s *Service) superseded(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadGen != gen
}

// Pause приостанавливает воспроизведение
func (s *Service) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Pause()
	s.state.Update(func(st *State) {
		st.IsPlaying = false
	})
}

// Resume возобновляет воспроизведение
func (s *Service) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Play(); err != nil {
		return fmt.Errorf("ошибка воспроизведения: %w", err)
	}
	s.state.Update(func(st *State) {
		st.IsPlaying = true
	})
	return nil
}

// Toggle переключает паузу
func (s *Service) Toggle() error {
	if s.State().IsPlaying {
		s.Pause()
		return nil
	}
	return s.Resume()
}

// Seek переходит к позиции в секундах
func (s *Service) Seek(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seek(seconds)
}

// Skip сдвигает позицию на delta секунд в пределах [0, длительность]
func (s *Service) Skip(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seek(s.state.Get().CurrentTime + delta)
}

func (s *Service) seek(seconds float64) {
	duration := s.state.Get().Duration
	if duration > 0 {
		seconds = clamp(seconds, 0, duration)
	} else if seconds < 0 {
		seconds = 0
	}

	s.engine.SetCurrentTime(seconds)
	s.state.Update(func(st *State) {
		st.CurrentTime = seconds
	})
}

// SetVolume задает громкость в пределах [0, 1].
// Состояние обновится по событию движка.
func (s *Service) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetVolume(clamp(v, 0, 1))
}

// ToggleMute переключает режим без звука
func (s *Service) ToggleMute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetMuted(!s.engine.Muted())
}

// SetPlaybackRate задает скорость воспроизведения
func (s *Service) SetPlaybackRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rate = clamp(rate, MinPlaybackRate, MaxPlaybackRate)
	s.engine.SetPlaybackRate(rate)
	s.state.Update(func(st *State) {
		st.PlaybackRate = rate
	})
}

// Close останавливает обработку событий и освобождает движок
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.loadGen++
		s.mu.Unlock()

		close(s.done)
		s.wg.Wait()
		err = s.engine.Close()
	})
	return err
}

// listen обрабатывает события движка
func (s *Service) listen() {
	defer s.wg.Done()

	events := s.engine.Events()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handle(ev)
		}
	}
}

func (s *Service) handle(ev Event) {
	switch ev.Type {
	case EventTimeUpdate:
		current, duration := s.engine.CurrentTime(), s.engine.Duration()
		s.state.Update(func(st *State) {
			st.CurrentTime = current
			st.Duration = duration
		})
	case EventEnded:
		s.log.Debug("трек завершен")
		s.state.Update(func(st *State) {
			st.IsPlaying = false
			st.CurrentTime = 0
		})
	case EventLoadedMetadata:
		duration := s.engine.Duration()
		s.state.Update(func(st *State) {
			st.Duration = duration
		})
	case EventVolumeChange:
		volume, muted := s.engine.Volume(), s.engine.Muted()
		s.state.Update(func(st *State) {
			st.Volume = volume
			st.IsMuted = muted
		})
	}
}
