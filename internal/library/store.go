// Package library хранит состояние каталога треков и рассылает его подписчикам
package library

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hazadus/musicstream/internal/observable"
	"github.com/hazadus/musicstream/internal/track"
)

// Сообщения об ошибках операций, показываемые пользователю
const (
	MsgLoadFailed    = "Failed to load tracks"
	MsgSearchFailed  = "Failed to search tracks"
	MsgDetailsFailed = "Failed to load track details"
	MsgDeleteFailed  = "Failed to delete track"
	MsgSaveFailed    = "Failed to save track"
)

// Client операции REST API, которые использует каталог
type Client interface {
	List(ctx context.Context) ([]track.Track, error)
	Search(ctx context.Context, query string) ([]track.Track, error)
	Get(ctx context.Context, id int64) (*track.Track, error)
	Create(ctx context.Context, upload track.Upload, progress func(int64)) (*track.Track, error)
	Update(ctx context.Context, id int64, upload track.Upload, progress func(int64)) (*track.Track, error)
	Delete(ctx context.Context, id int64) error
}

// OpError ошибка операции с сообщением для пользователя
type OpError struct {
	Message string
	Err     error
}

func (e *OpError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// State снимок состояния каталога
type State struct {
	Tracks  []track.Track
	Loading bool
	Error   string
}

// Store каталог треков поверх REST клиента
type Store struct {
	client Client
	state  *observable.Value[State]
	log    log.FieldLogger
}

// NewStore создает пустой каталог
func NewStore(client Client, logger log.FieldLogger) *Store {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{
		client: client,
		state:  observable.New(State{}),
		log:    logger.WithField("component", "library"),
	}
}

// State возвращает текущий снимок
func (s *Store) State() State {
	return s.state.Get()
}

// Tracks возвращает загруженные треки
func (s *Store) Tracks() []track.Track {
	return s.state.Get().Tracks
}

// Subscribe подписывает на изменения каталога
func (s *Store) Subscribe() (<-chan State, func()) {
	return s.state.Subscribe()
}

// Load загружает все треки
func (s *Store) Load(ctx context.Context) error {
	return s.fetch(ctx, MsgLoadFailed, s.client.List)
}

// Search заменяет список результатами поиска на сервере.
// Пустой запрос загружает весь каталог.
func (s *Store) Search(ctx context.Context, query string) error {
	if query == "" {
		return s.Load(ctx)
	}
	return s.fetch(ctx, MsgSearchFailed, func(ctx context.Context) ([]track.Track, error) {
		return s.client.Search(ctx, query)
	})
}

func (s *Store) fetch(ctx context.Context, msg string, fn func(context.Context) ([]track.Track, error)) error {
	s.state.Update(func(st *State) {
		st.Loading = true
		st.Error = ""
	})

	tracks, err := fn(ctx)
	if err != nil {
		s.log.WithError(err).Error(msg)
		s.state.Update(func(st *State) {
			st.Loading = false
			st.Error = msg
		})
		return &OpError{Message: msg, Err: err}
	}

	if tracks == nil {
		tracks = []track.Track{}
	}
	s.state.Update(func(st *State) {
		st.Tracks = tracks
		st.Loading = false
	})
	return nil
}

// Get загружает трек по ID, не меняя состояние каталога
func (s *Store) Get(ctx context.Context, id int64) (*track.Track, error) {
	t, err := s.client.Get(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("track_id", id).Error(MsgDetailsFailed)
		return nil, &OpError{Message: MsgDetailsFailed, Err: err}
	}
	return t, nil
}

// Find ищет трек среди загруженных
func (s *Store) Find(id int64) (track.Track, bool) {
	for _, t := range s.Tracks() {
		if t.ID == id {
			return t, true
		}
	}
	return track.Track{}, false
}

// Delete удаляет трек и перезагружает каталог
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, id); err != nil {
		s.log.WithError(err).WithField("track_id", id).Error(MsgDeleteFailed)
		s.state.Update(func(st *State) {
			st.Error = MsgDeleteFailed
		})
		return &OpError{Message: MsgDeleteFailed, Err: err}
	}
	s.log.WithField("track_id", id).Info("трек удален")
	return s.Load(ctx)
}

// Create создает трек и перезагружает каталог
func (s *Store) Create(ctx context.Context, upload track.Upload, progress func(int64)) (*track.Track, error) {
	return s.save(ctx, func() (*track.Track, error) {
		return s.client.Create(ctx, upload, progress)
	})
}

// Update обновляет трек и перезагружает каталог
func (s *Store) Update(ctx context.Context, id int64, upload track.Upload, progress func(int64)) (*track.Track, error) {
	return s.save(ctx, func() (*track.Track, error) {
		return s.client.Update(ctx, id, upload, progress)
	})
}

func (s *Store) save(ctx context.Context, fn func() (*track.Track, error)) (*track.Track, error) {
	t, err := fn()
	if err != nil {
		s.log.WithError(err).Error(MsgSaveFailed)
		return nil, &OpError{Message: MsgSaveFailed, Err: err}
	}
	s.log.WithField("track_id", t.ID).Info("трек сохранен")

	// Ошибка перезагрузки уже отражена в состоянии, сохранение при этом успешно
	_ = s.Load(ctx)
	return t, nil
}

// Filter возвращает отфильтрованные и отсортированные треки
func (s *Store) Filter(f track.Filters) []track.Track {
	return track.Filter(s.Tracks(), f)
}

// Categories возвращает категории загруженных треков
func (s *Store) Categories() []string {
	return track.Categories(s.Tracks())
}

// Stats возвращает сводку по каталогу
func (s *Store) Stats(now time.Time) track.Stats {
	return track.ComputeStats(s.Tracks(), now)
}
