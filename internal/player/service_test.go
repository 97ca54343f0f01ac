package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hazadus/musicstream/internal/logging"
	"github.com/hazadus/musicstream/internal/track"
)

// fakeEngine движок для тестов, ведет себя как медиаэлемент без звука
type fakeEngine struct {
	mu       sync.Mutex
	events   chan Event
	source   string
	loads    int
	playing  bool
	current  float64
	duration float64
	volume   float64
	muted    bool
	rate     float64
	loadErr  error
	closed   bool

	// Если gate задан, Load ждет его закрытия, сообщая адрес в entered
	gate    chan struct{}
	entered chan string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{events: make(chan Event, 64), volume: 1, rate: 1}
}

func (f *fakeEngine) emit(t EventType) { f.events <- Event{Type: t} }

func (f *fakeEngine) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source
}

func (f *fakeEngine) Load(ctx context.Context, url string) error {
	if f.gate != nil {
		f.entered <- url
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	if f.loadErr != nil {
		f.mu.Unlock()
		return f.loadErr
	}
	f.source = url
	f.loads++
	f.current = 0
	f.duration = 120
	f.mu.Unlock()
	f.emit(EventLoadedMetadata)
	return nil
}

func (f *fakeEngine) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.source == "" {
		return ErrNoSource
	}
	f.playing = true
	return nil
}

func (f *fakeEngine) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
}

func (f *fakeEngine) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeEngine) SetCurrentTime(s float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = s
}

func (f *fakeEngine) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *fakeEngine) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *fakeEngine) SetVolume(v float64) {
	f.mu.Lock()
	f.volume = v
	f.mu.Unlock()
	f.emit(EventVolumeChange)
}

func (f *fakeEngine) Muted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}

func (f *fakeEngine) SetMuted(m bool) {
	f.mu.Lock()
	f.muted = m
	f.mu.Unlock()
	f.emit(EventVolumeChange)
}

func (f *fakeEngine) SetPlaybackRate(r float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = r
}

func (f *fakeEngine) Events() <-chan Event { return f.events }

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// waitFor ждет снимок, удовлетворяющий условию
func waitFor(t *testing.T, s *Service, cond func(State) bool) State {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := s.State(); cond(st) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Состояние не достигнуто, последнее: %+v", s.State())
	return State{}
}

func newTestService(t *testing.T) (*Service, *fakeEngine) {
	t.Helper()
	engine := newFakeEngine()
	s := NewService(engine, DefaultVolume, logging.Discard())
	t.Cleanup(func() { s.Close() })
	return s, engine
}

var sampleTrack = &track.Track{ID: 1, Title: "Test Title", Artist: "Test Artist", Duration: 120, AudioURL: "http://localhost/uploads/audio/a.mp3"}

func TestInitialState(t *testing.T) {
	s, engine := newTestService(t)

	st := s.State()
	if st.Track != nil || st.IsPlaying || st.CurrentTime != 0 || st.Duration != 0 {
		t.Errorf("Неожиданное начальное состояние: %+v", st)
	}
	if st.Volume != 0.7 {
		t.Errorf("Ожидалась громкость 0.7, получено %v", st.Volume)
	}
	if st.PlaybackRate != 1 {
		t.Errorf("Ожидалась скорость 1, получено %v", st.PlaybackRate)
	}
	if engine.Volume() != 0.7 {
		t.Errorf("Движок должен получить начальную громкость 0.7, получено %v", engine.Volume())
	}
}

func TestPlayLoadsOnlyNewSource(t *testing.T) {
	s, engine := newTestService(t)
	ctx := context.Background()

	if err := s.Play(ctx, sampleTrack); err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}
	st := s.State()
	if st.Track == nil || st.Track.ID != 1 || !st.IsPlaying {
		t.Errorf("Ожидалось воспроизведение трека 1, получено %+v", st)
	}
	waitFor(t, s, func(st State) bool { return st.Duration == 120 })

	s.Pause()
	if err := s.Play(ctx, sampleTrack); err != nil {
		t.Fatalf("Ошибка повторного воспроизведения: %v", err)
	}
	if engine.loads != 1 {
		t.Errorf("Источник не должен перезагружаться, загрузок: %d", engine.loads)
	}

	other := *sampleTrack
	other.ID = 2
	other.AudioURL = "http://localhost/uploads/audio/b.mp3"
	if err := s.Play(ctx, &other); err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}
	if engine.loads != 2 {
		t.Errorf("Ожидалось 2 загрузки, получено %d", engine.loads)
	}
	if s.State().Track.ID != 2 {
		t.Errorf("Ожидался трек 2, получен %d", s.State().Track.ID)
	}
}

func TestPlayLoadError(t *testing.T) {
	s, engine := newTestService(t)
	engine.loadErr = errors.New("сеть недоступна")

	if err := s.Play(context.Background(), sampleTrack); err == nil {
		t.Error("Ожидалась ошибка загрузки")
	}
	if st := s.State(); st.IsPlaying || st.Track != nil {
		t.Errorf("Состояние не должно измениться при ошибке: %+v", st)
	}
	if err := s.Play(context.Background(), nil); err == nil {
		t.Error("Ожидалась ошибка для пустого трека")
	}
}

func TestPauseResumeToggle(t *testing.T) {
	s, engine := newTestService(t)

	if err := s.Resume(); !errors.Is(err, ErrNoSource) {
		t.Errorf("Ожидалась ErrNoSource, получено %v", err)
	}

	_ = s.Play(context.Background(), sampleTrack)
	s.Pause()
	if s.State().IsPlaying || engine.playing {
		t.Error("Плеер не должен воспроизводить после паузы")
	}

	if err := s.Resume(); err != nil {
		t.Fatalf("Ошибка возобновления: %v", err)
	}
	if !s.State().IsPlaying {
		t.Error("Плеер должен воспроизводить после возобновления")
	}

	_ = s.Toggle()
	if s.State().IsPlaying {
		t.Error("Toggle должен поставить на паузу")
	}
	_ = s.Toggle()
	if !s.State().IsPlaying {
		t.Error("Toggle должен возобновить")
	}
}

func TestSetVolumeClamps(t *testing.T) {
	s, engine := newTestService(t)

	tests := []struct {
		in, want float64
	}{
		{1.5, 1},
		{-0.3, 0},
		{0.4, 0.4},
	}
	for _, tt := range tests {
		s.SetVolume(tt.in)
		if got := engine.Volume(); got != tt.want {
			t.Errorf("SetVolume(%v): движок получил %v, ожидалось %v", tt.in, got, tt.want)
		}
		waitFor(t, s, func(st State) bool { return st.Volume == tt.want })
	}
}

func TestToggleMutePublishesViaEngine(t *testing.T) {
	s, _ := newTestService(t)

	s.ToggleMute()
	waitFor(t, s, func(st State) bool { return st.IsMuted })

	s.ToggleMute()
	waitFor(t, s, func(st State) bool { return !st.IsMuted })
}

func TestSkipClamps(t *testing.T) {
	s, engine := newTestService(t)
	_ = s.Play(context.Background(), sampleTrack)
	waitFor(t, s, func(st State) bool { return st.Duration == 120 })

	s.Seek(30)
	s.Skip(10)
	if got := s.State().CurrentTime; got != 40 {
		t.Errorf("Ожидалась позиция 40, получено %v", got)
	}

	s.Skip(-100)
	if got := s.State().CurrentTime; got != 0 {
		t.Errorf("Позиция не должна быть меньше 0, получено %v", got)
	}

	s.Skip(1000)
	if got := s.State().CurrentTime; got != 120 {
		t.Errorf("Позиция не должна превышать длительность, получено %v", got)
	}
	if engine.CurrentTime() != 120 {
		t.Errorf("Движок должен получить позицию 120, получено %v", engine.CurrentTime())
	}
}

func TestSetPlaybackRate(t *testing.T) {
	s, engine := newTestService(t)

	s.SetPlaybackRate(1.5)
	if s.State().PlaybackRate != 1.5 || engine.rate != 1.5 {
		t.Errorf("Ожидалась скорость 1.5, получено %v", s.State().PlaybackRate)
	}

	s.SetPlaybackRate(10)
	if s.State().PlaybackRate != MaxPlaybackRate {
		t.Errorf("Скорость должна быть ограничена %v, получено %v", MaxPlaybackRate, s.State().PlaybackRate)
	}
}

func TestEngineEvents(t *testing.T) {
	s, engine := newTestService(t)
	_ = s.Play(context.Background(), sampleTrack)

	engine.SetCurrentTime(42)
	engine.emit(EventTimeUpdate)
	waitFor(t, s, func(st State) bool { return st.CurrentTime == 42 && st.Duration == 120 })

	engine.emit(EventEnded)
	st := waitFor(t, s, func(st State) bool { return !st.IsPlaying })
	if st.CurrentTime != 0 {
		t.Errorf("После окончания позиция должна быть 0, получено %v", st.CurrentTime)
	}
	if st.Track == nil {
		t.Error("После окончания трек должен остаться текущим")
	}
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestService(t)

	ch, cancel := s.Subscribe()
	defer cancel()

	first := <-ch
	if first.IsPlaying {
		t.Error("Первый снимок должен быть текущим состоянием")
	}

	_ = s.Play(context.Background(), sampleTrack)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if st.IsPlaying {
				return
			}
		case <-timeout:
			t.Fatal("Снимок с воспроизведением не получен")
		}
	}
}

func TestClose(t *testing.T) {
	engine := newFakeEngine()
	s := NewService(engine, 0.5, logging.Discard())

	if err := s.Close(); err != nil {
		t.Fatalf("Ошибка закрытия: %v", err)
	}
	if !engine.closed {
		t.Error("Движок должен быть закрыт")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Повторное закрытие не должно возвращать ошибку: %v", err)
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(75); got != "1:15" {
		t.Errorf("Ожидалось 1:15, получено %s", got)
	}
}

func TestProgress(t *testing.T) {
	if got := (State{CurrentTime: 30, Duration: 120}).Progress(); got != 0.25 {
		t.Errorf("Ожидалось 0.25, получено %v", got)
	}
	if got := (State{CurrentTime: 30}).Progress(); got != 0 {
		t.Errorf("Без длительности прогресс 0, получено %v", got)
	}
}

func newGatedService(t *testing.T) (*Service, *fakeEngine) {
	t.Helper()
	engine := newFakeEngine()
	engine.gate = make(chan struct{})
	engine.entered = make(chan string, 4)
	s := NewService(engine, DefaultVolume, logging.Discard())
	t.Cleanup(func() { s.Close() })
	return s, engine
}

func waitEntered(t *testing.T, engine *fakeEngine) string {
	t.Helper()
	select {
	case url := <-engine.entered:
		return url
	case <-time.After(2 * time.Second):
		t.Fatal("Загрузка источника не началась")
		return ""
	}
}

func TestTransportDuringLoad(t *testing.T) {
	s, engine := newGatedService(t)

	played := make(chan error, 1)
	go func() { played <- s.Play(context.Background(), sampleTrack) }()
	waitEntered(t, engine)

	done := make(chan struct{})
	go func() {
		s.SetVolume(0.2)
		s.Skip(5)
		s.ToggleMute()
		s.SetPlaybackRate(1.5)
		s.Pause()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Команды управления заблокированы загрузкой источника")
	}
	waitFor(t, s, func(st State) bool { return st.Volume == 0.2 && st.IsMuted })

	close(engine.gate)
	if err := <-played; err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}
	st := s.State()
	if st.Track == nil || st.Track.ID != sampleTrack.ID || !st.IsPlaying {
		t.Errorf("Ожидалось воспроизведение трека после загрузки, получено %+v", st)
	}
}

func TestPlaySupersedesPendingLoad(t *testing.T) {
	s, engine := newGatedService(t)

	first := make(chan error, 1)
	go func() { first <- s.Play(context.Background(), sampleTrack) }()
	if url := waitEntered(t, engine); url != sampleTrack.AudioURL {
		t.Fatalf("Ожидалась загрузка %s, получено %s", sampleTrack.AudioURL, url)
	}

	other := *sampleTrack
	other.ID = 2
	other.AudioURL = "http://localhost/uploads/audio/b.mp3"
	second := make(chan error, 1)
	go func() { second <- s.Play(context.Background(), &other) }()

	select {
	case err := <-first:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("Ожидалась ErrSuperseded, получено %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Первая загрузка не была прервана")
	}

	waitEntered(t, engine)
	close(engine.gate)
	if err := <-second; err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}

	if engine.Source() != other.AudioURL {
		t.Errorf("Ожидался источник %s, получен %s", other.AudioURL, engine.Source())
	}
	if st := s.State(); st.Track == nil || st.Track.ID != 2 {
		t.Errorf("Ожидался трек 2, получено %+v", st.Track)
	}
}
