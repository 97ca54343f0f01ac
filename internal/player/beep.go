package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/url"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
	log "github.com/sirupsen/logrus"

	"github.com/hazadus/musicstream/internal/streaming"
)

const (
	// MaxAudioSize максимальный размер загружаемого аудиофайла
	MaxAudioSize = 50 << 20

	outputSampleRate = beep.SampleRate(44100)
	resampleQuality  = 4
	tickInterval     = 250 * time.Millisecond
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// initSpeaker инициализирует вывод звука один раз на процесс
func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(outputSampleRate, outputSampleRate.N(time.Second/10))
	})
	return speakerErr
}

// memFile хранит загруженный файл в памяти, чтобы декодер мог перематывать
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// BeepEngine движок воспроизведения на gopxl/beep.
// Файл загружается целиком, после чего воспроизводится с поддержкой перемотки.
type BeepEngine struct {
	mu  sync.Mutex
	log log.FieldLogger

	events chan Event
	done   chan struct{}
	ended  atomic.Bool

	source    string
	format    beep.Format
	stream    beep.StreamSeekCloser
	ctrl      *beep.Ctrl
	volume    *effects.Volume
	resampler *beep.Resampler
	queued    bool

	level  float64
	muted  bool
	rate   float64
	closed bool
}

// NewBeepEngine создает движок и запускает рассылку позиции
func NewBeepEngine(logger log.FieldLogger) *BeepEngine {
	if logger == nil {
		logger = log.StandardLogger()
	}

	e := &BeepEngine{
		log:    logger.WithField("component", "engine"),
		events: make(chan Event, 16),
		done:   make(chan struct{}),
		level:  DefaultVolume,
		rate:   1,
	}
	go e.tick()
	return e
}

// Events возвращает канал событий. Канал не закрывается.
func (e *BeepEngine) Events() <-chan Event {
	return e.events
}

func (e *BeepEngine) emit(t EventType) {
	select {
	case e.events <- Event{Type: t}:
	default:
	}
}

// Source возвращает адрес загруженного источника
func (e *BeepEngine) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// Load загружает и декодирует аудиофайл по адресу
func (e *BeepEngine) Load(ctx context.Context, rawURL string) error {
	data, contentType, err := streaming.Download(ctx, rawURL, MaxAudioSize, nil)
	if err != nil {
		return fmt.Errorf("ошибка загрузки аудио: %w", err)
	}

	stream, format, err := decode(memFile{bytes.NewReader(data)}, rawURL, contentType)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		stream.Close()
		return ErrNoSource
	}
	e.unloadLocked()

	e.source = rawURL
	e.format = format
	e.stream = stream
	e.ctrl = &beep.Ctrl{Streamer: stream, Paused: true}
	e.volume = &effects.Volume{Streamer: e.ctrl, Base: 2}
	e.resampler = beep.Resample(resampleQuality, format.SampleRate, outputSampleRate, e.volume)
	e.applyLocked()
	e.ended.Store(false)
	e.mu.Unlock()

	e.log.WithFields(log.Fields{
		"url":         rawURL,
		"sample_rate": int(format.SampleRate),
		"bytes":       len(data),
	}).Debug("источник загружен")

	e.emit(EventLoadedMetadata)
	e.emit(EventTimeUpdate)
	return nil
}

// decode выбирает декодер по расширению адреса или типу содержимого
func decode(f memFile, rawURL, contentType string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch {
	case ext == ".mp3" || strings.Contains(contentType, "mpeg"):
		stream, format, err = mp3.Decode(f)
	case ext == ".wav" || strings.Contains(contentType, "wav"):
		stream, format, err = wav.Decode(f)
	case ext == ".ogg" || strings.Contains(contentType, "ogg"):
		stream, format, err = vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("неподдерживаемый формат аудио: %q", ext)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("ошибка декодирования аудио: %w", err)
	}
	return stream, format, nil
}

// Play запускает или продолжает воспроизведение
func (e *BeepEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil {
		return ErrNoSource
	}
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("ошибка инициализации динамиков: %w", err)
	}

	speaker.Lock()
	if e.ended.Swap(false) {
		_ = e.stream.Seek(0)
		e.queued = false
	}
	e.ctrl.Paused = false
	speaker.Unlock()

	if !e.queued {
		speaker.Play(beep.Seq(e.resampler, beep.Callback(e.onEnded)))
		e.queued = true
	}
	return nil
}

// onEnded вызывается из горутины вывода звука, поэтому не берет блокировки
func (e *BeepEngine) onEnded() {
	e.ended.Store(true)
	e.emit(EventEnded)
}

// Pause приостанавливает воспроизведение
func (e *BeepEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
}

// CurrentTime возвращает позицию в секундах
func (e *BeepEngine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil || e.ended.Load() {
		return 0
	}
	speaker.Lock()
	pos := e.stream.Position()
	speaker.Unlock()
	return e.format.SampleRate.D(pos).Seconds()
}

// SetCurrentTime перематывает на позицию в секундах
func (e *BeepEngine) SetCurrentTime(seconds float64) {
	e.mu.Lock()
	if e.stream == nil {
		e.mu.Unlock()
		return
	}

	n := e.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if n < 0 {
		n = 0
	}
	if last := e.stream.Len() - 1; n > last {
		n = max(last, 0)
	}

	speaker.Lock()
	if err := e.stream.Seek(n); err != nil {
		e.log.WithError(err).Warn("ошибка перемотки")
	}
	speaker.Unlock()
	e.mu.Unlock()

	e.emit(EventTimeUpdate)
}

// Duration возвращает длительность источника в секундах
func (e *BeepEngine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil {
		return 0
	}
	return e.format.SampleRate.D(e.stream.Len()).Seconds()
}

// Volume возвращает громкость от 0 до 1
func (e *BeepEngine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

// SetVolume задает громкость от 0 до 1
func (e *BeepEngine) SetVolume(v float64) {
	e.mu.Lock()
	e.level = clamp(v, 0, 1)
	e.applyLocked()
	e.mu.Unlock()

	e.emit(EventVolumeChange)
}

// Muted сообщает, выключен ли звук
func (e *BeepEngine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// SetMuted включает или выключает звук
func (e *BeepEngine) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	e.applyLocked()
	e.mu.Unlock()

	e.emit(EventVolumeChange)
}

// SetPlaybackRate задает скорость воспроизведения
func (e *BeepEngine) SetPlaybackRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if rate <= 0 {
		return
	}
	e.rate = rate
	e.applyLocked()
}

// applyLocked переносит громкость и скорость в цепочку эффектов
func (e *BeepEngine) applyLocked() {
	if e.volume == nil || e.resampler == nil {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()

	e.volume.Silent = e.muted || e.level == 0
	if !e.volume.Silent {
		e.volume.Volume = math.Log2(e.level)
	}
	base := float64(e.format.SampleRate) / float64(outputSampleRate)
	e.resampler.SetRatio(base * e.rate)
}

// unloadLocked останавливает и закрывает текущий источник
func (e *BeepEngine) unloadLocked() {
	if e.queued {
		speaker.Clear()
		e.queued = false
	}
	if e.stream != nil {
		e.stream.Close()
	}
	e.source = ""
	e.stream = nil
	e.ctrl = nil
	e.volume = nil
	e.resampler = nil
}

// tick рассылает позицию во время воспроизведения
func (e *BeepEngine) tick() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			if e.playing() {
				e.emit(EventTimeUpdate)
			}
		}
	}
}

func (e *BeepEngine) playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil || !e.queued || e.ended.Load() {
		return false
	}
	speaker.Lock()
	defer speaker.Unlock()
	return !e.ctrl.Paused
}

// Close останавливает воспроизведение и освобождает ресурсы
func (e *BeepEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	close(e.done)
	e.unloadLocked()
	return nil
}

var _ Engine = (*BeepEngine)(nil)
var _ io.ReadSeekCloser = memFile{}
