// Package backup выгружает снимок каталога и аудиофайлы в объектное хранилище
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/hazadus/musicstream/internal/s3"
	"github.com/hazadus/musicstream/internal/streaming"
	"github.com/hazadus/musicstream/internal/track"
)

const (
	snapshotName       = "catalog.yaml"
	stampLayout        = "20060102-150405"
	defaultConcurrency = 4
	maxAudioSize       = 50 << 20
)

// Store объектное хранилище для резервных копий
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	List(ctx context.Context, prefix string) ([]s3.Object, error)
	Delete(ctx context.Context, key string) error
}

// DownloadFunc загружает файл по адресу
type DownloadFunc func(ctx context.Context, url string, limit int64, progress func(read, total int64)) ([]byte, string, error)

// Snapshot содержимое файла снимка каталога
type Snapshot struct {
	CreatedAt time.Time     `yaml:"created_at"`
	Source    string        `yaml:"source"`
	Tracks    []track.Track `yaml:"tracks"`
}

// Options параметры резервного копирования
type Options struct {
	Prefix      string
	Source      string // Адрес API, с которого снят каталог
	Audio       bool   // Копировать аудиофайлы
	Concurrency int
	Now         func() time.Time
	Download    DownloadFunc
	Logger      log.FieldLogger
}

// Result итог резервного копирования
type Result struct {
	SnapshotKey string
	SnapshotURL string
	Tracks      int
	AudioFiles  int
	Bytes       int64
}

// Run сохраняет снимок каталога и, если включено, копии аудиофайлов
func Run(ctx context.Context, store Store, tracks []track.Track, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	logger := opts.Logger.WithField("component", "backup")

	dir := path.Join(opts.Prefix, opts.Now().UTC().Format(stampLayout))
	result := &Result{Tracks: len(tracks)}

	if opts.Audio {
		files, size, err := mirrorAudio(ctx, store, dir, tracks, opts, logger)
		if err != nil {
			return nil, err
		}
		result.AudioFiles = files
		result.Bytes += size
	}

	data, err := yaml.Marshal(Snapshot{
		CreatedAt: opts.Now().UTC(),
		Source:    opts.Source,
		Tracks:    tracks,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}

	result.SnapshotKey = path.Join(dir, snapshotName)
	result.SnapshotURL, err = store.Put(ctx, result.SnapshotKey, bytes.NewReader(data), "application/yaml")
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения снимка: %w", err)
	}
	result.Bytes += int64(len(data))

	logger.WithFields(log.Fields{
		"key":    result.SnapshotKey,
		"tracks": result.Tracks,
		"audio":  result.AudioFiles,
	}).Info("резервная копия создана")

	return result, nil
}

// mirrorAudio копирует аудиофайлы треков с ограничением параллельности
func mirrorAudio(ctx context.Context, store Store, dir string, tracks []track.Track, opts Options, logger log.FieldLogger) (int, int64, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	var files, size atomic.Int64
	for _, t := range tracks {
		if t.AudioURL == "" {
			continue
		}
		g.Go(func() error {
			data, contentType, err := opts.Download(ctx, t.AudioURL, maxAudioSize, nil)
			if err != nil {
				return fmt.Errorf("ошибка загрузки аудио трека %d: %w", t.ID, err)
			}

			key := path.Join(dir, "audio", AudioKey(t))
			if _, err := store.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
				return fmt.Errorf("ошибка сохранения аудио трека %d: %w", t.ID, err)
			}

			logger.WithFields(log.Fields{"track_id": t.ID, "key": key}).Debug("аудио скопировано")
			files.Add(1)
			size.Add(int64(len(data)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return int(files.Load()), size.Load(), nil
}

// AudioKey возвращает имя копии аудиофайла трека
func AudioKey(t track.Track) string {
	name := "audio"
	if u, err := url.Parse(t.AudioURL); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		name = path.Base(u.Path)
	}
	return strconv.FormatInt(t.ID, 10) + "-" + name
}

// Snapshots возвращает ключи снимков каталога, от новых к старым
func Snapshots(ctx context.Context, store Store, prefix string) ([]s3.Object, error) {
	objects, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var snapshots []s3.Object
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/"+snapshotName) {
			snapshots = append(snapshots, obj)
		}
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Key > snapshots[j].Key
	})
	return snapshots, nil
}

// Prune удаляет снимки старше keep последних вместе с копиями аудио.
// Возвращает число удаленных объектов.
func Prune(ctx context.Context, store Store, prefix string, keep int) (int, error) {
	snapshots, err := Snapshots(ctx, store, prefix)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(snapshots) <= keep {
		return 0, nil
	}

	removed := 0
	for _, snapshot := range snapshots[keep:] {
		dir := path.Dir(snapshot.Key) + "/"
		objects, err := store.List(ctx, dir)
		if err != nil {
			return removed, err
		}
		for _, obj := range objects {
			if err := store.Delete(ctx, obj.Key); err != nil {
				return removed, fmt.Errorf("ошибка удаления %s: %w", obj.Key, err)
			}
			removed++
		}
	}
	return removed, nil
}

func withDefaults(opts Options) Options {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Download == nil {
		opts.Download = streaming.Download
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	return opts
}
