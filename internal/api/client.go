// Package api содержит клиент REST API каталога треков
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/utils"
)

const (
	tracksPath     = "/api/tracks"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 * 1024
)

// ErrNotFound возвращается, если трек не найден
var ErrNotFound = errors.New("трек не найден")

// APIError описывает ответ сервера с кодом ошибки
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ошибка API: HTTP %d", e.Status)
	}
	return fmt.Sprintf("ошибка API: HTTP %d: %s", e.Status, e.Message)
}

// Is позволяет сравнивать ответ 404 с ErrNotFound через errors.Is
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client клиент REST API каталога
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration // Ограничение для запросов без тела
	log     log.FieldLogger
}

// Option настраивает клиент
type Option func(*Client)

// WithHTTPClient задает HTTP клиент
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithRequestTimeout задает таймаут запросов без загрузки файлов.
// Загрузка ограничивается только контекстом вызова и таймаутами транспорта.
func WithRequestTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithLogger задает логгер
func WithLogger(l log.FieldLogger) Option {
	return func(cl *Client) {
		cl.log = l
	}
}

// NewClient создает клиент для API по адресу baseURL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("неверный адрес API: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("неверная схема адреса API: %s", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    newHTTPClient(),
		timeout: defaultTimeout,
		log:     log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "api")
	return c, nil
}

// newHTTPClient создает клиент без общего таймаута, чтобы не обрывать
// загрузку больших файлов. Ожидание соединения и заголовков ответа ограничено.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: defaultTimeout,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          10,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// List возвращает все треки каталога
func (c *Client) List(ctx context.Context) ([]track.Track, error) {
	var tracks []track.Track
	if err := c.do(ctx, http.MethodGet, tracksPath, nil, "", &tracks); err != nil {
		return nil, err
	}
	c.resolveAll(tracks)
	return tracks, nil
}

// Get возвращает трек по ID
func (c *Client) Get(ctx context.Context, id int64) (*track.Track, error) {
	var t track.Track
	if err := c.do(ctx, http.MethodGet, trackPath(id), nil, "", &t); err != nil {
		return nil, err
	}
	c.resolve(&t)
	return &t, nil
}

// Search выполняет поиск треков на стороне сервера
func (c *Client) Search(ctx context.Context, query string) ([]track.Track, error) {
	q := url.Values{}
	q.Set("q", query)

	var tracks []track.Track
	if err := c.do(ctx, http.MethodGet, tracksPath+"/search?"+q.Encode(), nil, "", &tracks); err != nil {
		return nil, err
	}
	c.resolveAll(tracks)
	return tracks, nil
}

// Delete удаляет трек по ID
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, trackPath(id), nil, "", nil)
}

// Create создает трек из данных формы. progress получает число отправленных байт файлов.
func (c *Client) Create(ctx context.Context, upload track.Upload, progress func(int64)) (*track.Track, error) {
	return c.send(ctx, http.MethodPost, tracksPath, upload, progress)
}

// Update обновляет трек. Файлы необязательны: без них сервер сохраняет прежние.
func (c *Client) Update(ctx context.Context, id int64, upload track.Upload, progress func(int64)) (*track.Track, error) {
	return c.send(ctx, http.MethodPut, trackPath(id), upload, progress)
}

// ResolveURL превращает относительный путь медиафайла в абсолютный адрес
func (c *Client) ResolveURL(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

func (c *Client) send(ctx context.Context, method, path string, upload track.Upload, progress func(int64)) (*track.Track, error) {
	body, contentType := encodeMultipart(upload, progress)
	defer body.Close()

	var t track.Track
	if err := c.do(ctx, method, path, body, contentType, &t); err != nil {
		return nil, err
	}
	c.resolve(&t)
	return &t, nil
}

// encodeMultipart формирует тело multipart/form-data в отдельной горутине через pipe
func encodeMultipart(upload track.Upload, progress func(int64)) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		var sent int64
		onProgress := func(n int64) {
			if progress != nil {
				progress(sent + n)
			}
		}

		err := func() error {
			fields := []struct{ name, value string }{
				{"title", upload.Title},
				{"artist", upload.Artist},
				{"description", upload.Description},
				{"category", upload.Category},
				{"duration", strconv.Itoa(upload.Duration)},
			}
			for _, f := range fields {
				if err := mw.WriteField(f.name, f.value); err != nil {
					return err
				}
			}

			files := []struct {
				name string
				file *track.Attachment
			}{
				{"audioFile", upload.Audio},
				{"coverFile", upload.Cover},
			}
			for _, f := range files {
				if f.file == nil || f.file.Body == nil {
					continue
				}
				part, err := mw.CreateFormFile(f.name, f.file.Name)
				if err != nil {
					return err
				}
				n, err := io.Copy(part, &utils.ProgressReader{Reader: f.file.Body, OnProgress: onProgress})
				if err != nil {
					return err
				}
				sent += n
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	if body == nil && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	logger := c.log.WithFields(log.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
	})

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithError(err).Error("запрос не выполнен")
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	logger = logger.WithFields(log.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		logger.WithError(apiErr).Warn("сервер вернул ошибку")
		return apiErr
	}
	logger.Debug("запрос выполнен")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка разбора ответа: %w", err)
	}
	return nil
}

// decodeError извлекает сообщение из тела ответа вида {"message": "..."}
func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(data))
	return apiErr
}

func (c *Client) resolve(t *track.Track) {
	t.AudioURL = c.ResolveURL(t.AudioURL)
	t.CoverURL = c.ResolveURL(t.CoverURL)
}

func (c *Client) resolveAll(tracks []track.Track) {
	for i := range tracks {
		c.resolve(&tracks[i])
	}
}

func trackPath(id int64) string {
	return tracksPath + "/" + strconv.FormatInt(id, 10)
}
