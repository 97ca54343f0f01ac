// Package streaming содержит компоненты для прогрессивной загрузки аудио по HTTP
package streaming

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ErrTooLarge возвращается, если ответ превышает допустимый размер
var ErrTooLarge = errors.New("размер файла превышает допустимый")

// newClient создает HTTP клиент без общего таймаута для длительного чтения
func newClient() *http.Client {
	return &http.Client{
		// Убираем общий таймаут, оставляем только таймауты соединения
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       300 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

var defaultClient = newClient()

// Reader представляет буферизованный поток для чтения данных порциями
type Reader struct {
	reader *bufio.Reader
	resp   *http.Response
}

// NewReader открывает поток по url
func NewReader(ctx context.Context, url string, bufferSize int) (*Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Accept-Encoding", "identity") // Отключаем сжатие для потока
	req.Header.Set("User-Agent", "musicstream/1.0")

	resp, err := defaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}

	return &Reader{
		reader: bufio.NewReaderSize(resp.Body, bufferSize),
		resp:   resp,
	}, nil
}

// Read реализует интерфейс io.Reader для потокового чтения
func (sr *Reader) Read(p []byte) (n int, err error) {
	return sr.reader.Read(p)
}

// Close закрывает соединение
func (sr *Reader) Close() error {
	return sr.resp.Body.Close()
}

// ContentType возвращает заголовок Content-Type ответа
func (sr *Reader) ContentType() string {
	return sr.resp.Header.Get("Content-Type")
}

// ContentLength возвращает размер ответа или -1, если он неизвестен
func (sr *Reader) ContentLength() int64 {
	return sr.resp.ContentLength
}

// Download загружает файл целиком в память, не превышая limit байт.
// progress вызывается по мере чтения, может быть nil.
func Download(ctx context.Context, url string, limit int64, progress func(read, total int64)) ([]byte, string, error) {
	const bufferSize = 256 * 1024
	reader, err := NewReader(ctx, url, bufferSize)
	if err != nil {
		return nil, "", err
	}
	defer reader.Close()

	total := reader.ContentLength()
	if limit > 0 && total > limit {
		return nil, "", fmt.Errorf("%w: %d байт", ErrTooLarge, total)
	}

	var src io.Reader = reader
	if limit > 0 {
		// Читаем на байт больше лимита, чтобы обнаружить превышение
		src = io.LimitReader(reader, limit+1)
	}

	buf := make([]byte, 0, max(total, 0))
	chunk := make([]byte, 32*1024)
	var read int64
	for {
		n, err := src.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			read += int64(n)
			if progress != nil {
				progress(read, total)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("ошибка чтения потока: %w", err)
		}
	}

	if limit > 0 && read > limit {
		return nil, "", fmt.Errorf("%w: больше %d байт", ErrTooLarge, limit)
	}
	return buf, reader.ContentType(), nil
}
