package utils

import (
	"io"
	"math"
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{60 * time.Second, "00:01:00"},
		{61*time.Minute + 1*time.Second, "01:01:01"},
		{2*time.Hour + 3*time.Minute + 1*time.Second, "02:03:01"},
	}

	for _, test := range tests {
		result := FormatDuration(test.duration)
		if result != test.expected {
			t.Errorf("FormatDuration(%v) = %s; expected %s", test.duration, result, test.expected)
		}
	}
}

func TestFormatTrackDuration(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{-5, "0:00"},
		{0, "0:00"},
		{9, "0:09"},
		{60, "1:00"},
		{185, "3:05"},
		{3661, "61:01"},
	}

	for _, test := range tests {
		result := FormatTrackDuration(test.seconds)
		if result != test.expected {
			t.Errorf("FormatTrackDuration(%d) = %s; expected %s", test.seconds, result, test.expected)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{math.NaN(), "0:00"},
		{-1, "0:00"},
		{0, "0:00"},
		{12.9, "0:12"},
		{75.2, "1:15"},
	}

	for _, test := range tests {
		result := FormatClock(test.seconds)
		if result != test.expected {
			t.Errorf("FormatClock(%v) = %s; expected %s", test.seconds, result, test.expected)
		}
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a very long string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"Привет, мир", 8, "Приве..."},
	}

	for _, test := range tests {
		result := TruncateString(test.input, test.maxLen)
		if result != test.expected {
			t.Errorf("TruncateString(%s, %d) = %s; expected %s", test.input, test.maxLen, result, test.expected)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, test := range tests {
		result := FormatFileSize(test.bytes)
		if result != test.expected {
			t.Errorf("FormatFileSize(%d) = %s; expected %s", test.bytes, result, test.expected)
		}
	}
}

func TestProgressReader(t *testing.T) {
	var last int64
	pr := &ProgressReader{
		Reader:     strings.NewReader(strings.Repeat("x", 1000)),
		OnProgress: func(n int64) { last = n },
	}

	data, err := io.ReadAll(pr)
	if err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if len(data) != 1000 {
		t.Errorf("Ожидалось 1000 байт, получено %d", len(data))
	}
	if last != 1000 {
		t.Errorf("Ожидался прогресс 1000, получено %d", last)
	}
}
