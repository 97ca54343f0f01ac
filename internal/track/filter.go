package track

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortField поле, по которому сортируется список
type SortField string

// Поддерживаемые поля сортировки
const (
	SortByTitle     SortField = "title"
	SortByArtist    SortField = "artist"
	SortByAddedDate SortField = "addedDate"
	SortByDuration  SortField = "duration"
)

// SortFields перечисляет поля сортировки в порядке переключения в интерфейсе
var SortFields = []SortField{SortByTitle, SortByArtist, SortByAddedDate, SortByDuration}

// SortOrder направление сортировки
type SortOrder string

// Направления сортировки
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Toggle возвращает противоположное направление
func (o SortOrder) Toggle() SortOrder {
	if o == Desc {
		return Asc
	}
	return Desc
}

// ParseSortField разбирает название поля сортировки
func ParseSortField(s string) (SortField, error) {
	for _, f := range SortFields {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	if strings.EqualFold(s, "added") || strings.EqualFold(s, "added_date") {
		return SortByAddedDate, nil
	}
	return "", fmt.Errorf("неизвестное поле сортировки: %s", s)
}

// ParseSortOrder разбирает направление сортировки
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(s) {
	case "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("неизвестное направление сортировки: %s", s)
}

// Filters параметры фильтрации и сортировки списка треков
type Filters struct {
	Search    string
	Category  string
	SortBy    SortField
	SortOrder SortOrder
}

// DefaultFilters фильтры при открытии библиотеки
func DefaultFilters() Filters {
	return Filters{SortBy: SortByTitle, SortOrder: Asc}
}

// HasActive сообщает, задан ли поиск или категория
func (f Filters) HasActive() bool {
	return f.Search != "" || f.Category != ""
}

// Matches проверяет, проходит ли трек через фильтры поиска и категории
func (f Filters) Matches(t Track) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Artist), q) {
			return false
		}
	}
	return f.Category == "" || t.Category == f.Category
}

// Filter возвращает новый отфильтрованный и отсортированный список.
// Исходный срез не изменяется, сортировка стабильная.
func Filter(tracks []Track, f Filters) []Track {
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = SortByTitle
	}
	desc := f.SortOrder == Desc
	// Collator не потокобезопасен, поэтому создается на каждый вызов
	col := collate.New(language.Und)

	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return compare(col, out[j], out[i], sortBy) < 0
		}
		return compare(col, out[i], out[j], sortBy) < 0
	})
	return out
}

func compare(col *collate.Collator, a, b Track, field SortField) int {
	switch field {
	case SortByArtist:
		return compareText(col, a.Artist, b.Artist)
	case SortByDuration:
		return compareInt(a.Duration, b.Duration)
	case SortByAddedDate:
		return compareTime(a.AddedAt(), b.AddedAt())
	default:
		return compareText(col, a.Title, b.Title)
	}
}

// compareText сравнивает строки по правилам Unicode Collation:
// диакритика и регистр учитываются только при равенстве букв,
// строчные идут раньше заглавных. Неразличимые строки упорядочиваются по кодовым точкам.
func compareText(col *collate.Collator, a, b string) int {
	if c := col.CompareString(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// Categories возвращает уникальные категории в порядке первого появления
func Categories(tracks []Track) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, t := range tracks {
		if t.Category == "" || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	return out
}

// DefaultCategories список категорий, доступных в форме трека
var DefaultCategories = []string{
	"Pop", "Rock", "Hip Hop", "Jazz", "Classical",
	"Electronic", "R&B", "Country", "Reggae", "Metal",
	"Blues", "Folk", "Indie", "Alternative", "Punk",
}

// newTrackWindow период, в течение которого трек считается новым
const newTrackWindow = 7 * 24 * time.Hour

// Stats сводка по библиотеке
type Stats struct {
	TotalTracks  int
	TotalMinutes float64
	NewTracks    int
}

// ComputeStats считает сводку по списку треков на момент now
func ComputeStats(tracks []Track, now time.Time) Stats {
	var s Stats
	weekAgo := now.Add(-newTrackWindow)
	total := 0
	for _, t := range tracks {
		total += t.Duration
		if t.AddedDate != nil && t.AddedDate.After(weekAgo) {
			s.NewTracks++
		}
	}
	s.TotalTracks = len(tracks)
	s.TotalMinutes = float64(total) / 60
	return s
}
