package track

import (
	"reflect"
	"testing"
	"time"
)

func titles(tracks []Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Title
	}
	return out
}

func sampleTracks() []Track {
	day := func(d int) *LocalTime {
		return NewLocalTime(time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC))
	}
	return []Track{
		{ID: 1, Title: "Blue Train", Artist: "John Coltrane", Category: "Jazz", Duration: 643, AddedDate: day(3)},
		{ID: 2, Title: "alive", Artist: "Daft Punk", Category: "Electronic", Duration: 316, AddedDate: day(1)},
		{ID: 3, Title: "Giant Steps", Artist: "john coltrane", Category: "Jazz", Duration: 286},
		{ID: 4, Title: "Around the World", Artist: "Daft Punk", Category: "Electronic", Duration: 429, AddedDate: day(2)},
	}
}

func TestSortByTitle(t *testing.T) {
	tracks := []Track{{Title: "A", Artist: "Z"}, {Title: "B", Artist: "Y"}}

	asc := Filter(tracks, Filters{SortBy: SortByTitle, SortOrder: Asc})
	if got := titles(asc); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Ожидался порядок A,B, получено %v", got)
	}

	desc := Filter(tracks, Filters{SortBy: SortByTitle, SortOrder: Desc})
	if got := titles(desc); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Errorf("Ожидался порядок B,A, получено %v", got)
	}
}

func TestSearchIsCaseInsensitiveOnTitleOrArtist(t *testing.T) {
	tracks := sampleTracks()

	got := titles(Filter(tracks, Filters{Search: "COLTRANE"}))
	want := []string{"Blue Train", "Giant Steps"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Поиск по исполнителю: ожидалось %v, получено %v", want, got)
	}

	got = titles(Filter(tracks, Filters{Search: "ALIVE"}))
	if !reflect.DeepEqual(got, []string{"alive"}) {
		t.Errorf("Поиск по названию: получено %v", got)
	}

	if got := Filter(tracks, Filters{Search: "nothing"}); len(got) != 0 {
		t.Errorf("Ожидался пустой результат, получено %v", titles(got))
	}
}

func TestCategoryIsExactAndCombinedWithSearch(t *testing.T) {
	tracks := sampleTracks()

	got := titles(Filter(tracks, Filters{Category: "Jazz"}))
	if !reflect.DeepEqual(got, []string{"Blue Train", "Giant Steps"}) {
		t.Errorf("Фильтр по категории: получено %v", got)
	}

	if got := Filter(tracks, Filters{Category: "jazz"}); len(got) != 0 {
		t.Errorf("Категория должна совпадать точно, получено %v", titles(got))
	}

	got = titles(Filter(tracks, Filters{Category: "Electronic", Search: "world"}))
	if !reflect.DeepEqual(got, []string{"Around the World"}) {
		t.Errorf("Категория И поиск: получено %v", got)
	}

	if got := Filter(tracks, Filters{Category: "Jazz", Search: "daft"}); len(got) != 0 {
		t.Errorf("Ожидался пустой результат, получено %v", titles(got))
	}
}

func TestSortIsStable(t *testing.T) {
	tracks := []Track{
		{ID: 1, Title: "x", Duration: 100},
		{ID: 2, Title: "y", Duration: 50},
		{ID: 3, Title: "z", Duration: 100},
		{ID: 4, Title: "w", Duration: 50},
	}

	asc := Filter(tracks, Filters{SortBy: SortByDuration, SortOrder: Asc})
	if got := titles(asc); !reflect.DeepEqual(got, []string{"y", "w", "x", "z"}) {
		t.Errorf("Стабильная сортировка asc: получено %v", got)
	}

	desc := Filter(tracks, Filters{SortBy: SortByDuration, SortOrder: Desc})
	if got := titles(desc); !reflect.DeepEqual(got, []string{"x", "z", "y", "w"}) {
		t.Errorf("Стабильная сортировка desc: получено %v", got)
	}
}

func TestSortByFields(t *testing.T) {
	tracks := sampleTracks()

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"title asc", Filters{SortBy: SortByTitle, SortOrder: Asc}, []string{"alive", "Around the World", "Blue Train", "Giant Steps"}},
		{"artist asc", Filters{SortBy: SortByArtist, SortOrder: Asc}, []string{"alive", "Around the World", "Giant Steps", "Blue Train"}},
		{"artist desc", Filters{SortBy: SortByArtist, SortOrder: Desc}, []string{"Blue Train", "Giant Steps", "alive", "Around the World"}},
		{"duration asc", Filters{SortBy: SortByDuration, SortOrder: Asc}, []string{"Giant Steps", "alive", "Around the World", "Blue Train"}},
		{"duration desc", Filters{SortBy: SortByDuration, SortOrder: Desc}, []string{"Blue Train", "Around the World", "alive", "Giant Steps"}},
		{"added asc", Filters{SortBy: SortByAddedDate, SortOrder: Asc}, []string{"Giant Steps", "alive", "Around the World", "Blue Train"}},
		{"added desc", Filters{SortBy: SortByAddedDate, SortOrder: Desc}, []string{"Blue Train", "Around the World", "alive", "Giant Steps"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(Filter(tracks, tt.filters))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Ожидалось %v, получено %v", tt.want, got)
			}
		})
	}
}

func TestSortTitlesWithDiacritics(t *testing.T) {
	tracks := []Track{{ID: 1, Title: "Zoë"}, {ID: 2, Title: "Émile"}, {ID: 3, Title: "apple"}}

	asc := Filter(tracks, Filters{SortBy: SortByTitle, SortOrder: Asc})
	if got := titles(asc); !reflect.DeepEqual(got, []string{"apple", "Émile", "Zoë"}) {
		t.Errorf("Ожидался порядок apple,Émile,Zoë, получено %v", got)
	}

	desc := Filter(tracks, Filters{SortBy: SortByTitle, SortOrder: Desc})
	if got := titles(desc); !reflect.DeepEqual(got, []string{"Zoë", "Émile", "apple"}) {
		t.Errorf("Ожидался порядок Zoë,Émile,apple, получено %v", got)
	}
}

func TestSortLowercaseBeforeUppercase(t *testing.T) {
	tracks := []Track{{ID: 1, Title: "John"}, {ID: 2, Title: "john"}, {ID: 3, Title: "Jazz"}}

	got := titles(Filter(tracks, Filters{SortBy: SortByTitle, SortOrder: Asc}))
	if !reflect.DeepEqual(got, []string{"Jazz", "john", "John"}) {
		t.Errorf("Ожидался порядок Jazz,john,John, получено %v", got)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	tracks := sampleTracks()
	before := titles(tracks)

	_ = Filter(tracks, Filters{SortBy: SortByTitle, SortOrder: Desc})

	if got := titles(tracks); !reflect.DeepEqual(got, before) {
		t.Errorf("Исходный срез изменен: %v", got)
	}
}

func TestCategories(t *testing.T) {
	got := Categories(sampleTracks())
	if !reflect.DeepEqual(got, []string{"Jazz", "Electronic"}) {
		t.Errorf("Ожидались категории [Jazz Electronic], получено %v", got)
	}

	if got := Categories(nil); len(got) != 0 {
		t.Errorf("Ожидался пустой список категорий, получено %v", got)
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 1, 8, 13, 0, 0, 0, time.UTC)
	stats := ComputeStats(sampleTracks(), now)

	if stats.TotalTracks != 4 {
		t.Errorf("Ожидалось 4 трека, получено %d", stats.TotalTracks)
	}
	wantMinutes := float64(643+316+286+429) / 60
	if stats.TotalMinutes != wantMinutes {
		t.Errorf("Ожидалось %.2f минут, получено %.2f", wantMinutes, stats.TotalMinutes)
	}
	// 2 и 3 января попадают в последнюю неделю, 1 января - уже нет
	if stats.NewTracks != 2 {
		t.Errorf("Ожидалось 2 новых трека, получено %d", stats.NewTracks)
	}
}

func TestParseSortFieldAndOrder(t *testing.T) {
	if f, err := ParseSortField("Duration"); err != nil || f != SortByDuration {
		t.Errorf("ParseSortField(Duration) = %v, %v", f, err)
	}
	if f, err := ParseSortField("added"); err != nil || f != SortByAddedDate {
		t.Errorf("ParseSortField(added) = %v, %v", f, err)
	}
	if _, err := ParseSortField("bitrate"); err == nil {
		t.Error("Ожидалась ошибка для неизвестного поля")
	}
	if o, err := ParseSortOrder("DESC"); err != nil || o != Desc {
		t.Errorf("ParseSortOrder(DESC) = %v, %v", o, err)
	}
	if _, err := ParseSortOrder("up"); err == nil {
		t.Error("Ожидалась ошибка для неизвестного направления")
	}
	if Asc.Toggle() != Desc || Desc.Toggle() != Asc {
		t.Error("Toggle должен менять направление")
	}
}
