// Package tracklist содержит модель экрана каталога треков для TUI
package tracklist

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/musicstream/internal/library"
	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	infoStyle         = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("241"))
	errorStyle        = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("196"))
	confirmStyle      = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("214")).Bold(true)
)

// TrackSelectedMsg отправляется при открытии карточки трека
type TrackSelectedMsg struct {
	Track track.Track
}

// PlayTrackMsg отправляется при запуске воспроизведения из списка
type PlayTrackMsg struct {
	Track track.Track
}

// TrackEditMsg отправляется при выборе трека для редактирования
type TrackEditMsg struct {
	Track track.Track
}

// NewTrackMsg отправляется при создании нового трека
type NewTrackMsg struct{}

// trackDeletedMsg результат удаления трека
type trackDeletedMsg struct {
	track track.Track
	err   error
}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	track track.Track
}

func (i trackItem) FilterValue() string {
	return i.track.Artist + " " + i.track.Title
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct{}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	// ID | Исполнитель | Название | Категория | Длительность
	str := fmt.Sprintf("%-4d %-24s %-36s %-12s %s",
		i.track.ID,
		utils.TruncateString(i.track.Artist, 24),
		utils.TruncateString(i.track.Title, 36),
		utils.TruncateString(i.track.Category, 12),
		utils.FormatTrackDuration(i.track.Duration))

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана каталога
type Model struct {
	store     *library.Store
	state     library.State
	filters   track.Filters
	list      list.Model
	search    textinput.Model
	searching bool
	confirm   *track.Track
	status    string
	now       func() time.Time
}

// NewModel создает модель каталога поверх хранилища
func NewModel(store *library.Store) *Model {
	l := list.New(nil, trackItemDelegate{}, 0, 0)
	l.Title = "🎵 MusicStream"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	search := textinput.New()
	search.Prompt = "🔍 "
	search.Placeholder = "название или исполнитель"
	search.CharLimit = 100

	m := &Model{
		store:   store,
		filters: track.DefaultFilters(),
		list:    l,
		search:  search,
		now:     time.Now,
	}
	m.SetState(store.State())
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// SetState применяет новый снимок каталога
func (m *Model) SetState(st library.State) {
	m.state = st
	m.refresh()
}

// Filters возвращает текущие фильтры
func (m *Model) Filters() track.Filters {
	return m.filters
}

// Visible возвращает отображаемые треки
func (m *Model) Visible() []track.Track {
	items := m.list.Items()
	tracks := make([]track.Track, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(trackItem); ok {
			tracks = append(tracks, ti.track)
		}
	}
	return tracks
}

// CapturesInput сообщает, что клавиши должны обрабатываться только этим экраном
func (m *Model) CapturesInput() bool {
	return m.searching || m.confirm != nil
}

// refresh пересчитывает список по фильтрам, сохраняя выбранный трек
func (m *Model) refresh() {
	var selectedID int64 = -1
	if it, ok := m.list.SelectedItem().(trackItem); ok {
		selectedID = it.track.ID
	}

	tracks := track.Filter(m.state.Tracks, m.filters)
	items := make([]list.Item, len(tracks))
	selected := 0
	for i, t := range tracks {
		items[i] = trackItem{track: t}
		if t.ID == selectedID {
			selected = i
		}
	}
	m.list.SetItems(items)
	m.list.Select(selected)
}

func (m *Model) selected() (track.Track, bool) {
	it, ok := m.list.SelectedItem().(trackItem)
	if !ok {
		return track.Track{}, false
	}
	return it.track, true
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 8) // Место для сводки, фильтров и справки
		m.search.Width = msg.Width - 10
		return m, nil

	case trackDeletedMsg:
		if msg.err != nil {
			m.status = ""
			return m, nil
		}
		m.status = fmt.Sprintf("🗑️ Трек «%s» удален", msg.track.Title)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return tea.Quit, true

	case "/":
		m.searching = true
		return m.search.Focus(), true

	case "c":
		m.filters.Category = nextCategory(m.state.Tracks, m.filters.Category)
		m.refresh()
		return nil, true

	case "s":
		m.filters.SortBy = nextSortField(m.filters.SortBy)
		m.refresh()
		return nil, true

	case "o":
		m.filters.SortOrder = m.filters.SortOrder.Toggle()
		m.refresh()
		return nil, true

	case "x":
		m.filters = track.DefaultFilters()
		m.search.SetValue("")
		m.refresh()
		return nil, true

	case "r":
		m.status = ""
		return m.reload(), true

	case "n":
		return func() tea.Msg { return NewTrackMsg{} }, true

	case "enter", "p", "e", "d":
		t, ok := m.selected()
		if !ok {
			return nil, true
		}
		switch msg.String() {
		case "enter":
			return func() tea.Msg { return TrackSelectedMsg{Track: t} }, true
		case "p":
			return func() tea.Msg { return PlayTrackMsg{Track: t} }, true
		case "e":
			return func() tea.Msg { return TrackEditMsg{Track: t} }, true
		default:
			m.confirm = &t
			return nil, true
		}
	}
	return nil, false
}

func (m *Model) updateSearch(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filters.Search = m.search.Value()
	m.refresh()
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (*Model, tea.Cmd) {
	t := *m.confirm
	m.confirm = nil

	switch msg.String() {
	case "y", "Y", "д", "Д":
		m.status = fmt.Sprintf("⏳ Удаление «%s»...", t.Title)
		store := m.store
		return m, func() tea.Msg {
			err := store.Delete(context.Background(), t.ID)
			return trackDeletedMsg{track: t, err: err}
		}
	}
	return m, nil
}

func (m *Model) reload() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		// Ошибка загрузки отражается в состоянии каталога
		_ = store.Load(context.Background())
		return nil
	}
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	stats := track.ComputeStats(m.state.Tracks, m.now())
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Треков: %d • Минут: %.0f • Новых за неделю: %d",
		stats.TotalTracks, stats.TotalMinutes, stats.NewTracks)))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(m.filtersLine()))
	b.WriteString("\n")
	if m.searching || m.filters.Search != "" {
		b.WriteString("    " + m.search.View())
		b.WriteString("\n")
	}

	switch {
	case m.state.Loading && len(m.state.Tracks) == 0:
		b.WriteString(infoStyle.Render("⏳ Загрузка..."))
		b.WriteString("\n")
	case len(m.list.Items()) == 0:
		b.WriteString(m.list.Styles.Title.Render(m.list.Title))
		b.WriteString("\n\n")
		if m.filters.HasActive() {
			b.WriteString(infoStyle.Render("Ничего не найдено. x: сбросить фильтры"))
		} else {
			b.WriteString(infoStyle.Render("Каталог пуст. n: добавить трек"))
		}
		b.WriteString("\n")
	default:
		b.WriteString(m.list.View())
		b.WriteString("\n")
	}

	if m.state.Error != "" {
		b.WriteString(errorStyle.Render("❌ " + m.state.Error))
		b.WriteString("\n")
	}
	if m.confirm != nil {
		b.WriteString(confirmStyle.Render(fmt.Sprintf("Удалить «%s»? (y/n)", m.confirm.Title)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(infoStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Enter: карточка • p: играть • e: изменить • n: новый • d: удалить • /: поиск • c: категория • s/o: сортировка • x: сброс • r: обновить • q: выход"))
	return b.String()
}

func (m *Model) filtersLine() string {
	category := m.filters.Category
	if category == "" {
		category = "Все"
	}
	arrow := "↑"
	if m.filters.SortOrder == track.Desc {
		arrow = "↓"
	}
	return fmt.Sprintf("Категория: %s • Сортировка: %s %s • Показано: %d", category, m.filters.SortBy, arrow, len(m.list.Items()))
}

// nextCategory возвращает следующую категорию по кругу, пустая строка означает все
func nextCategory(tracks []track.Track, current string) string {
	options := append([]string{""}, track.Categories(tracks)...)
	for i, c := range options {
		if c == current {
			return options[(i+1)%len(options)]
		}
	}
	return ""
}

func nextSortField(current track.SortField) track.SortField {
	for i, f := range track.SortFields {
		if f == current {
			return track.SortFields[(i+1)%len(track.SortFields)]
		}
	}
	return track.SortByTitle
}
