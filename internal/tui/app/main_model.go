// Package app содержит основную логику TUI приложения
package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/musicstream/internal/library"
	"github.com/hazadus/musicstream/internal/player"
	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/tui/detail"
	"github.com/hazadus/musicstream/internal/tui/editor"
	tuiPlayer "github.com/hazadus/musicstream/internal/tui/player"
	"github.com/hazadus/musicstream/internal/tui/tracklist"
)

const (
	skipStep   = 10
	volumeStep = 0.1
	rateStep   = 0.25
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// LibraryScreen - экран каталога
	LibraryScreen ScreenType = iota
	// DetailScreen - карточка трека
	DetailScreen
	// EditorScreen - форма трека
	EditorScreen
)

// Player управление воспроизведением, которое нужно интерфейсу
type Player interface {
	Play(ctx context.Context, t *track.Track) error
	Toggle() error
	Skip(delta float64)
	SetVolume(v float64)
	ToggleMute()
	SetPlaybackRate(rate float64)
	State() player.State
	Subscribe() (<-chan player.State, func())
}

// libraryStateMsg содержит новый снимок каталога
type libraryStateMsg struct {
	state library.State
}

// MainModel представляет главную модель TUI
type MainModel struct {
	store  *library.Store
	player Player

	currentScreen  ScreenType
	tracklistModel *tracklist.Model
	detailModel    *detail.Model
	editorModel    *editor.Model
	playerBar      *tuiPlayer.Model

	libraryUpdates <-chan library.State
	unsubscribe    func()
	lastSize       tea.WindowSizeMsg
}

// NewMainModel создает новую главную модель
func NewMainModel(store *library.Store, p Player) *MainModel {
	updates, unsubscribe := store.Subscribe()

	return &MainModel{
		store:          store,
		player:         p,
		currentScreen:  LibraryScreen,
		tracklistModel: tracklist.NewModel(store),
		playerBar:      tuiPlayer.NewModel(p.Subscribe()),
		libraryUpdates: updates,
		unsubscribe:    unsubscribe,
	}
}

// Init инициализирует модель и загружает каталог
func (m *MainModel) Init() tea.Cmd {
	store := m.store
	return tea.Batch(
		m.tracklistModel.Init(),
		m.playerBar.Init(),
		m.listenLibrary(),
		func() tea.Msg {
			// Ошибка загрузки отражается в состоянии каталога
			_ = store.Load(context.Background())
			return nil
		},
	)
}

// Screen возвращает текущий экран
func (m *MainModel) Screen() ScreenType {
	return m.currentScreen
}

func (m *MainModel) listenLibrary() tea.Cmd {
	updates := m.libraryUpdates
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return nil
		}
		return libraryStateMsg{state: st}
	}
}

// capturesInput сообщает, что активный экран принимает текстовый ввод
func (m *MainModel) capturesInput() bool {
	switch m.currentScreen {
	case LibraryScreen:
		return m.tracklistModel.CapturesInput()
	case EditorScreen:
		return true
	}
	return false
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if !m.capturesInput() {
			if cmd, handled := m.handleTransportKey(msg); handled {
				return m, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.lastSize = msg
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)
		cmds = append(cmds, cmd)
		if m.detailModel != nil {
			m.detailModel, cmd = m.detailModel.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.playerBar, cmd = m.playerBar.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case libraryStateMsg:
		m.tracklistModel.SetState(msg.state)
		return m, m.listenLibrary()

	case tuiPlayer.StateMsg, tuiPlayer.ErrorMsg:
		var cmd tea.Cmd
		m.playerBar, cmd = m.playerBar.Update(msg)
		return m, cmd

	case tracklist.TrackSelectedMsg:
		m.currentScreen = DetailScreen
		m.detailModel = detail.NewModel(msg.Track)
		resizeWith(m.lastSize, m.detailModel.Update)
		return m, m.detailModel.Init()

	case tracklist.PlayTrackMsg:
		return m, m.play(msg.Track)

	case detail.PlayMsg:
		return m, m.play(msg.Track)

	case tracklist.TrackEditMsg:
		return m, m.openEditor(editor.NewEdit(m.store, msg.Track))

	case detail.EditMsg:
		return m, m.openEditor(editor.NewEdit(m.store, msg.Track))

	case tracklist.NewTrackMsg:
		return m, m.openEditor(editor.NewCreate(m.store))

	case detail.GoBackMsg:
		m.currentScreen = LibraryScreen
		m.detailModel = nil
		return m, nil

	case editor.GoBackMsg:
		m.closeEditor()
		if m.detailModel != nil {
			m.currentScreen = DetailScreen
		}
		return m, nil

	case editor.TrackSavedMsg:
		m.closeEditor()
		if m.detailModel != nil {
			// Карточка показывает сохраненные данные без повторного запуска воспроизведения
			if t, ok := m.store.Find(msg.Track.ID); ok {
				m.detailModel = detail.NewModel(t)
				resizeWith(m.lastSize, m.detailModel.Update)
			}
			m.currentScreen = DetailScreen
		}
		return m, nil
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case LibraryScreen:
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)
	case DetailScreen:
		if m.detailModel != nil {
			m.detailModel, cmd = m.detailModel.Update(msg)
		}
	case EditorScreen:
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
		}
	}
	return m, cmd
}

// handleTransportKey обрабатывает клавиши управления воспроизведением.
// Команды плеера выполняются вне Update.
func (m *MainModel) handleTransportKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	p := m.player
	st := p.State()

	var action func()
	switch msg.String() {
	case " ":
		return func() tea.Msg {
			if err := p.Toggle(); err != nil {
				return tuiPlayer.ErrorMsg{Err: err}
			}
			return nil
		}, true
	case "left":
		action = func() { p.Skip(-skipStep) }
	case "right":
		action = func() { p.Skip(skipStep) }
	case "+", "=":
		action = func() { p.SetVolume(st.Volume + volumeStep) }
	case "-":
		action = func() { p.SetVolume(st.Volume - volumeStep) }
	case "m":
		action = p.ToggleMute
	case "[":
		action = func() { p.SetPlaybackRate(st.PlaybackRate - rateStep) }
	case "]":
		action = func() { p.SetPlaybackRate(st.PlaybackRate + rateStep) }
	default:
		return nil, false
	}

	return func() tea.Msg {
		action()
		return nil
	}, true
}

func (m *MainModel) play(t track.Track) tea.Cmd {
	p := m.player
	return func() tea.Msg {
		err := p.Play(context.Background(), &t)
		if err != nil && !errors.Is(err, player.ErrSuperseded) {
			return tuiPlayer.ErrorMsg{Err: err}
		}
		return nil
	}
}

func (m *MainModel) openEditor(e *editor.Model) tea.Cmd {
	m.closeEditor()
	m.currentScreen = EditorScreen
	m.editorModel = e
	resizeWith(m.lastSize, m.editorModel.Update)
	return m.editorModel.Init()
}

// resizeWith передает новому экрану последний известный размер окна
func resizeWith[T any](size tea.WindowSizeMsg, update func(tea.Msg) (T, tea.Cmd)) {
	if size.Width > 0 {
		update(size)
	}
}

func (m *MainModel) closeEditor() {
	if m.editorModel != nil {
		m.editorModel.Close()
		m.editorModel = nil
	}
	m.currentScreen = LibraryScreen
}

// View отображает интерфейс
func (m *MainModel) View() string {
	var screen string
	switch m.currentScreen {
	case LibraryScreen:
		screen = m.tracklistModel.View()
	case DetailScreen:
		if m.detailModel != nil {
			screen = m.detailModel.View()
		}
	case EditorScreen:
		if m.editorModel != nil {
			screen = m.editorModel.View()
		}
	default:
		return "Неизвестный экран"
	}
	return screen + "\n" + m.playerBar.View()
}

// Close закрывает ресурсы главной модели
func (m *MainModel) Close() {
	m.closeEditor()
	m.playerBar.Close()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}
