// Package player содержит панель воспроизведения, которая показывается под каждым экраном TUI
package player

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/musicstream/internal/player"
	"github.com/hazadus/musicstream/internal/utils"
)

var (
	barStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color("#444444")).
			PaddingLeft(2)

	trackInfoStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// StateMsg содержит новый снимок состояния плеера
type StateMsg struct {
	State player.State
}

// ErrorMsg отправляется при ошибке воспроизведения
type ErrorMsg struct {
	Err error
}

// Model представляет модель панели воспроизведения
type Model struct {
	updates     <-chan player.State
	unsubscribe func()
	state       player.State
	progressBar progress.Model
	err         error
	width       int
}

// NewModel создает панель, получающую снимки из канала подписки
func NewModel(updates <-chan player.State, unsubscribe func()) *Model {
	prog := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	prog.Width = 30

	return &Model{
		updates:     updates,
		unsubscribe: unsubscribe,
		state:       player.InitialState(),
		progressBar: prog,
	}
}

// Init запускает ожидание снимков состояния
func (m *Model) Init() tea.Cmd {
	return m.listen()
}

// State возвращает последний полученный снимок
func (m *Model) State() player.State {
	return m.state
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(10, min(40, msg.Width-70))
		return m, nil

	case StateMsg:
		if msg.State.Track != nil && (m.state.Track == nil || m.state.Track.ID != msg.State.Track.ID) {
			m.err = nil
		}
		if msg.State.IsPlaying {
			m.err = nil
		}
		m.state = msg.State
		return m, m.listen()

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}
	return m, nil
}

// listen ждет следующий снимок из подписки
func (m *Model) listen() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return nil
		}
		return StateMsg{State: st}
	}
}

// View отображает модель
func (m *Model) View() string {
	if m.err != nil {
		return barStyle.Render(errorStyle.Render("❌ " + m.err.Error()))
	}

	st := m.state
	if st.Track == nil {
		return barStyle.Render(dimStyle.Render("⏹️ Ничего не воспроизводится"))
	}

	icon := "⏸️"
	if st.IsPlaying {
		icon = "▶️"
	}

	volume := fmt.Sprintf("🔊 %d%%", int(st.Volume*100+0.5))
	if st.IsMuted {
		volume = "🔇 выкл"
	}

	info := trackInfoStyle.Render(fmt.Sprintf("%s %s — %s",
		icon,
		utils.TruncateString(st.Track.Artist, 24),
		utils.TruncateString(st.Track.Title, 32)))

	line := fmt.Sprintf("%s  %s %s / %s  %s  %s",
		info,
		m.progressBar.ViewAs(st.Progress()),
		player.FormatTime(st.CurrentTime),
		player.FormatTime(st.Duration),
		dimStyle.Render(volume),
		dimStyle.Render(fmt.Sprintf("%gx", st.PlaybackRate)),
	)
	help := dimStyle.Render("Пробел: пауза • ←/→: ∓10с • +/-: громкость • m: без звука • [ ]: скорость")
	return barStyle.Render(line + "\n" + help)
}

// Close отписывается от обновлений плеера
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}
