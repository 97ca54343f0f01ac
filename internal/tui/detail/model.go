// Package detail содержит модель экрана карточки трека для TUI
package detail

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(18)

	descriptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				MarginTop(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)
)

// GoBackMsg отправляется для возврата к каталогу
type GoBackMsg struct{}

// PlayMsg отправляется для воспроизведения трека
type PlayMsg struct {
	Track track.Track
}

// EditMsg отправляется для редактирования трека
type EditMsg struct {
	Track track.Track
}

// Model представляет модель карточки трека
type Model struct {
	track track.Track
	width int
}

// NewModel создает карточку трека
func NewModel(t track.Track) *Model {
	return &Model{track: t}
}

// Track возвращает показываемый трек
func (m *Model) Track() track.Track {
	return m.track
}

// Init запускает воспроизведение при открытии карточки
func (m *Model) Init() tea.Cmd {
	return m.play()
}

func (m *Model) play() tea.Cmd {
	t := m.track
	return func() tea.Msg {
		return PlayMsg{Track: t}
	}
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "backspace":
			return m, func() tea.Msg { return GoBackMsg{} }
		case "p", "enter":
			return m, m.play()
		case "e":
			t := m.track
			return m, func() tea.Msg { return EditMsg{Track: t} }
		}
	}
	return m, nil
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("🎵 %s", m.track.Title)))
	b.WriteString("\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("🎤 Исполнитель", m.track.Artist)
	row("🏷️ Категория", m.track.Category)
	row("⏱️ Длительность", utils.FormatTrackDuration(m.track.Duration))
	if m.track.AddedDate != nil {
		row("📅 Добавлен", m.track.AddedAt().Format("02.01.2006 15:04"))
	}
	row("🔗 Аудио", m.track.AudioURL)
	row("🖼️ Обложка", m.track.CoverURL)

	if m.track.Description != "" {
		desc := descriptionStyle
		if m.width > 10 {
			desc = desc.Width(m.width - 4)
		}
		b.WriteString(desc.Render(m.track.Description))
		b.WriteString("\n")
	}

	b.WriteString(controlsStyle.Render("p: играть • e: изменить • q/esc: назад"))
	return b.String()
}
