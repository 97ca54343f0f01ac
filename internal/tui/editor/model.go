// Package editor содержит модель экрана создания и редактирования трека для TUI
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/musicstream/internal/api"
	"github.com/hazadus/musicstream/internal/form"
	"github.com/hazadus/musicstream/internal/library"
	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/utils"
)

var (
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(16)
	focusedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	fieldErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).PaddingLeft(17)
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
	progressStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Margin(1, 0)
)

// TrackSavedMsg отправляется когда трек успешно сохранен
type TrackSavedMsg struct {
	Track track.Track
}

// GoBackMsg отправляется при отмене редактирования
type GoBackMsg struct{}

type savedMsg struct {
	track *track.Track
	err   error
}

type progressTickMsg struct{}

var fieldLabels = map[form.Field]string{
	form.FieldTitle:       "Название:",
	form.FieldArtist:      "Исполнитель:",
	form.FieldDescription: "Описание:",
	form.FieldCategory:    "Категория:",
	form.FieldDuration:    "Длительность:",
	form.FieldAudio:       "Аудиофайл:",
	form.FieldCover:       "Обложка:",
}

var fieldPlaceholders = map[form.Field]string{
	form.FieldTitle:       "до 50 символов",
	form.FieldArtist:      "до 50 символов",
	form.FieldDescription: "до 200 символов",
	form.FieldCategory:    "Pop, Rock, Jazz...",
	form.FieldDuration:    "в секундах",
	form.FieldAudio:       "путь к .mp3, .wav или .ogg",
	form.FieldCover:       "путь к .jpg, .png, .gif или .webp",
}

// Model представляет модель экрана формы трека
type Model struct {
	store  *library.Store
	form   *form.Form
	inputs []textinput.Model
	focus  int

	errs     form.ValidationErrors
	fileErrs map[form.Field]string // Ошибки открытия выбранных файлов
	err      string
	saving   bool
	sent     *atomic.Int64
}

// NewCreate создает форму нового трека
func NewCreate(store *library.Store) *Model {
	return newModel(store, form.NewCreate())
}

// NewEdit создает форму редактирования трека
func NewEdit(store *library.Store, t track.Track) *Model {
	return newModel(store, form.NewEdit(t))
}

func newModel(store *library.Store, f *form.Form) *Model {
	m := &Model{
		store:  store,
		form:   f,
		inputs:   make([]textinput.Model, len(form.Fields)),
		fileErrs: map[form.Field]string{},
		sent:     &atomic.Int64{},
	}

	for i, field := range form.Fields {
		in := textinput.New()
		in.Placeholder = fieldPlaceholders[field]
		in.SetValue(f.Get(field))
		in.PromptStyle = blurredStyle
		in.TextStyle = blurredStyle
		switch field {
		case form.FieldTitle, form.FieldArtist:
			in.CharLimit = form.MaxTitleLength + 10
		case form.FieldDescription:
			in.CharLimit = form.MaxDescriptionLength + 10
		case form.FieldCategory:
			in.SetSuggestions(track.DefaultCategories)
			in.ShowSuggestions = true
		}
		m.inputs[i] = in
	}
	m.focusInput(0)
	return m
}

// Form возвращает модель формы
func (m *Model) Form() *form.Form {
	return m.form
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Close освобождает выбранные файлы
func (m *Model) Close() error {
	return m.form.Close()
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = saveErrorText(msg.err)
			return m, nil
		}
		m.form.Close()
		t := *msg.track
		return m, func() tea.Msg { return TrackSavedMsg{Track: t} }

	case progressTickMsg:
		if m.saving {
			return m, tickProgress()
		}
		return m, nil

	case tea.WindowSizeMsg:
		for i := range m.inputs {
			m.inputs[i].Width = msg.Width - 24
		}
		return m, nil

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return GoBackMsg{} }

		case "ctrl+s":
			return m, m.submit()

		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()
			if s == "enter" && m.focus == len(m.inputs) {
				return m, m.submit()
			}
			// Tab в поле категории сначала принимает подсказку
			if s == "tab" && m.focus < len(m.inputs) && form.Fields[m.focus] == form.FieldCategory {
				if suggestion := m.inputs[m.focus].CurrentSuggestion(); suggestion != "" && suggestion != m.inputs[m.focus].Value() {
					m.inputs[m.focus].SetValue(suggestion)
					m.inputs[m.focus].CursorEnd()
					return m, nil
				}
			}

			m.syncField(m.focus)

			next := m.focus + 1
			if s == "up" || s == "shift+tab" {
				next = m.focus - 1
			}
			if next > len(m.inputs) {
				next = 0
			} else if next < 0 {
				next = len(m.inputs)
			}
			return m, m.focusInput(next)
		}
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

// focusInput переводит фокус на поле i, len(inputs) означает кнопку сохранения
func (m *Model) focusInput(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for j := range m.inputs {
		if j == i {
			cmd = m.inputs[j].Focus()
			m.inputs[j].PromptStyle = focusedStyle
			m.inputs[j].TextStyle = focusedStyle
		} else {
			m.inputs[j].Blur()
			m.inputs[j].PromptStyle = blurredStyle
			m.inputs[j].TextStyle = blurredStyle
		}
	}
	return cmd
}

// syncField переносит значение поля ввода в форму
func (m *Model) syncField(i int) {
	if i < 0 || i >= len(m.inputs) {
		return
	}
	field := form.Fields[i]
	value := strings.TrimSpace(m.inputs[i].Value())

	switch field {
	case form.FieldAudio, form.FieldCover:
		if value == m.form.Get(field) {
			return
		}
		delete(m.fileErrs, field)
		delete(m.errs, field)
		if value == "" {
			if field == form.FieldAudio {
				m.form.ClearAudio()
			} else {
				m.form.ClearCover()
			}
			return
		}
		var err error
		if field == form.FieldAudio {
			err = m.form.SetAudio(value)
			m.refreshInputs()
		} else {
			err = m.form.SetCover(value)
		}
		if err != nil {
			m.fileErrs[field] = err.Error()
		}
	default:
		m.form.Set(field, m.inputs[i].Value())
	}
}

// refreshInputs подставляет значения, заполненные формой из тегов файла
func (m *Model) refreshInputs() {
	for i, field := range form.Fields {
		if field == form.FieldAudio || field == form.FieldCover {
			continue
		}
		if v := m.form.Get(field); v != m.inputs[i].Value() {
			m.inputs[i].SetValue(v)
		}
	}
}

func (m *Model) submit() tea.Cmd {
	for i := range m.inputs {
		m.syncField(i)
	}
	m.err = ""
	m.errs = nil

	upload, err := m.form.Submission()
	var verrs form.ValidationErrors
	if errors.As(err, &verrs) {
		m.errs = verrs
	} else if err != nil {
		m.err = err.Error()
		return nil
	}
	if len(m.fileErrs) > 0 {
		if m.errs == nil {
			m.errs = form.ValidationErrors{}
		}
		for f, msg := range m.fileErrs {
			m.errs[f] = msg
		}
	}
	if m.errs != nil {
		return nil
	}

	m.saving = true
	m.sent.Store(0)

	store, f, sent := m.store, m.form, m.sent
	save := func() tea.Msg {
		progress := func(n int64) { sent.Store(n) }
		var (
			t   *track.Track
			err error
		)
		if f.Mode == form.ModeEdit {
			t, err = store.Update(context.Background(), f.TrackID, upload, progress)
		} else {
			t, err = store.Create(context.Background(), upload, progress)
		}
		return savedMsg{track: t, err: err}
	}
	return tea.Batch(save, tickProgress())
}

func tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

// saveErrorText формирует сообщение об ошибке сохранения
func saveErrorText(err error) string {
	msg := library.MsgSaveFailed
	var opErr *library.OpError
	if errors.As(err, &opErr) {
		msg = opErr.Message
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return msg + ": " + apiErr.Message
	}
	return msg + ". Please try again."
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	title := "Новый трек"
	if m.form.Mode == form.ModeEdit {
		title = fmt.Sprintf("Редактирование трека #%d", m.form.TrackID)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	for i, field := range form.Fields {
		b.WriteString(labelStyle.Render(fieldLabels[field]))
		b.WriteString(" ")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
		msg, ok := m.fileErrs[field]
		if !ok {
			msg, ok = m.errs[field]
		}
		if ok {
			b.WriteString(fieldErrorStyle.Render(msg))
			b.WriteString("\n")
		} else if m.form.Mode == form.ModeEdit && field == form.FieldAudio && !m.form.HasAudio() && m.form.AudioURL != "" {
			b.WriteString(fieldErrorStyle.Foreground(lipgloss.Color("241")).Render("текущий: " + m.form.AudioURL))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	saveButton := "[ Сохранить ]"
	if m.focus == len(m.inputs) {
		saveButton = focusedStyle.Render(saveButton)
	} else {
		saveButton = blurredStyle.Render(saveButton)
	}
	b.WriteString(saveButton)
	b.WriteString("\n")

	if m.saving {
		b.WriteString(progressStyle.Render(fmt.Sprintf("⏳ Сохранение... отправлено %s", utils.FormatFileSize(m.sent.Load()))))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render("❌ " + m.err))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Tab/Enter: следующее поле • Shift+Tab: предыдущее • Ctrl+S: сохранить • Esc: отмена"))
	return b.String()
}
