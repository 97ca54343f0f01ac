package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/musicstream/internal/api"
	"github.com/hazadus/musicstream/internal/library"
	"github.com/hazadus/musicstream/internal/logging"
	"github.com/hazadus/musicstream/internal/track"
)

// fakeClient запоминает отправленные формы
type fakeClient struct {
	created *track.Upload
	updated *track.Upload
	saveErr error
}

func (c *fakeClient) List(context.Context) ([]track.Track, error) { return nil, nil }
func (c *fakeClient) Search(context.Context, string) ([]track.Track, error) {
	return nil, nil
}
func (c *fakeClient) Get(context.Context, int64) (*track.Track, error) { return nil, nil }
func (c *fakeClient) Delete(context.Context, int64) error              { return nil }

func (c *fakeClient) Create(_ context.Context, u track.Upload, _ func(int64)) (*track.Track, error) {
	if c.saveErr != nil {
		return nil, c.saveErr
	}
	c.created = &u
	return &track.Track{ID: 10, Title: u.Title}, nil
}

func (c *fakeClient) Update(_ context.Context, id int64, u track.Upload, _ func(int64)) (*track.Track, error) {
	if c.saveErr != nil {
		return nil, c.saveErr
	}
	c.updated = &u
	return &track.Track{ID: id, Title: u.Title}, nil
}

func typeText(m *Model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

// runSave выполняет команду сохранения и возвращает итоговое сообщение
func runSave(t *testing.T, m *Model, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("Ожидалась команда сохранения")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) == 0 {
		t.Fatal("Ожидалась пачка команд")
	}
	_, next := m.Update(batch[0]())
	if next == nil {
		return nil
	}
	return next()
}

func TestCreateValidation(t *testing.T) {
	store := library.NewStore(&fakeClient{}, logging.Discard())
	m := NewCreate(store)
	defer m.Close()

	if cmd := press(m, tea.KeyCtrlS); cmd != nil {
		t.Error("Пустая форма не должна отправляться")
	}
	view := m.View()
	for _, want := range []string{"Title is required", "Artist is required", "Category is required", "Audio file is required"} {
		if !strings.Contains(view, want) {
			t.Errorf("Ожидалась ошибка %q", want)
		}
	}

	typeText(m, "So What")
	press(m, tea.KeyCtrlS)
	if strings.Contains(m.View(), "Title is required") {
		t.Error("Исправленное поле не должно показывать ошибку")
	}
}

func TestCreateSubmits(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "so-what.mp3")
	if err := os.WriteFile(audio, []byte("ID3"), 0644); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}

	client := &fakeClient{}
	m := NewCreate(library.NewStore(client, logging.Discard()))
	defer m.Close()

	values := []string{"So What", "Miles Davis", "", "Jazz", "562", audio, ""}
	for i, v := range values {
		if v != "" {
			typeText(m, v)
		}
		if i < len(values)-1 {
			m.Update(tea.KeyMsg{Type: tea.KeyDown})
		}
	}

	msg := runSave(t, m, press(m, tea.KeyCtrlS))
	saved, ok := msg.(TrackSavedMsg)
	if !ok {
		t.Fatalf("Ожидалось TrackSavedMsg, получено %#v; экран:\n%s", msg, m.View())
	}
	if saved.Track.ID != 10 {
		t.Errorf("Ожидался трек 10, получен %d", saved.Track.ID)
	}
	if client.created == nil || client.created.Duration != 562 || client.created.Audio == nil {
		t.Fatalf("Неожиданные отправленные данные: %+v", client.created)
	}
	if client.created.Audio.Name != "so-what.mp3" {
		t.Errorf("Неожиданное имя файла: %s", client.created.Audio.Name)
	}
	if m.Form().HasAudio() {
		t.Error("После сохранения файлы должны быть освобождены")
	}
}

func TestEditWithoutFiles(t *testing.T) {
	client := &fakeClient{}
	m := NewEdit(library.NewStore(client, logging.Discard()), track.Track{
		ID: 4, Title: "Blue in Green", Artist: "Miles Davis", Category: "Jazz", Duration: 337,
		AudioURL: "http://localhost:8080/uploads/audio/blue.mp3",
	})
	defer m.Close()

	if !strings.Contains(m.View(), "Редактирование трека #4") {
		t.Error("Ожидался заголовок редактирования")
	}
	if !strings.Contains(m.View(), "текущий: http://localhost:8080/uploads/audio/blue.mp3") {
		t.Error("Ожидался адрес текущего аудиофайла")
	}

	msg := runSave(t, m, press(m, tea.KeyCtrlS))
	if _, ok := msg.(TrackSavedMsg); !ok {
		t.Fatalf("Ожидалось TrackSavedMsg, получено %#v", msg)
	}
	if client.updated == nil || client.updated.Title != "Blue in Green" || client.updated.Audio != nil {
		t.Errorf("Неожиданные отправленные данные: %+v", client.updated)
	}
}

func TestSaveErrorShowsServerMessage(t *testing.T) {
	client := &fakeClient{saveErr: &api.APIError{Status: 400, Message: "Audio file is required"}}
	m := NewEdit(library.NewStore(client, logging.Discard()), track.Track{ID: 4, Title: "T", Artist: "A", Category: "Pop", Duration: 1})
	defer m.Close()

	if msg := runSave(t, m, press(m, tea.KeyCtrlS)); msg != nil {
		t.Errorf("При ошибке экран не должен закрываться, получено %#v", msg)
	}
	if !strings.Contains(m.View(), "Failed to save track: Audio file is required") {
		t.Errorf("Ожидалось сообщение сервера:\n%s", m.View())
	}
}

func TestMissingFileError(t *testing.T) {
	m := NewCreate(library.NewStore(&fakeClient{}, logging.Discard()))
	defer m.Close()

	for i := 0; i < 5; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	typeText(m, "/non/existent.mp3")
	m.Update(tea.KeyMsg{Type: tea.KeyDown})

	if !strings.Contains(m.View(), "ошибка открытия файла") {
		t.Errorf("Ожидалась ошибка открытия файла:\n%s", m.View())
	}
}

func TestSaveErrorText(t *testing.T) {
	err := &library.OpError{Message: library.MsgSaveFailed, Err: errors.New("connection refused")}
	if got := saveErrorText(err); got != "Failed to save track. Please try again." {
		t.Errorf("Неожиданный текст: %s", got)
	}
}

func TestEscGoesBack(t *testing.T) {
	m := NewCreate(library.NewStore(&fakeClient{}, logging.Discard()))
	if _, ok := press(m, tea.KeyEsc)().(GoBackMsg); !ok {
		t.Error("Esc должен возвращать назад")
	}
}
