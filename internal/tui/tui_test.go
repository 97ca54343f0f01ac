package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/musicstream/internal/library"
	"github.com/hazadus/musicstream/internal/logging"
	"github.com/hazadus/musicstream/internal/observable"
	"github.com/hazadus/musicstream/internal/player"
	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/tui/app"
)

type stubPlayer struct {
	state *observable.Value[player.State]
}

func (p *stubPlayer) Play(context.Context, *track.Track) error { return nil }
func (p *stubPlayer) Toggle() error                           { return nil }
func (p *stubPlayer) Skip(float64)                            {}
func (p *stubPlayer) SetVolume(float64)                       {}
func (p *stubPlayer) ToggleMute()                             {}
func (p *stubPlayer) SetPlaybackRate(float64)                 {}
func (p *stubPlayer) State() player.State                     { return p.state.Get() }
func (p *stubPlayer) Subscribe() (<-chan player.State, func()) {
	return p.state.Subscribe()
}

type stubClient struct{}

func (stubClient) List(context.Context) ([]track.Track, error) {
	return []track.Track{{ID: 1, Title: "Test Track", Artist: "Test Artist", Duration: 120}}, nil
}
func (stubClient) Search(context.Context, string) ([]track.Track, error) { return nil, nil }
func (stubClient) Get(context.Context, int64) (*track.Track, error) {
	return nil, errors.New("не используется")
}
func (stubClient) Create(context.Context, track.Upload, func(int64)) (*track.Track, error) {
	return nil, errors.New("не используется")
}
func (stubClient) Update(context.Context, int64, track.Upload, func(int64)) (*track.Track, error) {
	return nil, errors.New("не используется")
}
func (stubClient) Delete(context.Context, int64) error { return nil }

func TestAppModel(t *testing.T) {
	store := library.NewStore(stubClient{}, logging.Discard())
	tuiApp := NewApp(store, &stubPlayer{state: observable.New(player.InitialState())})

	model := tuiApp.Model()
	defer model.Close()

	if model.Screen() != app.LibraryScreen {
		t.Errorf("Ожидался экран каталога, получен %v", model.Screen())
	}

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if view := updated.View(); !strings.Contains(view, "⏹️") {
		t.Errorf("Ожидалась пустая панель плеера:\n%s", view)
	}
}
