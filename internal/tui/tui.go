// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/musicstream/internal/library"
	"github.com/hazadus/musicstream/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	store  *library.Store
	player app.Player
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(store *library.Store, player app.Player) *App {
	return &App{
		store:  store,
		player: player,
	}
}

// Model создает главную модель для Bubble Tea
func (tuiApp *App) Model() *app.MainModel {
	return app.NewMainModel(tuiApp.store, tuiApp.player)
}

// Run запускает TUI приложение
func (tuiApp *App) Run() error {
	model := tuiApp.Model()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()

	// Отписываемся от состояния после завершения программы
	model.Close()

	return err
}
