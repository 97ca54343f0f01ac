package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hazadus/musicstream/internal/player"
	"github.com/hazadus/musicstream/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand(_ context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch interactive terminal user interface for browsing, editing and playing tracks.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI()
		},
	}
}

func (app *Application) launchTUI() error {
	service := player.NewService(app.NewEngine(), app.Config.Volume, app.Log)
	defer service.Close()

	return tui.NewApp(app.Library, service).Run()
}
