package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/utils"
)

// createShowCommand создает команду show
func (app *Application) createShowCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show track details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseTrackID(args[0])
			if err != nil {
				return err
			}

			t, err := app.Library.Get(ctx, id)
			if err != nil {
				return err
			}
			printTrack(t)
			return nil
		},
	}
}

func printTrack(t *track.Track) {
	fmt.Printf("🎵 %s - %s\n", t.Artist, t.Title)
	fmt.Printf("   ID: %d\n", t.ID)
	fmt.Printf("   Категория: %s\n", t.Category)
	fmt.Printf("   Продолжительность: %s\n", utils.FormatTrackDuration(t.Duration))
	if t.AddedDate != nil {
		fmt.Printf("   Добавлен: %s\n", t.AddedDate.Format("2006-01-02 15:04"))
	}
	if t.Description != "" {
		fmt.Printf("   Описание: %s\n", t.Description)
	}
	fmt.Printf("   Аудио: %s\n", t.AudioURL)
	if t.CoverURL != "" {
		fmt.Printf("   Обложка: %s\n", t.CoverURL)
	}
}
