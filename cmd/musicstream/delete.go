package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// createDeleteCommand создает команду delete с привязкой к экземпляру приложения
func (app *Application) createDeleteCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a track by ID",
		Long:  `Delete a track from the library by its ID.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseTrackID(args[0])
			if err != nil {
				return err
			}
			return app.deleteTrack(ctx, id)
		},
	}
}

func (app *Application) deleteTrack(ctx context.Context, id int64) error {
	t, err := app.Library.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("🗑️  Удаляем трек: %s - %s\n", t.Artist, t.Title)

	if err := app.Library.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Println("✅ Трек успешно удален из библиотеки")
	return nil
}
