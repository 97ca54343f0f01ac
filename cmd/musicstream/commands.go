package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "musicstream",
		Short:        "Terminal client for a music library",
		Long:         `Browse, edit and play tracks of a music library served by a REST API.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(app.createListCommand(ctx))
	rootCmd.AddCommand(app.createSearchCommand(ctx))
	rootCmd.AddCommand(app.createShowCommand(ctx))
	rootCmd.AddCommand(app.createAddCommand(ctx))
	rootCmd.AddCommand(app.createEditCommand(ctx))
	rootCmd.AddCommand(app.createDeleteCommand(ctx))
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createDownloadCommand(ctx))
	rootCmd.AddCommand(app.createCategoriesCommand(ctx))
	rootCmd.AddCommand(app.createStatsCommand(ctx))
	rootCmd.AddCommand(app.createBackupCommand(ctx))
	rootCmd.AddCommand(app.createTUICommand(ctx))

	return rootCmd
}

// parseTrackID разбирает идентификатор трека из аргумента
func parseTrackID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("неверный ID '%s': ID должен быть положительным числом", arg)
	}
	return id, nil
}
