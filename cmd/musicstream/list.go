package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand(ctx context.Context) *cobra.Command {
	var search, category, sortBy, order string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracks of the library",
		Long:  `Display tracks of the library filtered by title/artist and category and sorted by the chosen field.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			filters := track.DefaultFilters()
			filters.Search = search
			filters.Category = category

			var err error
			if filters.SortBy, err = track.ParseSortField(sortBy); err != nil {
				return err
			}
			if filters.SortOrder, err = track.ParseSortOrder(order); err != nil {
				return err
			}

			if err := app.Library.Load(ctx); err != nil {
				return err
			}
			app.printTracks(app.Library.Filter(filters), filters.HasActive())
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by title or artist")
	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by exact category")
	cmd.Flags().StringVar(&sortBy, "sort", string(track.SortByTitle), "sort field: title, artist, addedDate, duration")
	cmd.Flags().StringVar(&order, "order", string(track.Asc), "sort order: asc, desc")
	return cmd
}

// createSearchCommand создает команду search, выполняющую поиск на сервере
func (app *Application) createSearchCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search tracks on the server",
		Long:  `Search tracks by title or artist using the server-side search endpoint.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if err := app.Library.Search(ctx, query); err != nil {
				return err
			}
			fmt.Printf("🔎 Поиск: %s\n", query)
			app.printTracks(app.Library.Tracks(), true)
			return nil
		},
	}
}

// createCategoriesCommand создает команду categories
func (app *Application) createCategoriesCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories present in the library",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := app.Library.Load(ctx); err != nil {
				return err
			}

			categories := app.Library.Categories()
			if len(categories) == 0 {
				fmt.Println("🏷️  Категорий нет. Доступные категории:")
				categories = track.DefaultCategories
			} else {
				fmt.Printf("🏷️  Категорий: %d\n", len(categories))
			}
			for _, c := range categories {
				fmt.Printf("   %s\n", c)
			}
			return nil
		},
	}
}

// createStatsCommand создает команду stats
func (app *Application) createStatsCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := app.Library.Load(ctx); err != nil {
				return err
			}

			stats := app.Library.Stats(time.Now())
			fmt.Printf("📊 Статистика библиотеки:\n")
			fmt.Printf("   Треков: %d\n", stats.TotalTracks)
			fmt.Printf("   Минут: %.0f\n", stats.TotalMinutes)
			fmt.Printf("   Новых за неделю: %d\n", stats.NewTracks)
			return nil
		},
	}
}

func (app *Application) printTracks(tracks []track.Track, filtered bool) {
	if len(tracks) == 0 {
		if filtered {
			fmt.Println("📚 Ничего не найдено. Попробуйте изменить условия поиска.")
		} else {
			fmt.Println("📚 Библиотека пуста. Добавьте треки с помощью команды 'add'.")
		}
		return
	}

	fmt.Printf("📚 Найдено треков: %d\n\n", len(tracks))

	fmt.Printf("%-6s %-30s %-30s %-14s %-8s %-10s\n",
		"ID", "Исполнитель", "Название", "Категория", "Время", "Добавлен")
	fmt.Println(strings.Repeat("-", 104))

	for _, t := range tracks {
		added := "N/A"
		if t.AddedDate != nil {
			added = t.AddedDate.Format("2006-01-02")
		}

		fmt.Printf("%-6d %-30s %-30s %-14s %-8s %-10s\n",
			t.ID,
			utils.TruncateString(t.Artist, 28),
			utils.TruncateString(t.Title, 28),
			utils.TruncateString(t.Category, 12),
			utils.FormatTrackDuration(t.Duration),
			added)
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'musicstream play [ID]' для воспроизведения трека")
}
