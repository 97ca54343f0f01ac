package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hazadus/musicstream/internal/form"
	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/utils"
)

// saveTimeout ограничивает время загрузки файлов на сервер
const saveTimeout = 10 * time.Minute

// formFlags флаги, соответствующие полям формы трека
type formFlags struct {
	title, artist, description, category, duration string
	audio, cover                                   string
}

func (f *formFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.title, "title", "", "track title")
	flags.StringVar(&f.artist, "artist", "", "track artist")
	flags.StringVar(&f.description, "description", "", "track description")
	flags.StringVar(&f.category, "category", "", "track category")
	flags.StringVar(&f.duration, "duration", "", "duration in seconds")
	flags.StringVar(&f.audio, "audio", "", "path to an audio file (.mp3, .wav, .ogg)")
	flags.StringVar(&f.cover, "cover", "", "path to a cover image (.jpg, .jpeg, .png, .gif, .webp)")
}

// apply переносит в форму только явно заданные флаги
func (f *formFlags) apply(flags *pflag.FlagSet, fm *form.Form) error {
	values := map[string]form.Field{
		"title":       form.FieldTitle,
		"artist":      form.FieldArtist,
		"description": form.FieldDescription,
		"category":    form.FieldCategory,
		"duration":    form.FieldDuration,
	}
	for name, field := range values {
		if flags.Changed(name) {
			value, _ := flags.GetString(name)
			fm.Set(field, value)
		}
	}

	if f.audio != "" {
		if err := fm.SetAudio(f.audio); err != nil {
			return fmt.Errorf("ошибка открытия аудиофайла: %w", err)
		}
	}
	if f.cover != "" {
		if err := fm.SetCover(f.cover); err != nil {
			return fmt.Errorf("ошибка открытия обложки: %w", err)
		}
	}
	return nil
}

// createAddCommand создает команду add с привязкой к экземпляру приложения
func (app *Application) createAddCommand(ctx context.Context) *cobra.Command {
	var flags formFlags

	cmd := &cobra.Command{
		Use:   "add [audio file]",
		Short: "Create a track from an audio file",
		Long: `Upload an audio file with track details. Empty title, artist and duration
are filled from the file tags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.audio = args[0]
			}

			fm := form.NewCreate()
			defer fm.Close()

			if err := flags.apply(cmd.Flags(), fm); err != nil {
				return err
			}
			return app.submitForm(ctx, fm)
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// createEditCommand создает команду edit
func (app *Application) createEditCommand(ctx context.Context) *cobra.Command {
	var flags formFlags

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit track details",
		Long:  `Update track details. Only the given flags are changed; files are replaced when provided.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTrackID(args[0])
			if err != nil {
				return err
			}

			t, err := app.Library.Get(ctx, id)
			if err != nil {
				return err
			}

			fm := form.NewEdit(*t)
			defer fm.Close()

			if err := flags.apply(cmd.Flags(), fm); err != nil {
				return err
			}
			return app.submitForm(ctx, fm)
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// submitForm проверяет форму и отправляет ее на сервер с отображением прогресса
func (app *Application) submitForm(ctx context.Context, fm *form.Form) error {
	upload, err := fm.Submission()
	var verrs form.ValidationErrors
	if errors.As(err, &verrs) {
		fmt.Println("❌ Форма заполнена с ошибками:")
		for _, field := range form.Fields {
			if msg, ok := verrs[field]; ok {
				fmt.Printf("   %s: %s\n", field, msg)
			}
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("ошибка подготовки формы: %w", err)
	}

	total := attachmentSize(upload.Audio) + attachmentSize(upload.Cover)
	if fm.Mode == form.ModeCreate {
		fmt.Printf("📤 Создаем трек: %s - %s\n", upload.Artist, upload.Title)
	} else {
		fmt.Printf("📤 Обновляем трек ID %d: %s - %s\n", fm.TrackID, upload.Artist, upload.Title)
	}
	if total > 0 {
		fmt.Printf("   Размер файлов: %s\n", utils.FormatFileSize(total))
	}

	saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	progress := func(sent int64) {
		if total > 0 {
			fmt.Printf("\r📊 Прогресс: %.1f%%", float64(min(sent, total))/float64(total)*100)
		}
	}

	var saved *track.Track
	if fm.Mode == form.ModeCreate {
		saved, err = app.Library.Create(saveCtx, upload, progress)
	} else {
		saved, err = app.Library.Update(saveCtx, fm.TrackID, upload, progress)
	}
	if total > 0 {
		fmt.Println()
	}
	if err != nil {
		return err
	}

	fmt.Printf("✅ Трек сохранен (ID %d)\n", saved.ID)
	return nil
}

func attachmentSize(a *track.Attachment) int64 {
	if a == nil {
		return 0
	}
	return a.Size
}
