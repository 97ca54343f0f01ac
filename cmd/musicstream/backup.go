package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/musicstream/internal/backup"
	"github.com/hazadus/musicstream/internal/s3"
	"github.com/hazadus/musicstream/internal/streaming"
	"github.com/hazadus/musicstream/internal/utils"
)

// backupFlags параметры команды backup
type backupFlags struct {
	audio       bool
	list        bool
	keep        int
	concurrency int
}

// createBackupCommand создает команду backup
func (app *Application) createBackupCommand(ctx context.Context) *cobra.Command {
	var flags backupFlags

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the catalog to S3",
		Long: `Upload a YAML snapshot of the catalog to S3 storage and optionally
mirror the audio files of all tracks.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !app.Config.HasStorage() {
				return errors.New("хранилище S3 не настроено: укажите aws_bucket_name, aws_access_key и aws_secret_key")
			}

			storage, err := s3.New(s3.Config{
				Region:     app.Config.AwsRegion,
				AccessKey:  app.Config.AwsAccessKey,
				SecretKey:  app.Config.AwsSecretKey,
				Endpoint:   app.Config.AwsEndpoint,
				BucketName: app.Config.AwsBucketName,
			})
			if err != nil {
				return fmt.Errorf("ошибка создания S3 клиента: %w", err)
			}
			return app.runBackup(ctx, storage, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.audio, "audio", false, "mirror audio files too")
	cmd.Flags().BoolVar(&flags.list, "list", false, "list existing snapshots instead of creating one")
	cmd.Flags().IntVar(&flags.keep, "keep", 0, "keep only the N newest snapshots (0 keeps all)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 4, "parallel audio downloads")
	return cmd
}

func (app *Application) runBackup(ctx context.Context, store backup.Store, flags backupFlags) error {
	prefix := app.Config.BackupPrefix + "/"

	if flags.list {
		snapshots, err := backup.Snapshots(ctx, store, prefix)
		if err != nil {
			return fmt.Errorf("ошибка получения списка снимков: %w", err)
		}
		if len(snapshots) == 0 {
			fmt.Println("💾 Снимков пока нет")
			return nil
		}
		fmt.Printf("💾 Снимков: %d\n", len(snapshots))
		for _, s := range snapshots {
			fmt.Printf("   %s (%s)\n", s.Key, utils.FormatFileSize(s.Size))
		}
		return nil
	}

	if err := app.Library.Load(ctx); err != nil {
		return err
	}
	tracks := app.Library.Tracks()

	fmt.Printf("💾 Сохраняем каталог: %d треков\n", len(tracks))
	if flags.audio {
		fmt.Println("   Копируем аудиофайлы...")
	}

	result, err := backup.Run(ctx, store, tracks, backup.Options{
		Prefix:      app.Config.BackupPrefix,
		Source:      app.Config.APIURL,
		Audio:       flags.audio,
		Concurrency: flags.concurrency,
		Download:    streaming.Download,
		Logger:      app.Log,
	})
	if err != nil {
		return fmt.Errorf("ошибка резервного копирования: %w", err)
	}

	fmt.Printf("✅ Снимок сохранен: %s\n", result.SnapshotKey)
	fmt.Printf("   URL: %s\n", result.SnapshotURL)
	fmt.Printf("   Треков: %d | Аудиофайлов: %d | Объем: %s\n",
		result.Tracks, result.AudioFiles, utils.FormatFileSize(result.Bytes))

	if flags.keep > 0 {
		removed, err := backup.Prune(ctx, store, prefix, flags.keep)
		if err != nil {
			return fmt.Errorf("ошибка удаления старых снимков: %w", err)
		}
		if removed > 0 {
			fmt.Printf("🧹 Удалено старых объектов: %d\n", removed)
		}
	}
	return nil
}
