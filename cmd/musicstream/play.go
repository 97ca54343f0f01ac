package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/hazadus/musicstream/internal/player"
	"github.com/hazadus/musicstream/internal/track"
	"github.com/hazadus/musicstream/internal/utils"
)

const (
	skipStep   = 10
	volumeStep = 0.1
	rateStep   = 0.25
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [trackid]",
		Short: "Play a track by its ID",
		Long:  `Play the audio file of a library track by its ID.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseTrackID(args[0])
			if err != nil {
				return err
			}
			return app.playByID(ctx, id)
		},
	}
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Без терминала управление с клавиатуры просто недоступно
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

func (app *Application) playByID(ctx context.Context, id int64) error {
	t, err := app.Library.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.AudioURL == "" {
		return fmt.Errorf("у трека с ID %d отсутствует аудиофайл", id)
	}

	enableRawMode()
	defer disableRawMode()

	return app.playTrack(ctx, t, os.Stdin)
}

// playTrack воспроизводит трек, читая команды управления из input
func (app *Application) playTrack(ctx context.Context, t *track.Track, input io.Reader) error {
	fmt.Printf("🎵 Сейчас играет:\n")
	fmt.Printf("   ID: %d\n", t.ID)
	fmt.Printf("   Исполнитель: %s\n", t.Artist)
	fmt.Printf("   Название: %s\n", t.Title)
	fmt.Printf("   Категория: %s\n", t.Category)
	if t.Duration > 0 {
		fmt.Printf("   Продолжительность: %s\n", utils.FormatTrackDuration(t.Duration))
	}
	fmt.Println()

	service := player.NewService(app.NewEngine(), app.Config.Volume, app.Log)
	defer service.Close()

	updates, unsubscribe := service.Subscribe()
	defer unsubscribe()

	fmt.Printf("🌐 Загружаем аудио...\n")
	if err := service.Play(ctx, t); err != nil {
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [←/→] - перемотка на %d секунд\n", skipStep)
	fmt.Printf("   [+/-] - громкость, [m] - без звука\n")
	fmt.Printf("   [ [ / ] ] - скорость воспроизведения\n")
	fmt.Printf("   [q] - остановить и выйти\n")
	fmt.Println()

	keys := make(chan string, 8)
	go readKeys(input, keys)

	var prev player.State
	for {
		select {
		case st := <-updates:
			// Событие ended сбрасывает позицию и снимает флаг воспроизведения
			if prev.IsPlaying && !st.IsPlaying && st.CurrentTime == 0 && prev.CurrentTime > 0 {
				fmt.Println("\n✅ Воспроизведение завершено")
				return nil
			}
			prev = st
			displayProgress(st)
		case key, ok := <-keys:
			if !ok {
				// Ввод закрыт, продолжаем играть до конца трека
				keys = nil
				continue
			}
			if key == "q" {
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				return nil
			}
			if err := handlePlayerKey(service, key); err != nil {
				fmt.Printf("\n❌ %v\n", err)
			}
		case <-ctx.Done():
			fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
			return nil
		}
	}
}

// readKeys читает нажатия клавиш, переводя escape-последовательности стрелок в "left" и "right"
func readKeys(input io.Reader, keys chan<- string) {
	defer close(keys)

	r := bufio.NewReader(input)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}

		key := string(rune(b))
		switch b {
		case ' ', '\n', '\r':
			key = " "
		case 0x1b:
			if next, err := r.ReadByte(); err != nil || next != '[' {
				continue
			}
			arrow, err := r.ReadByte()
			if err != nil {
				return
			}
			switch arrow {
			case 'C':
				key = "right"
			case 'D':
				key = "left"
			default:
				continue
			}
		}
		keys <- key
	}
}

// handlePlayerKey выполняет команду управления воспроизведением
func handlePlayerKey(service *player.Service, key string) error {
	st := service.State()

	switch key {
	case " ":
		return service.Toggle()
	case "left":
		service.Skip(-skipStep)
	case "right":
		service.Skip(skipStep)
	case "+", "=":
		service.SetVolume(st.Volume + volumeStep)
	case "-":
		service.SetVolume(st.Volume - volumeStep)
	case "m":
		service.ToggleMute()
	case "[":
		service.SetPlaybackRate(st.PlaybackRate - rateStep)
	case "]":
		service.SetPlaybackRate(st.PlaybackRate + rateStep)
	}
	return nil
}

// displayProgress отображает прогресс воспроизведения
func displayProgress(st player.State) {
	statusIcon := "▶️"
	if !st.IsPlaying {
		statusIcon = "⏸️"
	}

	volume := fmt.Sprintf("🔊 %.0f%%", st.Volume*100)
	if st.IsMuted {
		volume = "🔇"
	}

	fmt.Printf("\r\033[K%s  %.1f%% | %s / %s | %s | %gx",
		statusIcon,
		st.Progress()*100,
		player.FormatTime(st.CurrentTime),
		player.FormatTime(st.Duration),
		volume,
		st.PlaybackRate)
}
