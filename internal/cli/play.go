package cli

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sortplay/internal/audio"
	"sortplay/internal/lessons"
	"sortplay/internal/terminal"
	"sortplay/pkg/feedback"
)

const audioQueue = 8

var errNoLessons = errors.New("no lessons available")

func newPlayCmd(a *app) *cobra.Command {
	var (
		mute    bool
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "play [lesson]",
		Short: "Play a lesson in the terminal",
		Long:  "Play a lesson full-screen. Pick items with number keys or drag them with the mouse; drop them with a-l or by releasing over a target.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lesson, err := pickLesson(a.catalog, args)
			if err != nil {
				return err
			}
			cfg, err := lesson.Build(a.cfg.Timing.Delays())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%s: %w", lesson.ID, err)
			}

			// The screen owns the terminal, so logs go to a file or nowhere.
			log := zerolog.Nop()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				log = newLogger(f)
			}

			var sound feedback.Dispatcher
			if a.cfg.Audio.Enabled && !mute {
				player := audio.NewPlayer(log)
				if err := player.Init(); err != nil {
					log.Warn().Err(err).Msg("audio unavailable")
				} else {
					defer player.Close()
					queue := feedback.NewAsync(feedback.Guard(player, log), audioQueue)
					defer queue.Close()
					sound = queue
				}
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			fini := sync.OnceFunc(screen.Fini)
			defer fini()

			game, err := terminal.New(screen, cfg, terminal.Options{
				Title:    lesson.Title,
				Logger:   log.With().Str("lesson", lesson.ID).Logger(),
				Feedback: sound,
				Tick:     a.cfg.Timing.Tick,
			})
			if err != nil {
				return err
			}
			snap, err := game.Run(cmd.Context())
			fini()
			if err != nil {
				return err
			}

			result := "not finished"
			switch {
			case snap.Complete && snap.Success:
				result = "passed"
			case snap.Complete:
				result = "not passed"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: score %d, %s\n", lesson.Title, snap.Score, result)
			return err
		},
	}
	cmd.Flags().BoolVar(&mute, "mute", false, "disable sound for this game")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while playing")
	return cmd
}

// pickLesson returns the named lesson, or the first one listed when no name
// is given.
func pickLesson(catalog *lessons.Catalog, args []string) (lessons.Lesson, error) {
	if len(args) == 1 {
		return catalog.Get(args[0])
	}
	list := catalog.List()
	if len(list) == 0 {
		return lessons.Lesson{}, errNoLessons
	}
	return list[0], nil
}
