// Package cli implements the sortplay command line.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sortplay/internal/config"
	"sortplay/internal/lessons"
)

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfgFile string
	cfg     config.Config
	catalog *lessons.Catalog
}

func newRootCmd() *cobra.Command {
	a := &app{}
	v := config.New()

	rootCmd := &cobra.Command{
		Use:           "sortplay",
		Short:         "Sorting and quick-answer games for young learners",
		Long:          "sortplay plays drag-and-drop lesson packs in the terminal or serves them to browsers and tablets.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			file := a.cfgFile
			if file == "" {
				file = os.Getenv("SORTPLAY_CONFIG")
			}
			cfg, err := config.Load(v, file)
			if err != nil {
				return err
			}
			a.cfg = cfg
			zerolog.SetGlobalLevel(cfg.Log.Level)

			catalog, err := lessons.Load(cfg.Lessons.Dir)
			if err != nil {
				return err
			}
			a.catalog = catalog
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./sortplay.toml, then ~/.config/sortplay/sortplay.toml)")
	flags.String("lessons", "", "directory of extra lesson packs")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag(config.KeyLessonsDir, flags.Lookup("lessons"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	rootCmd.AddCommand(
		newPlayCmd(a),
		newServeCmd(a, v),
		newLessonsCmd(a),
		newValidateCmd(),
	)

	return rootCmd
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
