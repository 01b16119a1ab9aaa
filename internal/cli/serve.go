package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sortplay/internal/config"
	"sortplay/internal/server"
)

func newServeCmd(a *app, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lessons to browsers and tablets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := newLogger(cmd.ErrOrStderr())
			if a.cfg.File != "" {
				log.Info().Str("file", a.cfg.File).Msg("config loaded")
			}
			return server.Run(cmd.Context(), server.Options{
				Config:  a.cfg,
				Catalog: a.catalog,
				Logger:  log,
			})
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = v.BindPFlag(config.KeyServerAddr, cmd.Flags().Lookup("addr"))
	return cmd
}
