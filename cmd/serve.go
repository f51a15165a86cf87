package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taxdeedflow/comps-cli/internal/server"
)

var (
	servePort int
	serveSave bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initEnv(ctx, "serve", true, serveSave)
		if err != nil {
			return err
		}
		defer env.Close()

		return server.New(env.Service, cfg.Server).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveSave, "save", true, "persist analyses and recommendations")
	rootCmd.AddCommand(serveCmd)
}
