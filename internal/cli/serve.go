package cli

import (
	"github.com/spf13/cobra"

	"github.com/koustreak/datame/internal/server"
)

type serveOptions struct {
	addr       string
	maxRecords int
}

func registerServeCmd(parent *cobra.Command, env Env, global *globalOptions) {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve schema validation and generation over HTTP",
		Long: `Start an HTTP server with the routes

  GET  /healthz
  POST /v1/validate                              body: schema definition
  POST /v1/generate?format=json&records=10       body: schema definition`,
		Example: `  datame serve --addr :8080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig(env)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = opts.addr
			}
			if cmd.Flags().Changed("max-records") {
				cfg.Server.MaxRecords = opts.maxRecords
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := global.newLogger(cfg, env)
			srv := server.New(server.Options{MaxRecords: cfg.Server.MaxRecords, Log: log})
			return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "Listen address")
	cmd.Flags().IntVar(&opts.maxRecords, "max-records", server.DefaultMaxRecords, "Largest records value a request may ask for")

	parent.AddCommand(cmd)
}
