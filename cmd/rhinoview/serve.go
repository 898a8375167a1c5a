package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rhinoview/internal/config"
	"rhinoview/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the /compute proxy server",
	Long: `Serves static files and a GET /compute endpoint that evaluates the
server definition with the query parameters mapped to its inputs and returns
the raw RhinoCompute JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			cfg.Server.Addr = v
		}
		if v, _ := cmd.Flags().GetString("static"); v != "" {
			cfg.Server.StaticDir = v
		}
		if v, _ := cmd.Flags().GetString("redis"); v != "" {
			cfg.Server.Redis.Addr = v
		}
		if v, _ := cmd.Flags().GetString("definition"); v != "" {
			cfg.Server.Definition = v
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		// no prompting: a server may not have a terminal
		store, _ := config.DefaultStore()
		if err := config.ResolveCompute(&cfg.Compute, store, nil); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		def, err := loadDefinition(ctx, cfg.Server.Definition, logger)
		if err != nil {
			return err
		}
		inputs := make([]server.Input, len(cfg.Server.Inputs))
		for i, in := range cfg.Server.Inputs {
			inputs[i] = server.Input{Query: in.Query, Param: in.Param}
		}

		opts := []server.Option{server.WithLogger(logger)}
		if dir := cfg.Server.StaticDir; dir != "" {
			if st, err := os.Stat(dir); err != nil || !st.IsDir() {
				logger.Warn("static directory not found, serving API only", "dir", dir)
			} else {
				opts = append(opts, server.WithStaticDir(dir))
			}
		}
		if r := cfg.Server.Redis; r.Addr != "" {
			cache := server.NewRedisCache(r.Addr, r.Password, r.DB, server.WithTTL(r.TTL))
			defer cache.Close()
			if err := cache.Ping(ctx); err != nil {
				return fmt.Errorf("redis %s: %w", r.Addr, err)
			}
			opts = append(opts, server.WithCache(cache))
			logger.Info("compute cache enabled", "redis", r.Addr, "ttl", r.TTL)
		}

		client := newClient(cfg, logger)
		srv := server.New(client, def, inputs, opts...)
		logger.Info("proxying", "compute", client.BaseURL(), "definition", def.Name)
		return server.Run(ctx, cfg.Server.Addr, srv.Handler(), logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default from config, :3000)")
	serveCmd.Flags().String("static", "", "directory of static files")
	serveCmd.Flags().String("redis", "", "redis address for the compute cache")
	serveCmd.Flags().String("definition", "", "definition evaluated by /compute")
}
