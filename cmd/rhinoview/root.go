package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"rhinoview/internal/compute"
	"rhinoview/internal/config"
	"rhinoview/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "rhinoview",
	Short: "rhinoview drives a Grasshopper definition on RhinoCompute from the terminal",
	Long: `rhinoview evaluates a Grasshopper definition on a RhinoCompute server,
turns the returned geometry into a scene and draws it in the terminal.
Sliders feed the definition inputs; every change re-evaluates.`,
	SilenceUsage: true,
	RunE:         runView,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().String("url", "", "RhinoCompute base URL (overrides config and credentials)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
}

// loadConfig reads the config file and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("url"); v != "" {
		cfg.Compute.URL = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

// resolveCompute fills in the compute URL from the credential store or by
// prompting when neither config, environment nor flags set one.
func resolveCompute(cfg *config.Config) error {
	store, err := config.DefaultStore()
	if err != nil {
		store = nil
	}
	return config.ResolveCompute(&cfg.Compute, store, config.NewTermPrompter())
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

func newClient(cfg *config.Config, logger *slog.Logger) *compute.Client {
	opts := []compute.Option{compute.WithLogger(logger)}
	if cfg.Compute.Timeout > 0 {
		opts = append(opts, compute.WithTimeout(cfg.Compute.Timeout))
	}
	if cfg.Compute.APIKey != "" {
		opts = append(opts, compute.WithAPIKey(cfg.Compute.APIKey))
	}
	return compute.NewClient(cfg.Compute.URL, opts...)
}

// loadDefinition reads source locally or over HTTP. A name that is not a
// local file is sent as a pointer for the compute server to resolve.
func loadDefinition(ctx context.Context, source string, logger *slog.Logger) (*compute.Definition, error) {
	def, err := compute.LoadDefinition(ctx, nil, source)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("definition not found locally, sending as pointer", "source", source)
		return compute.PointerDefinition(source), nil
	}
	return def, err
}
